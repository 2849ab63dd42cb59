package thread

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/squeakview/backend/internal/model/squeak"
	"github.com/squeakview/backend/internal/service/timeline"
)

var (
	ErrHashRequired = errors.New("squeak hash is required")
	ErrViewNotFound = errors.New("view not found")
)

// NodeClient is the slice of the backing node the view registry needs.
type NodeClient interface {
	SqueakByHash(ctx context.Context, hash string) (squeak.Squeak, error)
	Ancestors(ctx context.Context, hash string) ([]squeak.Squeak, error)
}

// ViewState is a point-in-time snapshot of one open thread view: the focal
// squeak plus its derived ancestor timeline.
type ViewState struct {
	ID       string              `json:"id"`
	Network  string              `json:"network"`
	Focal    squeak.Squeak       `json:"focal"`
	Timeline []squeak.RenderNode `json:"timeline"`
}

// Update is delivered to subscribers after a refresh has been applied.
type Update struct {
	ViewID   string              `json:"viewId"`
	Hash     string              `json:"hash"`
	Focal    squeak.Squeak       `json:"focal"`
	Timeline []squeak.RenderNode `json:"timeline"`
}

type view struct {
	id    string
	chain []squeak.Squeak
	subs  map[string]chan Update
}

// Service owns the open thread views. Each view holds its reply chain as an
// immutable value: refreshes install a replacement chain under the write
// lock, so readers never observe a partially updated element.
type Service struct {
	mu      sync.RWMutex
	node    NodeClient
	network string
	views   map[string]*view
}

// NewService builds the in-memory view registry. network is the opaque
// display context echoed on every snapshot; the service never interprets it.
func NewService(node NodeClient, network string) *Service {
	return &Service{
		node:    node,
		network: network,
		views:   make(map[string]*view),
	}
}

// Open loads the reply chain for a focal squeak and registers a view over
// it. The node returns ancestors oldest first with the focal squeak last; a
// node that knows no ancestors yields a single-element chain.
func (s *Service) Open(ctx context.Context, focalHash string) (ViewState, error) {
	if focalHash == "" {
		return ViewState{}, ErrHashRequired
	}

	chain, err := s.node.Ancestors(ctx, focalHash)
	if err != nil {
		return ViewState{}, err
	}
	if len(chain) == 0 {
		focal, err := s.node.SqueakByHash(ctx, focalHash)
		if err != nil {
			return ViewState{}, err
		}
		chain = []squeak.Squeak{focal}
	}

	v := &view{
		id:    uuid.NewString(),
		chain: chain,
		subs:  make(map[string]chan Update),
	}

	s.mu.Lock()
	s.views[v.id] = v
	state := s.snapshot(v)
	s.mu.Unlock()

	return state, nil
}

// View returns the current snapshot for an open view.
func (s *Service) View(viewID string) (ViewState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.views[viewID]
	if !ok {
		return ViewState{}, ErrViewNotFound
	}
	return s.snapshot(v), nil
}

// RefreshItem re-fetches one squeak and swaps it into the view's chain by
// hash. The fetch runs outside the lock; the replacement is applied against
// whatever chain is current at completion time, so overlapping refreshes of
// the same hash resolve last-write-wins. A hash no longer present in the
// chain makes the refresh a silent no-op.
func (s *Service) RefreshItem(ctx context.Context, viewID, hash string) (ViewState, error) {
	if hash == "" {
		return ViewState{}, ErrHashRequired
	}

	s.mu.RLock()
	_, ok := s.views[viewID]
	s.mu.RUnlock()
	if !ok {
		return ViewState{}, ErrViewNotFound
	}

	item, err := s.node.SqueakByHash(ctx, hash)
	if err != nil {
		return ViewState{}, err
	}

	s.mu.Lock()
	v, ok := s.views[viewID]
	if !ok {
		// View closed while the fetch was in flight.
		s.mu.Unlock()
		return ViewState{}, ErrViewNotFound
	}
	v.chain = timeline.Replace(v.chain, hash, item)
	state := s.snapshot(v)
	notifyLocked(v, Update{
		ViewID:   state.ID,
		Hash:     hash,
		Focal:    state.Focal,
		Timeline: state.Timeline,
	})
	s.mu.Unlock()

	return state, nil
}

// RefreshEverywhere applies a node-side update for one squeak to every open
// view whose chain contains it. Views without the hash are untouched.
func (s *Service) RefreshEverywhere(ctx context.Context, hash string) error {
	if hash == "" {
		return ErrHashRequired
	}

	s.mu.RLock()
	ids := make([]string, 0, len(s.views))
	for id, v := range s.views {
		if chainContains(v.chain, hash) {
			ids = append(ids, id)
		}
	}
	s.mu.RUnlock()

	if len(ids) == 0 {
		return nil
	}

	item, err := s.node.SqueakByHash(ctx, hash)
	if err != nil {
		return err
	}

	for _, id := range ids {
		s.mu.Lock()
		v, ok := s.views[id]
		if !ok {
			s.mu.Unlock()
			continue
		}
		v.chain = timeline.Replace(v.chain, hash, item)
		state := s.snapshot(v)
		notifyLocked(v, Update{
			ViewID:   state.ID,
			Hash:     hash,
			Focal:    state.Focal,
			Timeline: state.Timeline,
		})
		s.mu.Unlock()
	}
	return nil
}

// Subscribe registers an update channel on a view. The returned cancel
// function removes the subscription and closes the channel.
func (s *Service) Subscribe(viewID string) (<-chan Update, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.views[viewID]
	if !ok {
		return nil, nil, ErrViewNotFound
	}

	subID := uuid.NewString()
	ch := make(chan Update, 8)
	v.subs[subID] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if v, ok := s.views[viewID]; ok {
			if ch, ok := v.subs[subID]; ok {
				delete(v.subs, subID)
				close(ch)
			}
		}
	}
	return ch, cancel, nil
}

// Close drops a view and closes its subscriber channels.
func (s *Service) Close(viewID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.views[viewID]
	if !ok {
		return ErrViewNotFound
	}
	for _, ch := range v.subs {
		close(ch)
	}
	delete(s.views, viewID)
	return nil
}

// snapshot derives the caller-facing state from a view. Callers must hold
// at least the read lock.
func (s *Service) snapshot(v *view) ViewState {
	return ViewState{
		ID:       v.id,
		Network:  s.network,
		Focal:    v.chain[len(v.chain)-1],
		Timeline: timeline.Build(v.chain),
	}
}

// notifyLocked delivers without blocking; a subscriber that has fallen
// behind misses intermediate updates but always has a fresher snapshot
// coming. Callers must hold the write lock so sends never race a close.
func notifyLocked(v *view, update Update) {
	for _, ch := range v.subs {
		select {
		case ch <- update:
		default:
		}
	}
}

func chainContains(chain []squeak.Squeak, hash string) bool {
	for i := range chain {
		if chain[i].Hash == hash {
			return true
		}
	}
	return false
}
