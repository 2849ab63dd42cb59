package squeak

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	model "github.com/squeakview/backend/internal/model/squeak"
	"github.com/squeakview/backend/internal/node"
	"github.com/squeakview/backend/internal/service/thread"
)

type fakeNode struct {
	squeaks   map[string]model.Squeak
	ancestors map[string][]model.Squeak
	liked     map[string]bool
}

func (f *fakeNode) SqueakByHash(_ context.Context, hash string) (model.Squeak, error) {
	item, ok := f.squeaks[hash]
	if !ok {
		return model.Squeak{}, node.ErrNotFound
	}
	item.Liked = f.liked[hash]
	return item, nil
}

func (f *fakeNode) Ancestors(_ context.Context, hash string) ([]model.Squeak, error) {
	return f.ancestors[hash], nil
}

func (f *fakeNode) Replies(_ context.Context, hash string) ([]model.Squeak, error) {
	if _, ok := f.squeaks[hash]; !ok {
		return nil, node.ErrNotFound
	}
	return nil, nil
}

func (f *fakeNode) Like(_ context.Context, hash string) error {
	if _, ok := f.squeaks[hash]; !ok {
		return node.ErrNotFound
	}
	f.liked[hash] = true
	return nil
}

func (f *fakeNode) Unlike(_ context.Context, hash string) error {
	if _, ok := f.squeaks[hash]; !ok {
		return node.ErrNotFound
	}
	f.liked[hash] = false
	return nil
}

func (f *fakeNode) ProfileByAddress(_ context.Context, address string) (model.Profile, error) {
	if address != "addr1" {
		return model.Profile{}, node.ErrNotFound
	}
	return model.Profile{Address: address, Name: "alice"}, nil
}

func setupRouter() (*chi.Mux, *thread.Service, *fakeNode) {
	fake := &fakeNode{
		squeaks: map[string]model.Squeak{
			"1": {Hash: "1", ReplyTo: "ab", Content: "root"},
			"2": {Hash: "2", ReplyTo: "1", Content: "middle"},
			"3": {Hash: "3", ReplyTo: "2", Content: "focal"},
		},
		ancestors: map[string][]model.Squeak{
			"3": {
				{Hash: "1", ReplyTo: "ab", Content: "root"},
				{Hash: "2", ReplyTo: "1", Content: "middle"},
				{Hash: "3", ReplyTo: "2", Content: "focal"},
			},
		},
		liked: map[string]bool{},
	}
	views := thread.NewService(fake, "testnet")
	handler := New(views, fake, "testnet")

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, views, fake
}

func openView(t *testing.T, r *chi.Mux, hash string) thread.ViewState {
	t.Helper()
	payload, _ := json.Marshal(map[string]string{"squeakHash": hash})

	req := httptest.NewRequest(http.MethodPost, "/views", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var state thread.ViewState
	if err := json.Unmarshal(resp.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode view state: %v", err)
	}
	return state
}

func TestOpenViewReturnsTimeline(t *testing.T) {
	r, _, _ := setupRouter()

	state := openView(t, r, "3")
	if state.Focal.Hash != "3" {
		t.Fatalf("expected focal 3, got %s", state.Focal.Hash)
	}
	if len(state.Timeline) != 3 {
		t.Fatalf("expected 3 timeline nodes, got %d", len(state.Timeline))
	}
	if state.Timeline[0].Kind != model.KindPlaceholder {
		t.Fatalf("expected leading placeholder, got %s", state.Timeline[0].Kind)
	}
	if state.Network != "testnet" {
		t.Fatalf("unexpected network: %s", state.Network)
	}
}

func TestOpenViewMissingHash(t *testing.T) {
	r, _, _ := setupRouter()
	payload := []byte(`{}`)

	req := httptest.NewRequest(http.MethodPost, "/views", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestGetViewNotFound(t *testing.T) {
	r, _, _ := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/views/missing", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestRefreshItemUpdatesView(t *testing.T) {
	r, _, fake := setupRouter()
	state := openView(t, r, "3")

	fake.squeaks["2"] = model.Squeak{Hash: "2", ReplyTo: "1", Content: "middle v2"}

	req := httptest.NewRequest(http.MethodPost, "/views/"+state.ID+"/refresh/2", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var refreshed thread.ViewState
	if err := json.Unmarshal(resp.Body.Bytes(), &refreshed); err != nil {
		t.Fatalf("decode refreshed state: %v", err)
	}
	if refreshed.Timeline[2].Item.Content != "middle v2" {
		t.Fatalf("expected refreshed item, got %+v", refreshed.Timeline[2].Item)
	}
}

func TestLikeRefreshesOpenViews(t *testing.T) {
	r, views, _ := setupRouter()
	state := openView(t, r, "3")

	req := httptest.NewRequest(http.MethodPost, "/squeaks/2/like", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", resp.Code, resp.Body.String())
	}

	after, err := views.View(state.ID)
	if err != nil {
		t.Fatalf("View err: %v", err)
	}
	if !after.Timeline[2].Item.Liked {
		t.Fatalf("expected liked item in view, got %+v", after.Timeline[2].Item)
	}
}

func TestLikeUnknownSqueak(t *testing.T) {
	r, _, _ := setupRouter()

	req := httptest.NewRequest(http.MethodPost, "/squeaks/nope/like", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestCloseView(t *testing.T) {
	r, views, _ := setupRouter()
	state := openView(t, r, "3")

	req := httptest.NewRequest(http.MethodDelete, "/views/"+state.ID, nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
	if _, err := views.View(state.ID); !errors.Is(err, thread.ErrViewNotFound) {
		t.Fatalf("expected view gone, got %v", err)
	}
}

func TestGetNetwork(t *testing.T) {
	r, _, _ := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/network", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["network"] != "testnet" {
		t.Fatalf("unexpected network: %s", body["network"])
	}
}

func TestGetProfile(t *testing.T) {
	r, _, _ := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/profiles/addr1", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var profile model.Profile
	if err := json.Unmarshal(resp.Body.Bytes(), &profile); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if profile.Name != "alice" {
		t.Fatalf("unexpected profile: %+v", profile)
	}
}
