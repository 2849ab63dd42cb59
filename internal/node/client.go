package node

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/squeakview/backend/internal/model/squeak"
)

var ErrNotFound = errors.New("not found on node")

// Client talks to the backing squeaknode's admin API. Every call carries at
// most one result, is idempotent per hash, and enforces the configured
// timeout through the underlying HTTP client.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// NewClient builds a node client for the given base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: timeout},
	}
}

type hashRequest struct {
	SqueakHash string `json:"squeakHash"`
}

type addressRequest struct {
	Address string `json:"address"`
}

type squeakReply struct {
	SqueakDisplay squeak.Squeak `json:"squeakDisplay"`
}

type squeakListReply struct {
	SqueakDisplays []squeak.Squeak `json:"squeakDisplays"`
}

type profileReply struct {
	SqueakProfile squeak.Profile `json:"squeakProfile"`
}

type networkReply struct {
	Network string `json:"network"`
}

// SqueakByHash fetches a single squeak display.
func (c *Client) SqueakByHash(ctx context.Context, hash string) (squeak.Squeak, error) {
	var reply squeakReply
	if err := c.post(ctx, "/getsqueakdisplay", hashRequest{SqueakHash: hash}, &reply); err != nil {
		return squeak.Squeak{}, err
	}
	return reply.SqueakDisplay, nil
}

// Ancestors fetches the reply chain for a squeak, oldest ancestor first,
// the squeak itself last.
func (c *Client) Ancestors(ctx context.Context, hash string) ([]squeak.Squeak, error) {
	var reply squeakListReply
	if err := c.post(ctx, "/getancestorsqueakdisplays", hashRequest{SqueakHash: hash}, &reply); err != nil {
		return nil, err
	}
	return reply.SqueakDisplays, nil
}

// Replies fetches the direct replies to a squeak.
func (c *Client) Replies(ctx context.Context, hash string) ([]squeak.Squeak, error) {
	var reply squeakListReply
	if err := c.post(ctx, "/getreplysqueakdisplays", hashRequest{SqueakHash: hash}, &reply); err != nil {
		return nil, err
	}
	return reply.SqueakDisplays, nil
}

// Like marks a squeak liked on the node.
func (c *Client) Like(ctx context.Context, hash string) error {
	return c.post(ctx, "/likesqueak", hashRequest{SqueakHash: hash}, nil)
}

// Unlike removes a like on the node.
func (c *Client) Unlike(ctx context.Context, hash string) error {
	return c.post(ctx, "/unlikesqueak", hashRequest{SqueakHash: hash}, nil)
}

// ProfileByAddress fetches the author profile for an address.
func (c *Client) ProfileByAddress(ctx context.Context, address string) (squeak.Profile, error) {
	var reply profileReply
	if err := c.post(ctx, "/getsqueakprofilebyaddress", addressRequest{Address: address}, &reply); err != nil {
		return squeak.Profile{}, err
	}
	return reply.SqueakProfile, nil
}

// Network reports which logical network the node serves. The value is
// opaque display context and never interpreted.
func (c *Client) Network(ctx context.Context) (string, error) {
	var reply networkReply
	if err := c.post(ctx, "/getnetwork", struct{}{}, &reply); err != nil {
		return "", err
	}
	return reply.Network, nil
}

func (c *Client) post(ctx context.Context, route string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", route, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+route, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", route, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", route, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", route, ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%s: node returned status %d", route, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s reply: %w", route, err)
	}
	return nil
}
