package squeak

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	model "github.com/squeakview/backend/internal/model/squeak"
	"github.com/squeakview/backend/internal/node"
	"github.com/squeakview/backend/internal/service/thread"
	"github.com/squeakview/backend/pkg/utils"
)

// NodeAPI is the slice of the node client the squeak handler calls directly.
type NodeAPI interface {
	SqueakByHash(ctx context.Context, hash string) (model.Squeak, error)
	Replies(ctx context.Context, hash string) ([]model.Squeak, error)
	Like(ctx context.Context, hash string) error
	Unlike(ctx context.Context, hash string) error
	ProfileByAddress(ctx context.Context, address string) (model.Profile, error)
}

// Handler serves thread views and squeak passthrough routes.
type Handler struct {
	views   *thread.Service
	node    NodeAPI
	network string
}

// New creates the squeak handler.
func New(views *thread.Service, nodeAPI NodeAPI, network string) *Handler {
	return &Handler{
		views:   views,
		node:    nodeAPI,
		network: network,
	}
}

// RegisterRoutes registers view and squeak routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/views", h.handleOpenView)
	r.Get("/views/{viewID}", h.handleGetView)
	r.Delete("/views/{viewID}", h.handleCloseView)
	r.Post("/views/{viewID}/refresh/{hash}", h.handleRefreshItem)

	r.Get("/squeaks/{hash}", h.handleGetSqueak)
	r.Get("/squeaks/{hash}/replies", h.handleGetReplies)
	r.Post("/squeaks/{hash}/like", h.handleLike)
	r.Post("/squeaks/{hash}/unlike", h.handleUnlike)

	r.Get("/profiles/{address}", h.handleGetProfile)
	r.Get("/network", h.handleGetNetwork)
}

func (h *Handler) handleOpenView(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SqueakHash string `json:"squeakHash"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.SqueakHash == "" {
		utils.RespondError(w, http.StatusBadRequest, "squeakHash is required")
		return
	}

	state, err := h.views.Open(r.Context(), payload.SqueakHash)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, state)
}

func (h *Handler) handleGetView(w http.ResponseWriter, r *http.Request) {
	state, err := h.views.View(chi.URLParam(r, "viewID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, state)
}

func (h *Handler) handleCloseView(w http.ResponseWriter, r *http.Request) {
	if err := h.views.Close(chi.URLParam(r, "viewID")); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRefreshItem(w http.ResponseWriter, r *http.Request) {
	state, err := h.views.RefreshItem(r.Context(), chi.URLParam(r, "viewID"), chi.URLParam(r, "hash"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, state)
}

func (h *Handler) handleGetSqueak(w http.ResponseWriter, r *http.Request) {
	item, err := h.node.SqueakByHash(r.Context(), chi.URLParam(r, "hash"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, item)
}

func (h *Handler) handleGetReplies(w http.ResponseWriter, r *http.Request) {
	replies, err := h.node.Replies(r.Context(), chi.URLParam(r, "hash"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if replies == nil {
		replies = []model.Squeak{}
	}
	utils.RespondJSON(w, http.StatusOK, replies)
}

// handleLike proxies the like to the node, then refreshes the liked squeak
// in every open view so timelines pick up the new state.
func (h *Handler) handleLike(w http.ResponseWriter, r *http.Request) {
	h.mutateAndRefresh(w, r, h.node.Like)
}

func (h *Handler) handleUnlike(w http.ResponseWriter, r *http.Request) {
	h.mutateAndRefresh(w, r, h.node.Unlike)
}

func (h *Handler) mutateAndRefresh(w http.ResponseWriter, r *http.Request, mutate func(context.Context, string) error) {
	hash := chi.URLParam(r, "hash")
	if err := mutate(r.Context(), hash); err != nil {
		respondServiceError(w, err)
		return
	}
	if err := h.views.RefreshEverywhere(r.Context(), hash); err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusAccepted, map[string]string{"status": "applied"})
}

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.node.ProfileByAddress(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, profile)
}

func (h *Handler) handleGetNetwork(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]string{"network": h.network})
}

func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, thread.ErrViewNotFound), errors.Is(err, node.ErrNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, thread.ErrHashRequired):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	default:
		utils.RespondError(w, http.StatusBadGateway, err.Error())
	}
}
