package stream

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/squeakview/backend/internal/service/thread"
	"github.com/squeakview/backend/pkg/utils"
)

const heartbeatInterval = 8 * time.Second

// Handler streams thread view updates to the frontend over SSE.
type Handler struct {
	views *thread.Service
}

// New creates the stream handler.
func New(views *thread.Service) *Handler {
	return &Handler{views: views}
}

// RegisterRoutes registers the SSE route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/views/{viewID}/stream", h.handleStream)
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	viewID := chi.URLParam(r, "viewID")
	state, err := h.views.View(viewID)
	if err != nil {
		if errors.Is(err, thread.ErrViewNotFound) {
			utils.RespondError(w, http.StatusNotFound, err.Error())
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	updates, cancel, err := h.views.Subscribe(viewID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}
	defer cancel()

	utils.SetupSSEHeaders(w)
	log.Printf("[sse] opening update stream for view=%s", viewID)

	// The client starts from the current snapshot; every applied refresh
	// follows as its own event.
	utils.SendSSEEvent(w, flusher, "snapshot", state)

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			log.Printf("[sse] closing update stream for view=%s", viewID)
			return
		case update, ok := <-updates:
			if !ok {
				// View closed out from under the stream.
				log.Printf("[sse] view %s closed, ending stream", viewID)
				return
			}
			utils.SendSSEEvent(w, flusher, "update", update)
		case <-ticker.C:
			utils.SendSSEEvent(w, flusher, "heartbeat", map[string]string{
				"time": time.Now().UTC().Format(time.RFC3339),
			})
		}
	}
}
