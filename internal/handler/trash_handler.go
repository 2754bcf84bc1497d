package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"go-resell-backoffice/internal/service"
)

type TrashHandler struct {
	service *service.TrashService
}

func NewTrashHandler(service *service.TrashService) *TrashHandler {
	return &TrashHandler{service: service}
}

// List handles GET /trash?table=<origin|all>.
func (h *TrashHandler) List(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.List(r.Context(), strings.TrimSpace(r.URL.Query().Get("table")))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, data, nil)
}

func (h *TrashHandler) Origins(w http.ResponseWriter, _ *http.Request) {
	writeSuccess(w, http.StatusOK, h.service.Origins(), nil)
}

func (h *TrashHandler) Restore(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Restore(r.Context(), chi.URLParam(r, "id"), actorFromRequest(r))
	if err != nil {
		writeMutationError(w, service.ActionRestore, err)
		return
	}

	writeMutation(w, http.StatusOK, result, result.Notification)
}

func (h *TrashHandler) PurgeOne(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.PurgeOne(r.Context(), chi.URLParam(r, "id"), actorFromRequest(r))
	if err != nil {
		writeMutationError(w, service.ActionPurge, err)
		return
	}

	writeMutation(w, http.StatusOK, result, result.Notification)
}

// PurgeAll handles DELETE /trash?table=<origin|all>. A missing table
// parameter empties the whole trash.
func (h *TrashHandler) PurgeAll(w http.ResponseWriter, r *http.Request) {
	filter := strings.TrimSpace(r.URL.Query().Get("table"))
	if filter == "" {
		filter = service.FilterAll
	}

	result, err := h.service.PurgeAll(r.Context(), filter, actorFromRequest(r))
	if err != nil {
		writeMutationError(w, service.ActionEmpty, err)
		return
	}

	writeMutation(w, http.StatusOK, result, result.Notification)
}
