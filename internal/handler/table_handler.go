package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-resell-backoffice/internal/model"
	"go-resell-backoffice/internal/service"
)

// TableHandler serves the entity tables. Deleting a row moves it to the
// trash.
type TableHandler struct {
	entities *service.EntityService
	trash    *service.TrashService
}

func NewTableHandler(entities *service.EntityService, trash *service.TrashService) *TableHandler {
	return &TableHandler{entities: entities, trash: trash}
}

func (h *TableHandler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.entities.List(r.Context(), chi.URLParam(r, "table"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, rows, nil)
}

func (h *TableHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload model.CreateRowRequest
	if !decodeBody(w, r, &payload) {
		return
	}

	result, err := h.entities.Create(r.Context(), chi.URLParam(r, "table"), payload.Row, actorFromRequest(r))
	if err != nil {
		writeMutationError(w, service.ActionCreate, err)
		return
	}

	writeMutation(w, http.StatusCreated, result, result.Notification)
}

func (h *TableHandler) Delete(w http.ResponseWriter, r *http.Request) {
	result, err := h.trash.SoftDelete(r.Context(), chi.URLParam(r, "table"), chi.URLParam(r, "id"), actorFromRequest(r))
	if err != nil {
		writeMutationError(w, service.ActionDelete, err)
		return
	}

	writeMutation(w, http.StatusOK, result, result.Notification)
}
