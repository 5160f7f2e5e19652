package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	dErrors "gastro/pkg/domain-errors"
	"gastro/pkg/platform/sentinel"

	"gastro/internal/stock"
	"gastro/internal/transport/http/shared"
)

type Store interface {
	List(ctx context.Context) ([]stock.Item, error)
	Create(ctx context.Context, name, unit string, qty float64) (int64, error)
	Update(ctx context.Context, id int64, p stock.UpdateParams) error
	Adjust(ctx context.Context, id int64, delta float64) (float64, error)
}

type Handler struct {
	logger *slog.Logger
	store  Store
}

func New(logger *slog.Logger, store Store) *Handler {
	return &Handler{logger: logger, store: store}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/stock", h.handleList)
	r.Post("/stock", h.handleCreate)
	r.Patch("/stock/{id}", h.handleUpdate)
	r.Post("/stock/{id}/adjust", h.handleAdjust)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.List(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "listing stock", "error", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string  `json:"Name"`
		Unit string  `json:"Unit"`
		Qty  float64 `json:"Qty"`
	}
	if err := shared.DecodeJSON(r, &body); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Invalid JSON body"))
		return
	}
	if body.Name == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Missing Name"))
		return
	}
	if body.Unit == "" {
		body.Unit = "szt"
	}
	id, err := h.store.Create(r.Context(), body.Name, body.Unit, body.Qty)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "creating stock item", "error", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, map[string]any{"ok": true, "id": id})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.PathID(w, r, "id")
	if !ok {
		return
	}
	var p stock.UpdateParams
	if err := shared.DecodeJSON(r, &p); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Invalid JSON body"))
		return
	}
	if p.Name == nil && p.Unit == nil && p.Qty == nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Nothing to update"))
		return
	}
	err := h.store.Update(r.Context(), id, p)
	switch {
	case err == nil:
		shared.WriteJSON(w, http.StatusOK, map[string]any{"ok": true})
	case errors.Is(err, sentinel.ErrNotFound):
		shared.WriteError(w, dErrors.New(dErrors.CodeNotFound, "Stock item not found"))
	default:
		h.logger.ErrorContext(r.Context(), "updating stock item", "id", id, "error", err)
		shared.WriteError(w, err)
	}
}

func (h *Handler) handleAdjust(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.PathID(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		Delta *float64 `json:"Delta"`
	}
	if err := shared.DecodeJSON(r, &body); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Invalid JSON body"))
		return
	}
	if body.Delta == nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Missing Delta"))
		return
	}
	newQty, err := h.store.Adjust(r.Context(), id, *body.Delta)
	switch {
	case err == nil:
		shared.WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "NewQty": newQty})
	case errors.Is(err, sentinel.ErrNotFound):
		shared.WriteError(w, dErrors.New(dErrors.CodeNotFound, "Stock item not found"))
	default:
		h.logger.ErrorContext(r.Context(), "adjusting stock item", "id", id, "error", err)
		shared.WriteError(w, err)
	}
}
