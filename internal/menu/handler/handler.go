package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	dErrors "gastro/pkg/domain-errors"
	"gastro/pkg/platform/sentinel"

	"gastro/internal/menu"
	"gastro/internal/transport/http/shared"
)

type Store interface {
	List(ctx context.Context) ([]menu.Item, error)
	Sync(ctx context.Context, items []menu.SyncItem) (kept, removed int, err error)
	Delete(ctx context.Context, id int64) error
}

type Handler struct {
	logger *slog.Logger
	store  Store
}

func New(logger *slog.Logger, store Store) *Handler {
	return &Handler{logger: logger, store: store}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/menu", h.handleList)
	r.Post("/menu/sync", h.handleSync)
	r.Delete("/menu/{id}", h.handleDelete)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.List(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "listing menu", "error", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) handleSync(w http.ResponseWriter, r *http.Request) {
	var items []menu.SyncItem
	if err := shared.DecodeJSON(r, &items); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Expected a JSON array"))
		return
	}
	kept, removed, err := h.store.Sync(r.Context(), items)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "syncing menu", "error", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"kept":    kept,
		"removed": removed,
	})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.PathID(w, r, "id")
	if !ok {
		return
	}
	err := h.store.Delete(r.Context(), id)
	switch {
	case err == nil:
		shared.WriteJSON(w, http.StatusOK, map[string]any{"ok": true})
	case errors.Is(err, sentinel.ErrNotFound):
		shared.WriteError(w, dErrors.New(dErrors.CodeNotFound, "Menu item not found"))
	default:
		h.logger.ErrorContext(r.Context(), "deleting menu item", "id", id, "error", err)
		shared.WriteError(w, err)
	}
}
