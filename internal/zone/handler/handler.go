package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	dErrors "gastro/pkg/domain-errors"

	"gastro/internal/transport/http/shared"
	"gastro/internal/zone"
)

type Store interface {
	List(ctx context.Context) ([]zone.Group, error)
	Sync(ctx context.Context, groups []zone.Group) (applied int, err error)
}

type Handler struct {
	logger *slog.Logger
	store  Store
}

func New(logger *slog.Logger, store Store) *Handler {
	return &Handler{logger: logger, store: store}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/table-groups", h.handleList)
	r.Post("/table-groups/sync", h.handleSync)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	groups, err := h.store.List(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "listing table groups", "error", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, groups)
}

func (h *Handler) handleSync(w http.ResponseWriter, r *http.Request) {
	var groups []zone.Group
	if err := shared.DecodeJSON(r, &groups); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Expected a JSON array"))
		return
	}
	applied, err := h.store.Sync(r.Context(), groups)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "syncing table groups", "error", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"status": "ok", "applied": applied})
}
