package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	dErrors "gastro/pkg/domain-errors"
	"gastro/pkg/platform/sentinel"

	"gastro/internal/table"
	"gastro/internal/transport/http/shared"
)

type Store interface {
	List(ctx context.Context) ([]table.View, error)
	Sync(ctx context.Context, items []table.SyncItem) (applied int, err error)
	UpdateSeats(ctx context.Context, id int64, seats int) error
}

type Handler struct {
	logger *slog.Logger
	store  Store
}

func New(logger *slog.Logger, store Store) *Handler {
	return &Handler{logger: logger, store: store}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/tables", h.handleList)
	r.Post("/tables/sync", h.handleSync)
	r.Patch("/tables/{id}", h.handleUpdateSeats)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	views, err := h.store.List(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "listing tables", "error", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, views)
}

func (h *Handler) handleSync(w http.ResponseWriter, r *http.Request) {
	var items []table.SyncItem
	if err := shared.DecodeJSON(r, &items); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Expected a JSON array"))
		return
	}
	applied, err := h.store.Sync(r.Context(), items)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "syncing tables", "error", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"status": "ok", "applied": applied})
}

func (h *Handler) handleUpdateSeats(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.PathID(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		Seats *int `json:"Ile_osob"`
	}
	if err := shared.DecodeJSON(r, &body); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Invalid JSON body"))
		return
	}
	if body.Seats == nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Missing Ile_osob"))
		return
	}
	if *body.Seats < 1 || *body.Seats > 50 {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Ile_osob must be between 1 and 50"))
		return
	}
	err := h.store.UpdateSeats(r.Context(), id, *body.Seats)
	switch {
	case err == nil:
		shared.WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "Ile_osob": *body.Seats})
	case errors.Is(err, sentinel.ErrNotFound):
		shared.WriteError(w, dErrors.New(dErrors.CodeNotFound, "Table not found"))
	default:
		h.logger.ErrorContext(r.Context(), "updating table seats", "id", id, "error", err)
		shared.WriteError(w, err)
	}
}
