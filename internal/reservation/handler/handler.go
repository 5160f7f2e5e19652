package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	dErrors "gastro/pkg/domain-errors"
	"gastro/pkg/platform/sentinel"

	"gastro/internal/reservation"
	"gastro/internal/transport/http/shared"
)

type Store interface {
	List(ctx context.Context) ([]reservation.View, error)
	ReplaceAll(ctx context.Context, records []reservation.Record) (int, error)
	SetApproved(ctx context.Context, id int64, approved bool) error
}

type Handler struct {
	logger *slog.Logger
	store  Store
}

func New(logger *slog.Logger, store Store) *Handler {
	return &Handler{logger: logger, store: store}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/reservations", h.handleList)
	r.Post("/reservations/sync", h.handleSync)
	r.Patch("/reservations/{id}/approved", h.handleApprove)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	views, err := h.store.List(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "listing reservations", "error", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, views)
}

func (h *Handler) handleSync(w http.ResponseWriter, r *http.Request) {
	var items []reservation.SyncItem
	if err := shared.DecodeJSON(r, &items); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Expected a JSON array"))
		return
	}

	records := make([]reservation.Record, 0, len(items))
	skipped := 0
	for _, it := range items {
		rec, err := it.Resolve()
		if err != nil {
			h.logger.WarnContext(r.Context(), "skipping reservation", "error", err)
			skipped++
			continue
		}
		records = append(records, rec)
	}
	inserted, err := h.store.ReplaceAll(r.Context(), records)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "syncing reservations", "error", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"inserted": inserted,
		"skipped":  skipped,
	})
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.PathID(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		Approved reservation.LenientBool `json:"Approved"`
	}
	if err := shared.DecodeJSON(r, &body); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Invalid JSON body"))
		return
	}
	err := h.store.SetApproved(r.Context(), id, bool(body.Approved))
	switch {
	case err == nil:
		shared.WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "Approved": bool(body.Approved)})
	case errors.Is(err, sentinel.ErrNotFound):
		shared.WriteError(w, dErrors.New(dErrors.CodeNotFound, "Reservation not found"))
	default:
		h.logger.ErrorContext(r.Context(), "updating approval", "id", id, "error", err)
		shared.WriteError(w, err)
	}
}
