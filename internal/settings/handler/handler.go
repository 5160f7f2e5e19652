package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	dErrors "gastro/pkg/domain-errors"

	"gastro/internal/settings"
	"gastro/internal/transport/http/shared"
)

type Store interface {
	List(ctx context.Context) ([]settings.Option, error)
	Reservations(ctx context.Context) (settings.ReservationSettings, error)
	SetReservations(ctx context.Context, rs settings.ReservationSettings) error
	SetBulk(ctx context.Context, values map[string]string) error
}

// AdminCredentials is what the admin endpoint reveals to the local terminal.
type AdminCredentials struct {
	AdminLogin    string `json:"AdminLogin"`
	AdminPassword string `json:"AdminPassword"`
}

type Handler struct {
	logger *slog.Logger
	store  Store
	admin  AdminCredentials
}

func New(logger *slog.Logger, store Store, admin AdminCredentials) *Handler {
	return &Handler{logger: logger, store: store, admin: admin}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/settings", h.handleList)
	r.Get("/settings/reservations", h.handleReservations)
	r.Put("/settings/reservations", h.handleSetReservations)
	r.Patch("/settings/bulk", h.handleBulk)
	r.Get("/settings/admin", h.handleAdmin)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	options, err := h.store.List(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "listing settings", "error", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, options)
}

func (h *Handler) handleReservations(w http.ResponseWriter, r *http.Request) {
	rs, err := h.store.Reservations(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "reading reservation settings", "error", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, rs)
}

func (h *Handler) handleSetReservations(w http.ResponseWriter, r *http.Request) {
	var rs settings.ReservationSettings
	if err := shared.DecodeJSON(r, &rs); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Invalid JSON body"))
		return
	}
	if rs.ReservationIntervalMinutes < 1 {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "ReservationIntervalMinutes must be positive"))
		return
	}
	if err := h.store.SetReservations(r.Context(), rs); err != nil {
		h.logger.ErrorContext(r.Context(), "writing reservation settings", "error", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, rs)
}

func (h *Handler) handleBulk(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := shared.DecodeJSON(r, &body); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Expected JSON object"))
		return
	}
	if len(body) == 0 {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Nothing to update"))
		return
	}
	values := make(map[string]string, len(body))
	for name, v := range body {
		values[name] = stringify(v)
	}
	if err := h.store.SetBulk(r.Context(), values); err != nil {
		h.logger.ErrorContext(r.Context(), "bulk settings update", "error", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "updated": len(values)})
}

func (h *Handler) handleAdmin(w http.ResponseWriter, r *http.Request) {
	shared.WriteJSON(w, http.StatusOK, h.admin)
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		if t {
			return "1"
		}
		return "0"
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case nil:
		return ""
	default:
		return ""
	}
}
