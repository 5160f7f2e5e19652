package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	dErrors "gastro/pkg/domain-errors"
	"gastro/pkg/platform/sentinel"

	"gastro/internal/staff"
	"gastro/internal/transport/http/shared"
)

// Store is the staff persistence surface the handler needs.
type Store interface {
	List(ctx context.Context) ([]staff.View, error)
	Create(ctx context.Context, p staff.CreateParams) (int64, error)
	Update(ctx context.Context, id int64, p staff.UpdateParams) error
	Delete(ctx context.Context, id int64) error
	Sync(ctx context.Context, items []staff.SyncItem) (created, updated int, err error)
	ChangePassword(ctx context.Context, id int64, oldHash, newHash string) error
}

type Handler struct {
	logger *slog.Logger
	store  Store
}

func New(logger *slog.Logger, store Store) *Handler {
	return &Handler{logger: logger, store: store}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/staff", h.handleList)
	r.Post("/staff", h.handleCreate)
	r.Put("/staff/{id}", h.handleUpdate)
	r.Delete("/staff/{id}", h.handleDelete)
	r.Post("/staff/sync", h.handleSync)
	r.Patch("/staff/{id}/password", h.handleChangePassword)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	views, err := h.store.List(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "listing staff", "error", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, views)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var p staff.CreateParams
	if err := shared.DecodeJSON(r, &p); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Invalid JSON body"))
		return
	}
	if p.FirstName == "" || p.Login == "" || p.PasswordHash == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Missing FirstName / Login / PasswordHash"))
		return
	}
	id, err := h.store.Create(r.Context(), p)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "creating staff", "error", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, map[string]any{"ok": true, "id": id})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var p staff.UpdateParams
	if err := shared.DecodeJSON(r, &p); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Invalid JSON body"))
		return
	}
	if err := h.store.Update(r.Context(), id, p); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			shared.WriteError(w, dErrors.New(dErrors.CodeNotFound, "Staff not found"))
			return
		}
		h.logger.ErrorContext(r.Context(), "updating staff", "id", id, "error", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	err := h.store.Delete(r.Context(), id)
	switch {
	case err == nil:
		shared.WriteJSON(w, http.StatusOK, map[string]any{"ok": true})
	case errors.Is(err, sentinel.ErrConflict):
		shared.WriteError(w, dErrors.New(dErrors.CodeConflict, "Cannot delete staff with existing orders"))
	case errors.Is(err, sentinel.ErrNotFound):
		shared.WriteError(w, dErrors.New(dErrors.CodeNotFound, "Staff not found"))
	default:
		h.logger.ErrorContext(r.Context(), "deleting staff", "id", id, "error", err)
		shared.WriteError(w, err)
	}
}

func (h *Handler) handleSync(w http.ResponseWriter, r *http.Request) {
	var items []staff.SyncItem
	if err := shared.DecodeJSON(r, &items); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Expected a JSON array"))
		return
	}
	created, updated, err := h.store.Sync(r.Context(), items)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "syncing staff", "error", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"status":          "ok",
		"new":             created,
		"updated":         updated,
		"total_from_json": len(items),
	})
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body struct {
		OldPasswordHash string `json:"OldPasswordHash"`
		NewPasswordHash string `json:"NewPasswordHash"`
	}
	if err := shared.DecodeJSON(r, &body); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Invalid JSON body"))
		return
	}
	if body.OldPasswordHash == "" || body.NewPasswordHash == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Missing OldPasswordHash / NewPasswordHash"))
		return
	}
	err := h.store.ChangePassword(r.Context(), id, body.OldPasswordHash, body.NewPasswordHash)
	switch {
	case err == nil:
		shared.WriteJSON(w, http.StatusOK, map[string]any{"ok": true})
	case errors.Is(err, staff.ErrPasswordMismatch):
		shared.WriteError(w, dErrors.New(dErrors.CodeForbidden, "Invalid old password"))
	case errors.Is(err, sentinel.ErrNotFound):
		shared.WriteError(w, dErrors.New(dErrors.CodeNotFound, "Staff not found"))
	default:
		h.logger.ErrorContext(r.Context(), "changing password", "id", id, "error", err)
		shared.WriteError(w, err)
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	return shared.PathID(w, r, "id")
}
