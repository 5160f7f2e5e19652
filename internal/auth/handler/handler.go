package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	dErrors "gastro/pkg/domain-errors"

	"gastro/internal/auth"
	"gastro/internal/platform/metrics"
	"gastro/internal/transport/http/shared"
)

// Service authenticates a login/password pair.
type Service interface {
	Login(ctx context.Context, login, password string) (*auth.Result, error)
}

type Handler struct {
	logger  *slog.Logger
	service Service
	metrics *metrics.Metrics
}

func New(logger *slog.Logger, service Service, m *metrics.Metrics) *Handler {
	return &Handler{logger: logger, service: service, metrics: m}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/login", h.handleLogin)
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// loginResponse keeps the mixed Polish field names the POS frontends bind to.
type loginResponse struct {
	OK        bool   `json:"ok"`
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	FirstName string `json:"imie"`
	LastName  string `json:"nazwisko"`
	Hash      string `json:"hash"`
	Token     string `json:"token"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		h.metrics.IncrementLogin("bad_request")
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Missing login or password"))
		return
	}
	if req.Login == "" || req.Password == "" {
		h.metrics.IncrementLogin("bad_request")
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Missing login or password"))
		return
	}

	res, err := h.service.Login(r.Context(), req.Login, req.Password)
	if err != nil {
		var de *dErrors.Error
		if errors.As(err, &de) {
			h.metrics.IncrementLogin("denied")
			h.logger.InfoContext(r.Context(), "login denied", "login", req.Login, "reason", de.Message)
		} else {
			h.metrics.IncrementLogin("error")
			h.logger.ErrorContext(r.Context(), "login failed", "login", req.Login, "error", err)
		}
		shared.WriteError(w, err)
		return
	}

	h.metrics.IncrementLogin("success")
	shared.WriteJSON(w, http.StatusOK, loginResponse{
		OK:        true,
		ID:        res.StaffID,
		Login:     res.Login,
		FirstName: res.FirstName,
		LastName:  res.LastName,
		Hash:      res.PasswordHash,
		Token:     res.Token,
	})
}
