// Package http assembles the routing surface: public login and health
// endpoints, Prometheus metrics, and the authenticated POS API.
package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gastro/internal/platform/metrics"
	"gastro/internal/platform/middleware"

	authhandler "gastro/internal/auth/handler"
	menuhandler "gastro/internal/menu/handler"
	orderhandler "gastro/internal/order/handler"
	reporthandler "gastro/internal/report/handler"
	reservationhandler "gastro/internal/reservation/handler"
	settingshandler "gastro/internal/settings/handler"
	staffhandler "gastro/internal/staff/handler"
	stockhandler "gastro/internal/stock/handler"
	tablehandler "gastro/internal/table/handler"
	zonehandler "gastro/internal/zone/handler"
)

// Handlers carries every feature handler the router mounts.
type Handlers struct {
	Auth        *authhandler.Handler
	Staff       *staffhandler.Handler
	Zone        *zonehandler.Handler
	Table       *tablehandler.Handler
	Menu        *menuhandler.Handler
	Order       *orderhandler.Handler
	Reservation *reservationhandler.Handler
	Stock       *stockhandler.Handler
	Settings    *settingshandler.Handler
	Report      *reporthandler.Handler
}

// NewRouter builds the chi router with the shared middleware chain. Login,
// health and metrics stay public, everything else requires a bearer token.
func NewRouter(logger *slog.Logger, m *metrics.Metrics, verifier middleware.TokenVerifier, h Handlers) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Latency(m))

	h.Auth.Register(r)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(verifier, logger))
		h.Staff.Register(r)
		h.Zone.Register(r)
		h.Table.Register(r)
		h.Menu.Register(r)
		h.Order.Register(r)
		h.Reservation.Register(r)
		h.Stock.Register(r)
		h.Settings.Register(r)
		h.Report.Register(r)
	})

	return r
}
