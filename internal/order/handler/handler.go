package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	dErrors "gastro/pkg/domain-errors"
	"gastro/pkg/platform/sentinel"

	"gastro/internal/order"
	"gastro/internal/platform/metrics"
	"gastro/internal/report"
	"gastro/internal/transport/http/shared"
)

// Store is the order persistence surface the handler needs.
type Store interface {
	ListGrouped(ctx context.Context) ([]order.TableOrders, error)
	Create(ctx context.Context, p order.CreateParams) (int64, string, error)
	AddItem(ctx context.Context, orderID int64, it order.CreateItem) (int64, error)
	UpdateItem(ctx context.Context, orderID, itemID int64, qty *int, served *bool) error
	DeleteItem(ctx context.Context, orderID, itemID int64) error
	UpdateStatus(ctx context.Context, orderID int64, status *string, setAllServed bool) error
	Delete(ctx context.Context, orderID int64) error
	Sync(ctx context.Context, blocks []order.SyncBlock) (orders, positions int, err error)
	ClosedForDay(ctx context.Context, day time.Time) ([]order.TableOrders, error)
	PurgeClosed(ctx context.Context, day time.Time) (orders, positions int, err error)
}

// ReportRemover drops the archived day report alongside a purge.
type ReportRemover interface {
	Remove(d time.Time) error
	Exists(d time.Time) bool
}

type Handler struct {
	logger  *slog.Logger
	store   Store
	reports ReportRemover
	metrics *metrics.Metrics
}

func New(logger *slog.Logger, store Store, reports ReportRemover, m *metrics.Metrics) *Handler {
	return &Handler{logger: logger, store: store, reports: reports, metrics: m}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/orders", h.handleList)
	r.Post("/orders", h.handleCreate)
	r.Post("/orders/sync", h.handleSync)
	r.Get("/orders/closed", h.handleClosed)
	r.Post("/orders/closed/purge", h.handlePurge)
	r.Post("/orders/{id}/items", h.handleAddItem)
	r.Patch("/orders/{id}/items/{itemID}", h.handleUpdateItem)
	r.Delete("/orders/{id}/items/{itemID}", h.handleDeleteItem)
	r.Patch("/orders/{id}/status", h.handleStatus)
	r.Delete("/orders/{id}", h.handleDelete)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	blocks, err := h.store.ListGrouped(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "listing orders", "error", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, blocks)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var p order.CreateParams
	if err := shared.DecodeJSON(r, &p); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Invalid JSON body"))
		return
	}
	if p.TableID == 0 || p.WaiterID == 0 || len(p.Items) == 0 {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Missing TableId / WaiterId / Items"))
		return
	}
	id, createdAt, err := h.store.Create(r.Context(), p)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "creating order", "error", err)
		shared.WriteError(w, err)
		return
	}
	h.metrics.OrdersCreated.Inc()
	shared.WriteJSON(w, http.StatusCreated, map[string]any{
		"ok":        true,
		"OrderId":   id,
		"CreatedAt": createdAt,
	})
}

func (h *Handler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	orderID, ok := shared.PathID(w, r, "id")
	if !ok {
		return
	}
	var it order.CreateItem
	if err := shared.DecodeJSON(r, &it); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Invalid JSON body"))
		return
	}
	if it.ItemID == nil && it.Name == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Missing ItemId or Name"))
		return
	}
	itemID, err := h.store.AddItem(r.Context(), orderID, it)
	switch {
	case err == nil:
		shared.WriteJSON(w, http.StatusCreated, map[string]any{"ok": true, "id": itemID})
	case errors.Is(err, sentinel.ErrNotFound):
		shared.WriteError(w, dErrors.New(dErrors.CodeNotFound, "Order not found"))
	default:
		h.logger.ErrorContext(r.Context(), "adding order line", "order_id", orderID, "error", err)
		shared.WriteError(w, err)
	}
}

func (h *Handler) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	orderID, ok := shared.PathID(w, r, "id")
	if !ok {
		return
	}
	itemID, ok := shared.PathID(w, r, "itemID")
	if !ok {
		return
	}
	var body struct {
		Qty      *int  `json:"Qty"`
		IsServed *bool `json:"IsServed"`
	}
	if err := shared.DecodeJSON(r, &body); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Invalid JSON body"))
		return
	}
	if body.Qty == nil && body.IsServed == nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Nothing to update"))
		return
	}
	if body.Qty != nil && *body.Qty < 1 {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Qty must be positive"))
		return
	}
	err := h.store.UpdateItem(r.Context(), orderID, itemID, body.Qty, body.IsServed)
	switch {
	case err == nil:
		shared.WriteJSON(w, http.StatusOK, map[string]any{"ok": true})
	case errors.Is(err, sentinel.ErrNotFound):
		shared.WriteError(w, dErrors.New(dErrors.CodeNotFound, "Order item not found"))
	default:
		h.logger.ErrorContext(r.Context(), "updating order line", "order_id", orderID, "item_id", itemID, "error", err)
		shared.WriteError(w, err)
	}
}

func (h *Handler) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	orderID, ok := shared.PathID(w, r, "id")
	if !ok {
		return
	}
	itemID, ok := shared.PathID(w, r, "itemID")
	if !ok {
		return
	}
	err := h.store.DeleteItem(r.Context(), orderID, itemID)
	switch {
	case err == nil:
		shared.WriteJSON(w, http.StatusOK, map[string]any{"ok": true})
	case errors.Is(err, sentinel.ErrNotFound):
		shared.WriteError(w, dErrors.New(dErrors.CodeNotFound, "Order item not found"))
	default:
		h.logger.ErrorContext(r.Context(), "deleting order line", "order_id", orderID, "item_id", itemID, "error", err)
		shared.WriteError(w, err)
	}
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := shared.PathID(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		Status       *string `json:"Status"`
		SetAllServed bool    `json:"SetAllServed"`
	}
	if err := shared.DecodeJSON(r, &body); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Invalid JSON body"))
		return
	}
	if body.Status == nil && !body.SetAllServed {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Nothing to update"))
		return
	}
	err := h.store.UpdateStatus(r.Context(), orderID, body.Status, body.SetAllServed)
	switch {
	case err == nil:
		shared.WriteJSON(w, http.StatusOK, map[string]any{"ok": true})
	case errors.Is(err, sentinel.ErrNotFound):
		shared.WriteError(w, dErrors.New(dErrors.CodeNotFound, "Order not found"))
	default:
		h.logger.ErrorContext(r.Context(), "updating order status", "order_id", orderID, "error", err)
		shared.WriteError(w, err)
	}
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	orderID, ok := shared.PathID(w, r, "id")
	if !ok {
		return
	}
	err := h.store.Delete(r.Context(), orderID)
	switch {
	case err == nil:
		shared.WriteJSON(w, http.StatusOK, map[string]any{"ok": true})
	case errors.Is(err, sentinel.ErrNotFound):
		shared.WriteError(w, dErrors.New(dErrors.CodeNotFound, "Order not found"))
	default:
		h.logger.ErrorContext(r.Context(), "deleting order", "order_id", orderID, "error", err)
		shared.WriteError(w, err)
	}
}

func (h *Handler) handleSync(w http.ResponseWriter, r *http.Request) {
	var blocks []order.SyncBlock
	if err := shared.DecodeJSON(r, &blocks); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Expected a JSON array"))
		return
	}
	orders, positions, err := h.store.Sync(r.Context(), blocks)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "syncing orders", "error", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"orders":    orders,
		"positions": positions,
	})
}

func (h *Handler) handleClosed(w http.ResponseWriter, r *http.Request) {
	day, ok := h.queryDate(w, r)
	if !ok {
		return
	}
	blocks, err := h.store.ClosedForDay(r.Context(), day)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "listing closed orders", "error", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, blocks)
}

func (h *Handler) handlePurge(w http.ResponseWriter, r *http.Request) {
	day, ok := h.queryDate(w, r)
	if !ok {
		return
	}
	orders, positions, err := h.store.PurgeClosed(r.Context(), day)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "purging closed orders", "error", err)
		shared.WriteError(w, err)
		return
	}

	reportRemoved := false
	if r.URL.Query().Get("purge_report") == "1" && h.reports.Exists(day) {
		if err := h.reports.Remove(day); err != nil {
			h.logger.ErrorContext(r.Context(), "removing day report", "date", day.Format(report.DateLayout), "error", err)
		} else {
			reportRemoved = true
		}
	}
	h.logger.InfoContext(r.Context(), "purged closed orders",
		"date", day.Format(report.DateLayout), "orders", orders, "positions", positions,
		"report_removed", reportRemoved)
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"ok":                true,
		"orders_deleted":    orders,
		"positions_deleted": positions,
		"report_removed":    reportRemoved,
	})
}

func (h *Handler) queryDate(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Missing query param: date=YYYY-MM-DD"))
		return time.Time{}, false
	}
	day, err := report.ParseDate(raw)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Invalid date format. Expected YYYY-MM-DD"))
		return time.Time{}, false
	}
	return day, true
}
