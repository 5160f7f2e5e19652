package order

import (
	"strings"
	"time"
)

// CreatedAtLayout is the timestamp format POS clients exchange. Naive local
// time, restaurant clock.
const CreatedAtLayout = "2006-01-02T15:04:05"

// ItemView is one order line as clients see it. Price and LineTotal are only
// populated on the closed-orders report.
type ItemView struct {
	ItemID    int64    `json:"ItemId"`
	Name      string   `json:"Name"`
	Qty       int      `json:"Qty"`
	IsServed  bool     `json:"IsServed"`
	Price     *float64 `json:"Price,omitempty"`
	LineTotal *float64 `json:"LineTotal,omitempty"`
}

// View is one order. IsServed holds when every line is served, IsSettled is
// derived from the status text.
type View struct {
	OrderID   int64      `json:"OrderId"`
	Items     []ItemView `json:"Items"`
	IsServed  bool       `json:"IsServed"`
	IsSettled bool       `json:"IsSettled"`
	CreatedAt string     `json:"CreatedAt"`
	Notes     *string    `json:"Notes,omitempty"`
	WaiterID  *int64     `json:"WaiterId,omitempty"`
}

// TableOrders groups the orders of one table.
type TableOrders struct {
	TableID int64  `json:"TableId"`
	Orders  []View `json:"Orders"`
}

// CreateItem is one line of a new order. Lines may reference the menu by id
// or just carry a free-text name.
type CreateItem struct {
	ItemID *int64 `json:"ItemId"`
	Name   string `json:"Name"`
	Qty    int    `json:"Qty"`
}

// CreateParams is the new-order request body.
type CreateParams struct {
	TableID  int64        `json:"TableId"`
	WaiterID int64        `json:"WaiterId"`
	Items    []CreateItem `json:"Items"`
	Notes    *string      `json:"Notes"`
}

// SyncItem is one order line inside a sync payload.
type SyncItem struct {
	ItemID   *int64 `json:"ItemId"`
	Name     string `json:"Name"`
	Qty      int    `json:"Qty"`
	IsServed bool   `json:"IsServed"`
}

// SyncOrder is one order inside a sync payload.
type SyncOrder struct {
	OrderID   int64      `json:"OrderId"`
	CreatedAt string     `json:"CreatedAt"`
	Status    string     `json:"Status"`
	IsSettled bool       `json:"IsSettled"`
	Notes     *string    `json:"Notes"`
	WaiterID  *int64     `json:"WaiterId"`
	Items     []SyncItem `json:"Items"`
}

// SyncBlock is the per-table element of the sync payload.
type SyncBlock struct {
	TableID int64       `json:"TableId"`
	Orders  []SyncOrder `json:"Orders"`
}

// settledStatuses are the status spellings, Polish and English, that mean an
// order is paid and closed. Three generations of POS clients wrote their own.
var settledStatuses = []string{
	"paid", "settled", "closed",
	"zapłacone", "zaplacone",
	"zamknięte", "zamkniete",
}

func isSettledStatus(status string) bool {
	s := strings.ToLower(strings.TrimSpace(status))
	for _, known := range settledStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// parseCreatedAt accepts the timestamps sync payloads carry: RFC 3339, the
// naive POS layout with T or space. Unparseable values fall back to now.
func parseCreatedAt(s string, now time.Time) time.Time {
	for _, layout := range []string{time.RFC3339, CreatedAtLayout, "2006-01-02 15:04:05"} {
		if t, err := time.ParseInLocation(layout, s, now.Location()); err == nil {
			return t
		}
	}
	return now
}
