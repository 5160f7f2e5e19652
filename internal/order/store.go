package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"gastro/pkg/platform/sentinel"
)

type Store struct {
	db  *sql.DB
	loc *time.Location
}

// NewStore builds an order store keeping timestamps on the restaurant clock.
func NewStore(db *sql.DB) *Store {
	loc, err := time.LoadLocation("Europe/Warsaw")
	if err != nil {
		loc = time.Local
	}
	return &Store{db: db, loc: loc}
}

func (s *Store) now() time.Time {
	return time.Now().In(s.loc)
}

// ListGrouped returns all orders grouped by table, each with its lines.
func (s *Store) ListGrouped(ctx context.Context) ([]TableOrders, error) {
	return s.listGrouped(ctx, `
		SELECT o.id, o.table_id, o.created_at, o.status, o.notes, o.waiter_id,
		       i.id, COALESCE(m.name, ''), COALESCE(i.qty, 0), COALESCE(i.served, FALSE),
		       m.price
		FROM orders o
		LEFT JOIN order_items i ON i.order_id = o.id
		LEFT JOIN menu_items m ON m.id = i.menu_item_id
		ORDER BY o.table_id, o.id, i.id`, false)
}

// ClosedForDay returns the settled orders created on the given calendar day,
// with per-line prices and totals for the day report.
func (s *Store) ClosedForDay(ctx context.Context, day time.Time) ([]TableOrders, error) {
	return s.listGrouped(ctx, `
		SELECT o.id, o.table_id, o.created_at, o.status, o.notes, o.waiter_id,
		       i.id, COALESCE(m.name, ''), COALESCE(i.qty, 0), COALESCE(i.served, FALSE),
		       m.price
		FROM orders o
		LEFT JOIN order_items i ON i.order_id = o.id
		LEFT JOIN menu_items m ON m.id = i.menu_item_id
		WHERE o.created_at >= $1::date AND o.created_at < $1::date + interval '1 day'
		  AND lower(o.status) = ANY($2)
		ORDER BY o.table_id, o.id, i.id`,
		true, day.Format("2006-01-02"), pq.Array(settledStatuses))
}

func (s *Store) listGrouped(ctx context.Context, query string, priced bool, args ...any) ([]TableOrders, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying orders: %w", err)
	}
	defer rows.Close()

	out := make([]TableOrders, 0)
	var cur *View
	for rows.Next() {
		var (
			orderID, tableID int64
			createdAt        time.Time
			status           string
			notes            sql.NullString
			waiterID         sql.NullInt64
			itemID           sql.NullInt64
			itemName         string
			qty              int
			served           bool
			price            sql.NullFloat64
		)
		err := rows.Scan(&orderID, &tableID, &createdAt, &status, &notes, &waiterID,
			&itemID, &itemName, &qty, &served, &price)
		if err != nil {
			return nil, fmt.Errorf("scanning order row: %w", err)
		}

		if len(out) == 0 || out[len(out)-1].TableID != tableID {
			out = append(out, TableOrders{TableID: tableID, Orders: []View{}})
		}
		block := &out[len(out)-1]
		if cur == nil || cur.OrderID != orderID || len(block.Orders) == 0 {
			v := View{
				OrderID:   orderID,
				Items:     []ItemView{},
				IsServed:  true,
				IsSettled: isSettledStatus(status),
				CreatedAt: createdAt.Format(CreatedAtLayout),
			}
			if priced {
				if notes.Valid {
					v.Notes = &notes.String
				}
				if waiterID.Valid {
					v.WaiterID = &waiterID.Int64
				}
			}
			block.Orders = append(block.Orders, v)
			cur = &block.Orders[len(block.Orders)-1]
		}
		if itemID.Valid {
			iv := ItemView{ItemID: itemID.Int64, Name: itemName, Qty: qty, IsServed: served}
			if priced && price.Valid {
				p := price.Float64
				total := p * float64(qty)
				iv.Price = &p
				iv.LineTotal = &total
			}
			cur.Items = append(cur.Items, iv)
			if !served {
				cur.IsServed = false
			}
		}
	}
	return out, rows.Err()
}

// Create opens a new order with its lines. Unknown dishes are added to the
// menu on the fly so a free-text line never blocks service.
func (s *Store) Create(ctx context.Context, p CreateParams) (int64, string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, "", fmt.Errorf("beginning order create: %w", err)
	}
	defer tx.Rollback()

	createdAt := s.now()
	var id int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (created_at, status, notes, waiter_id, table_id)
		VALUES ($1, 'open', $2, $3, $4)
		RETURNING id`,
		createdAt, p.Notes, p.WaiterID, p.TableID).Scan(&id)
	if err != nil {
		return 0, "", fmt.Errorf("inserting order: %w", err)
	}
	for _, it := range p.Items {
		menuID, err := resolveMenuItem(ctx, tx, it.ItemID, it.Name)
		if err != nil {
			return 0, "", err
		}
		qty := it.Qty
		if qty < 1 {
			qty = 1
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, menu_item_id, qty, served)
			VALUES ($1, $2, $3, FALSE)`, id, menuID, qty); err != nil {
			return 0, "", fmt.Errorf("inserting order line: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, "", fmt.Errorf("committing order create: %w", err)
	}
	return id, createdAt.Format(CreatedAtLayout), nil
}

// AddItem appends one line to an existing order.
func (s *Store) AddItem(ctx context.Context, orderID int64, it CreateItem) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning item add: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, orderID).Scan(&exists); err != nil {
		return 0, fmt.Errorf("checking order: %w", err)
	}
	if !exists {
		return 0, sentinel.ErrNotFound
	}
	menuID, err := resolveMenuItem(ctx, tx, it.ItemID, it.Name)
	if err != nil {
		return 0, err
	}
	qty := it.Qty
	if qty < 1 {
		qty = 1
	}
	var itemID int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO order_items (order_id, menu_item_id, qty, served)
		VALUES ($1, $2, $3, FALSE)
		RETURNING id`, orderID, menuID, qty).Scan(&itemID)
	if err != nil {
		return 0, fmt.Errorf("inserting order line: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing item add: %w", err)
	}
	return itemID, nil
}

// UpdateItem patches quantity or served state of one line.
func (s *Store) UpdateItem(ctx context.Context, orderID, itemID int64, qty *int, served *bool) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE order_items SET
			qty    = COALESCE($3, qty),
			served = COALESCE($4, served)
		WHERE id = $2 AND order_id = $1`,
		orderID, itemID, qty, served)
	if err != nil {
		return fmt.Errorf("updating order line: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking line update: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// DeleteItem removes one line from an order.
func (s *Store) DeleteItem(ctx context.Context, orderID, itemID int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM order_items WHERE id = $2 AND order_id = $1`, orderID, itemID)
	if err != nil {
		return fmt.Errorf("deleting order line: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking line delete: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// UpdateStatus changes the order status and optionally marks every line
// served in the same transaction.
func (s *Store) UpdateStatus(ctx context.Context, orderID int64, status *string, setAllServed bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning status update: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE orders SET status = COALESCE($2, status) WHERE id = $1`, orderID, status)
	if err != nil {
		return fmt.Errorf("updating order status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking status update: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	if setAllServed {
		if _, err := tx.ExecContext(ctx, `UPDATE order_items SET served = TRUE WHERE order_id = $1`, orderID); err != nil {
			return fmt.Errorf("marking lines served: %w", err)
		}
	}
	return tx.Commit()
}

// Delete removes an order with all its lines.
func (s *Store) Delete(ctx context.Context, orderID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning order delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = $1`, orderID); err != nil {
		return fmt.Errorf("deleting order lines: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, orderID)
	if err != nil {
		return fmt.Errorf("deleting order: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking order delete: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return tx.Commit()
}

// Sync wipes all orders and rebuilds them from the payload, preserving the
// client-side ids. Missing waiters fall back to a system waiter and missing
// tables are created on a default zone.
func (s *Store) Sync(ctx context.Context, blocks []SyncBlock) (orders, positions int, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("beginning order sync: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM order_items`); err != nil {
		return 0, 0, fmt.Errorf("clearing order lines: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM orders`); err != nil {
		return 0, 0, fmt.Errorf("clearing orders: %w", err)
	}

	defaultWaiter, err := ensureDefaultWaiter(ctx, tx)
	if err != nil {
		return 0, 0, err
	}

	now := s.now()
	for _, block := range blocks {
		if block.TableID == 0 {
			continue
		}
		if err := ensureTable(ctx, tx, block.TableID); err != nil {
			return 0, 0, err
		}
		for _, o := range block.Orders {
			if o.OrderID == 0 {
				continue
			}
			status := o.Status
			if status == "" {
				if o.IsSettled {
					status = "closed"
				} else {
					status = "open"
				}
			}
			waiterID := defaultWaiter
			if o.WaiterID != nil {
				var ok bool
				if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM waiters WHERE id = $1)`, *o.WaiterID).Scan(&ok); err != nil {
					return 0, 0, fmt.Errorf("checking waiter %d: %w", *o.WaiterID, err)
				}
				if ok {
					waiterID = *o.WaiterID
				}
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO orders (id, created_at, status, notes, waiter_id, table_id)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				o.OrderID, parseCreatedAt(o.CreatedAt, now), status, o.Notes, waiterID, block.TableID)
			if err != nil {
				return 0, 0, fmt.Errorf("inserting order %d: %w", o.OrderID, err)
			}
			orders++
			for _, it := range o.Items {
				menuID, err := resolveMenuItem(ctx, tx, it.ItemID, it.Name)
				if err != nil {
					return 0, 0, err
				}
				qty := it.Qty
				if qty < 1 {
					qty = 1
				}
				_, err = tx.ExecContext(ctx, `
					INSERT INTO order_items (order_id, menu_item_id, qty, served)
					VALUES ($1, $2, $3, $4)`,
					o.OrderID, menuID, qty, it.IsServed)
				if err != nil {
					return 0, 0, fmt.Errorf("inserting line of order %d: %w", o.OrderID, err)
				}
				positions++
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("committing order sync: %w", err)
	}
	return orders, positions, nil
}

// PurgeClosed deletes the settled orders of one calendar day and reports how
// many orders and lines went away.
func (s *Store) PurgeClosed(ctx context.Context, day time.Time) (orders, positions int, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("beginning purge: %w", err)
	}
	defer tx.Rollback()

	dayStr := day.Format("2006-01-02")
	res, err := tx.ExecContext(ctx, `
		DELETE FROM order_items WHERE order_id IN (
			SELECT id FROM orders
			WHERE created_at >= $1::date AND created_at < $1::date + interval '1 day'
			  AND lower(status) = ANY($2)
		)`, dayStr, pq.Array(settledStatuses))
	if err != nil {
		return 0, 0, fmt.Errorf("purging order lines: %w", err)
	}
	nItems, err := res.RowsAffected()
	if err != nil {
		return 0, 0, fmt.Errorf("checking purged lines: %w", err)
	}
	res, err = tx.ExecContext(ctx, `
		DELETE FROM orders
		WHERE created_at >= $1::date AND created_at < $1::date + interval '1 day'
		  AND lower(status) = ANY($2)`, dayStr, pq.Array(settledStatuses))
	if err != nil {
		return 0, 0, fmt.Errorf("purging orders: %w", err)
	}
	nOrders, err := res.RowsAffected()
	if err != nil {
		return 0, 0, fmt.Errorf("checking purged orders: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("committing purge: %w", err)
	}
	return int(nOrders), int(nItems), nil
}

// resolveMenuItem maps an order line to a menu row: by id when it exists, by
// exact name otherwise, creating a zero-priced AUTO entry as a last resort.
func resolveMenuItem(ctx context.Context, tx *sql.Tx, itemID *int64, name string) (int64, error) {
	if itemID != nil {
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM menu_items WHERE id = $1)`, *itemID).Scan(&exists); err != nil {
			return 0, fmt.Errorf("checking menu item %d: %w", *itemID, err)
		}
		if exists {
			return *itemID, nil
		}
	}
	if name == "" {
		name = "Pozycja"
	}
	var id int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM menu_items WHERE name = $1 ORDER BY id LIMIT 1`, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("finding menu item by name: %w", err)
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO menu_items (name, category, price, description)
		VALUES ($1, NULL, 0, 'AUTO')
		RETURNING id`, name).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("creating menu item %q: %w", name, err)
	}
	return id, nil
}

// ensureTable makes sure the table id exists, creating it on a default zone.
func ensureTable(ctx context.Context, tx *sql.Tx, tableID int64) error {
	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM dining_tables WHERE id = $1)`, tableID).Scan(&exists); err != nil {
		return fmt.Errorf("checking table %d: %w", tableID, err)
	}
	if exists {
		return nil
	}
	zoneID, err := ensureZone(ctx, tx)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO dining_tables (id, table_number, seats, zone_id)
		VALUES ($1, $1, 4, $2)`, tableID, zoneID)
	if err != nil {
		return fmt.Errorf("creating table %d: %w", tableID, err)
	}
	return nil
}

// ensureDefaultWaiter returns some waiter id, creating a system staff member
// with a waiter record when none exist yet.
func ensureDefaultWaiter(ctx context.Context, tx *sql.Tx) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM waiters ORDER BY id LIMIT 1`).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("finding default waiter: %w", err)
	}
	zoneID, err := ensureZone(ctx, tx)
	if err != nil {
		return 0, err
	}
	var staffID int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO staff (staff_number, first_name, last_name, phone)
		VALUES ((SELECT COALESCE(MAX(staff_number), 0) + 1 FROM staff), 'System', 'Import', '')
		RETURNING id`).Scan(&staffID)
	if err != nil {
		return 0, fmt.Errorf("creating system staff: %w", err)
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO waiters (staff_id, zone_id) VALUES ($1, $2) RETURNING id`, staffID, zoneID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("creating system waiter: %w", err)
	}
	return id, nil
}

func ensureZone(ctx context.Context, tx *sql.Tx) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM zones ORDER BY id LIMIT 1`).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("finding default zone: %w", err)
	}
	err = tx.QueryRowContext(ctx, `INSERT INTO zones (name) VALUES ('Sala') RETURNING id`).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("creating default zone: %w", err)
	}
	return id, nil
}
