package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/MrJamesThe3rd/ordertransfer/internal/order"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const selectOrderColumns = `o.id, o.status, o.payment_method, o.customer_id, o.total, o.created_at, o.updated_at`

func scanOrder(s scanner) (*order.Order, error) {
	var (
		o          order.Order
		status     string
		customerID sql.NullInt64
	)

	if err := s.Scan(&o.ID, &status, &o.PaymentMethod, &customerID, &o.Total, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}

	o.Status = order.Status(status)
	o.Meta = make(map[string]string)

	if customerID.Valid {
		o.CustomerID = new(customerID.Int64)
	}

	return &o, nil
}

// loadOrder reads one order row and its items and metadata.
func loadOrder(ctx context.Context, q querier, id int64, lock bool) (*order.Order, error) {
	query := `SELECT ` + selectOrderColumns + ` FROM orders o WHERE o.id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	o, err := scanOrder(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, order.ErrNotFound
		}

		return nil, fmt.Errorf("getting order: %w", err)
	}

	if err := loadDetails(ctx, q, o); err != nil {
		return nil, err
	}

	return o, nil
}

func loadDetails(ctx context.Context, q querier, o *order.Order) error {
	items, err := loadItems(ctx, q, o.ID)
	if err != nil {
		return err
	}

	o.Items = items

	rows, err := q.QueryContext(ctx, `SELECT meta_key, meta_value FROM order_meta WHERE order_id = $1`, o.ID)
	if err != nil {
		return fmt.Errorf("loading order meta: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return fmt.Errorf("scanning order meta: %w", err)
		}

		o.Meta[k] = v
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating order meta: %w", err)
	}

	return nil
}

func loadItems(ctx context.Context, q querier, orderID int64) ([]order.LineItem, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT product_id, variation_id, name, quantity, attributes, total
		FROM order_items
		WHERE order_id = $1
		ORDER BY id ASC`, orderID)
	if err != nil {
		return nil, fmt.Errorf("loading order items: %w", err)
	}
	defer rows.Close()

	var items []order.LineItem

	for rows.Next() {
		var (
			li          order.LineItem
			variationID sql.NullInt64
			attrs       []byte
		)

		if err := rows.Scan(&li.ProductID, &variationID, &li.Name, &li.Quantity, &attrs, &li.Total); err != nil {
			return nil, fmt.Errorf("scanning order item: %w", err)
		}

		if variationID.Valid {
			li.VariationID = new(variationID.Int64)
		}

		if len(attrs) > 0 {
			if err := json.Unmarshal(attrs, &li.Attributes); err != nil {
				return nil, fmt.Errorf("decoding item attributes: %w", err)
			}
		}

		items = append(items, li)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating order items: %w", err)
	}

	return items, nil
}

func (s *Store) Get(ctx context.Context, id int64) (*order.Order, error) {
	return loadOrder(ctx, s.db, id, false)
}

func (s *Store) List(ctx context.Context, filter order.ListFilter) ([]*order.Order, error) {
	query := `SELECT ` + selectOrderColumns + ` FROM orders o WHERE TRUE`

	var args []any

	argIdx := 1

	if filter.Status != nil {
		query += fmt.Sprintf(" AND o.status = $%d", argIdx)

		args = append(args, string(*filter.Status))
		argIdx++
	}

	if filter.PaymentMethod != nil {
		query += fmt.Sprintf(" AND o.payment_method = $%d", argIdx)

		args = append(args, *filter.PaymentMethod)
		argIdx++
	}

	if filter.CustomerID != nil {
		query += fmt.Sprintf(" AND o.customer_id = $%d", argIdx)

		args = append(args, *filter.CustomerID)
		argIdx++
	}

	if filter.CreatedBefore != nil {
		query += fmt.Sprintf(" AND o.created_at < $%d", argIdx)

		args = append(args, *filter.CreatedBefore)
		argIdx++
	}

	for key, value := range filter.Meta {
		query += fmt.Sprintf(
			" AND EXISTS (SELECT 1 FROM order_meta m WHERE m.order_id = o.id AND m.meta_key = $%d AND m.meta_value = $%d)",
			argIdx, argIdx+1,
		)

		args = append(args, key, value)
		argIdx += 2
	}

	for key, value := range filter.MetaFold {
		query += fmt.Sprintf(
			" AND EXISTS (SELECT 1 FROM order_meta m WHERE m.order_id = o.id AND m.meta_key = $%d AND lower(m.meta_value) = lower($%d))",
			argIdx, argIdx+1,
		)

		args = append(args, key, value)
		argIdx += 2
	}

	query += " ORDER BY o.created_at ASC, o.id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}

	var orders []*order.Order

	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning order: %w", err)
		}

		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating order rows: %w", err)
	}

	rows.Close()

	for _, o := range orders {
		if err := loadDetails(ctx, s.db, o); err != nil {
			return nil, err
		}
	}

	return orders, nil
}

func (s *Store) Notes(ctx context.Context, id int64) ([]order.Note, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, order_id, content, created_at
		FROM order_notes
		WHERE order_id = $1
		ORDER BY id ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("listing order notes: %w", err)
	}
	defer rows.Close()

	var notes []order.Note

	for rows.Next() {
		var n order.Note
		if err := rows.Scan(&n.ID, &n.OrderID, &n.Content, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning order note: %w", err)
		}

		notes = append(notes, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating order notes: %w", err)
	}

	return notes, nil
}

type orderTx struct {
	tx *sql.Tx
}

func (s *Store) Begin(ctx context.Context) (order.Tx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning order tx: %w", err)
	}

	return &orderTx{tx: dbTx}, nil
}

func (otx *orderTx) Commit() error   { return otx.tx.Commit() }
func (otx *orderTx) Rollback() error { return otx.tx.Rollback() }

func (otx *orderTx) GetForUpdate(ctx context.Context, id int64) (*order.Order, error) {
	return loadOrder(ctx, otx.tx, id, true)
}

func (otx *orderTx) Create(ctx context.Context, o *order.Order) error {
	query := `
		INSERT INTO orders (status, payment_method, customer_id, total, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := otx.tx.QueryRowContext(ctx, query,
		string(o.Status),
		o.PaymentMethod,
		o.CustomerID,
		o.Total,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (order_id, product_id, variation_id, name, quantity, attributes, total)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	for _, li := range o.Items {
		attrs, err := json.Marshal(nonNilAttributes(li.Attributes))
		if err != nil {
			return fmt.Errorf("encoding item attributes: %w", err)
		}

		if _, err := otx.tx.ExecContext(ctx, itemQuery,
			o.ID, li.ProductID, li.VariationID, li.Name, li.Quantity, attrs, li.Total,
		); err != nil {
			return fmt.Errorf("creating order item: %w", err)
		}
	}

	for k, v := range o.Meta {
		if err := otx.SetMeta(ctx, o.ID, k, v); err != nil {
			return err
		}
	}

	return nil
}

// Update persists the order's status, payment method, customer and total.
// Metadata is written through SetMeta and DeleteMeta.
func (otx *orderTx) Update(ctx context.Context, o *order.Order) error {
	query := `
		UPDATE orders
		SET status = $1, payment_method = $2, customer_id = $3, total = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at
	`

	err := otx.tx.QueryRowContext(ctx, query,
		string(o.Status),
		o.PaymentMethod,
		o.CustomerID,
		o.Total,
		o.ID,
	).Scan(&o.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return order.ErrNotFound
		}

		return fmt.Errorf("updating order: %w", err)
	}

	return nil
}

func (otx *orderTx) SetMeta(ctx context.Context, id int64, key, value string) error {
	query := `
		INSERT INTO order_meta (order_id, meta_key, meta_value)
		VALUES ($1, $2, $3)
		ON CONFLICT (order_id, meta_key) DO UPDATE SET meta_value = EXCLUDED.meta_value
	`

	if _, err := otx.tx.ExecContext(ctx, query, id, key, value); err != nil {
		return fmt.Errorf("setting order meta %s: %w", key, err)
	}

	return nil
}

func (otx *orderTx) DeleteMeta(ctx context.Context, id int64, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	placeholders := make([]string, len(keys))
	args := []any{id}

	for i, k := range keys {
		placeholders[i] = fmt.Sprintf("$%d", i+2)
		args = append(args, k)
	}

	query := `DELETE FROM order_meta WHERE order_id = $1 AND meta_key IN (` + strings.Join(placeholders, ", ") + `)`

	if _, err := otx.tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("deleting order meta: %w", err)
	}

	return nil
}

func (otx *orderTx) AddNote(ctx context.Context, id int64, content string) error {
	query := `INSERT INTO order_notes (order_id, content, created_at) VALUES ($1, $2, NOW())`

	if _, err := otx.tx.ExecContext(ctx, query, id, content); err != nil {
		return fmt.Errorf("adding order note: %w", err)
	}

	return nil
}

// ReduceStock decrements managed stock for each line. Products without a
// stock quantity are not managed and are left untouched. The variation's
// stock is used when the line has one.
func (otx *orderTx) ReduceStock(ctx context.Context, items []order.LineItem) error {
	query := `
		UPDATE products
		SET stock_quantity = stock_quantity - $1
		WHERE id = $2 AND stock_quantity IS NOT NULL
	`

	for _, li := range items {
		productID := li.ProductID
		if li.VariationID != nil {
			productID = *li.VariationID
		}

		if _, err := otx.tx.ExecContext(ctx, query, li.Quantity, productID); err != nil {
			return fmt.Errorf("reducing stock for product %d: %w", productID, err)
		}
	}

	return nil
}

func nonNilAttributes(attrs map[string]string) map[string]string {
	if attrs == nil {
		return map[string]string{}
	}

	return attrs
}
