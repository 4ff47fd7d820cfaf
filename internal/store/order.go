package store

import (
	"context"
	"fmt"
	"time"

	"pharmatrack/m/domain"
)

type NewOrder struct {
	SupplierID   int64   `json:"supplier_id"`
	OrderDate    string  `json:"order_date"`
	ExpectedDate *string `json:"expected_date"`
	Notes        string  `json:"notes"`
}

const orderColumns = `id, supplier_id, order_date, expected_date, status, fulfilled, notes, created_at`

func (s *Store) CreateOrder(ctx context.Context, n NewOrder) (domain.Order, error) {
	if _, err := s.GetSupplier(ctx, n.SupplierID); err != nil {
		return domain.Order{}, fmt.Errorf("supplier %d: %w", n.SupplierID, err)
	}
	if n.OrderDate == "" {
		n.OrderDate = time.Now().Format("2006-01-02")
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO orders (supplier_id, order_date, expected_date, status, fulfilled, notes) VALUES (?, ?, ?, ?, 0, ?)`,
		n.SupplierID, n.OrderDate, n.ExpectedDate, domain.OrderPending, n.Notes)
	if err != nil {
		return domain.Order{}, wrapWrite(err)
	}
	id, _ := res.LastInsertId()
	return s.GetOrder(ctx, id)
}

func (s *Store) GetOrder(ctx context.Context, id int64) (domain.Order, error) {
	var o domain.Order
	err := s.db.GetContext(ctx, &o, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)
	return o, wrapLookup(err)
}

func (s *Store) ListOrders(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	orders := []domain.Order{}
	query := `SELECT ` + orderColumns + ` FROM orders`
	var args []any
	if status != "" {
		if !domain.ValidOrderStatus(status) {
			return nil, fmt.Errorf("%w: unknown order status %q", ErrInvalid, status)
		}
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY order_date DESC, id DESC`
	err := s.db.SelectContext(ctx, &orders, query, args...)
	return orders, err
}

// AddOrderItem attaches an item to an order that has not yet shipped.
func (s *Store) AddOrderItem(ctx context.Context, orderID int64, medicineID, quantity int64) (domain.OrderItem, error) {
	if quantity <= 0 {
		return domain.OrderItem{}, fmt.Errorf("%w: quantity must be positive", ErrInvalid)
	}
	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return domain.OrderItem{}, fmt.Errorf("order %d: %w", orderID, err)
	}
	if order.Status != domain.OrderPending && order.Status != domain.OrderProcessing {
		return domain.OrderItem{}, fmt.Errorf("%w: order %d is %s and can no longer take items", ErrConflict, orderID, order.Status)
	}
	if _, err := s.GetMedicine(ctx, medicineID); err != nil {
		return domain.OrderItem{}, fmt.Errorf("medicine %d: %w", medicineID, err)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO order_items (order_id, medicine_id, quantity) VALUES (?, ?, ?)`,
		orderID, medicineID, quantity)
	if err != nil {
		return domain.OrderItem{}, wrapWrite(err)
	}
	id, _ := res.LastInsertId()
	var item domain.OrderItem
	err = s.db.GetContext(ctx, &item, `SELECT id, order_id, medicine_id, quantity FROM order_items WHERE id = ?`, id)
	return item, wrapLookup(err)
}

func (s *Store) OrderItems(ctx context.Context, orderID int64) ([]domain.OrderItem, error) {
	items := []domain.OrderItem{}
	err := s.db.SelectContext(ctx, &items,
		`SELECT id, order_id, medicine_id, quantity FROM order_items WHERE order_id = ? ORDER BY id`, orderID)
	return items, err
}
