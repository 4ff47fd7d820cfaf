// Package inventory keeps stock quantity and its derived status consistent
// with sale and delivery activity. All stock mutations go through this
// service: it serializes writers per medicine and recomputes status through
// domain.DeriveStatus before anything is persisted.
package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"pharmatrack/m/domain"
	"pharmatrack/m/internal/notify"
	"pharmatrack/m/internal/store"
)

var (
	// ErrInsufficientStock rejects a sale that would take stock negative.
	ErrInsufficientStock = fmt.Errorf("%w: insufficient stock", store.ErrConflict)
	// ErrAlreadyFulfilled rejects a second delivery reconciliation for the
	// same order.
	ErrAlreadyFulfilled = fmt.Errorf("%w: order already fulfilled", store.ErrConflict)
)

type Service struct {
	db     *sqlx.DB
	store  *store.Store
	events *notify.Dispatcher
	log    zerolog.Logger
	locks  keyedLocks
}

func New(st *store.Store, events *notify.Dispatcher, log zerolog.Logger) *Service {
	return &Service{
		db:     st.DB(),
		store:  st,
		events: events,
		log:    log,
		locks:  keyedLocks{held: make(map[int64]*sync.Mutex)},
	}
}

// SaleItemInput is a requested transaction item. The unit price is captured
// from the medicine at sale time, never from the caller.
type SaleItemInput struct {
	MedicineID int64 `json:"medicine_id"`
	Quantity   int64 `json:"quantity"`
}

// RecordSale decrements a medicine's stock and recomputes its status. A sale
// against an unknown medicine fails with store.ErrNotFound, and one that
// would take stock below zero fails with ErrInsufficientStock; stock is never
// persisted negative.
func (s *Service) RecordSale(ctx context.Context, medicineID, quantity int64) (domain.Medicine, error) {
	if quantity <= 0 {
		return domain.Medicine{}, fmt.Errorf("%w: quantity must be positive", store.ErrInvalid)
	}
	unlock := s.locks.lock(medicineID)
	defer unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.Medicine{}, err
	}
	defer tx.Rollback()

	med, err := medicineTx(tx, medicineID)
	if err != nil {
		return domain.Medicine{}, err
	}
	updated, err := applySale(tx, med, quantity)
	if err != nil {
		return domain.Medicine{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Medicine{}, err
	}
	s.afterStockChange(med, updated)
	return updated, nil
}

// AddTransactionItem records a sale line against a transaction: the item is
// inserted, the medicine's stock decremented and its status recomputed, and
// the transaction total extended, all in one database transaction.
func (s *Service) AddTransactionItem(ctx context.Context, transactionID int64, in SaleItemInput) (domain.TransactionItem, error) {
	if in.Quantity <= 0 {
		return domain.TransactionItem{}, fmt.Errorf("%w: quantity must be positive", store.ErrInvalid)
	}
	unlock := s.locks.lock(in.MedicineID)
	defer unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.TransactionItem{}, err
	}
	defer tx.Rollback()

	var txn domain.Transaction
	if err := tx.GetContext(ctx, &txn, `SELECT id, status FROM transactions WHERE id = ?`, transactionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.TransactionItem{}, fmt.Errorf("transaction %d: %w", transactionID, store.ErrNotFound)
		}
		return domain.TransactionItem{}, err
	}
	if txn.Status == domain.TransactionCancelled {
		return domain.TransactionItem{}, fmt.Errorf("%w: transaction %d is cancelled", store.ErrConflict, transactionID)
	}

	med, err := medicineTx(tx, in.MedicineID)
	if err != nil {
		return domain.TransactionItem{}, err
	}
	updated, err := applySale(tx, med, in.Quantity)
	if err != nil {
		return domain.TransactionItem{}, err
	}

	line := med.UnitPriceCents * in.Quantity
	res, err := tx.ExecContext(ctx,
		`INSERT INTO transaction_items (transaction_id, medicine_id, quantity, unit_price_cents, line_cents) VALUES (?, ?, ?, ?, ?)`,
		transactionID, in.MedicineID, in.Quantity, med.UnitPriceCents, line)
	if err != nil {
		return domain.TransactionItem{}, err
	}
	itemID, _ := res.LastInsertId()
	if _, err := tx.ExecContext(ctx,
		`UPDATE transactions SET total_cents = total_cents + ? WHERE id = ?`, line, transactionID); err != nil {
		return domain.TransactionItem{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.TransactionItem{}, err
	}

	s.afterStockChange(med, updated)
	return domain.TransactionItem{
		ID:             itemID,
		TransactionID:  transactionID,
		MedicineID:     in.MedicineID,
		Quantity:       in.Quantity,
		UnitPriceCents: med.UnitPriceCents,
		LineCents:      line,
	}, nil
}

// UpdateOrderStatus moves an order through its lifecycle. The transition into
// delivered triggers the stock reconciliation exactly once; re-issuing the
// current status is a no-op.
func (s *Service) UpdateOrderStatus(ctx context.Context, orderID int64, next domain.OrderStatus) (domain.Order, error) {
	if !domain.ValidOrderStatus(next) {
		return domain.Order{}, fmt.Errorf("%w: unknown order status %q", store.ErrInvalid, next)
	}
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("order %d: %w", orderID, err)
	}
	if order.Status == next {
		return order, nil
	}
	if !order.Status.CanTransitionTo(next) {
		return domain.Order{}, fmt.Errorf("%w: order %d cannot move from %s to %s", store.ErrConflict, orderID, order.Status, next)
	}

	if next == domain.OrderDelivered {
		if err := s.RecordDelivery(ctx, orderID); err != nil {
			return domain.Order{}, err
		}
	} else {
		if _, err := s.db.ExecContext(ctx, `UPDATE orders SET status = ? WHERE id = ?`, next, orderID); err != nil {
			return domain.Order{}, err
		}
	}

	order, err = s.store.GetOrder(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	s.emit(notify.Event{Kind: notify.KindOrderStatusChanged, OrderID: orderID, OrderStatus: order.Status})
	s.log.Info().Int64("order_id", orderID).Str("status", string(order.Status)).Msg("order status changed")
	return order, nil
}

// RecordDelivery credits each order item's medicine and recomputes status.
// The fulfilled flag is checked and set inside the same transaction, so the
// increment is applied at most once per order no matter how often the caller
// re-issues the delivery.
func (s *Service) RecordDelivery(ctx context.Context, orderID int64) error {
	items, err := s.store.OrderItems(ctx, orderID)
	if err != nil {
		return err
	}
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.MedicineID)
	}
	unlock := s.locks.lockAll(ids)
	defer unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var order domain.Order
	if err := tx.GetContext(ctx, &order, `SELECT id, status, fulfilled FROM orders WHERE id = ?`, orderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("order %d: %w", orderID, store.ErrNotFound)
		}
		return err
	}
	if order.Fulfilled {
		return ErrAlreadyFulfilled
	}

	type change struct{ before, after domain.Medicine }
	changes := make([]change, 0, len(items))
	for _, item := range items {
		med, err := medicineTx(tx, item.MedicineID)
		if err != nil {
			return err
		}
		newQty := med.StockQuantity + item.Quantity
		updated, err := setQuantity(tx, med, newQty)
		if err != nil {
			return err
		}
		changes = append(changes, change{before: med, after: updated})
	}
	if _, err := tx.ExecContext(ctx, `UPDATE orders SET status = ?, fulfilled = 1 WHERE id = ?`, domain.OrderDelivered, orderID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	for _, c := range changes {
		s.afterStockChange(c.before, c.after)
	}
	return nil
}

// afterStockChange logs the mutation and raises a low-stock event when the
// status crossed into critical or out_of_stock. Runs after commit; it never
// affects the mutation's outcome.
func (s *Service) afterStockChange(before, after domain.Medicine) {
	s.log.Info().
		Int64("medicine_id", after.ID).
		Int64("quantity", after.StockQuantity).
		Str("status", string(after.StockStatus)).
		Msg("stock changed")
	if after.StockStatus == before.StockStatus {
		return
	}
	if after.StockStatus == domain.StockCritical || after.StockStatus == domain.StockOutOfStock {
		s.emit(notify.Event{Kind: notify.KindLowStock, MedicineID: after.ID, StockStatus: after.StockStatus})
	}
}

func (s *Service) emit(ev notify.Event) {
	if s.events != nil {
		s.events.Emit(ev)
	}
}

func medicineTx(tx *sqlx.Tx, id int64) (domain.Medicine, error) {
	var m domain.Medicine
	err := tx.Get(&m,
		`SELECT id, name, category, kind, unit_price_cents, stock_quantity, stock_status, expiry_date, batch_number, supplier_id, created_at, updated_at
		 FROM medicines WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Medicine{}, fmt.Errorf("medicine %d: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return domain.Medicine{}, err
	}
	return m, nil
}

func applySale(tx *sqlx.Tx, med domain.Medicine, quantity int64) (domain.Medicine, error) {
	if med.StockQuantity < quantity {
		return domain.Medicine{}, fmt.Errorf("medicine %d has %d units, requested %d: %w",
			med.ID, med.StockQuantity, quantity, ErrInsufficientStock)
	}
	return setQuantity(tx, med, med.StockQuantity-quantity)
}

func setQuantity(tx *sqlx.Tx, med domain.Medicine, quantity int64) (domain.Medicine, error) {
	if quantity < 0 {
		quantity = 0
	}
	med.StockQuantity = quantity
	med.StockStatus = domain.DeriveStatus(quantity)
	_, err := tx.Exec(
		`UPDATE medicines SET stock_quantity = ?, stock_status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		med.StockQuantity, med.StockStatus, med.ID)
	return med, err
}

// keyedLocks serializes writers per medicine id, closing the read-modify-write
// race across the load/update pair inside a reconciliation.
type keyedLocks struct {
	mu   sync.Mutex
	held map[int64]*sync.Mutex
}

func (k *keyedLocks) lock(id int64) func() {
	k.mu.Lock()
	m, ok := k.held[id]
	if !ok {
		m = &sync.Mutex{}
		k.held[id] = m
	}
	k.mu.Unlock()
	m.Lock()
	return m.Unlock
}

// lockAll acquires locks in ascending id order so concurrent deliveries
// cannot deadlock.
func (k *keyedLocks) lockAll(ids []int64) func() {
	uniq := make([]int64, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			uniq = append(uniq, id)
		}
	}
	sort.Slice(uniq, func(i, j int) bool { return uniq[i] < uniq[j] })

	unlocks := make([]func(), 0, len(uniq))
	for _, id := range uniq {
		unlocks = append(unlocks, k.lock(id))
	}
	return func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
}
