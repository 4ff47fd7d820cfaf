package inventory

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	_ "modernc.org/sqlite"

	"pharmatrack/m/domain"
	"pharmatrack/m/internal/migrations"
	"pharmatrack/m/internal/notify"
	"pharmatrack/m/internal/store"
)

type fixture struct {
	svc      *Service
	store    *store.Store
	events   *notify.Dispatcher
	recorder *notify.Recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	path := filepath.Join(t.TempDir(), "inventory_test.db")
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")
	t.Cleanup(func() { db.Close() })
	migrations.Run(db)

	st := store.New(db)
	recorder := &notify.Recorder{}
	events := notify.NewDispatcher(recorder, zerolog.Nop(), 64)
	return &fixture{
		svc:      New(st, events, zerolog.Nop()),
		store:    st,
		events:   events,
		recorder: recorder,
	}
}

// drain flushes queued events into the recorder.
func (f *fixture) drain() []notify.Event {
	f.events.Close()
	return f.recorder.Events()
}

func (f *fixture) medicine(t *testing.T, name string, qty int64, priceCents int64) domain.Medicine {
	t.Helper()
	med, err := f.store.CreateMedicine(context.Background(), store.NewMedicine{
		Name: name, StockQuantity: qty, UnitPriceCents: priceCents,
	})
	if err != nil {
		t.Fatalf("create medicine: %v", err)
	}
	return med
}

func TestRecordSale_WalksStatusDown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	med := f.medicine(t, "Paracetamol", 25, 350)
	assert.Equal(t, domain.StockInStock, med.StockStatus)

	steps := []struct {
		sell       int64
		wantQty    int64
		wantStatus domain.StockStatus
	}{
		{10, 15, domain.StockLow},
		{11, 4, domain.StockCritical},
		{4, 0, domain.StockOutOfStock},
	}
	for _, step := range steps {
		got, err := f.svc.RecordSale(ctx, med.ID, step.sell)
		assert.NoError(t, err)
		assert.Equal(t, step.wantQty, got.StockQuantity)
		assert.Equal(t, step.wantStatus, got.StockStatus)
	}

	// persisted state matches the returned one
	reloaded, err := f.store.GetMedicine(ctx, med.ID)
	assert.NoError(t, err)
	assert.EqualValues(t, 0, reloaded.StockQuantity)
	assert.Equal(t, domain.StockOutOfStock, reloaded.StockStatus)

	// crossing into critical and into out_of_stock each raise one event
	events := f.drain()
	var lowStock []notify.Event
	for _, ev := range events {
		if ev.Kind == notify.KindLowStock {
			lowStock = append(lowStock, ev)
		}
	}
	if assert.Len(t, lowStock, 2) {
		assert.Equal(t, domain.StockCritical, lowStock[0].StockStatus)
		assert.Equal(t, domain.StockOutOfStock, lowStock[1].StockStatus)
	}
}

func TestRecordSale_SequentialAdditivity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.medicine(t, "A", 100, 100)
	b := f.medicine(t, "B", 100, 100)

	_, err := f.svc.RecordSale(ctx, a.ID, 7)
	assert.NoError(t, err)
	_, err = f.svc.RecordSale(ctx, a.ID, 13)
	assert.NoError(t, err)

	_, err = f.svc.RecordSale(ctx, b.ID, 20)
	assert.NoError(t, err)

	gotA, _ := f.store.GetMedicine(ctx, a.ID)
	gotB, _ := f.store.GetMedicine(ctx, b.ID)
	assert.Equal(t, gotB.StockQuantity, gotA.StockQuantity, "sale of 7 then 13 must equal one sale of 20")
	assert.Equal(t, gotB.StockStatus, gotA.StockStatus)
}

func TestRecordSale_NeverGoesNegative(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	med := f.medicine(t, "Scarce", 3, 100)

	_, err := f.svc.RecordSale(ctx, med.ID, 10)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.ErrorIs(t, err, store.ErrConflict)

	reloaded, _ := f.store.GetMedicine(ctx, med.ID)
	assert.EqualValues(t, 3, reloaded.StockQuantity, "failed sale must not move stock")
	assert.GreaterOrEqual(t, reloaded.StockQuantity, int64(0))
}

// Concurrent sellers against the same medicine must serialize: every unit in
// stock is sold exactly once, the rest are rejected, and stock lands on zero.
func TestRecordSale_ConcurrentSales(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	med := f.medicine(t, "Contested", 30, 100)

	const sellers = 50
	var (
		wg        sync.WaitGroup
		successes atomic.Int64
		conflicts atomic.Int64
	)
	for i := 0; i < sellers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.RecordSale(ctx, med.ID, 1)
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, ErrInsufficientStock):
				conflicts.Add(1)
			default:
				t.Errorf("unexpected sale error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 30, successes.Load(), "each unit in stock sells exactly once")
	assert.EqualValues(t, 20, conflicts.Load())

	reloaded, err := f.store.GetMedicine(ctx, med.ID)
	assert.NoError(t, err)
	assert.EqualValues(t, 0, reloaded.StockQuantity)
	assert.Equal(t, domain.StockOutOfStock, reloaded.StockStatus)
}

func TestRecordSale_UnknownMedicine(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.RecordSale(context.Background(), 9999, 1)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRecordSale_InvalidQuantity(t *testing.T) {
	f := newFixture(t)
	med := f.medicine(t, "Any", 10, 100)
	_, err := f.svc.RecordSale(context.Background(), med.ID, 0)
	assert.ErrorIs(t, err, store.ErrInvalid)
}

// A real database failure must surface as such, not disguise itself as a
// missing medicine.
func TestRecordSale_DatabaseErrorIsNotNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	med := f.medicine(t, "Any", 10, 100)

	_, err := f.store.DB().Exec(`DROP TABLE medicines`)
	assert.NoError(t, err)

	_, err = f.svc.RecordSale(ctx, med.ID, 1)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, store.ErrNotFound)
}

func TestAddTransactionItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	med := f.medicine(t, "Ibuprofen", 30, 499)

	patient, err := f.store.CreatePatient(ctx, store.NewPatient{Name: "Sam Idowu"})
	assert.NoError(t, err)
	txn, err := f.store.CreateTransaction(ctx, store.NewTransaction{PatientID: patient.ID})
	assert.NoError(t, err)

	item, err := f.svc.AddTransactionItem(ctx, txn.ID, SaleItemInput{MedicineID: med.ID, Quantity: 6})
	assert.NoError(t, err)
	assert.EqualValues(t, 499, item.UnitPriceCents)
	assert.EqualValues(t, 6*499, item.LineCents)

	reloadedTxn, err := f.store.GetTransaction(ctx, txn.ID)
	assert.NoError(t, err)
	assert.EqualValues(t, 6*499, reloadedTxn.TotalCents)

	reloadedMed, err := f.store.GetMedicine(ctx, med.ID)
	assert.NoError(t, err)
	assert.EqualValues(t, 24, reloadedMed.StockQuantity)
	assert.Equal(t, domain.StockInStock, reloadedMed.StockStatus)

	items, err := f.store.TransactionItems(ctx, txn.ID)
	assert.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestAddTransactionItem_Guards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	med := f.medicine(t, "Ibuprofen", 30, 499)

	patient, _ := f.store.CreatePatient(ctx, store.NewPatient{Name: "Sam Idowu"})
	txn, _ := f.store.CreateTransaction(ctx, store.NewTransaction{PatientID: patient.ID})

	_, err := f.svc.AddTransactionItem(ctx, 9999, SaleItemInput{MedicineID: med.ID, Quantity: 1})
	assert.ErrorIs(t, err, store.ErrNotFound, "unknown transaction")

	_, err = f.svc.AddTransactionItem(ctx, txn.ID, SaleItemInput{MedicineID: 9999, Quantity: 1})
	assert.ErrorIs(t, err, store.ErrNotFound, "unknown medicine must fail loudly, not record a dangling item")
	items, _ := f.store.TransactionItems(ctx, txn.ID)
	assert.Empty(t, items)

	_, err = f.store.UpdateTransactionStatus(ctx, txn.ID, domain.TransactionCancelled)
	assert.NoError(t, err)
	_, err = f.svc.AddTransactionItem(ctx, txn.ID, SaleItemInput{MedicineID: med.ID, Quantity: 1})
	assert.ErrorIs(t, err, store.ErrConflict, "cancelled transaction takes no items")
}

func deliveryOrder(t *testing.T, f *fixture, medicineID int64, qty int64) int64 {
	t.Helper()
	ctx := context.Background()
	supplier, err := f.store.CreateSupplier(ctx, store.NewSupplier{Name: "Medway"})
	assert.NoError(t, err)
	order, err := f.store.CreateOrder(ctx, store.NewOrder{SupplierID: supplier.ID})
	assert.NoError(t, err)
	_, err = f.store.AddOrderItem(ctx, order.ID, medicineID, qty)
	assert.NoError(t, err)
	return order.ID
}

func TestDelivery_CreditsStockOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	med := f.medicine(t, "Amoxicillin", 4, 899)
	orderID := deliveryOrder(t, f, med.ID, 50)

	for _, status := range []domain.OrderStatus{domain.OrderProcessing, domain.OrderShipped} {
		order, err := f.svc.UpdateOrderStatus(ctx, orderID, status)
		assert.NoError(t, err)
		assert.Equal(t, status, order.Status)

		// intermediate transitions do not move stock
		m, _ := f.store.GetMedicine(ctx, med.ID)
		assert.EqualValues(t, 4, m.StockQuantity)
	}

	order, err := f.svc.UpdateOrderStatus(ctx, orderID, domain.OrderDelivered)
	assert.NoError(t, err)
	assert.Equal(t, domain.OrderDelivered, order.Status)
	assert.True(t, order.Fulfilled)

	m, _ := f.store.GetMedicine(ctx, med.ID)
	assert.EqualValues(t, 54, m.StockQuantity)
	assert.Equal(t, domain.StockInStock, m.StockStatus)

	// re-issuing the same status is a no-op
	again, err := f.svc.UpdateOrderStatus(ctx, orderID, domain.OrderDelivered)
	assert.NoError(t, err)
	assert.Equal(t, domain.OrderDelivered, again.Status)
	m, _ = f.store.GetMedicine(ctx, med.ID)
	assert.EqualValues(t, 54, m.StockQuantity, "double delivery must not double-credit stock")

	// an explicit second reconciliation is rejected
	err = f.svc.RecordDelivery(ctx, orderID)
	assert.ErrorIs(t, err, ErrAlreadyFulfilled)
	m, _ = f.store.GetMedicine(ctx, med.ID)
	assert.EqualValues(t, 54, m.StockQuantity)
}

func TestDelivery_MultipleItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.medicine(t, "A", 0, 100)
	b := f.medicine(t, "B", 18, 100)

	supplier, _ := f.store.CreateSupplier(ctx, store.NewSupplier{Name: "Medway"})
	order, _ := f.store.CreateOrder(ctx, store.NewOrder{SupplierID: supplier.ID})
	_, err := f.store.AddOrderItem(ctx, order.ID, a.ID, 10)
	assert.NoError(t, err)
	_, err = f.store.AddOrderItem(ctx, order.ID, b.ID, 10)
	assert.NoError(t, err)

	_, err = f.svc.UpdateOrderStatus(ctx, order.ID, domain.OrderDelivered)
	assert.NoError(t, err)

	gotA, _ := f.store.GetMedicine(ctx, a.ID)
	gotB, _ := f.store.GetMedicine(ctx, b.ID)
	assert.EqualValues(t, 10, gotA.StockQuantity)
	assert.Equal(t, domain.StockLow, gotA.StockStatus)
	assert.EqualValues(t, 28, gotB.StockQuantity)
	assert.Equal(t, domain.StockInStock, gotB.StockStatus)
}

func TestUpdateOrderStatus_Transitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	med := f.medicine(t, "Any", 10, 100)
	orderID := deliveryOrder(t, f, med.ID, 5)

	_, err := f.svc.UpdateOrderStatus(ctx, orderID, "misplaced")
	assert.ErrorIs(t, err, store.ErrInvalid)

	_, err = f.svc.UpdateOrderStatus(ctx, orderID, domain.OrderShipped)
	assert.NoError(t, err)
	_, err = f.svc.UpdateOrderStatus(ctx, orderID, domain.OrderProcessing)
	assert.ErrorIs(t, err, store.ErrConflict, "orders cannot move backwards")

	_, err = f.svc.UpdateOrderStatus(ctx, orderID, domain.OrderCancelled)
	assert.NoError(t, err)
	_, err = f.svc.UpdateOrderStatus(ctx, orderID, domain.OrderDelivered)
	assert.ErrorIs(t, err, store.ErrConflict, "cancelled is terminal")

	m, _ := f.store.GetMedicine(ctx, med.ID)
	assert.EqualValues(t, 10, m.StockQuantity, "cancelled order must not credit stock")

	_, err = f.svc.UpdateOrderStatus(ctx, 9999, domain.OrderShipped)
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestOrderStatusChangeEmitsEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	med := f.medicine(t, "Any", 10, 100)
	orderID := deliveryOrder(t, f, med.ID, 5)

	_, err := f.svc.UpdateOrderStatus(ctx, orderID, domain.OrderProcessing)
	assert.NoError(t, err)

	events := f.drain()
	var found bool
	for _, ev := range events {
		if ev.Kind == notify.KindOrderStatusChanged && ev.OrderID == orderID && ev.OrderStatus == domain.OrderProcessing {
			found = true
		}
	}
	assert.True(t, found, "order status change must be observable")
}
