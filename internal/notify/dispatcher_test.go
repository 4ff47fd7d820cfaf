package notify

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"pharmatrack/m/domain"
)

func TestDispatcher_DeliversInOrder(t *testing.T) {
	rec := &Recorder{}
	d := NewDispatcher(rec, zerolog.Nop(), 8)

	d.Emit(Event{Kind: KindLowStock, MedicineID: 1, StockStatus: domain.StockCritical})
	d.Emit(Event{Kind: KindOrderStatusChanged, OrderID: 2, OrderStatus: domain.OrderShipped})
	d.Close()

	events := rec.Events()
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	if events[0].Kind != KindLowStock || events[1].Kind != KindOrderStatusChanged {
		t.Errorf("unexpected order: %v, %v", events[0].Kind, events[1].Kind)
	}
	if events[0].At.IsZero() {
		t.Error("Emit should stamp the event time")
	}
}

// A slow sink must never block the emitter: overflow is dropped, not waited on.
func TestDispatcher_EmitNeverBlocks(t *testing.T) {
	block := make(chan struct{})
	d := NewDispatcher(sinkFunc(func(Event) { <-block }), zerolog.Nop(), 1)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			d.Emit(Event{Kind: KindLowStock, MedicineID: int64(i)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Emit blocked on a slow sink")
	}
	close(block)
	d.Close()
}

// Emitting after shutdown drops the event instead of panicking on the closed
// channel, and a second Close is a no-op.
func TestDispatcher_EmitAfterClose(t *testing.T) {
	rec := &Recorder{}
	d := NewDispatcher(rec, zerolog.Nop(), 8)

	d.Emit(Event{Kind: KindLowStock, MedicineID: 1})
	d.Close()
	d.Emit(Event{Kind: KindLowStock, MedicineID: 2})
	d.Close()

	events := rec.Events()
	if len(events) != 1 {
		t.Fatalf("events = %d, want only the pre-close one", len(events))
	}
	if events[0].MedicineID != 1 {
		t.Errorf("delivered medicine_id = %d, want 1", events[0].MedicineID)
	}
}

type sinkFunc func(Event)

func (f sinkFunc) Notify(ev Event) { f(ev) }
