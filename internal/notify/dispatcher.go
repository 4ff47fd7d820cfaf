// Package notify makes inventory state transitions observable. The dispatcher
// only carries events to a sink; formatting and delivery (mail, SMS) belong
// to an external collaborator.
package notify

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"pharmatrack/m/domain"
)

type Kind string

const (
	KindLowStock           Kind = "low_stock"
	KindExpiryWarning      Kind = "expiry_warning"
	KindOrderStatusChanged Kind = "order_status_changed"
	KindNewPrescription    Kind = "new_prescription"
)

type Event struct {
	Kind           Kind               `json:"kind"`
	MedicineID     int64              `json:"medicine_id,omitempty"`
	StockStatus    domain.StockStatus `json:"stock_status,omitempty"`
	OrderID        int64              `json:"order_id,omitempty"`
	OrderStatus    domain.OrderStatus `json:"order_status,omitempty"`
	PrescriptionID int64              `json:"prescription_id,omitempty"`
	Medicines      []domain.Medicine  `json:"medicines,omitempty"`
	DaysThreshold  int                `json:"days_threshold,omitempty"`
	At             time.Time          `json:"at"`
}

// Sink consumes events. Implementations must not block.
type Sink interface {
	Notify(Event)
}

// Dispatcher fans events out to a sink through a buffered channel. Emission
// is fire-and-forget: a full buffer drops the event with a warning rather
// than stalling the mutation that produced it.
type Dispatcher struct {
	ch   chan Event
	sink Sink
	log  zerolog.Logger
	wg   sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func NewDispatcher(sink Sink, log zerolog.Logger, buffer int) *Dispatcher {
	if buffer <= 0 {
		buffer = 64
	}
	d := &Dispatcher{
		ch:   make(chan Event, buffer),
		sink: sink,
		log:  log,
	}
	d.wg.Add(1)
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for ev := range d.ch {
		d.sink.Notify(ev)
	}
}

// Emit queues an event without blocking. Events emitted after Close are
// dropped with a warning.
func (d *Dispatcher) Emit(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.log.Warn().Str("kind", string(ev.Kind)).Msg("dispatcher closed, event dropped")
		return
	}
	select {
	case d.ch <- ev:
	default:
		d.log.Warn().Str("kind", string(ev.Kind)).Msg("notification buffer full, event dropped")
	}
}

// Close drains the queue and stops the consumer. Safe to call more than once.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.mu.Unlock()
	close(d.ch)
	d.wg.Wait()
}

// LogSink writes each event as a structured log record. It stands in for the
// external mail/SMS collaborator.
type LogSink struct {
	Log zerolog.Logger
}

func (s LogSink) Notify(ev Event) {
	rec := s.Log.Info().Str("kind", string(ev.Kind)).Time("at", ev.At)
	switch ev.Kind {
	case KindLowStock:
		rec = rec.Int64("medicine_id", ev.MedicineID).Str("stock_status", string(ev.StockStatus))
	case KindExpiryWarning:
		rec = rec.Int("days_threshold", ev.DaysThreshold).Int("medicines", len(ev.Medicines))
	case KindOrderStatusChanged:
		rec = rec.Int64("order_id", ev.OrderID).Str("order_status", string(ev.OrderStatus))
	case KindNewPrescription:
		rec = rec.Int64("prescription_id", ev.PrescriptionID)
	}
	rec.Msg("notification")
}

// Recorder collects events in memory for tests and inspection.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Notify(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}
