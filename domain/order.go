package domain

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

var orderRanks = map[OrderStatus]int{
	OrderPending:    0,
	OrderProcessing: 1,
	OrderShipped:    2,
	OrderDelivered:  3,
}

// ValidOrderStatus reports whether s is a known order status.
func ValidOrderStatus(s OrderStatus) bool {
	if s == OrderCancelled {
		return true
	}
	_, ok := orderRanks[s]
	return ok
}

// Terminal reports whether no further transitions are allowed from s.
func (s OrderStatus) Terminal() bool {
	return s == OrderDelivered || s == OrderCancelled
}

// CanTransitionTo reports whether an order may move from s to next.
// Orders progress pending -> processing -> shipped -> delivered; stages may
// be skipped forward but never revisited. Cancellation is allowed from any
// non-terminal status.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s.Terminal() {
		return false
	}
	if next == OrderCancelled {
		return true
	}
	from, ok := orderRanks[s]
	if !ok {
		return false
	}
	to, ok := orderRanks[next]
	if !ok {
		return false
	}
	return to > from
}

type Order struct {
	ID           int64       `db:"id" json:"id"`
	SupplierID   int64       `db:"supplier_id" json:"supplier_id"`
	OrderDate    string      `db:"order_date" json:"order_date"`
	ExpectedDate *string     `db:"expected_date" json:"expected_date,omitempty"`
	Status       OrderStatus `db:"status" json:"status"`
	// Fulfilled is set the first time the order is delivered and guards the
	// stock increment from being applied twice.
	Fulfilled bool   `db:"fulfilled" json:"fulfilled"`
	Notes     string `db:"notes" json:"notes"`
	CreatedAt string `db:"created_at" json:"created_at"`
}

type OrderItem struct {
	ID         int64 `db:"id" json:"id"`
	OrderID    int64 `db:"order_id" json:"order_id"`
	MedicineID int64 `db:"medicine_id" json:"medicine_id"`
	Quantity   int64 `db:"quantity" json:"quantity"`
}
