package domain

// StockStatus is derived from quantity alone; it is never set directly.
type StockStatus string

const (
	StockInStock    StockStatus = "in_stock"
	StockLow        StockStatus = "low_stock"
	StockCritical   StockStatus = "critical"
	StockOutOfStock StockStatus = "out_of_stock"
)

// Canonical thresholds: quantity of 5 or less is critical, 20 or less is low.
const (
	criticalThreshold = 5
	lowStockThreshold = 20
)

// DeriveStatus maps a stock quantity onto its status. Every quantity
// mutation must recompute status through this function before persisting.
func DeriveStatus(quantity int64) StockStatus {
	switch {
	case quantity <= 0:
		return StockOutOfStock
	case quantity <= criticalThreshold:
		return StockCritical
	case quantity <= lowStockThreshold:
		return StockLow
	default:
		return StockInStock
	}
}

// MedicineKind tags a medicine's dispensing class.
type MedicineKind string

const (
	KindOTC          MedicineKind = "otc"
	KindPrescription MedicineKind = "prescription"
	KindAntibiotic   MedicineKind = "antibiotic"
	KindPainkiller   MedicineKind = "painkiller"
)

var reorderQuantities = map[MedicineKind]int64{
	KindOTC:          100,
	KindPrescription: 50,
	KindAntibiotic:   30,
	KindPainkiller:   60,
}

// ReorderQuantity suggests how many units to reorder for a medicine kind.
// Unknown kinds fall back to the OTC quantity.
func ReorderQuantity(kind MedicineKind) int64 {
	if qty, ok := reorderQuantities[kind]; ok {
		return qty
	}
	return reorderQuantities[KindOTC]
}

// ValidKind reports whether kind is one of the dispensing classes.
func ValidKind(kind MedicineKind) bool {
	_, ok := reorderQuantities[kind]
	return ok
}

type Medicine struct {
	ID             int64        `db:"id" json:"id"`
	Name           string       `db:"name" json:"name"`
	Category       string       `db:"category" json:"category"`
	Kind           MedicineKind `db:"kind" json:"kind"`
	UnitPriceCents int64        `db:"unit_price_cents" json:"unit_price_cents"`
	StockQuantity  int64        `db:"stock_quantity" json:"stock_quantity"`
	StockStatus    StockStatus  `db:"stock_status" json:"stock_status"`
	ExpiryDate     *string      `db:"expiry_date" json:"expiry_date,omitempty"`
	BatchNumber    *string      `db:"batch_number" json:"batch_number,omitempty"`
	SupplierID     *int64       `db:"supplier_id" json:"supplier_id,omitempty"`
	CreatedAt      string       `db:"created_at" json:"created_at"`
	UpdatedAt      string       `db:"updated_at" json:"updated_at"`
}
