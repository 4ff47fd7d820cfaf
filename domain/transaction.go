package domain

type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionCompleted TransactionStatus = "completed"
	TransactionCancelled TransactionStatus = "cancelled"
)

// ValidTransactionStatus reports whether s is a known transaction status.
func ValidTransactionStatus(s TransactionStatus) bool {
	switch s {
	case TransactionPending, TransactionCompleted, TransactionCancelled:
		return true
	}
	return false
}

type Transaction struct {
	ID                int64             `db:"id" json:"id"`
	PatientID         int64             `db:"patient_id" json:"patient_id"`
	PrescriptionID    *int64            `db:"prescription_id" json:"prescription_id,omitempty"`
	TransactionNumber string            `db:"transaction_number" json:"transaction_number"`
	Date              string            `db:"date" json:"date"`
	TotalCents        int64             `db:"total_cents" json:"total_cents"`
	Status            TransactionStatus `db:"status" json:"status"`
	CreatedAt         string            `db:"created_at" json:"created_at"`
}

// TransactionItem line price is always quantity times the unit price
// captured from the medicine at sale time.
type TransactionItem struct {
	ID             int64 `db:"id" json:"id"`
	TransactionID  int64 `db:"transaction_id" json:"transaction_id"`
	MedicineID     int64 `db:"medicine_id" json:"medicine_id"`
	Quantity       int64 `db:"quantity" json:"quantity"`
	UnitPriceCents int64 `db:"unit_price_cents" json:"unit_price_cents"`
	LineCents      int64 `db:"line_cents" json:"line_cents"`
}
