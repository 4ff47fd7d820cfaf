package domain

// Prescription is informational only: dispensing it happens through a
// transaction, which is what actually moves stock.
type Prescription struct {
	ID                 int64  `db:"id" json:"id"`
	PatientID          int64  `db:"patient_id" json:"patient_id"`
	DoctorID           int64  `db:"doctor_id" json:"doctor_id"`
	PrescriptionNumber string `db:"prescription_number" json:"prescription_number"`
	IssueDate          string `db:"issue_date" json:"issue_date"`
	Notes              string `db:"notes" json:"notes"`
	CreatedAt          string `db:"created_at" json:"created_at"`
}

type PrescriptionItem struct {
	ID             int64  `db:"id" json:"id"`
	PrescriptionID int64  `db:"prescription_id" json:"prescription_id"`
	MedicineID     int64  `db:"medicine_id" json:"medicine_id"`
	Dosage         string `db:"dosage" json:"dosage"`
	Frequency      string `db:"frequency" json:"frequency"`
	Duration       string `db:"duration" json:"duration"`
	Quantity       int64  `db:"quantity" json:"quantity"`
}
