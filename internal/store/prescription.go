package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pharmatrack/m/domain"
)

type NewPrescription struct {
	PatientID          int64  `json:"patient_id"`
	DoctorID           int64  `json:"doctor_id"`
	PrescriptionNumber string `json:"prescription_number"`
	IssueDate          string `json:"issue_date"`
	Notes              string `json:"notes"`
}

type NewPrescriptionItem struct {
	MedicineID int64  `json:"medicine_id"`
	Dosage     string `json:"dosage"`
	Frequency  string `json:"frequency"`
	Duration   string `json:"duration"`
	Quantity   int64  `json:"quantity"`
}

// CreatePrescription inserts a prescription. The prescription number is the
// natural key; a duplicate fails with ErrDuplicate.
func (s *Store) CreatePrescription(ctx context.Context, n NewPrescription) (domain.Prescription, error) {
	if strings.TrimSpace(n.PrescriptionNumber) == "" {
		return domain.Prescription{}, fmt.Errorf("%w: prescription_number is required", ErrInvalid)
	}
	if _, err := s.GetPatient(ctx, n.PatientID); err != nil {
		return domain.Prescription{}, fmt.Errorf("patient %d: %w", n.PatientID, err)
	}
	if _, err := s.GetDoctor(ctx, n.DoctorID); err != nil {
		return domain.Prescription{}, fmt.Errorf("doctor %d: %w", n.DoctorID, err)
	}
	if n.IssueDate == "" {
		n.IssueDate = time.Now().Format("2006-01-02")
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO prescriptions (patient_id, doctor_id, prescription_number, issue_date, notes) VALUES (?, ?, ?, ?, ?)`,
		n.PatientID, n.DoctorID, n.PrescriptionNumber, n.IssueDate, n.Notes)
	if err != nil {
		return domain.Prescription{}, wrapWrite(err)
	}
	id, _ := res.LastInsertId()
	return s.GetPrescription(ctx, id)
}

func (s *Store) GetPrescription(ctx context.Context, id int64) (domain.Prescription, error) {
	var p domain.Prescription
	err := s.db.GetContext(ctx, &p,
		`SELECT id, patient_id, doctor_id, prescription_number, issue_date, notes, created_at FROM prescriptions WHERE id = ?`, id)
	return p, wrapLookup(err)
}

// GetPrescriptionByNumber looks a prescription up by its natural key.
func (s *Store) GetPrescriptionByNumber(ctx context.Context, number string) (domain.Prescription, error) {
	var p domain.Prescription
	err := s.db.GetContext(ctx, &p,
		`SELECT id, patient_id, doctor_id, prescription_number, issue_date, notes, created_at FROM prescriptions WHERE prescription_number = ?`, number)
	return p, wrapLookup(err)
}

func (s *Store) ListPrescriptions(ctx context.Context, patientID int64) ([]domain.Prescription, error) {
	prescriptions := []domain.Prescription{}
	query := `SELECT id, patient_id, doctor_id, prescription_number, issue_date, notes, created_at FROM prescriptions`
	var args []any
	if patientID > 0 {
		query += ` WHERE patient_id = ?`
		args = append(args, patientID)
	}
	query += ` ORDER BY issue_date DESC, id DESC`
	err := s.db.SelectContext(ctx, &prescriptions, query, args...)
	return prescriptions, err
}

func (s *Store) DeletePrescription(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM prescription_items WHERE prescription_id = ?`, id); err != nil {
		return err
	}
	return s.deleteByID(ctx, "prescriptions", id)
}

func (s *Store) AddPrescriptionItem(ctx context.Context, prescriptionID int64, n NewPrescriptionItem) (domain.PrescriptionItem, error) {
	if n.Quantity <= 0 {
		return domain.PrescriptionItem{}, fmt.Errorf("%w: quantity must be positive", ErrInvalid)
	}
	if _, err := s.GetPrescription(ctx, prescriptionID); err != nil {
		return domain.PrescriptionItem{}, fmt.Errorf("prescription %d: %w", prescriptionID, err)
	}
	if _, err := s.GetMedicine(ctx, n.MedicineID); err != nil {
		return domain.PrescriptionItem{}, fmt.Errorf("medicine %d: %w", n.MedicineID, err)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO prescription_items (prescription_id, medicine_id, dosage, frequency, duration, quantity) VALUES (?, ?, ?, ?, ?, ?)`,
		prescriptionID, n.MedicineID, n.Dosage, n.Frequency, n.Duration, n.Quantity)
	if err != nil {
		return domain.PrescriptionItem{}, wrapWrite(err)
	}
	id, _ := res.LastInsertId()
	var item domain.PrescriptionItem
	err = s.db.GetContext(ctx, &item,
		`SELECT id, prescription_id, medicine_id, dosage, frequency, duration, quantity FROM prescription_items WHERE id = ?`, id)
	return item, wrapLookup(err)
}

func (s *Store) PrescriptionItems(ctx context.Context, prescriptionID int64) ([]domain.PrescriptionItem, error) {
	items := []domain.PrescriptionItem{}
	err := s.db.SelectContext(ctx, &items,
		`SELECT id, prescription_id, medicine_id, dosage, frequency, duration, quantity FROM prescription_items WHERE prescription_id = ? ORDER BY id`,
		prescriptionID)
	return items, err
}
