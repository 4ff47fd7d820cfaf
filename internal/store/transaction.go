package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"pharmatrack/m/domain"
)

type NewTransaction struct {
	PatientID      int64  `json:"patient_id"`
	PrescriptionID *int64 `json:"prescription_id"`
	Date           string `json:"date"`
}

const transactionColumns = `id, patient_id, prescription_id, transaction_number, date, total_cents, status, created_at`

// CreateTransaction opens a pending transaction with a server-generated
// display number. Items are added afterwards through the inventory service,
// which is what moves stock.
func (s *Store) CreateTransaction(ctx context.Context, n NewTransaction) (domain.Transaction, error) {
	if _, err := s.GetPatient(ctx, n.PatientID); err != nil {
		return domain.Transaction{}, fmt.Errorf("patient %d: %w", n.PatientID, err)
	}
	if n.PrescriptionID != nil {
		if _, err := s.GetPrescription(ctx, *n.PrescriptionID); err != nil {
			return domain.Transaction{}, fmt.Errorf("prescription %d: %w", *n.PrescriptionID, err)
		}
	}
	if n.Date == "" {
		n.Date = time.Now().Format("2006-01-02")
	}
	number := "TXN-" + strings.ToUpper(uuid.NewString()[:8])
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (patient_id, prescription_id, transaction_number, date, total_cents, status) VALUES (?, ?, ?, ?, 0, ?)`,
		n.PatientID, n.PrescriptionID, number, n.Date, domain.TransactionPending)
	if err != nil {
		return domain.Transaction{}, wrapWrite(err)
	}
	id, _ := res.LastInsertId()
	return s.GetTransaction(ctx, id)
}

func (s *Store) GetTransaction(ctx context.Context, id int64) (domain.Transaction, error) {
	var t domain.Transaction
	err := s.db.GetContext(ctx, &t, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	return t, wrapLookup(err)
}

func (s *Store) ListTransactions(ctx context.Context, patientID int64) ([]domain.Transaction, error) {
	transactions := []domain.Transaction{}
	query := `SELECT ` + transactionColumns + ` FROM transactions`
	var args []any
	if patientID > 0 {
		query += ` WHERE patient_id = ?`
		args = append(args, patientID)
	}
	query += ` ORDER BY date DESC, id DESC`
	err := s.db.SelectContext(ctx, &transactions, query, args...)
	return transactions, err
}

// UpdateTransactionStatus validates the status value and persists it.
// Status changes on a transaction never move stock; only item creation does.
func (s *Store) UpdateTransactionStatus(ctx context.Context, id int64, status domain.TransactionStatus) (domain.Transaction, error) {
	if !domain.ValidTransactionStatus(status) {
		return domain.Transaction{}, fmt.Errorf("%w: unknown transaction status %q", ErrInvalid, status)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE transactions SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return domain.Transaction{}, err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return domain.Transaction{}, ErrNotFound
	}
	return s.GetTransaction(ctx, id)
}

func (s *Store) TransactionItems(ctx context.Context, transactionID int64) ([]domain.TransactionItem, error) {
	items := []domain.TransactionItem{}
	err := s.db.SelectContext(ctx, &items,
		`SELECT id, transaction_id, medicine_id, quantity, unit_price_cents, line_cents FROM transaction_items WHERE transaction_id = ? ORDER BY id`,
		transactionID)
	return items, err
}
