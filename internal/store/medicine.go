package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pharmatrack/m/domain"
)

// NewMedicine carries the caller-settable fields of a medicine. Stock status
// is derived, never accepted from outside.
type NewMedicine struct {
	Name           string              `json:"name"`
	Category       string              `json:"category"`
	Kind           domain.MedicineKind `json:"kind"`
	UnitPriceCents int64               `json:"unit_price_cents"`
	StockQuantity  int64               `json:"stock_quantity"`
	ExpiryDate     *string             `json:"expiry_date"`
	BatchNumber    *string             `json:"batch_number"`
	SupplierID     *int64              `json:"supplier_id"`
}

// MedicinePatch lists the optionally settable fields for an update. Nil
// means "leave unchanged"; an empty string on a nullable field clears it.
type MedicinePatch struct {
	Name           *string              `json:"name"`
	Category       *string              `json:"category"`
	Kind           *domain.MedicineKind `json:"kind"`
	UnitPriceCents *int64               `json:"unit_price_cents"`
	StockQuantity  *int64               `json:"stock_quantity"`
	ExpiryDate     *string              `json:"expiry_date"`
	BatchNumber    *string              `json:"batch_number"`
	SupplierID     *int64               `json:"supplier_id"`
}

func (n NewMedicine) validate() error {
	if strings.TrimSpace(n.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if n.Kind != "" && !domain.ValidKind(n.Kind) {
		return fmt.Errorf("%w: unknown medicine kind %q", ErrInvalid, n.Kind)
	}
	if n.UnitPriceCents < 0 {
		return fmt.Errorf("%w: unit_price_cents must not be negative", ErrInvalid)
	}
	if n.StockQuantity < 0 {
		return fmt.Errorf("%w: stock_quantity must not be negative", ErrInvalid)
	}
	return nil
}

const medicineColumns = `id, name, category, kind, unit_price_cents, stock_quantity, stock_status, expiry_date, batch_number, supplier_id, created_at, updated_at`

func (s *Store) CreateMedicine(ctx context.Context, n NewMedicine) (domain.Medicine, error) {
	if err := n.validate(); err != nil {
		return domain.Medicine{}, err
	}
	if n.Kind == "" {
		n.Kind = domain.KindOTC
	}
	status := domain.DeriveStatus(n.StockQuantity)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO medicines (name, category, kind, unit_price_cents, stock_quantity, stock_status, expiry_date, batch_number, supplier_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.Name, n.Category, n.Kind, n.UnitPriceCents, n.StockQuantity, status, n.ExpiryDate, n.BatchNumber, n.SupplierID)
	if err != nil {
		return domain.Medicine{}, wrapWrite(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Medicine{}, err
	}
	return s.GetMedicine(ctx, id)
}

func (s *Store) GetMedicine(ctx context.Context, id int64) (domain.Medicine, error) {
	var m domain.Medicine
	err := s.db.GetContext(ctx, &m, `SELECT `+medicineColumns+` FROM medicines WHERE id = ?`, id)
	return m, wrapLookup(err)
}

// UpdateMedicine applies a patch. When the patch touches stock_quantity the
// stock status is recomputed in the same statement's values; callers cannot
// set status independently.
func (s *Store) UpdateMedicine(ctx context.Context, id int64, p MedicinePatch) (domain.Medicine, error) {
	var (
		sets []string
		args []any
	)
	set := func(col string, val any) {
		sets = append(sets, col+" = ?")
		args = append(args, val)
	}
	if p.Name != nil {
		if strings.TrimSpace(*p.Name) == "" {
			return domain.Medicine{}, fmt.Errorf("%w: name must not be empty", ErrInvalid)
		}
		set("name", *p.Name)
	}
	if p.Category != nil {
		set("category", *p.Category)
	}
	if p.Kind != nil {
		if !domain.ValidKind(*p.Kind) {
			return domain.Medicine{}, fmt.Errorf("%w: unknown medicine kind %q", ErrInvalid, *p.Kind)
		}
		set("kind", *p.Kind)
	}
	if p.UnitPriceCents != nil {
		if *p.UnitPriceCents < 0 {
			return domain.Medicine{}, fmt.Errorf("%w: unit_price_cents must not be negative", ErrInvalid)
		}
		set("unit_price_cents", *p.UnitPriceCents)
	}
	if p.StockQuantity != nil {
		if *p.StockQuantity < 0 {
			return domain.Medicine{}, fmt.Errorf("%w: stock_quantity must not be negative", ErrInvalid)
		}
		set("stock_quantity", *p.StockQuantity)
		set("stock_status", domain.DeriveStatus(*p.StockQuantity))
	}
	if p.ExpiryDate != nil {
		set("expiry_date", nullIfEmpty(*p.ExpiryDate))
	}
	if p.BatchNumber != nil {
		set("batch_number", nullIfEmpty(*p.BatchNumber))
	}
	if p.SupplierID != nil {
		if *p.SupplierID == 0 {
			set("supplier_id", nil)
		} else {
			set("supplier_id", *p.SupplierID)
		}
	}
	if len(sets) == 0 {
		return s.GetMedicine(ctx, id)
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)
	res, err := s.db.ExecContext(ctx, `UPDATE medicines SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return domain.Medicine{}, wrapWrite(err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return domain.Medicine{}, ErrNotFound
	}
	return s.GetMedicine(ctx, id)
}

func (s *Store) DeleteMedicine(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM medicines WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

// MedicineFilter narrows ListMedicines. Name matches by substring, the other
// fields by equality.
type MedicineFilter struct {
	Name     string
	Category string
	Kind     string
}

func (s *Store) ListMedicines(ctx context.Context, f MedicineFilter) ([]domain.Medicine, error) {
	var (
		clauses []string
		args    []any
	)
	if f.Name != "" {
		clauses = append(clauses, "name LIKE ?")
		args = append(args, "%"+f.Name+"%")
	}
	if f.Category != "" {
		clauses = append(clauses, "category = ?")
		args = append(args, f.Category)
	}
	if f.Kind != "" {
		clauses = append(clauses, "kind = ?")
		args = append(args, f.Kind)
	}
	query := `SELECT ` + medicineColumns + ` FROM medicines`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY name"
	medicines := []domain.Medicine{}
	err := s.db.SelectContext(ctx, &medicines, query, args...)
	return medicines, err
}

// LowStockMedicines returns every medicine whose current status is low_stock
// or critical.
func (s *Store) LowStockMedicines(ctx context.Context) ([]domain.Medicine, error) {
	medicines := []domain.Medicine{}
	err := s.db.SelectContext(ctx, &medicines,
		`SELECT `+medicineColumns+` FROM medicines WHERE stock_status IN (?, ?) ORDER BY stock_quantity ASC`,
		domain.StockLow, domain.StockCritical)
	return medicines, err
}

// ExpiringMedicines returns medicines whose expiry date falls on or before
// today plus the given number of days. Already-expired stock is included.
func (s *Store) ExpiringMedicines(ctx context.Context, days int) ([]domain.Medicine, error) {
	cutoff := time.Now().AddDate(0, 0, days).Format("2006-01-02")
	medicines := []domain.Medicine{}
	err := s.db.SelectContext(ctx, &medicines,
		`SELECT `+medicineColumns+` FROM medicines WHERE expiry_date IS NOT NULL AND expiry_date <= ? ORDER BY expiry_date ASC`,
		cutoff)
	return medicines, err
}

func nullIfEmpty(val string) *string {
	trimmed := strings.TrimSpace(val)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
