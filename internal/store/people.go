package store

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"pharmatrack/m/domain"
)

// Patients

type NewPatient struct {
	Name      string  `json:"name"`
	Phone     string  `json:"phone"`
	Email     string  `json:"email"`
	Address   string  `json:"address"`
	BirthDate *string `json:"birth_date"`
}

type PatientPatch struct {
	Name      *string `json:"name"`
	Phone     *string `json:"phone"`
	Email     *string `json:"email"`
	Address   *string `json:"address"`
	BirthDate *string `json:"birth_date"`
}

func (s *Store) CreatePatient(ctx context.Context, n NewPatient) (domain.Patient, error) {
	if strings.TrimSpace(n.Name) == "" {
		return domain.Patient{}, fmt.Errorf("%w: name is required", ErrInvalid)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO patients (name, phone, email, address, birth_date) VALUES (?, ?, ?, ?, ?)`,
		n.Name, n.Phone, strings.ToLower(n.Email), n.Address, n.BirthDate)
	if err != nil {
		return domain.Patient{}, wrapWrite(err)
	}
	id, _ := res.LastInsertId()
	return s.GetPatient(ctx, id)
}

func (s *Store) GetPatient(ctx context.Context, id int64) (domain.Patient, error) {
	var p domain.Patient
	err := s.db.GetContext(ctx, &p, `SELECT id, name, phone, email, address, birth_date, created_at FROM patients WHERE id = ?`, id)
	return p, wrapLookup(err)
}

func (s *Store) UpdatePatient(ctx context.Context, id int64, p PatientPatch) (domain.Patient, error) {
	sets, args := patchClauses(map[string]*string{
		"name": p.Name, "phone": p.Phone, "email": p.Email, "address": p.Address,
	})
	if p.BirthDate != nil {
		sets = append(sets, "birth_date = ?")
		args = append(args, nullIfEmpty(*p.BirthDate))
	}
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return domain.Patient{}, fmt.Errorf("%w: name must not be empty", ErrInvalid)
	}
	if len(sets) == 0 {
		return s.GetPatient(ctx, id)
	}
	args = append(args, id)
	res, err := s.db.ExecContext(ctx, `UPDATE patients SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return domain.Patient{}, wrapWrite(err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return domain.Patient{}, ErrNotFound
	}
	return s.GetPatient(ctx, id)
}

func (s *Store) DeletePatient(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "patients", id)
}

func (s *Store) ListPatients(ctx context.Context, name string) ([]domain.Patient, error) {
	patients := []domain.Patient{}
	query := `SELECT id, name, phone, email, address, birth_date, created_at FROM patients`
	var args []any
	if name != "" {
		query += ` WHERE name LIKE ?`
		args = append(args, "%"+name+"%")
	}
	query += ` ORDER BY name`
	err := s.db.SelectContext(ctx, &patients, query, args...)
	return patients, err
}

// Doctors

type NewDoctor struct {
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
}

type DoctorPatch struct {
	Name      *string `json:"name"`
	Specialty *string `json:"specialty"`
	Phone     *string `json:"phone"`
	Email     *string `json:"email"`
}

func (s *Store) CreateDoctor(ctx context.Context, n NewDoctor) (domain.Doctor, error) {
	if strings.TrimSpace(n.Name) == "" {
		return domain.Doctor{}, fmt.Errorf("%w: name is required", ErrInvalid)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO doctors (name, specialty, phone, email) VALUES (?, ?, ?, ?)`,
		n.Name, n.Specialty, n.Phone, strings.ToLower(n.Email))
	if err != nil {
		return domain.Doctor{}, wrapWrite(err)
	}
	id, _ := res.LastInsertId()
	return s.GetDoctor(ctx, id)
}

func (s *Store) GetDoctor(ctx context.Context, id int64) (domain.Doctor, error) {
	var d domain.Doctor
	err := s.db.GetContext(ctx, &d, `SELECT id, name, specialty, phone, email, created_at FROM doctors WHERE id = ?`, id)
	return d, wrapLookup(err)
}

func (s *Store) UpdateDoctor(ctx context.Context, id int64, p DoctorPatch) (domain.Doctor, error) {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return domain.Doctor{}, fmt.Errorf("%w: name must not be empty", ErrInvalid)
	}
	sets, args := patchClauses(map[string]*string{
		"name": p.Name, "specialty": p.Specialty, "phone": p.Phone, "email": p.Email,
	})
	if len(sets) == 0 {
		return s.GetDoctor(ctx, id)
	}
	args = append(args, id)
	res, err := s.db.ExecContext(ctx, `UPDATE doctors SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return domain.Doctor{}, wrapWrite(err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return domain.Doctor{}, ErrNotFound
	}
	return s.GetDoctor(ctx, id)
}

func (s *Store) DeleteDoctor(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "doctors", id)
}

func (s *Store) ListDoctors(ctx context.Context, name string) ([]domain.Doctor, error) {
	doctors := []domain.Doctor{}
	query := `SELECT id, name, specialty, phone, email, created_at FROM doctors`
	var args []any
	if name != "" {
		query += ` WHERE name LIKE ?`
		args = append(args, "%"+name+"%")
	}
	query += ` ORDER BY name`
	err := s.db.SelectContext(ctx, &doctors, query, args...)
	return doctors, err
}

// Suppliers

type NewSupplier struct {
	Name          string `json:"name"`
	ContactPerson string `json:"contact_person"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	Address       string `json:"address"`
}

type SupplierPatch struct {
	Name          *string `json:"name"`
	ContactPerson *string `json:"contact_person"`
	Phone         *string `json:"phone"`
	Email         *string `json:"email"`
	Address       *string `json:"address"`
}

func (s *Store) CreateSupplier(ctx context.Context, n NewSupplier) (domain.Supplier, error) {
	if strings.TrimSpace(n.Name) == "" {
		return domain.Supplier{}, fmt.Errorf("%w: name is required", ErrInvalid)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO suppliers (name, contact_person, phone, email, address) VALUES (?, ?, ?, ?, ?)`,
		n.Name, n.ContactPerson, n.Phone, strings.ToLower(n.Email), n.Address)
	if err != nil {
		return domain.Supplier{}, wrapWrite(err)
	}
	id, _ := res.LastInsertId()
	return s.GetSupplier(ctx, id)
}

func (s *Store) GetSupplier(ctx context.Context, id int64) (domain.Supplier, error) {
	var sup domain.Supplier
	err := s.db.GetContext(ctx, &sup, `SELECT id, name, contact_person, phone, email, address, created_at FROM suppliers WHERE id = ?`, id)
	return sup, wrapLookup(err)
}

func (s *Store) UpdateSupplier(ctx context.Context, id int64, p SupplierPatch) (domain.Supplier, error) {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return domain.Supplier{}, fmt.Errorf("%w: name must not be empty", ErrInvalid)
	}
	sets, args := patchClauses(map[string]*string{
		"name": p.Name, "contact_person": p.ContactPerson, "phone": p.Phone, "email": p.Email, "address": p.Address,
	})
	if len(sets) == 0 {
		return s.GetSupplier(ctx, id)
	}
	args = append(args, id)
	res, err := s.db.ExecContext(ctx, `UPDATE suppliers SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return domain.Supplier{}, wrapWrite(err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return domain.Supplier{}, ErrNotFound
	}
	return s.GetSupplier(ctx, id)
}

func (s *Store) DeleteSupplier(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "suppliers", id)
}

func (s *Store) ListSuppliers(ctx context.Context, name string) ([]domain.Supplier, error) {
	suppliers := []domain.Supplier{}
	query := `SELECT id, name, contact_person, phone, email, address, created_at FROM suppliers`
	var args []any
	if name != "" {
		query += ` WHERE name LIKE ?`
		args = append(args, "%"+name+"%")
	}
	query += ` ORDER BY name`
	err := s.db.SelectContext(ctx, &suppliers, query, args...)
	return suppliers, err
}

// helpers

func (s *Store) deleteByID(ctx context.Context, table string, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

// patchClauses builds SET fragments for the plain string columns of a patch,
// skipping nil entries.
func patchClauses(cols map[string]*string) ([]string, []any) {
	var (
		sets []string
		args []any
	)
	for _, col := range sortedKeys(cols) {
		if val := cols[col]; val != nil {
			sets = append(sets, col+" = ?")
			args = append(args, *val)
		}
	}
	return sets, args
}

// sortedKeys keeps the statement text deterministic for a given patch shape.
func sortedKeys(cols map[string]*string) []string {
	keys := make([]string, 0, len(cols))
	for k := range cols {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
