package store

import (
	"context"
	"fmt"
	"strings"

	"pharmatrack/m/domain"
)

type NewUser struct {
	Username string
	Email    string
	Password string // bcrypt hash, produced at the boundary
	Role     string
}

func (s *Store) CreateUser(ctx context.Context, n NewUser) (domain.User, error) {
	if n.Username == "" || n.Email == "" || n.Password == "" || n.Role == "" {
		return domain.User{}, fmt.Errorf("%w: username, email, password and role are required", ErrInvalid)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, email, password, role) VALUES (?, ?, ?, ?)`,
		n.Username, strings.ToLower(n.Email), n.Password, n.Role)
	if err != nil {
		return domain.User{}, wrapWrite(err)
	}
	id, _ := res.LastInsertId()
	return s.GetUser(ctx, id)
}

func (s *Store) GetUser(ctx context.Context, id int64) (domain.User, error) {
	var u domain.User
	err := s.db.GetContext(ctx, &u, `SELECT id, username, email, password, role, created_at FROM users WHERE id = ?`, id)
	return u, wrapLookup(err)
}

// GetUserByUsername looks a user up by its natural key.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	var u domain.User
	err := s.db.GetContext(ctx, &u, `SELECT id, username, email, password, role, created_at FROM users WHERE username = ?`, username)
	return u, wrapLookup(err)
}

func (s *Store) UpdateUserPassword(ctx context.Context, id int64, hash string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET password = ? WHERE id = ?`, hash, id)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}
