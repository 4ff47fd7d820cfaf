package store

import (
	"database/sql"
	"errors"
	"strings"
)

// Sentinel errors shared by every repository. Handlers map these onto HTTP
// status codes at the boundary; nothing in this package is fatal.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate key")
	ErrInvalid   = errors.New("invalid input")
	ErrConflict  = errors.New("consistency conflict")
)

// wrapLookup converts sql.ErrNoRows into ErrNotFound.
func wrapLookup(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// wrapWrite surfaces unique-constraint violations as ErrDuplicate.
func wrapWrite(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return ErrDuplicate
	}
	return err
}
