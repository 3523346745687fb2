package core

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Sentinel errors the HTTP layer maps to distinct status codes. Services
// wrap these with context via fmt.Errorf and %w.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrAlreadyConfirmed  = errors.New("invoice already confirmed")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrUnmappedLines     = errors.New("invoice has unmapped lines")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrDuplicateSKU      = errors.New("sku already in use")
	ErrEmptyFile         = errors.New("uploaded file is empty")
	ErrFileTooLarge      = errors.New("uploaded file exceeds size limit")
	ErrInUse             = errors.New("record is referenced by other rows")
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

