package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound es un resultado esperado de lookup, no un fallo.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate indica violacion de una constraint unique.
	ErrDuplicate = errors.New("duplicate")
	// ErrBackendUnavailable envuelve cualquier otro fallo del driver o la red.
	ErrBackendUnavailable = errors.New("backend unavailable")
)

const uniqueViolation = "23505"

// mapError traduce errores de pgx a los sentinels del paquete.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
	}
	return fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
}
