package repository

import (
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrStaleStatus = errors.New("payment status changed concurrently")
	ErrConflict    = errors.New("already exists")
)

func translate(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// isUUID reports whether id can be compared against a uuid column. Lookups by
// a malformed id find nothing instead of failing the cast in Postgres.
func isUUID(id string) bool {
	return uuid.Validate(id) == nil
}
