package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the querier contract satisfied by both *pgxpool.Pool and pgx.Tx,
// so repositories can run against the pool or inside a transaction.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// uniqueViolation is the Postgres error code for unique constraint failures.
const uniqueViolation = "23505"

// IsUniqueViolation reports whether err is a Postgres unique constraint
// failure. The constraint, not a prior existence check, is the authority
// on duplicates.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
