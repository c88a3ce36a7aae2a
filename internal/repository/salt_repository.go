package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	apperrors "github.com/soundifyapp/soundify-service/pkg/util"
)

// SaltRepository persists one random salt per account. Salts are write-once:
// a second Put for the same account fails with Conflict.
type SaltRepository interface {
	Put(ctx context.Context, userID string, salt []byte) error
	Get(ctx context.Context, userID string) ([]byte, error)
	WithTx(tx pgx.Tx) SaltRepository
}

type saltRepository struct {
	db DB
}

// NewSaltRepository returns a Postgres-backed implementation.
func NewSaltRepository(db DB) SaltRepository {
	return &saltRepository{db: db}
}

func (r *saltRepository) WithTx(tx pgx.Tx) SaltRepository {
	return &saltRepository{db: tx}
}

func (r *saltRepository) Put(ctx context.Context, userID string, salt []byte) error {
	const query = `INSERT INTO salts (user_id, salt) VALUES ($1, $2)`

	if _, err := r.db.Exec(ctx, query, userID, salt); err != nil {
		if IsUniqueViolation(err) {
			return apperrors.NewConflict("credential already enrolled", map[string]any{"user_id": userID})
		}
		return fmt.Errorf("put salt: %w", err)
	}
	return nil
}

func (r *saltRepository) Get(ctx context.Context, userID string) ([]byte, error) {
	const query = `SELECT salt FROM salts WHERE user_id=$1`

	var salt []byte
	if err := r.db.QueryRow(ctx, query, userID).Scan(&salt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get salt: %w", err)
	}
	return salt, nil
}
