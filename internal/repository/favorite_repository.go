package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	apperrors "github.com/soundifyapp/soundify-service/pkg/util"
)

// FavoriteRepository defines persistence access for favorites.
type FavoriteRepository interface {
	Add(ctx context.Context, userID, soundID string) error
	Remove(ctx context.Context, userID, soundID string) error
	ListSoundIDs(ctx context.Context, userID string, limit, offset int) ([]string, error)
	CountByUser(ctx context.Context, userID string) (int, error)
	CountBySound(ctx context.Context, soundID string) (int64, error)
}

type favoriteRepository struct {
	db DB
}

// NewFavoriteRepository returns a Postgres-backed implementation.
func NewFavoriteRepository(db DB) FavoriteRepository {
	return &favoriteRepository{db: db}
}

func (r *favoriteRepository) Add(ctx context.Context, userID, soundID string) error {
	const query = `INSERT INTO favorites (user_id, sound_id) VALUES ($1, $2)`

	if _, err := r.db.Exec(ctx, query, userID, soundID); err != nil {
		if IsUniqueViolation(err) {
			return apperrors.NewConflict("sound already in favorites", map[string]any{
				"user_id":  userID,
				"sound_id": soundID,
			})
		}
		return err
	}
	return nil
}

func (r *favoriteRepository) Remove(ctx context.Context, userID, soundID string) error {
	const query = `DELETE FROM favorites WHERE user_id=$1 AND sound_id=$2`

	cmd, err := r.db.Exec(ctx, query, userID, soundID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *favoriteRepository) ListSoundIDs(ctx context.Context, userID string, limit, offset int) ([]string, error) {
	query := `SELECT sound_id FROM favorites WHERE user_id=$1 ORDER BY created_at`
	args := []any{userID}
	if limit > 0 {
		args = append(args, limit, offset)
		query += ` LIMIT $2 OFFSET $3`
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *favoriteRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM favorites WHERE user_id=$1`, userID).Scan(&count)
	return count, err
}

func (r *favoriteRepository) CountBySound(ctx context.Context, soundID string) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM favorites WHERE sound_id=$1`, soundID).Scan(&count)
	return count, err
}
