package repository

import (
	"context"

	"github.com/soundifyapp/soundify-service/internal/domain"
)

// SoundRepository defines persistence access for sounds.
type SoundRepository interface {
	Create(ctx context.Context, sound *domain.Sound) error
	GetByID(ctx context.Context, id string) (*domain.Sound, error)
	GetByName(ctx context.Context, name string) (*domain.Sound, error)
	List(ctx context.Context, limit, offset int) ([]domain.Sound, error)
	CountAll(ctx context.Context) (int, error)
	SearchByName(ctx context.Context, term string, limit, offset int) ([]domain.Sound, error)
	CountByName(ctx context.Context, term string) (int, error)
}

type soundRepository struct {
	db DB
}

// NewSoundRepository returns a Postgres-backed implementation.
func NewSoundRepository(db DB) SoundRepository {
	return &soundRepository{db: db}
}

const soundColumns = `id, name, uploader_id, file_extension, created_at`

func (r *soundRepository) Create(ctx context.Context, sound *domain.Sound) error {
	const query = `
        INSERT INTO sounds (id, name, uploader_id, file_extension)
        VALUES ($1, $2, $3, $4)
        RETURNING created_at`

	return r.db.QueryRow(ctx, query,
		sound.ID,
		sound.Name,
		sound.UploaderID,
		sound.FileExtension,
	).Scan(&sound.CreatedAt)
}

func (r *soundRepository) GetByID(ctx context.Context, id string) (*domain.Sound, error) {
	return r.getOne(ctx, `SELECT `+soundColumns+` FROM sounds WHERE id=$1`, id)
}

func (r *soundRepository) GetByName(ctx context.Context, name string) (*domain.Sound, error) {
	return r.getOne(ctx, `SELECT `+soundColumns+` FROM sounds WHERE name=$1 ORDER BY created_at LIMIT 1`, name)
}

func (r *soundRepository) getOne(ctx context.Context, query string, arg any) (*domain.Sound, error) {
	var sound domain.Sound
	if err := r.db.QueryRow(ctx, query, arg).Scan(
		&sound.ID,
		&sound.Name,
		&sound.UploaderID,
		&sound.FileExtension,
		&sound.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &sound, nil
}

func (r *soundRepository) List(ctx context.Context, limit, offset int) ([]domain.Sound, error) {
	query := `SELECT ` + soundColumns + ` FROM sounds ORDER BY created_at`
	args := make([]any, 0, 2)
	if limit > 0 {
		args = append(args, limit, offset)
		query += ` LIMIT $1 OFFSET $2`
	}
	return r.collect(ctx, query, args...)
}

func (r *soundRepository) CountAll(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM sounds`).Scan(&count)
	return count, err
}

func (r *soundRepository) SearchByName(ctx context.Context, term string, limit, offset int) ([]domain.Sound, error) {
	query := `SELECT ` + soundColumns + ` FROM sounds WHERE name ILIKE '%' || $1 || '%' ORDER BY created_at`
	args := []any{term}
	if limit > 0 {
		args = append(args, limit, offset)
		query += ` LIMIT $2 OFFSET $3`
	}
	return r.collect(ctx, query, args...)
}

func (r *soundRepository) CountByName(ctx context.Context, term string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM sounds WHERE name ILIKE '%' || $1 || '%'`, term).Scan(&count)
	return count, err
}

func (r *soundRepository) collect(ctx context.Context, query string, args ...any) ([]domain.Sound, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sounds []domain.Sound
	for rows.Next() {
		var sound domain.Sound
		if err := rows.Scan(
			&sound.ID,
			&sound.Name,
			&sound.UploaderID,
			&sound.FileExtension,
			&sound.CreatedAt,
		); err != nil {
			return nil, err
		}
		sounds = append(sounds, sound)
	}
	return sounds, rows.Err()
}
