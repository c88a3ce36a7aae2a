package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/soundifyapp/soundify-service/internal/domain"
)

// UserFilter narrows user listings. Empty fields are ignored.
type UserFilter struct {
	Email    string
	Username string
}

// UserRepository defines persistence access for accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context, filter UserFilter) ([]domain.User, error)
	UpdateProfilePicture(ctx context.Context, id, fileName string) error
	WithTx(tx pgx.Tx) UserRepository
}

type userRepository struct {
	db DB
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(db DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) WithTx(tx pgx.Tx) UserRepository {
	return &userRepository{db: tx}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (id, username, email, hashed_password, profile_picture_file_name)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING created_at, updated_at`

	return r.db.QueryRow(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.HashedPassword,
		user.ProfilePictureFileName,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
}

const userColumns = `id, username, email, hashed_password, profile_picture_file_name, created_at, updated_at`

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email)=lower($1)`, email)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username=$1`, username)
}

func (r *userRepository) getOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	if err := r.db.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.HashedPassword,
		&user.ProfilePictureFileName,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, filter UserFilter) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE 1=1`
	args := make([]any, 0, 2)
	if filter.Email != "" {
		args = append(args, filter.Email)
		query += ` AND lower(email)=lower($1)`
	}
	if filter.Username != "" {
		args = append(args, filter.Username)
		if len(args) == 1 {
			query += ` AND username=$1`
		} else {
			query += ` AND username=$2`
		}
	}
	query += ` ORDER BY created_at`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(
			&user.ID,
			&user.Username,
			&user.Email,
			&user.HashedPassword,
			&user.ProfilePictureFileName,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *userRepository) UpdateProfilePicture(ctx context.Context, id, fileName string) error {
	const query = `UPDATE users SET profile_picture_file_name=$1, updated_at=NOW() WHERE id=$2`

	cmd, err := r.db.Exec(ctx, query, fileName, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
