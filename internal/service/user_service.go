package service

import (
	"context"
	"errors"
	"io"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/soundifyapp/soundify-service/internal/domain"
	"github.com/soundifyapp/soundify-service/internal/repository"
	apperrors "github.com/soundifyapp/soundify-service/pkg/util"
)

// ProfilePictureStore persists uploaded profile pictures.
type ProfilePictureStore interface {
	SaveProfilePicture(fileName string, r io.Reader) error
	RemoveProfilePicture(fileName string) error
}

// UserService handles account lookup and profile management.
type UserService struct {
	users    repository.UserRepository
	pictures ProfilePictureStore
	logger   *zap.Logger
}

// NewUserService builds the service.
func NewUserService(users repository.UserRepository, pictures ProfilePictureStore, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{users: users, pictures: pictures, logger: logger}
}

// Get resolves a single user by the first non-empty criterion: id, email,
// then username.
func (s *UserService) Get(ctx context.Context, id, email, username string) (*domain.User, error) {
	var (
		user *domain.User
		err  error
	)
	switch {
	case id != "":
		user, err = s.users.GetByID(ctx, id)
	case email != "":
		user, err = s.users.GetByEmail(ctx, email)
	case username != "":
		user, err = s.users.GetByUsername(ctx, username)
	default:
		return nil, apperrors.NewValidationError("id, email or username required", nil)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, apperrors.NewInternalError(err)
	}
	return user, nil
}

// Search lists users matching the filter.
func (s *UserService) Search(ctx context.Context, filter repository.UserFilter) ([]domain.User, error) {
	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if len(users) == 0 {
		return nil, apperrors.NewNotFound("user", nil)
	}
	return users, nil
}

// SetProfilePicture stores the uploaded image, replaces the previous
// non-default picture, and updates the account record.
func (s *UserService) SetProfilePicture(ctx context.Context, userID, extension string, r io.Reader) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, apperrors.NewInternalError(err)
	}

	fileName := userID + extension
	if err := s.pictures.SaveProfilePicture(fileName, r); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	previous := user.ProfilePictureFileName
	if previous != domain.DefaultProfilePicture && previous != fileName {
		if err := s.pictures.RemoveProfilePicture(previous); err != nil {
			s.logger.Warn("failed to remove previous profile picture",
				zap.String("file", previous), zap.Error(err))
		}
	}

	if err := s.users.UpdateProfilePicture(ctx, userID, fileName); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	user.ProfilePictureFileName = fileName
	return user, nil
}
