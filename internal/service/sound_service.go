package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/soundifyapp/soundify-service/internal/domain"
	"github.com/soundifyapp/soundify-service/internal/events"
	"github.com/soundifyapp/soundify-service/internal/repository"
	apperrors "github.com/soundifyapp/soundify-service/pkg/util"
)

// SoundFileStore persists uploaded sound files.
type SoundFileStore interface {
	SaveSoundFile(fileName string, r io.Reader) error
	RemoveSoundFile(fileName string) error
}

// FavoriteCounter reports how many users favorited a sound.
type FavoriteCounter interface {
	FavoriteCount(ctx context.Context, soundID string) (int64, error)
}

// Page selects a 1-based page of results.
type Page struct {
	Number int
	Size   int
}

// SoundDetail bundles a sound with its uploader and favorite count.
type SoundDetail struct {
	Sound         domain.Sound
	Uploader      *domain.User
	FavoriteCount int64
}

// SoundPage is a paged sound listing.
type SoundPage struct {
	Sounds      []SoundDetail
	CurrentPage int
	MaxPages    int
}

// SoundService coordinates sound and favorite workflows.
type SoundService struct {
	sounds     repository.SoundRepository
	users      repository.UserRepository
	favorites  repository.FavoriteRepository
	files      SoundFileStore
	counters   FavoriteCounter
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// SoundDependencies bundles requirements for the sound service.
type SoundDependencies struct {
	SoundRepo    repository.SoundRepository
	UserRepo     repository.UserRepository
	FavoriteRepo repository.FavoriteRepository
	Files        SoundFileStore
	Counters     FavoriteCounter
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// NewSoundService builds the service.
func NewSoundService(deps SoundDependencies) *SoundService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SoundService{
		sounds:     deps.SoundRepo,
		users:      deps.UserRepo,
		favorites:  deps.FavoriteRepo,
		files:      deps.Files,
		counters:   deps.Counters,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// Lookup resolves a single sound by id, or by name when id is empty.
func (s *SoundService) Lookup(ctx context.Context, id, name string) (*SoundDetail, error) {
	var (
		sound *domain.Sound
		err   error
	)
	switch {
	case id != "":
		sound, err = s.sounds.GetByID(ctx, id)
	case name != "":
		sound, err = s.sounds.GetByName(ctx, name)
	default:
		return nil, apperrors.NewValidationError("id or name required", nil)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("sound", nil)
		}
		return nil, apperrors.NewInternalError(err)
	}
	details, err := s.toDetails(ctx, []domain.Sound{*sound})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

// List returns sounds, paged when page is non-nil.
func (s *SoundService) List(ctx context.Context, page *Page) (*SoundPage, error) {
	return s.paged(ctx, page,
		s.sounds.CountAll,
		func(ctx context.Context, limit, offset int) ([]domain.Sound, error) {
			return s.sounds.List(ctx, limit, offset)
		})
}

// Search returns sounds whose name contains term, case-insensitively.
func (s *SoundService) Search(ctx context.Context, term string, page *Page) (*SoundPage, error) {
	return s.paged(ctx, page,
		func(ctx context.Context) (int, error) {
			return s.sounds.CountByName(ctx, term)
		},
		func(ctx context.Context, limit, offset int) ([]domain.Sound, error) {
			return s.sounds.SearchByName(ctx, term, limit, offset)
		})
}

// FavoritesOf lists the sounds a user marked as favorite.
func (s *SoundService) FavoritesOf(ctx context.Context, userID string, page *Page) (*SoundPage, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, apperrors.NewInternalError(err)
	}
	return s.paged(ctx, page,
		func(ctx context.Context) (int, error) {
			return s.favorites.CountByUser(ctx, userID)
		},
		func(ctx context.Context, limit, offset int) ([]domain.Sound, error) {
			ids, err := s.favorites.ListSoundIDs(ctx, userID, limit, offset)
			if err != nil {
				return nil, err
			}
			sounds := make([]domain.Sound, 0, len(ids))
			for _, id := range ids {
				sound, err := s.sounds.GetByID(ctx, id)
				if err != nil {
					return nil, err
				}
				sounds = append(sounds, *sound)
			}
			return sounds, nil
		})
}

// Upload stores the sound file and creates the record. The file is removed
// again if the insert fails.
func (s *SoundService) Upload(ctx context.Context, uploaderID, name, extension string, r io.Reader) (*domain.Sound, error) {
	if name == "" {
		return nil, apperrors.NewValidationError("sound name required", nil)
	}
	if _, err := s.users.GetByID(ctx, uploaderID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("uploader", nil)
		}
		return nil, apperrors.NewInternalError(err)
	}

	sound := &domain.Sound{
		ID:            uuid.NewString(),
		Name:          name,
		UploaderID:    uploaderID,
		FileExtension: extension,
	}

	fileName := fmt.Sprintf("%s%s", sound.ID, sound.FileExtension)
	if err := s.files.SaveSoundFile(fileName, r); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if err := s.sounds.Create(ctx, sound); err != nil {
		if removeErr := s.files.RemoveSoundFile(fileName); removeErr != nil {
			s.logger.Warn("failed to remove orphaned sound file",
				zap.String("file", fileName), zap.Error(removeErr))
		}
		return nil, apperrors.NewInternalError(err)
	}

	s.publish(ctx, events.EventSoundUploaded, uploaderID, events.SoundUploadedPayload{
		SoundID:    sound.ID,
		Name:       sound.Name,
		UploaderID: uploaderID,
	})
	return sound, nil
}

// AddFavorite marks a sound as favorite for the user.
func (s *SoundService) AddFavorite(ctx context.Context, userID, soundID string) error {
	if _, err := s.sounds.GetByID(ctx, soundID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("sound", nil)
		}
		return apperrors.NewInternalError(err)
	}
	if err := s.favorites.Add(ctx, userID, soundID); err != nil {
		return err
	}
	s.publish(ctx, events.EventFavoriteAdded, userID, events.FavoritePayload{
		UserID:  userID,
		SoundID: soundID,
	})
	return nil
}

// RemoveFavorite removes a sound from the user's favorites.
func (s *SoundService) RemoveFavorite(ctx context.Context, userID, soundID string) error {
	if err := s.favorites.Remove(ctx, userID, soundID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("favorite", nil)
		}
		return apperrors.NewInternalError(err)
	}
	s.publish(ctx, events.EventFavoriteRemoved, userID, events.FavoritePayload{
		UserID:  userID,
		SoundID: soundID,
	})
	return nil
}

func (s *SoundService) paged(
	ctx context.Context,
	page *Page,
	count func(context.Context) (int, error),
	list func(ctx context.Context, limit, offset int) ([]domain.Sound, error),
) (*SoundPage, error) {
	total, err := count(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if total == 0 {
		return nil, apperrors.NewNotFound("sound", nil)
	}

	limit, offset := 0, 0
	currentPage, maxPages := 1, 1
	if page != nil {
		if page.Number <= 0 || page.Size <= 0 {
			return nil, apperrors.NewValidationError("invalid paging parameters", nil)
		}
		maxPages = (total + page.Size - 1) / page.Size
		if page.Number > maxPages {
			return nil, apperrors.NewValidationError("invalid paging parameters", map[string]any{
				"page":      page.Number,
				"max_pages": maxPages,
			})
		}
		currentPage = page.Number
		limit = page.Size
		offset = (page.Number - 1) * page.Size
	}

	sounds, err := list(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	details, err := s.toDetails(ctx, sounds)
	if err != nil {
		return nil, err
	}
	return &SoundPage{Sounds: details, CurrentPage: currentPage, MaxPages: maxPages}, nil
}

func (s *SoundService) toDetails(ctx context.Context, sounds []domain.Sound) ([]SoundDetail, error) {
	uploaders := make(map[string]*domain.User, len(sounds))
	details := make([]SoundDetail, 0, len(sounds))
	for _, sound := range sounds {
		uploader, ok := uploaders[sound.UploaderID]
		if !ok {
			var err error
			uploader, err = s.users.GetByID(ctx, sound.UploaderID)
			if err != nil {
				return nil, apperrors.NewInternalError(err)
			}
			uploaders[sound.UploaderID] = uploader
		}

		var count int64
		if s.counters != nil {
			var err error
			count, err = s.counters.FavoriteCount(ctx, sound.ID)
			if err != nil {
				s.logger.Warn("favorite count unavailable", zap.String("sound_id", sound.ID), zap.Error(err))
				count = 0
			}
		}

		details = append(details, SoundDetail{
			Sound:         sound,
			Uploader:      uploader,
			FavoriteCount: count,
		})
	}
	return details, nil
}

func (s *SoundService) publish(ctx context.Context, eventType events.EventType, subjectID string, payload any) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		SubjectID: subjectID,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}
