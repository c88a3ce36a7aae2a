package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/soundifyapp/soundify-service/internal/events"
	"github.com/soundifyapp/soundify-service/internal/repository"
)

const favoriteCountTTL = 10 * time.Minute

// ActivityService reacts to domain events. It logs account and upload
// activity and keeps per-sound favorite counters cached in Redis, reading
// through to Postgres on a cache miss.
type ActivityService struct {
	dispatcher events.Dispatcher
	favorites  repository.FavoriteRepository
	redis      *redis.Client
	logger     *zap.Logger
}

// NewActivityService creates the service. A nil Redis client disables the
// counter cache; counts then come straight from the repository.
func NewActivityService(dispatcher events.Dispatcher, favorites repository.FavoriteRepository, client *redis.Client, logger *zap.Logger) *ActivityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityService{
		dispatcher: dispatcher,
		favorites:  favorites,
		redis:      client,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (a *ActivityService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventUserRegistered, a.handleUserRegistered)
	a.dispatcher.Subscribe(events.EventSoundUploaded, a.handleSoundUploaded)
	a.dispatcher.Subscribe(events.EventFavoriteAdded, a.handleFavoriteAdded)
	a.dispatcher.Subscribe(events.EventFavoriteRemoved, a.handleFavoriteRemoved)
}

// FavoriteCount returns the number of users who favorited the sound.
func (a *ActivityService) FavoriteCount(ctx context.Context, soundID string) (int64, error) {
	if a.redis == nil {
		return a.favorites.CountBySound(ctx, soundID)
	}

	key := favoriteCountKey(soundID)
	cached, err := a.redis.Get(ctx, key).Result()
	if err == nil {
		if count, parseErr := strconv.ParseInt(cached, 10, 64); parseErr == nil {
			return count, nil
		}
	} else if err != redis.Nil {
		a.logger.Warn("favorite counter cache unavailable", zap.Error(err))
		return a.favorites.CountBySound(ctx, soundID)
	}

	count, err := a.favorites.CountBySound(ctx, soundID)
	if err != nil {
		return 0, err
	}
	if err := a.redis.Set(ctx, key, count, favoriteCountTTL).Err(); err != nil {
		a.logger.Warn("favorite counter cache write failed", zap.Error(err))
	}
	return count, nil
}

func (a *ActivityService) handleUserRegistered(_ context.Context, event events.Event) error {
	a.logger.Info("UserRegistered", zap.String("user_id", event.SubjectID), zap.Any("payload", event.Payload))
	return nil
}

func (a *ActivityService) handleSoundUploaded(_ context.Context, event events.Event) error {
	a.logger.Info("SoundUploaded", zap.String("uploader_id", event.SubjectID), zap.Any("payload", event.Payload))
	return nil
}

func (a *ActivityService) handleFavoriteAdded(ctx context.Context, event events.Event) error {
	a.logger.Info("FavoriteAdded", zap.String("user_id", event.SubjectID), zap.Any("payload", event.Payload))
	a.adjustCounter(ctx, event, 1)
	return nil
}

func (a *ActivityService) handleFavoriteRemoved(ctx context.Context, event events.Event) error {
	a.logger.Info("FavoriteRemoved", zap.String("user_id", event.SubjectID), zap.Any("payload", event.Payload))
	a.adjustCounter(ctx, event, -1)
	return nil
}

func (a *ActivityService) adjustCounter(ctx context.Context, event events.Event, delta int64) {
	if a.redis == nil {
		return
	}
	payload, ok := event.Payload.(events.FavoritePayload)
	if !ok {
		return
	}
	key := favoriteCountKey(payload.SoundID)
	// only adjust an existing cache entry; a miss repopulates from Postgres
	exists, err := a.redis.Exists(ctx, key).Result()
	if err != nil || exists == 0 {
		return
	}
	if err := a.redis.IncrBy(ctx, key, delta).Err(); err != nil {
		a.logger.Warn("favorite counter adjust failed", zap.Error(err))
	}
}

func favoriteCountKey(soundID string) string {
	return fmt.Sprintf("soundify:favorites:%s", soundID)
}
