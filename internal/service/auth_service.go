package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/soundifyapp/soundify-service/internal/auth"
	"github.com/soundifyapp/soundify-service/internal/domain"
	"github.com/soundifyapp/soundify-service/internal/events"
	"github.com/soundifyapp/soundify-service/internal/ratelimit"
	"github.com/soundifyapp/soundify-service/internal/repository"
	apperrors "github.com/soundifyapp/soundify-service/pkg/util"
)

// TxBeginner starts transactions; satisfied by *pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// AuthService coordinates registration, login and token checks.
type AuthService struct {
	db          TxBeginner
	users       repository.UserRepository
	credentials *CredentialService
	tokens      *auth.TokenManager
	limiter     ratelimit.LoginLimiter
	dispatcher  events.Dispatcher
	logger      *zap.Logger
}

// AuthDependencies encapsulates requirements for the auth service.
type AuthDependencies struct {
	DB          TxBeginner
	UserRepo    repository.UserRepository
	Credentials *CredentialService
	Tokens      *auth.TokenManager
	Limiter     ratelimit.LoginLimiter
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		db:          deps.DB,
		users:       deps.UserRepo,
		credentials: deps.Credentials,
		tokens:      deps.Tokens,
		limiter:     deps.Limiter,
		dispatcher:  deps.Dispatcher,
		logger:      logger,
	}
}

// invalidCredentials is the single outcome for unknown email and wrong
// password, so callers cannot probe which accounts exist.
func invalidCredentials() error {
	return apperrors.NewUnauthorized("invalid email or password")
}

// Register creates a new account. The salt row and the account record are
// committed in one transaction; the unique email index is the authority on
// duplicates.
func (s *AuthService) Register(ctx context.Context, email, username, password string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	username = strings.TrimSpace(username)
	if email == "" || username == "" || password == "" {
		return nil, apperrors.NewValidationError("email, username, password required", nil)
	}
	if !strings.Contains(email, "@") {
		return nil, apperrors.NewValidationError("invalid email address", nil)
	}
	if len(password) < 8 {
		return nil, apperrors.NewValidationError("password must be at least 8 characters", nil)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	userID := uuid.NewString()

	hashed, err := s.credentials.WithTx(tx).Enroll(ctx, userID, password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:                     userID,
		Username:               username,
		Email:                  email,
		HashedPassword:         hashed,
		ProfilePictureFileName: domain.DefaultProfilePicture,
	}
	if err := s.users.WithTx(tx).Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("this email is already used", nil)
		}
		return nil, apperrors.NewInternalError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	s.publish(ctx, events.EventUserRegistered, user.ID, events.UserRegisteredPayload{
		Email:    user.Email,
		Username: user.Username,
	})
	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return user, nil
}

// Login authenticates an account and issues a bearer token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, "", time.Time{}, apperrors.NewValidationError("email and password required", nil)
	}

	if s.limiter != nil {
		allowed, retryAfter, err := s.limiter.Allow(ctx, email)
		if err != nil {
			s.logger.Warn("login limiter error", zap.Error(err))
		} else if !allowed {
			s.logger.Warn("login throttled", zap.Duration("retry_after", retryAfter))
			return nil, "", time.Time{}, apperrors.NewTooManyRequests("too many login attempts")
		}
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, invalidCredentials()
		}
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}

	ok, err := s.credentials.Verify(ctx, user.ID, password, user.HashedPassword)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// account without a salt row behaves like a wrong password
			return nil, "", time.Time{}, invalidCredentials()
		}
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}
	if !ok {
		return nil, "", time.Time{}, invalidCredentials()
	}

	token, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}
	return user, token, expiresAt, nil
}

// Authenticate validates a presented bearer token and returns its claims.
// It needs nothing beyond the in-memory signing key.
func (s *AuthService) Authenticate(tokenStr string) (*auth.Claims, error) {
	claims, err := s.tokens.Parse(tokenStr)
	if err != nil {
		return nil, apperrors.NewUnauthorized("invalid or expired token")
	}
	return claims, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}

func (s *AuthService) publish(ctx context.Context, eventType events.EventType, subjectID string, payload any) {
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
