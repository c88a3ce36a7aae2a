package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/soundifyapp/soundify-service/internal/api/http"
	"github.com/soundifyapp/soundify-service/internal/api/http/handlers"
	"github.com/soundifyapp/soundify-service/internal/auth"
	"github.com/soundifyapp/soundify-service/internal/config"
	"github.com/soundifyapp/soundify-service/internal/events"
	"github.com/soundifyapp/soundify-service/internal/media"
	"github.com/soundifyapp/soundify-service/internal/observability"
	"github.com/soundifyapp/soundify-service/internal/persistence"
	"github.com/soundifyapp/soundify-service/internal/ratelimit"
	"github.com/soundifyapp/soundify-service/internal/repository"
	"github.com/soundifyapp/soundify-service/internal/service"
	"github.com/soundifyapp/soundify-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	mediaStore, err := media.NewStore(cfg.Media.Root, cfg.Media.PublicBaseURL)
	if err != nil {
		logger.Fatal("failed to init media store", zap.Error(err))
	}

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	saltRepo := repository.NewSaltRepository(pool)
	soundRepo := repository.NewSoundRepository(pool)
	favoriteRepo := repository.NewFavoriteRepository(pool)

	hasher := auth.NewPasswordHasher(cfg.Auth.PBKDF2Iterations)
	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.Audience, cfg.Auth.TokenTTL())
	loginLimiter := ratelimit.NewRedisLoginLimiter(redis.ClientHandle(), cfg.Auth.LoginAttemptLimit, cfg.Auth.LoginAttemptWindow(), logger)

	dispatcher := events.NewInMemoryDispatcher()
	activityService := service.NewActivityService(dispatcher, favoriteRepo, redis.ClientHandle(), logger)
	worker.StartActivityWorker(activityService)

	credentialService := service.NewCredentialService(saltRepo, hasher)
	authService := service.NewAuthService(service.AuthDependencies{
		DB:          pool,
		UserRepo:    userRepo,
		Credentials: credentialService,
		Tokens:      tokenManager,
		Limiter:     loginLimiter,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	userService := service.NewUserService(userRepo, mediaStore, logger)
	soundService := service.NewSoundService(service.SoundDependencies{
		SoundRepo:    soundRepo,
		UserRepo:     userRepo,
		FavoriteRepo: favoriteRepo,
		Files:        mediaStore,
		Counters:     activityService,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)
	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis)
	usersHandler := handlers.NewUsersHandler(authService, userService, soundService, mediaStore, metrics)
	soundsHandler := handlers.NewSoundsHandler(soundService, mediaStore)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         healthHandler,
		Users:          usersHandler,
		Sounds:         soundsHandler,
		AuthMiddleware: authMiddleware,
		MediaRoot:      mediaStore.Root(),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
