package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/soundifyapp/soundify-service/internal/api/http/handlers"
	"github.com/soundifyapp/soundify-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Sounds         *handlers.SoundsHandler
	AuthMiddleware *auth.AuthMiddleware
	MediaRoot      string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Static("/media", cfg.MediaRoot)

	api := app.Group("/api")

	users := api.Group("/users")
	users.Post("/register", cfg.Users.Register)
	users.Post("/login", cfg.Users.Login)
	users.Get("/search", cfg.Users.Search)
	users.Get("/:id/favorites", cfg.Users.Favorites)
	users.Get("/", cfg.Users.Get)
	users.Post("/me/picture", cfg.AuthMiddleware.Handle, cfg.Users.UploadPicture)

	sounds := api.Group("/sounds")
	sounds.Get("/lookup", cfg.Sounds.Lookup)
	sounds.Get("/search", cfg.Sounds.Search)
	sounds.Get("/", cfg.Sounds.List)
	sounds.Post("/", cfg.AuthMiddleware.Handle, cfg.Sounds.Upload)

	favorites := api.Group("/favorites", cfg.AuthMiddleware.Handle)
	favorites.Post("/", cfg.Sounds.AddFavorite)
	favorites.Delete("/", cfg.Sounds.RemoveFavorite)
}
