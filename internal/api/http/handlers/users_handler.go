package handlers

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/soundifyapp/soundify-service/internal/api/dto"
	"github.com/soundifyapp/soundify-service/internal/auth"
	"github.com/soundifyapp/soundify-service/internal/domain"
	"github.com/soundifyapp/soundify-service/internal/media"
	"github.com/soundifyapp/soundify-service/internal/observability"
	"github.com/soundifyapp/soundify-service/internal/repository"
	"github.com/soundifyapp/soundify-service/internal/service"
	apperrors "github.com/soundifyapp/soundify-service/pkg/util"
)

// UsersHandler exposes account endpoints.
type UsersHandler struct {
	auth    *service.AuthService
	users   *service.UserService
	sounds  *service.SoundService
	media   *media.Store
	metrics *observability.Metrics
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService, userService *service.UserService, soundService *service.SoundService, mediaStore *media.Store, metrics *observability.Metrics) *UsersHandler {
	return &UsersHandler{auth: authService, users: userService, sounds: soundService, media: mediaStore, metrics: metrics}
}

// Register handles POST /api/users/register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.UserRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, err := h.auth.Register(c.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"user": h.userResponse(user),
		},
	})
}

// Login handles POST /api/users/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.UserLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, token, expiresAt, err := h.auth.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		h.metrics.RecordLogin(loginOutcome(err))
		return err
	}
	h.metrics.RecordLogin("success")

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"user": h.userResponse(user),
			"auth": dto.AuthResponse{Token: token, ExpiresAt: expiresAt},
		},
	})
}

// Get handles GET /api/users (single lookup by id, email or username).
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	user, err := h.users.Get(c.Context(), c.Query("id"), c.Query("email"), c.Query("username"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.userResponse(user)})
}

// Search handles GET /api/users/search.
func (h *UsersHandler) Search(c *fiber.Ctx) error {
	users, err := h.users.Search(c.Context(), repository.UserFilter{
		Email:    c.Query("email"),
		Username: c.Query("username"),
	})
	if err != nil {
		return err
	}

	responses := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, h.userResponse(&users[i]))
	}
	return c.JSON(fiber.Map{"data": responses})
}

// UploadPicture handles POST /api/users/me/picture.
func (h *UsersHandler) UploadPicture(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}

	fileHeader, err := c.FormFile("image")
	if err != nil || fileHeader.Size == 0 {
		return apperrors.NewValidationError("invalid image file", nil)
	}
	if !media.IsAllowedImageType(fileHeader.Header.Get("Content-Type")) {
		return apperrors.NewValidationError("invalid image file", nil)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	defer file.Close()

	extension := strings.ToLower(filepath.Ext(fileHeader.Filename))
	user, err := h.users.SetProfilePicture(c.Context(), principal.User.ID, extension, file)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.userResponse(user)})
}

// Favorites handles GET /api/users/:id/favorites.
func (h *UsersHandler) Favorites(c *fiber.Ctx) error {
	page, err := pageFromQuery(c)
	if err != nil {
		return err
	}

	result, err := h.sounds.FavoritesOf(c.Context(), c.Params("id"), page)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": soundListResponse(result, h.media)})
}

func loginOutcome(err error) string {
	switch apperrors.ToDomainError(err).Code {
	case "TOO_MANY_REQUESTS":
		return "limited"
	case "UNAUTHORIZED":
		return "invalid"
	default:
		return "error"
	}
}

func (h *UsersHandler) userResponse(user *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:         user.ID,
		Username:   user.Username,
		Email:      user.Email,
		PictureURL: h.media.ProfilePictureURL(user.ProfilePictureFileName),
	}
}
