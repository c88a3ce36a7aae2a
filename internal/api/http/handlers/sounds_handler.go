package handlers

import (
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/soundifyapp/soundify-service/internal/api/dto"
	"github.com/soundifyapp/soundify-service/internal/auth"
	"github.com/soundifyapp/soundify-service/internal/media"
	"github.com/soundifyapp/soundify-service/internal/service"
	apperrors "github.com/soundifyapp/soundify-service/pkg/util"
)

// SoundsHandler exposes sound and favorite endpoints.
type SoundsHandler struct {
	sounds *service.SoundService
	media  *media.Store
}

// NewSoundsHandler constructs handler.
func NewSoundsHandler(soundService *service.SoundService, mediaStore *media.Store) *SoundsHandler {
	return &SoundsHandler{sounds: soundService, media: mediaStore}
}

// Lookup handles GET /api/sounds/lookup (single sound by id or name).
func (h *SoundsHandler) Lookup(c *fiber.Ctx) error {
	detail, err := h.sounds.Lookup(c.Context(), c.Query("id"), c.Query("name"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": soundResponse(detail, h.media)})
}

// List handles GET /api/sounds.
func (h *SoundsHandler) List(c *fiber.Ctx) error {
	page, err := pageFromQuery(c)
	if err != nil {
		return err
	}

	result, err := h.sounds.List(c.Context(), page)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": soundListResponse(result, h.media)})
}

// Search handles GET /api/sounds/search.
func (h *SoundsHandler) Search(c *fiber.Ctx) error {
	page, err := pageFromQuery(c)
	if err != nil {
		return err
	}

	result, err := h.sounds.Search(c.Context(), c.Query("name"), page)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": soundListResponse(result, h.media)})
}

// Upload handles POST /api/sounds.
func (h *SoundsHandler) Upload(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}

	fileHeader, err := c.FormFile("sound")
	if err != nil || fileHeader.Size == 0 {
		return apperrors.NewValidationError("invalid sound file", nil)
	}
	if !media.IsAllowedSoundType(fileHeader.Header.Get("Content-Type")) {
		return apperrors.NewValidationError("invalid sound file", nil)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	defer file.Close()

	extension := strings.ToLower(filepath.Ext(fileHeader.Filename))
	sound, err := h.sounds.Upload(c.Context(), principal.User.ID, c.FormValue("name"), extension, file)
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"id":       sound.ID,
			"name":     sound.Name,
			"file_url": h.media.SoundURL(sound.ID, sound.FileExtension),
		},
	})
}

// AddFavorite handles POST /api/favorites.
func (h *SoundsHandler) AddFavorite(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.FavoriteRequest
	if err := c.BodyParser(&req); err != nil || req.SoundID == "" {
		return apperrors.NewValidationError("sound_id required", nil)
	}

	if err := h.sounds.AddFavorite(c.Context(), principal.User.ID, req.SoundID); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// RemoveFavorite handles DELETE /api/favorites.
func (h *SoundsHandler) RemoveFavorite(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.FavoriteRequest
	if err := c.BodyParser(&req); err != nil || req.SoundID == "" {
		return apperrors.NewValidationError("sound_id required", nil)
	}

	if err := h.sounds.RemoveFavorite(c.Context(), principal.User.ID, req.SoundID); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// pageFromQuery parses optional page/size query params. Both absent means
// no paging.
func pageFromQuery(c *fiber.Ctx) (*service.Page, error) {
	pageStr := c.Query("page")
	sizeStr := c.Query("size")
	if pageStr == "" && sizeStr == "" {
		return nil, nil
	}

	number, err := strconv.Atoi(pageStr)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid paging parameters", nil)
	}
	size, err := strconv.Atoi(sizeStr)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid paging parameters", nil)
	}
	return &service.Page{Number: number, Size: size}, nil
}

func soundResponse(detail *service.SoundDetail, store *media.Store) dto.SoundResponse {
	return dto.SoundResponse{
		ID:   detail.Sound.ID,
		Name: detail.Sound.Name,
		Uploader: dto.UserResponse{
			ID:         detail.Uploader.ID,
			Username:   detail.Uploader.Username,
			Email:      detail.Uploader.Email,
			PictureURL: store.ProfilePictureURL(detail.Uploader.ProfilePictureFileName),
		},
		FileURL:       store.SoundURL(detail.Sound.ID, detail.Sound.FileExtension),
		FavoriteCount: detail.FavoriteCount,
	}
}

func soundListResponse(page *service.SoundPage, store *media.Store) dto.SoundListResponse {
	sounds := make([]dto.SoundResponse, 0, len(page.Sounds))
	for i := range page.Sounds {
		sounds = append(sounds, soundResponse(&page.Sounds[i], store))
	}
	return dto.SoundListResponse{
		MaxPages:    page.MaxPages,
		CurrentPage: page.CurrentPage,
		Sounds:      sounds,
	}
}
