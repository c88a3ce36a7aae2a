package service

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundifyapp/soundify-service/internal/domain"
	"github.com/soundifyapp/soundify-service/internal/repository"
	apperrors "github.com/soundifyapp/soundify-service/pkg/util"
)

func newUserFixture(t *testing.T) (*UserService, *fakeUserRepo, *fakeFileStore, *domain.User) {
	t.Helper()
	users := newFakeUserRepo()
	pictures := newFakeFileStore()
	user := &domain.User{
		ID:                     uuid.NewString(),
		Username:               "jane",
		Email:                  "jane@example.com",
		ProfilePictureFileName: domain.DefaultProfilePicture,
	}
	users.add(user)
	return NewUserService(users, pictures, nil), users, pictures, user
}

func TestUserGetByCriteria(t *testing.T) {
	svc, _, _, user := newUserFixture(t)

	byID, err := svc.Get(context.Background(), user.ID, "", "")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byID.ID)

	byEmail, err := svc.Get(context.Background(), "", "JANE@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	byUsername, err := svc.Get(context.Background(), "", "", "jane")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byUsername.ID)

	_, err = svc.Get(context.Background(), "", "", "")
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)

	_, err = svc.Get(context.Background(), uuid.NewString(), "", "")
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)
}

func TestUserSearch(t *testing.T) {
	svc, users, _, user := newUserFixture(t)
	users.add(&domain.User{ID: uuid.NewString(), Username: "john", Email: "john@example.com"})

	found, err := svc.Search(context.Background(), repository.UserFilter{Username: "jane"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, user.ID, found[0].ID)

	_, err = svc.Search(context.Background(), repository.UserFilter{Username: "nobody"})
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)
}

func TestSetProfilePicture(t *testing.T) {
	svc, _, pictures, user := newUserFixture(t)

	updated, err := svc.SetProfilePicture(context.Background(), user.ID, ".png", strings.NewReader("img"))
	require.NoError(t, err)

	fileName := user.ID + ".png"
	assert.Equal(t, fileName, updated.ProfilePictureFileName)
	assert.Equal(t, []byte("img"), pictures.saved[fileName])
	assert.Empty(t, pictures.removed, "default picture must never be removed")
}

func TestSetProfilePictureReplacesPrevious(t *testing.T) {
	svc, _, pictures, user := newUserFixture(t)

	_, err := svc.SetProfilePicture(context.Background(), user.ID, ".png", strings.NewReader("first"))
	require.NoError(t, err)

	updated, err := svc.SetProfilePicture(context.Background(), user.ID, ".jpg", strings.NewReader("second"))
	require.NoError(t, err)

	assert.Equal(t, user.ID+".jpg", updated.ProfilePictureFileName)
	assert.Equal(t, []string{user.ID + ".png"}, pictures.removed)
}

func TestSetProfilePictureSameExtensionKeepsFile(t *testing.T) {
	svc, _, pictures, user := newUserFixture(t)

	_, err := svc.SetProfilePicture(context.Background(), user.ID, ".png", strings.NewReader("first"))
	require.NoError(t, err)

	_, err = svc.SetProfilePicture(context.Background(), user.ID, ".png", strings.NewReader("second"))
	require.NoError(t, err)

	assert.Empty(t, pictures.removed)
	assert.Equal(t, []byte("second"), pictures.saved[user.ID+".png"])
}

func TestSetProfilePictureUnknownUser(t *testing.T) {
	svc, _, pictures, _ := newUserFixture(t)

	_, err := svc.SetProfilePicture(context.Background(), uuid.NewString(), ".png", strings.NewReader("img"))
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)
	assert.Empty(t, pictures.saved)
}
