package service

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/soundifyapp/soundify-service/internal/domain"
	"github.com/soundifyapp/soundify-service/internal/repository"
	apperrors "github.com/soundifyapp/soundify-service/pkg/util"
)

// stubTx satisfies pgx.Tx for transaction bookkeeping in tests. Only
// Commit and Rollback are expected to be called.
type stubTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
}

func (t *stubTx) Commit(context.Context) error {
	t.committed = true
	return nil
}

func (t *stubTx) Rollback(context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

type fakeTxBeginner struct {
	tx *stubTx
}

func (f *fakeTxBeginner) Begin(context.Context) (pgx.Tx, error) {
	f.tx = &stubTx{}
	return f.tx, nil
}

type fakeSaltRepo struct {
	salts  map[string][]byte
	putErr error
	getErr error
}

func newFakeSaltRepo() *fakeSaltRepo {
	return &fakeSaltRepo{salts: make(map[string][]byte)}
}

func (f *fakeSaltRepo) Put(_ context.Context, userID string, salt []byte) error {
	if f.putErr != nil {
		return f.putErr
	}
	if _, exists := f.salts[userID]; exists {
		return apperrors.NewConflict("credential already enrolled", nil)
	}
	f.salts[userID] = bytes.Clone(salt)
	return nil
}

func (f *fakeSaltRepo) Get(_ context.Context, userID string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	salt, exists := f.salts[userID]
	if !exists {
		return nil, pgx.ErrNoRows
	}
	return bytes.Clone(salt), nil
}

func (f *fakeSaltRepo) WithTx(pgx.Tx) repository.SaltRepository {
	return f
}

type fakeUserRepo struct {
	users     map[string]*domain.User
	createErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*domain.User)}
}

func (f *fakeUserRepo) add(user *domain.User) {
	f.users[user.ID] = user
}

func (f *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, exists := f.users[id]
	if !exists {
		return nil, pgx.ErrNoRows
	}
	return user, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range f.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, user := range f.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserRepo) List(_ context.Context, filter repository.UserFilter) ([]domain.User, error) {
	var users []domain.User
	for _, user := range f.users {
		if filter.Email != "" && !strings.EqualFold(user.Email, filter.Email) {
			continue
		}
		if filter.Username != "" && user.Username != filter.Username {
			continue
		}
		users = append(users, *user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (f *fakeUserRepo) UpdateProfilePicture(_ context.Context, id, fileName string) error {
	user, exists := f.users[id]
	if !exists {
		return pgx.ErrNoRows
	}
	user.ProfilePictureFileName = fileName
	return nil
}

func (f *fakeUserRepo) WithTx(pgx.Tx) repository.UserRepository {
	return f
}

type fakeLimiter struct {
	allowed    bool
	retryAfter time.Duration
	keys       []string
}

func (f *fakeLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	f.keys = append(f.keys, key)
	return f.allowed, f.retryAfter, nil
}

type fakeSoundRepo struct {
	sounds    []domain.Sound
	createErr error
}

func (f *fakeSoundRepo) Create(_ context.Context, sound *domain.Sound) error {
	if f.createErr != nil {
		return f.createErr
	}
	sound.CreatedAt = time.Now()
	f.sounds = append(f.sounds, *sound)
	return nil
}

func (f *fakeSoundRepo) GetByID(_ context.Context, id string) (*domain.Sound, error) {
	for i := range f.sounds {
		if f.sounds[i].ID == id {
			return &f.sounds[i], nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeSoundRepo) GetByName(_ context.Context, name string) (*domain.Sound, error) {
	for i := range f.sounds {
		if f.sounds[i].Name == name {
			return &f.sounds[i], nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeSoundRepo) List(_ context.Context, limit, offset int) ([]domain.Sound, error) {
	return slicePage(f.sounds, limit, offset), nil
}

func (f *fakeSoundRepo) CountAll(context.Context) (int, error) {
	return len(f.sounds), nil
}

func (f *fakeSoundRepo) SearchByName(_ context.Context, term string, limit, offset int) ([]domain.Sound, error) {
	var matched []domain.Sound
	for _, sound := range f.sounds {
		if strings.Contains(strings.ToLower(sound.Name), strings.ToLower(term)) {
			matched = append(matched, sound)
		}
	}
	return slicePage(matched, limit, offset), nil
}

func (f *fakeSoundRepo) CountByName(_ context.Context, term string) (int, error) {
	count := 0
	for _, sound := range f.sounds {
		if strings.Contains(strings.ToLower(sound.Name), strings.ToLower(term)) {
			count++
		}
	}
	return count, nil
}

func slicePage(sounds []domain.Sound, limit, offset int) []domain.Sound {
	if limit <= 0 {
		return sounds
	}
	if offset >= len(sounds) {
		return nil
	}
	end := offset + limit
	if end > len(sounds) {
		end = len(sounds)
	}
	return sounds[offset:end]
}

type favoriteKey struct {
	userID  string
	soundID string
}

type fakeFavoriteRepo struct {
	favorites map[favoriteKey]time.Time
}

func newFakeFavoriteRepo() *fakeFavoriteRepo {
	return &fakeFavoriteRepo{favorites: make(map[favoriteKey]time.Time)}
}

func (f *fakeFavoriteRepo) Add(_ context.Context, userID, soundID string) error {
	key := favoriteKey{userID, soundID}
	if _, exists := f.favorites[key]; exists {
		return apperrors.NewConflict("sound already in favorites", nil)
	}
	f.favorites[key] = time.Now()
	return nil
}

func (f *fakeFavoriteRepo) Remove(_ context.Context, userID, soundID string) error {
	key := favoriteKey{userID, soundID}
	if _, exists := f.favorites[key]; !exists {
		return pgx.ErrNoRows
	}
	delete(f.favorites, key)
	return nil
}

func (f *fakeFavoriteRepo) ListSoundIDs(_ context.Context, userID string, limit, offset int) ([]string, error) {
	var ids []string
	for key := range f.favorites {
		if key.userID == userID {
			ids = append(ids, key.soundID)
		}
	}
	sort.Strings(ids)
	if limit > 0 {
		if offset >= len(ids) {
			return nil, nil
		}
		end := offset + limit
		if end > len(ids) {
			end = len(ids)
		}
		ids = ids[offset:end]
	}
	return ids, nil
}

func (f *fakeFavoriteRepo) CountByUser(_ context.Context, userID string) (int, error) {
	count := 0
	for key := range f.favorites {
		if key.userID == userID {
			count++
		}
	}
	return count, nil
}

func (f *fakeFavoriteRepo) CountBySound(_ context.Context, soundID string) (int64, error) {
	var count int64
	for key := range f.favorites {
		if key.soundID == soundID {
			count++
		}
	}
	return count, nil
}

type fakeFileStore struct {
	saved    map[string][]byte
	saveErr  error
	removed  []string
	received int
}

func newFakeFileStore() *fakeFileStore {
	return &fakeFileStore{saved: make(map[string][]byte)}
}

func (f *fakeFileStore) SaveSoundFile(fileName string, r io.Reader) error {
	return f.save(fileName, r)
}

func (f *fakeFileStore) RemoveSoundFile(fileName string) error {
	f.removed = append(f.removed, fileName)
	delete(f.saved, fileName)
	return nil
}

func (f *fakeFileStore) SaveProfilePicture(fileName string, r io.Reader) error {
	return f.save(fileName, r)
}

func (f *fakeFileStore) RemoveProfilePicture(fileName string) error {
	f.removed = append(f.removed, fileName)
	delete(f.saved, fileName)
	return nil
}

func (f *fakeFileStore) save(fileName string, r io.Reader) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.saved[fileName] = data
	f.received++
	return nil
}

type fakeCounter struct {
	counts map[string]int64
}

func (f *fakeCounter) FavoriteCount(_ context.Context, soundID string) (int64, error) {
	return f.counts[soundID], nil
}
