package media

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	soundsDir       = "sounds"
	userImagesDir   = "images/users"
	defaultUserFile = "default.jpg"
)

// AllowedSoundTypes lists accepted MIME types for sound uploads.
var AllowedSoundTypes = []string{"audio/mpeg", "audio/vnd.wav", "audio/wav"}

// AllowedImageTypes lists accepted MIME types for profile pictures.
var AllowedImageTypes = []string{"image/jpeg", "image/jpg", "image/png"}

// IsAllowedSoundType reports whether the content type is an accepted audio format.
func IsAllowedSoundType(contentType string) bool {
	return contains(AllowedSoundTypes, contentType)
}

// IsAllowedImageType reports whether the content type is an accepted image format.
func IsAllowedImageType(contentType string) bool {
	return contains(AllowedImageTypes, contentType)
}

func contains(list []string, value string) bool {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}

// Store persists uploaded media on local disk and builds public URLs for it.
type Store struct {
	root    string
	baseURL string
}

// NewStore creates the media directories under root if needed.
func NewStore(root, baseURL string) (*Store, error) {
	for _, dir := range []string{soundsDir, userImagesDir} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, fmt.Errorf("create media dir: %w", err)
		}
	}
	return &Store{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Root returns the on-disk media root, used for static serving.
func (s *Store) Root() string {
	return s.root
}

// SaveSoundFile stores an uploaded sound under sounds/<fileName>.
func (s *Store) SaveSoundFile(fileName string, r io.Reader) error {
	return s.write(filepath.Join(soundsDir, fileName), r)
}

// RemoveSoundFile deletes a stored sound file.
func (s *Store) RemoveSoundFile(fileName string) error {
	return os.Remove(filepath.Join(s.root, soundsDir, fileName))
}

// SaveProfilePicture stores an uploaded profile picture under images/users/<fileName>.
func (s *Store) SaveProfilePicture(fileName string, r io.Reader) error {
	return s.write(filepath.Join(userImagesDir, fileName), r)
}

// RemoveProfilePicture deletes a stored picture. The shared default image is
// never removed.
func (s *Store) RemoveProfilePicture(fileName string) error {
	if fileName == "" || fileName == defaultUserFile {
		return nil
	}
	err := os.Remove(filepath.Join(s.root, userImagesDir, fileName))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// SoundURL builds the public URL for a stored sound.
func (s *Store) SoundURL(id, extension string) string {
	return fmt.Sprintf("%s/media/%s/%s%s", s.baseURL, soundsDir, id, extension)
}

// ProfilePictureURL builds the public URL for a profile picture.
func (s *Store) ProfilePictureURL(fileName string) string {
	return fmt.Sprintf("%s/media/%s/%s", s.baseURL, userImagesDir, fileName)
}

func (s *Store) write(relPath string, r io.Reader) error {
	path := filepath.Join(s.root, relPath)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create media file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return fmt.Errorf("write media file: %w", err)
	}
	return nil
}
