package imgedit

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/blacktop/postcraft/internal/compose"
)

const jpegQuality = 92

// Store writes candidate and final images under Dir and loads the default
// image used when generation is skipped.
type Store struct {
	Dir         string
	DefaultPath string
}

// SaveCandidate writes img as <n>.jpg, replacing any earlier candidate with
// the same number.
func (s Store) SaveCandidate(img image.Image, n int) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(s.Dir, fmt.Sprintf("%d.jpg", n))
	if err := imaging.Save(img, path, imaging.JPEGQuality(jpegQuality)); err != nil {
		return "", err
	}
	return path, nil
}

// DefaultImage opens the configured fallback image.
func (s Store) DefaultImage() (image.Image, error) {
	img, err := imaging.Open(s.DefaultPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, compose.ValidationError{Provider: "images", Reason: fmt.Sprintf("default image %q not found", s.DefaultPath)}
		}
		return nil, err
	}
	return img, nil
}

// SaveFinal writes a finished post image under posts/ with a unique name.
func (s Store) SaveFinal(img image.Image) (string, error) {
	dir := filepath.Join(s.Dir, "posts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, uuid.NewString()+".jpg")
	if err := imaging.Save(img, path, imaging.JPEGQuality(jpegQuality)); err != nil {
		return "", err
	}
	return path, nil
}
