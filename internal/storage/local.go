package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// localStore implements ImageStore on the local file system.
type localStore struct {
	dir       string
	publicURL string
	logger    zerolog.Logger
}

// NewLocalStore creates a store writing into dir, creating it when needed.
// References are the file name prefixed with publicURL when one is set.
func NewLocalStore(dir, publicURL string, logger zerolog.Logger) (ImageStore, error) {
	logger = logger.With().Str("component", "local-image-store").Logger()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Error().Err(err).Str("dir", dir).Msg("failed to create image directory")
		return nil, fmt.Errorf("failed to create image directory %s: %w", dir, err)
	}

	logger.Info().Str("dir", dir).Msg("local image store initialised")

	return &localStore{
		dir:       dir,
		publicURL: strings.TrimRight(publicURL, "/"),
		logger:    logger,
	}, nil
}

// Put writes the image under a random name.
func (s *localStore) Put(ctx context.Context, img *Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := uuid.NewString() + img.Extension
	path := filepath.Join(s.dir, name)

	if err := os.WriteFile(path, img.Data, 0o644); err != nil {
		s.logger.Error().Err(err).Str("file", path).Msg("failed to write image")
		return "", fmt.Errorf("failed to write image %s: %w", name, err)
	}

	s.logger.Debug().
		Str("file", path).
		Str("content_type", img.ContentType).
		Int("bytes", len(img.Data)).
		Msg("image stored")

	return s.reference(name), nil
}

// Delete removes the file behind ref.
func (s *localStore) Delete(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	name := s.fileName(ref)
	if name == "" {
		return fmt.Errorf("invalid image reference %q", ref)
	}

	path := filepath.Join(s.dir, name)
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Error().Err(err).Str("file", path).Msg("failed to delete image")
		return fmt.Errorf("failed to delete image %s: %w", name, err)
	}

	s.logger.Debug().Str("file", path).Msg("image deleted")
	return nil
}

func (s *localStore) reference(name string) string {
	if s.publicURL == "" {
		return name
	}
	return s.publicURL + "/" + name
}

// fileName maps a reference back to a bare file name. Anything that would
// escape the store directory yields "".
func (s *localStore) fileName(ref string) string {
	name := strings.TrimPrefix(ref, s.publicURL+"/")
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return ""
	}
	return name
}
