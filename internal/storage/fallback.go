package storage

import (
	"context"

	"github.com/rs/zerolog"
)

type owner interface {
	Owns(ref string) bool
}

// fallbackStore writes to S3 first and falls back to the local store when
// S3 fails or is disabled. Deletes go to whichever store owns the reference.
type fallbackStore struct {
	s3Store    ImageStore
	localStore ImageStore
	s3Enabled  bool
	logger     zerolog.Logger
}

// NewFallbackStore creates a store that tries S3 first, then the local file
// system. If s3Store is nil only the local store is used.
func NewFallbackStore(s3Store, localStore ImageStore, s3Enabled bool, logger zerolog.Logger) ImageStore {
	return &fallbackStore{
		s3Store:    s3Store,
		localStore: localStore,
		s3Enabled:  s3Enabled,
		logger:     logger.With().Str("component", "fallback-image-store").Logger(),
	}
}

// Put attempts S3 first, then the local file system.
func (s *fallbackStore) Put(ctx context.Context, img *Image) (string, error) {
	if s.useS3() {
		ref, err := s.s3Store.Put(ctx, img)
		if err == nil {
			return ref, nil
		}

		if ctx.Err() != nil {
			return "", err
		}

		s.logger.Warn().
			Err(err).
			Msg("failed to store image in S3, falling back to local file system")
	} else {
		s.logger.Debug().
			Bool("s3_enabled", s.s3Enabled).
			Bool("has_s3_store", s.s3Store != nil).
			Msg("S3 disabled or not configured, using local file system")
	}

	return s.localStore.Put(ctx, img)
}

// Delete routes ref to the store that wrote it.
func (s *fallbackStore) Delete(ctx context.Context, ref string) error {
	if s.s3Store != nil {
		if o, ok := s.s3Store.(owner); ok && o.Owns(ref) {
			return s.s3Store.Delete(ctx, ref)
		}
	}
	return s.localStore.Delete(ctx, ref)
}

func (s *fallbackStore) useS3() bool {
	return s.s3Enabled && s.s3Store != nil
}
