package services

import (
	"context"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/alumnet/internal/app/models/dto"
	"github.com/yigit/alumnet/internal/domain/content"
	"github.com/yigit/alumnet/internal/pkg/apperrors"
	"github.com/yigit/alumnet/internal/pkg/filestorage"
	"github.com/yigit/alumnet/internal/pkg/metrics"
)

// MaxUploadSize bounds a single multipart upload.
const MaxUploadSize = 50 << 20

var uploadFolders = map[string]bool{
	"posts":    true,
	"profiles": true,
	"banners":  true,
	"videos":   true,
}

// MediaService defines the interface for media uploads
type MediaService interface {
	Upload(ctx context.Context, userID int64, r io.Reader, size int64, fileName, contentType, folder string) (*dto.MediaResponse, error)
	Presign(ctx context.Context, userID int64, req *dto.PresignRequest, folder string) (*dto.PresignResponse, error)
}

type mediaServiceImpl struct {
	storage filestorage.FileStorage
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewMediaService creates a new MediaService
func NewMediaService(storage filestorage.FileStorage, m *metrics.Metrics, logger zerolog.Logger) MediaService {
	return &mediaServiceImpl{storage: storage, metrics: m, logger: logger}
}

func checkUpload(contentType, folder string) error {
	if !uploadFolders[folder] {
		return apperrors.NewValidationError("folder", "folder must be one of posts, profiles, banners, videos")
	}
	if !strings.HasPrefix(contentType, "image/") && !strings.HasPrefix(contentType, "video/") {
		return apperrors.NewValidationError("contentType", "only image and video uploads are accepted")
	}
	return nil
}

// Upload stores the content and returns a media reference for posts and profiles.
func (s *mediaServiceImpl) Upload(ctx context.Context, userID int64, r io.Reader, size int64, fileName, contentType, folder string) (*dto.MediaResponse, error) {
	if err := checkUpload(contentType, folder); err != nil {
		return nil, err
	}
	if size <= 0 || size > MaxUploadSize {
		return nil, apperrors.NewValidationError("file", "file must be between 1 byte and 50MB")
	}

	obj, err := s.storage.Save(ctx, userID, r, size, fileName, contentType, folder)
	if err != nil {
		s.metrics.ExternalFailure("storage")
		return nil, err
	}
	s.logger.Info().Int64("userID", userID).Str("key", obj.Key).Msg("Media uploaded")
	return &dto.MediaResponse{URL: obj.URL, Key: obj.Key}, nil
}

// Presign issues a direct upload URL when the storage driver supports it.
func (s *mediaServiceImpl) Presign(ctx context.Context, userID int64, req *dto.PresignRequest, folder string) (*dto.PresignResponse, error) {
	if err := checkUpload(req.ContentType, folder); err != nil {
		return nil, err
	}
	up, err := s.storage.PresignUpload(ctx, userID, req.FileName, req.ContentType, folder)
	if err != nil {
		return nil, err
	}
	s.logger.Debug().Int64("userID", userID).Str("key", up.Object.Key).Msg("Upload presigned")
	return &dto.PresignResponse{
		UploadURL: up.UploadURL,
		Method:    up.Method,
		ExpiresIn: int64(up.ExpiresIn.Seconds()),
		Media:     dto.MediaResponse{URL: up.Object.URL, Key: up.Object.Key},
	}, nil
}

// ownedMedia resolves a media URL sent by ownerID. URLs served by our
// storage must point at one of the owner's objects; any other URL is kept
// as an external link and never gets a key.
func ownedMedia(media MediaRemover, ownerID int64, field, url string) (content.Media, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return content.Media{}, nil
	}
	key := media.KeyFromURL(url)
	if key != "" && !filestorage.OwnedBy(key, ownerID) {
		return content.Media{}, apperrors.NewValidationError(field, "media must be uploaded by the same user")
	}
	return content.Media{URL: url, Key: key}, nil
}

func ownedMediaList(media MediaRemover, ownerID int64, in []dto.MediaInput) ([]content.Media, error) {
	out := make([]content.Media, 0, len(in))
	for _, m := range in {
		resolved, err := ownedMedia(media, ownerID, "images", m.URL)
		if err != nil {
			return nil, err
		}
		out = append(out, resolved)
	}
	return out, nil
}

// removeMedia deletes ownerID's stored objects one by one. refs are keys or,
// for objects stored without one, their URLs. Refs outside the owner's key
// space are skipped. Failures are logged and counted, never returned.
func removeMedia(ctx context.Context, media MediaRemover, ownerID int64, refs []string, m *metrics.Metrics, logger zerolog.Logger) (deleted, failed int) {
	for _, ref := range refs {
		key := ref
		if strings.Contains(ref, "://") {
			key = media.KeyFromURL(ref)
		}
		if key == "" {
			continue
		}
		if !filestorage.OwnedBy(key, ownerID) {
			logger.Warn().Int64("ownerID", ownerID).Str("key", key).Msg("Skipping media object owned by another user")
			continue
		}
		if err := media.Delete(ctx, key); err != nil {
			failed++
			m.ExternalFailure("storage")
			logger.Warn().Err(err).Str("key", key).Msg("Failed to delete media object")
			continue
		}
		deleted++
	}
	return deleted, failed
}
