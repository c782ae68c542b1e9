package filestorage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/yigit/alumnet/internal/pkg/apperrors"
	"github.com/yigit/alumnet/internal/pkg/logger"
)

// LocalStorage handles saving files to the local filesystem.
type LocalStorage struct {
	basePath string
	baseURL  string
}

// NewLocalStorage creates the base directory if needed. Files are served
// by the router under baseURL.
func NewLocalStorage(basePath, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		logger.Error().Err(err).Str("path", basePath).Msg("Failed to create storage directory")
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	logger.Info().Str("path", basePath).Msg("Local storage directory ensured")

	return &LocalStorage{
		basePath: basePath,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}, nil
}

// Save writes r to a new file under folder.
func (ls *LocalStorage) Save(ctx context.Context, ownerID int64, r io.Reader, size int64, fileName, contentType, folder string) (Object, error) {
	key := NewKey(folder, ownerID, fileName)
	dstPath := filepath.Join(ls.basePath, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
		return Object{}, fmt.Errorf("failed to create subdirectory: %w", err)
	}

	dst, err := os.Create(dstPath)
	if err != nil {
		logger.Error().Err(err).Str("path", dstPath).Msg("Failed to create destination file")
		return Object{}, fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	if _, err = io.Copy(dst, r); err != nil {
		_ = os.Remove(dstPath)
		logger.Error().Err(err).Str("path", dstPath).Msg("Failed to copy uploaded file content")
		return Object{}, fmt.Errorf("failed to save file content: %w", err)
	}

	logger.Info().Str("filename", fileName).Str("key", key).Msg("File saved successfully")
	return Object{Key: key, URL: ls.baseURL + "/" + key}, nil
}

// Delete removes the file. Missing files are treated as deleted.
func (ls *LocalStorage) Delete(ctx context.Context, key string) error {
	key, ok := cleanKey(key)
	if !ok {
		return fmt.Errorf("invalid file key: %q", key)
	}

	physicalPath := filepath.Join(ls.basePath, filepath.FromSlash(key))
	if err := os.Remove(physicalPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn().Str("path", physicalPath).Msg("File to delete does not exist")
			return nil
		}
		logger.Error().Err(err).Str("path", physicalPath).Msg("Failed to delete file")
		return fmt.Errorf("failed to delete file: %w", err)
	}

	logger.Info().Str("path", physicalPath).Msg("File deleted successfully")
	return nil
}

// KeyFromURL strips the public base URL.
func (ls *LocalStorage) KeyFromURL(url string) string {
	prefix := ls.baseURL + "/"
	if ls.baseURL == "" || !strings.HasPrefix(url, prefix) {
		return ""
	}
	key, ok := cleanKey(strings.TrimPrefix(url, prefix))
	if !ok {
		return ""
	}
	return key
}

// PresignUpload is not available on local disk; clients use multipart upload.
func (ls *LocalStorage) PresignUpload(ctx context.Context, ownerID int64, fileName, contentType, folder string) (PresignedUpload, error) {
	return PresignedUpload{}, apperrors.NewBadRequestError("direct uploads are not supported by the local storage driver, use multipart upload")
}
