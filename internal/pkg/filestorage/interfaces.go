package filestorage

import (
	"context"
	"io"
	"time"
)

// Object is a stored media object. Key is what Delete takes; URL is what
// clients render.
type Object struct {
	Key string
	URL string
}

// PresignedUpload is a URL a client can PUT the object to directly.
type PresignedUpload struct {
	UploadURL string
	Method    string
	ExpiresIn time.Duration
	Object    Object
}

// FileStorage stores uploaded media.
type FileStorage interface {
	// Save writes the content under folder with a generated unique name
	// scoped to ownerID.
	Save(ctx context.Context, ownerID int64, r io.Reader, size int64, fileName, contentType, folder string) (Object, error)

	// Delete removes the object. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error

	// KeyFromURL maps a URL produced by this storage back to its key, or
	// returns "" for foreign URLs.
	KeyFromURL(url string) string

	// PresignUpload issues a direct upload URL for a new object owned by ownerID.
	PresignUpload(ctx context.Context, ownerID int64, fileName, contentType, folder string) (PresignedUpload, error)
}
