package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/yigit/alumnet/internal/app/models/dto"
	"github.com/yigit/alumnet/internal/pkg/apperrors"
	"github.com/yigit/alumnet/internal/pkg/filestorage"
)

type fakeStorage struct {
	fakeMedia
	owners []int64
}

func (f *fakeStorage) Save(ctx context.Context, ownerID int64, r io.Reader, size int64, fileName, contentType, folder string) (filestorage.Object, error) {
	f.owners = append(f.owners, ownerID)
	key := filestorage.NewKey(folder, ownerID, fileName)
	return filestorage.Object{Key: key, URL: "https://cdn.test/" + key}, nil
}

func (f *fakeStorage) PresignUpload(ctx context.Context, ownerID int64, fileName, contentType, folder string) (filestorage.PresignedUpload, error) {
	f.owners = append(f.owners, ownerID)
	key := filestorage.NewKey(folder, ownerID, fileName)
	return filestorage.PresignedUpload{UploadURL: "https://upload.test/" + key, Method: "PUT", Object: filestorage.Object{Key: key, URL: "https://cdn.test/" + key}}, nil
}

func TestUploadKeysAreScopedToTheUploader(t *testing.T) {
	storage := &fakeStorage{}
	svc := NewMediaService(storage, nil, zerolog.Nop())
	ctx := context.Background()

	up, err := svc.Upload(ctx, 5, strings.NewReader("img"), 3, "a.png", "image/png", "posts")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if !strings.HasPrefix(up.Key, "posts/5/") || !filestorage.OwnedBy(up.Key, 5) {
		t.Errorf("upload key %q not scoped to the uploader", up.Key)
	}

	pre, err := svc.Presign(ctx, 6, &dto.PresignRequest{FileName: "v.mp4", ContentType: "video/mp4"}, "videos")
	if err != nil {
		t.Fatalf("Presign: %v", err)
	}
	if !filestorage.OwnedBy(pre.Media.Key, 6) || filestorage.OwnedBy(pre.Media.Key, 5) {
		t.Errorf("presigned key %q not scoped to the uploader", pre.Media.Key)
	}

	// the uploaded URL resolves back to a key the uploader may attach
	if _, err := ownedMedia(storage, 5, "images", up.URL); err != nil {
		t.Errorf("own upload rejected: %v", err)
	}
	if _, err := ownedMedia(storage, 6, "images", up.URL); !errors.Is(err, apperrors.ErrValidationFailed) {
		t.Errorf("foreign upload accepted: %v", err)
	}
}
