package filestorage

import (
	"path"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// allowedFolders are the only prefixes objects are written under.
var allowedFolders = map[string]bool{
	"posts":    true,
	"profiles": true,
	"banners":  true,
	"videos":   true,
}

// NewKey builds "<folder>/<ownerID>/<uuid><ext>" from the client file name.
// Unknown folders fall back to "misc".
func NewKey(folder string, ownerID int64, fileName string) string {
	if !allowedFolders[folder] {
		folder = "misc"
	}
	ext := strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(fileName, "\\", "/"))))
	if len(ext) > 10 || strings.ContainsAny(ext, " /?#") {
		ext = ""
	}
	return folder + "/" + strconv.FormatInt(ownerID, 10) + "/" + uuid.New().String() + ext
}

// OwnedBy reports whether key was issued by NewKey for ownerID. A storage
// prefix in front of the folder is allowed.
func OwnedBy(key string, ownerID int64) bool {
	key, ok := cleanKey(key)
	if !ok || ownerID <= 0 {
		return false
	}
	parts := strings.Split(key, "/")
	if len(parts) < 3 {
		return false
	}
	folder, owner := parts[len(parts)-3], parts[len(parts)-2]
	return (allowedFolders[folder] || folder == "misc") && owner == strconv.FormatInt(ownerID, 10)
}

// cleanKey rejects keys that would escape the storage root.
func cleanKey(key string) (string, bool) {
	key = strings.TrimPrefix(path.Clean("/"+strings.TrimSpace(key)), "/")
	if key == "" || key == "." || strings.HasPrefix(key, "..") {
		return "", false
	}
	return key, true
}
