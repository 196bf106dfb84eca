package blob

import (
	"context"
	"mime"
	"path"
	"strings"

	"github.com/google/uuid"
)

// Extensions accepted for uploads.
var allowedExtensions = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "webp": true,
	"pdf": true, "docx": true, "xlsx": true,
}

var imageExtensions = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "webp": true, "gif": true,
}

// Attachment describes a resolved blob reference.
type Attachment struct {
	Ref          string
	Exists       bool
	IsImage      bool
	DownloadName string
	ContentType  string
}

func AllowedExtension(name string) bool {
	return allowedExtensions[extensionOf(name)]
}

// BuildRef derives a collision-resistant blob reference from the original
// filename, namespaced under scopePath (e.g. "project-messages/42"). The base
// name is slugged and suffixed with a random token so repeated uploads of the
// same file never collide.
func BuildRef(scopePath, originalName string) string {
	ext := extensionOf(originalName)
	base := strings.TrimSuffix(path.Base(originalName), path.Ext(originalName))
	base = slug(base)
	if base == "" {
		base = "attachment"
	}
	if ext == "" {
		ext = "bin"
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return scopePath + "/" + base + "-" + suffix + "." + ext
}

// Resolve classifies a stored reference and re-checks the blob still exists.
func Resolve(ctx context.Context, store Store, ref string) (Attachment, error) {
	att := Attachment{
		Ref:          ref,
		IsImage:      IsImage(ref),
		DownloadName: DownloadName(ref),
		ContentType:  contentTypeOf(ref),
	}
	if store == nil {
		return att, ErrNotFound
	}
	exists, err := store.Exists(ctx, ref)
	if err != nil {
		return att, err
	}
	att.Exists = exists
	if !exists {
		return att, ErrNotFound
	}
	return att, nil
}

func IsImage(ref string) bool {
	return imageExtensions[extensionOf(ref)]
}

// DownloadName is the filename offered for non-inline downloads.
func DownloadName(ref string) string {
	name := path.Base(ref)
	if name == "" || name == "." || name == "/" {
		return "attachment"
	}
	return name
}

func contentTypeOf(ref string) string {
	if ct := mime.TypeByExtension(path.Ext(ref)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func extensionOf(name string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
}

func slug(s string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
