// Package assets stores post images. A stored image is addressed by a
// reference of the form "images/<name>", which is also the public path the
// image is served under.
package assets

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"time"
)

// RefPrefix is the first segment of every asset reference.
const RefPrefix = "images"

var (
	// ErrRejected is returned by Save for uploads that are not JPEG or PNG.
	ErrRejected = errors.New("unsupported image type")
	// ErrNotFound is returned when the referenced asset does not exist.
	ErrNotFound = errors.New("asset not found")
	// ErrInvalidRef is returned for references outside RefPrefix.
	ErrInvalidRef = errors.New("invalid asset reference")
)

var acceptedTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
}

// Accepts reports whether uploads of mimeType may be stored.
func Accepts(mimeType string) bool {
	return acceptedTypes[strings.ToLower(strings.TrimSpace(mimeType))]
}

// Upload is an incoming image file.
type Upload struct {
	Name     string // original client file name
	MimeType string
	Body     io.Reader
}

// Object is an opened asset. Callers must close it.
type Object struct {
	io.ReadCloser
	ContentType string
}

// Store manages the lifetime of image files. It knows nothing about posts.
type Store interface {
	// Save writes the upload under a fresh name and returns its reference.
	Save(ctx context.Context, up Upload) (string, error)
	// Remove deletes the asset. A missing asset yields ErrNotFound.
	Remove(ctx context.Context, ref string) error
	Open(ctx context.Context, ref string) (*Object, error)
}

const nameTimeLayout = "2006-01-02T15-04-05.000000000Z"

// FileName builds a stored file name from the upload time and the client's
// original file name.
func FileName(now time.Time, original string) string {
	base := path.Base(strings.ReplaceAll(original, `\`, "/"))
	base = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == ':' || r < 0x20:
			return '-'
		case r == ' ':
			return '_'
		}
		return r
	}, base)
	if base == "." || base == "/" || base == "" {
		base = "image"
	}
	return now.UTC().Format(nameTimeLayout) + "-" + base
}

// Ref returns the reference of a stored file name.
func Ref(name string) string {
	return RefPrefix + "/" + name
}

// NameFromRef extracts the stored file name from a reference. A leading
// slash is tolerated so that public URLs can be passed back in.
func NameFromRef(ref string) (string, error) {
	trimmed := strings.TrimPrefix(ref, "/")
	name, ok := strings.CutPrefix(trimmed, RefPrefix+"/")
	if !ok || name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", ErrInvalidRef
	}
	return name, nil
}
