package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"time"
)

// DiskStore keeps images as files in one directory.
type DiskStore struct {
	dir string
	now func() time.Time
}

// NewDiskStore creates dir if needed and returns a store writing into it.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create asset dir: %w", err)
	}
	return &DiskStore{dir: dir, now: time.Now}, nil
}

// Dir returns the directory the store writes into.
func (s *DiskStore) Dir() string { return s.dir }

func (s *DiskStore) Save(ctx context.Context, up Upload) (string, error) {
	if !Accepts(up.MimeType) {
		return "", ErrRejected
	}

	// Two uploads of the same name in the same nanosecond get a fresh stamp.
	var (
		name string
		f    *os.File
		err  error
	)
	for attempt := 0; attempt < 3; attempt++ {
		name = FileName(s.now(), up.Name)
		f, err = os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if !errors.Is(err, fs.ErrExist) {
			break
		}
	}
	if err != nil {
		return "", fmt.Errorf("create asset file: %w", err)
	}

	if _, err := io.Copy(f, up.Body); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write asset file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("close asset file: %w", err)
	}
	return Ref(name), nil
}

func (s *DiskStore) Remove(ctx context.Context, ref string) error {
	name, err := NameFromRef(ref)
	if err != nil {
		return fmt.Errorf("%w: %q", err, ref)
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, ref)
		}
		return fmt.Errorf("remove asset %s: %w", ref, err)
	}
	return nil
}

func (s *DiskStore) Open(ctx context.Context, ref string) (*Object, error) {
	name, err := NameFromRef(ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, ref)
	}
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
		}
		return nil, fmt.Errorf("open asset %s: %w", ref, err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &Object{ReadCloser: f, ContentType: contentType}, nil
}
