package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
)

// BucketStore keeps images as objects in a Cloud Storage bucket, usually
// the Firebase project's default bucket. Object names equal references.
type BucketStore struct {
	bucket *storage.BucketHandle
	now    func() time.Time
}

func NewBucketStore(bucket *storage.BucketHandle) *BucketStore {
	return &BucketStore{bucket: bucket, now: time.Now}
}

func (s *BucketStore) Save(ctx context.Context, up Upload) (string, error) {
	if !Accepts(up.MimeType) {
		return "", ErrRejected
	}

	ref := Ref(FileName(s.now(), up.Name))
	w := s.bucket.Object(ref).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ContentType = up.MimeType

	if _, err := io.Copy(w, up.Body); err != nil {
		w.Close()
		return "", fmt.Errorf("upload asset %s: %w", ref, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize asset %s: %w", ref, err)
	}
	return ref, nil
}

func (s *BucketStore) Remove(ctx context.Context, ref string) error {
	name, err := NameFromRef(ref)
	if err != nil {
		return fmt.Errorf("%w: %q", err, ref)
	}
	if err := s.bucket.Object(Ref(name)).Delete(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, ref)
		}
		return fmt.Errorf("delete asset %s: %w", ref, err)
	}
	return nil
}

func (s *BucketStore) Open(ctx context.Context, ref string) (*Object, error) {
	name, err := NameFromRef(ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, ref)
	}
	r, err := s.bucket.Object(Ref(name)).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
		}
		return nil, fmt.Errorf("read asset %s: %w", ref, err)
	}
	return &Object{ReadCloser: r, ContentType: r.Attrs.ContentType}, nil
}
