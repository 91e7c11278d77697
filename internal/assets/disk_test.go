package assets_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/anonto42/nano-feed/backend/internal/assets"
)

func newDiskStore(t *testing.T) (*assets.DiskStore, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "images")
	store, err := assets.NewDiskStore(dir)
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	return store, dir
}

func upload(name, mimeType, body string) assets.Upload {
	return assets.Upload{Name: name, MimeType: mimeType, Body: strings.NewReader(body)}
}

func TestDiskStore_SaveAcceptedTypes(t *testing.T) {
	store, dir := newDiskStore(t)
	ctx := context.Background()

	for _, mimeType := range []string{"image/jpeg", "image/jpg", "image/png"} {
		ref, err := store.Save(ctx, upload("cat.png", mimeType, "bytes"))
		if err != nil {
			t.Fatalf("Save %s: %v", mimeType, err)
		}
		if !strings.HasPrefix(ref, "images/") || !strings.HasSuffix(ref, "-cat.png") {
			t.Errorf("Save %s: unexpected ref %q", mimeType, ref)
		}
		data, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(ref, "images/")))
		if err != nil {
			t.Fatalf("read stored file: %v", err)
		}
		if string(data) != "bytes" {
			t.Errorf("stored content: got %q", data)
		}
	}
}

func TestDiskStore_SaveRejectsOtherTypes(t *testing.T) {
	store, dir := newDiskStore(t)

	for _, mimeType := range []string{"image/gif", "text/plain", ""} {
		_, err := store.Save(context.Background(), upload("anim.gif", mimeType, "GIF89a"))
		if !errors.Is(err, assets.ErrRejected) {
			t.Errorf("Save %q: expected ErrRejected, got %v", mimeType, err)
		}
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("rejected uploads left %d files behind", len(entries))
	}
}

func TestDiskStore_SameNameGetsDistinctRefs(t *testing.T) {
	store, _ := newDiskStore(t)
	ctx := context.Background()

	first, err := store.Save(ctx, upload("same.jpg", "image/jpeg", "one"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	second, err := store.Save(ctx, upload("same.jpg", "image/jpeg", "two"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if first == second {
		t.Fatalf("expected distinct refs, both were %q", first)
	}
}

func TestDiskStore_RemoveAndOpen(t *testing.T) {
	store, _ := newDiskStore(t)
	ctx := context.Background()

	ref, err := store.Save(ctx, upload("dog.png", "image/png", "woof"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	obj, err := store.Open(ctx, "/"+ref)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	data, _ := io.ReadAll(obj)
	obj.Close()
	if string(data) != "woof" || obj.ContentType != "image/png" {
		t.Errorf("Open: got %q with type %q", data, obj.ContentType)
	}

	if err := store.Remove(ctx, ref); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := store.Remove(ctx, ref); !errors.Is(err, assets.ErrNotFound) {
		t.Errorf("second Remove: expected ErrNotFound, got %v", err)
	}
	if _, err := store.Open(ctx, ref); !errors.Is(err, assets.ErrNotFound) {
		t.Errorf("Open removed: expected ErrNotFound, got %v", err)
	}
}

func TestDiskStore_RejectsRefsOutsidePrefix(t *testing.T) {
	store, _ := newDiskStore(t)
	ctx := context.Background()

	for _, ref := range []string{"", "other/x.png", "images/../secret", "images/a/b.png", "images/"} {
		if err := store.Remove(ctx, ref); !errors.Is(err, assets.ErrInvalidRef) {
			t.Errorf("Remove(%q): expected ErrInvalidRef, got %v", ref, err)
		}
	}
}

func TestFileName(t *testing.T) {
	at := time.Date(2026, 10, 16, 12, 30, 45, 123, time.UTC)

	tests := []struct {
		original string
		want     string
	}{
		{"cat.png", "2026-10-16T12-30-45.000000123Z-cat.png"},
		{`C:\photos\my cat.png`, "2026-10-16T12-30-45.000000123Z-my_cat.png"},
		{"../../etc/passwd", "2026-10-16T12-30-45.000000123Z-passwd"},
		{"", "2026-10-16T12-30-45.000000123Z-image"},
	}
	for _, tt := range tests {
		if got := assets.FileName(at, tt.original); got != tt.want {
			t.Errorf("FileName(%q) = %q, want %q", tt.original, got, tt.want)
		}
	}
}
