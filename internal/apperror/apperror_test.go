package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{NotFound, http.StatusNotFound},
		{ValidationFailed, http.StatusUnprocessableEntity},
		{UploadRejected, http.StatusUnprocessableEntity},
		{Forbidden, http.StatusForbidden},
		{Unauthorized, http.StatusUnauthorized},
		{Internal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			if got := tt.kind.Status(); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	cause := errors.New("disk full")
	err := fmt.Errorf("create post: %w", Wrap(Internal, "Error saving image.", cause))

	if KindOf(err) != Internal || !errors.Is(err, cause) {
		t.Errorf("wrapped error lost its kind or cause: %v", err)
	}
	if KindOf(New(Forbidden, "no")) != Forbidden || !Is(New(Forbidden, "no"), Forbidden) {
		t.Error("expected Forbidden")
	}
	if KindOf(cause) != Internal || Is(cause, NotFound) {
		t.Error("unclassified errors should be Internal")
	}
	if got := Wrap(NotFound, "Post not found!", cause).Error(); got != "Post not found!: disk full" {
		t.Errorf("unexpected message %q", got)
	}
}
