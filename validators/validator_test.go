package validators_test

import (
	"errors"
	"testing"

	"github.com/anonto42/nano-feed/backend/internal/apperror"
	"github.com/anonto42/nano-feed/backend/internal/models"
	"github.com/anonto42/nano-feed/backend/validators"
)

func TestValidate_PostRequest(t *testing.T) {
	v := validators.NewValidator()

	ok := &models.PostRequest{Title: "Valid title", Content: "Valid content"}
	if err := v.Validate(ok); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}

	short := &models.PostRequest{Title: "Hi", Content: ""}
	err := v.Validate(short)
	if apperror.KindOf(err) != apperror.ValidationFailed {
		t.Fatalf("expected ValidationFailed, got %v", err)
	}

	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperror.Error, got %T", err)
	}
	fields, ok2 := appErr.Data.([]validators.FieldError)
	if !ok2 || len(fields) != 2 {
		t.Fatalf("expected 2 field errors, got %#v", appErr.Data)
	}
	if fields[0].Field != "Title" || fields[1].Field != "Content" {
		t.Errorf("unexpected fields: %+v", fields)
	}
}

func TestValidate_SignupRequest(t *testing.T) {
	v := validators.NewValidator()

	tests := []struct {
		name  string
		req   models.SignupRequest
		valid bool
	}{
		{"valid", models.SignupRequest{Email: "a@test.com", Password: "secret", Name: "A"}, true},
		{"bad email", models.SignupRequest{Email: "not-an-email", Password: "secret", Name: "A"}, false},
		{"short password", models.SignupRequest{Email: "a@test.com", Password: "abc", Name: "A"}, false},
		{"missing name", models.SignupRequest{Email: "a@test.com", Password: "secret"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(&tt.req)
			if tt.valid && err != nil {
				t.Errorf("expected valid, got %v", err)
			}
			if !tt.valid && !apperror.Is(err, apperror.ValidationFailed) {
				t.Errorf("expected ValidationFailed, got %v", err)
			}
		})
	}
}
