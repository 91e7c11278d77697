package services_test

import (
	"context"
	"testing"

	"github.com/anonto42/nano-feed/backend/internal/apperror"
	"github.com/anonto42/nano-feed/backend/internal/models"
	"github.com/anonto42/nano-feed/backend/internal/repositories"
	"github.com/anonto42/nano-feed/backend/internal/services"
)

func TestStatusService_GetAndSet(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewMemoryStore()
	u := &models.User{Email: "status@test.com", Password: "hash", Name: "Status", Status: "New"}
	if err := store.Users().CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	svc := services.NewStatusService(store.Users())

	status, err := svc.GetStatus(ctx, u.ID)
	if err != nil || status != "New" {
		t.Fatalf("GetStatus: expected New, got %q (%v)", status, err)
	}

	if status, err = svc.SetStatus(ctx, u.ID, "Away"); err != nil || status != "Away" {
		t.Fatalf("SetStatus: expected Away, got %q (%v)", status, err)
	}

	status, err = svc.GetStatus(ctx, u.ID)
	if err != nil || status != "Away" {
		t.Fatalf("GetStatus after set: expected Away, got %q (%v)", status, err)
	}
}

func TestStatusService_UnknownUser(t *testing.T) {
	ctx := context.Background()
	svc := services.NewStatusService(repositories.NewMemoryStore().Users())

	_, err := svc.GetStatus(ctx, "nobody")
	if apperror.KindOf(err) != apperror.NotFound {
		t.Errorf("GetStatus: expected NotFound, got %v", err)
	}
	_, err = svc.SetStatus(ctx, "nobody", "Away")
	if apperror.KindOf(err) != apperror.NotFound {
		t.Errorf("SetStatus: expected NotFound, got %v", err)
	}
}
