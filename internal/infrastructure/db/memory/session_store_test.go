package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/schoolhealth/notification-sync/internal/core/domain"
)

func TestSessionStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()

	if _, err := store.Load(ctx); !errors.Is(err, domain.ErrNoSession) {
		t.Fatalf("expected ErrNoSession on empty store, got %v", err)
	}

	sess := &domain.Session{Token: "tok", User: domain.User{Username: "lan", Role: domain.RoleSchoolNurse}}
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("save: %v", err)
	}
	sess.Token = "mutated"

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Token != "tok" || !got.IsSchoolNurse() {
		t.Fatalf("store must keep its own copy, got %+v", got)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := store.Load(ctx); !errors.Is(err, domain.ErrNoSession) {
		t.Fatalf("expected ErrNoSession after clear, got %v", err)
	}
}
