package authz

import (
	"context"
	"errors"
	"testing"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type stubAuthorizer struct {
	admins map[int64]bool
	err    error
}

func (s stubAuthorizer) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.admins[userID], nil
}

func TestRequireAdmin(t *testing.T) {
	a := stubAuthorizer{admins: map[int64]bool{1: true}}
	if err := RequireAdmin(context.Background(), a, 1); err != nil {
		t.Fatalf("expected admin allowed, got %v", err)
	}
	if err := RequireAdmin(context.Background(), a, 2); !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if err := RequireAdmin(context.Background(), stubAuthorizer{err: errors.New("db")}, 1); !pkgerrors.IsCode(err, pkgerrors.CodeInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestRequireSelfOrAdmin(t *testing.T) {
	a := stubAuthorizer{admins: map[int64]bool{1: true}}
	ctx := context.Background()
	if err := RequireSelfOrAdmin(ctx, a, 5, 5); err != nil {
		t.Fatalf("expected owner allowed, got %v", err)
	}
	if err := RequireSelfOrAdmin(ctx, a, 1, 5); err != nil {
		t.Fatalf("expected admin allowed, got %v", err)
	}
	if err := RequireSelfOrAdmin(ctx, a, 6, 5); !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}
