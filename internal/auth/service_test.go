package auth

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	pkgAuth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type stubUsers struct {
	user *models.User
	err  error
}

func (s stubUsers) FindByID(ctx context.Context, id int64) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.user, nil
}

type stubSessions struct {
	started  int64
	revoked  string
	startErr error
}

func (s *stubSessions) Start(ctx context.Context, userID int64) (string, error) {
	if s.startErr != nil {
		return "", s.startErr
	}
	s.started = userID
	return "access-123", nil
}

func (s *stubSessions) Revoke(ctx context.Context, accessID string) error {
	s.revoked = accessID
	return nil
}

func testJWT() config.JWTConfig {
	return config.JWTConfig{Secret: "secret", Issuer: "storefront", ExpirationMinutes: 15}
}

func TestIssueTokenMintsSessionBoundJWT(t *testing.T) {
	sessions := &stubSessions{}
	svc, err := NewService(ServiceParams{
		UserRepo:       stubUsers{user: &models.User{ID: 7, Email: "a@b.c", Role: &models.Role{Name: "admin"}}},
		SessionManager: sessions,
		JWTConfig:      testJWT(),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	resp, err := svc.IssueToken(context.Background(), 7)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if sessions.started != 7 {
		t.Fatalf("expected session for user 7, got %d", sessions.started)
	}
	claims, err := pkgAuth.ParseAccessToken(testJWT(), resp.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.ID != "access-123" || claims.UserID != 7 || claims.Role != "admin" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestIssueTokenUnknownUser(t *testing.T) {
	svc, _ := NewService(ServiceParams{
		UserRepo:       stubUsers{err: gorm.ErrRecordNotFound},
		SessionManager: &stubSessions{},
		JWTConfig:      testJWT(),
	})
	_, err := svc.IssueToken(context.Background(), 9)
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestIssueTokenSessionFailure(t *testing.T) {
	svc, _ := NewService(ServiceParams{
		UserRepo:       stubUsers{user: &models.User{ID: 3}},
		SessionManager: &stubSessions{startErr: errors.New("redis down")},
		JWTConfig:      testJWT(),
	})
	_, err := svc.IssueToken(context.Background(), 3)
	if !pkgerrors.IsCode(err, pkgerrors.CodeInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	sessions := &stubSessions{}
	svc, _ := NewService(ServiceParams{UserRepo: stubUsers{}, SessionManager: sessions, JWTConfig: testJWT()})
	if err := svc.Logout(context.Background(), "abc"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if sessions.revoked != "abc" {
		t.Fatalf("expected abc revoked, got %q", sessions.revoked)
	}
	if err := svc.Logout(context.Background(), ""); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized for empty access id, got %v", err)
	}
}
