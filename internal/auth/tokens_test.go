package auth

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"strata/internal/domain"
	"strata/internal/domain/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewTokenManagerRequiresSecret(t *testing.T) {
	if _, err := NewTokenManager("", time.Hour, testLogger()); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	m, err := NewTokenManager("secret", time.Hour, testLogger())
	if err != nil {
		t.Fatal(err)
	}

	p := &models.Principal{
		ID:       "u-123",
		Username: "alice",
		Role:     models.RoleUser,
		Position: models.PositionManager,
	}

	token, err := m.Issue(p)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := m.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "u-123" {
		t.Errorf("subject = %q, want u-123", claims.Subject)
	}
	if claims.Username != "alice" || claims.Role != "user" || claims.Position != "Manager" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	m, _ := NewTokenManager("secret", time.Hour, testLogger())
	other, _ := NewTokenManager("different-secret", time.Hour, testLogger())

	p := &models.Principal{ID: "u-123", Username: "alice", Role: models.RoleUser, Position: models.PositionStaff}

	wrongKey, _ := other.Issue(p)
	goodToken, _ := m.Issue(p)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not.a.jwt"},
		{"wrong key", wrongKey},
		{"truncated", goodToken[:len(goodToken)-5]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.Verify(tt.token); !errors.Is(err, domain.ErrUnauthorized) {
				t.Errorf("expected ErrUnauthorized, got %v", err)
			}
		})
	}
}
