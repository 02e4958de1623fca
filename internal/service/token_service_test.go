package service

import (
	"strings"
	"testing"
	"time"

	"github.com/orbita-academy/orbita-backend/internal/config"
	"github.com/orbita-academy/orbita-backend/internal/model"
)

func testTokenService(ttl time.Duration) *TokenService {
	return NewTokenService(&config.Config{
		JWTSecret:  "test-secret",
		SessionTTL: ttl,
	})
}

func TestTokenRoundTrip(t *testing.T) {
	svc := testTokenService(time.Hour)
	user := &model.User{
		ID:          42,
		Username:    "english",
		Role:        model.RoleEnglishTeacher,
		Permissions: []string{"view_dashboard", "manage_courses"},
	}

	token, jti, err := svc.Issue(user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if token == "" || jti == "" {
		t.Fatal("issue returned empty token or jti")
	}

	claims, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("user id: got %d, want %d", claims.UserID, user.ID)
	}
	if claims.Username != user.Username {
		t.Errorf("username: got %q, want %q", claims.Username, user.Username)
	}
	if claims.Role != user.Role {
		t.Errorf("role: got %q, want %q", claims.Role, user.Role)
	}
	if claims.ID != jti {
		t.Errorf("jti: got %q, want %q", claims.ID, jti)
	}
	if len(claims.Permissions) != 2 {
		t.Errorf("permissions: got %v", claims.Permissions)
	}
}

func TestVerifyGarbageNeverPanics(t *testing.T) {
	svc := testTokenService(time.Hour)
	inputs := []string{
		"",
		"not-a-token",
		"a.b.c",
		"eyJhbGciOiJub25lIn0.e30.",
		strings.Repeat("x", 4096),
		"....",
	}
	for _, input := range inputs {
		if _, err := svc.Verify(input); err == nil {
			t.Errorf("Verify(%q) should fail", input)
		}
	}
}

func TestVerifyRejectsForgedToken(t *testing.T) {
	issuer := testTokenService(time.Hour)
	verifier := NewTokenService(&config.Config{
		JWTSecret:  "different-secret",
		SessionTTL: time.Hour,
	})

	token, _, err := issuer.Issue(&model.User{ID: 1, Username: "admin", Role: model.RoleAdmin})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := verifier.Verify(token); err == nil {
		t.Error("token signed with another secret should not verify")
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	svc := testTokenService(-time.Minute)
	token, _, err := svc.Issue(&model.User{ID: 1, Username: "admin", Role: model.RoleAdmin})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := svc.Verify(token); err == nil {
		t.Error("expired token should not verify")
	}
}

func TestIssueGeneratesDistinctJTIs(t *testing.T) {
	svc := testTokenService(time.Hour)
	user := &model.User{ID: 7, Username: "hr", Role: model.RoleHRManager}

	_, first, err := svc.Issue(user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	_, second, err := svc.Issue(user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if first == second {
		t.Error("consecutive credentials share a jti")
	}
}
