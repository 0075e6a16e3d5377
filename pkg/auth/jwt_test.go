package auth

import (
	"testing"
	"time"

	"clinicbook/pkg/model"
)

func testUser() *model.User {
	return &model.User{
		ID:       "507f1f77bcf86cd799439011",
		FullName: "Dr. Dana Levi",
		Role:     model.RoleDoctor,
	}
}

func TestIssuePair_RoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Minute, time.Hour)

	pair, err := tm.IssuePair(testUser())
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}

	actor, err := tm.VerifyAccess(pair.Access)
	if err != nil {
		t.Fatalf("VerifyAccess: %v", err)
	}
	if actor.ID != "507f1f77bcf86cd799439011" {
		t.Errorf("actor ID = %s", actor.ID)
	}
	if actor.Role != model.RoleDoctor {
		t.Errorf("actor role = %s, want doctor", actor.Role)
	}
	if actor.FullName != "Dr. Dana Levi" {
		t.Errorf("actor full name = %s", actor.FullName)
	}
}

func TestVerifyAccess_RejectsRefreshToken(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Minute, time.Hour)

	pair, err := tm.IssuePair(testUser())
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}

	if _, err := tm.VerifyAccess(pair.Refresh); err == nil {
		t.Error("expected refresh token to be rejected as access token")
	}
	if _, err := tm.VerifyRefresh(pair.Refresh); err != nil {
		t.Errorf("VerifyRefresh: %v", err)
	}
}

func TestVerifyAccess_RejectsExpired(t *testing.T) {
	tm := NewTokenManager("test-secret", -time.Minute, time.Hour)

	pair, err := tm.IssuePair(testUser())
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}

	if _, err := tm.VerifyAccess(pair.Access); err == nil {
		t.Error("expected expired token to be rejected")
	}
}

func TestVerifyAccess_RejectsForeignSecret(t *testing.T) {
	issuer := NewTokenManager("secret-a", time.Minute, time.Hour)
	verifier := NewTokenManager("secret-b", time.Minute, time.Hour)

	pair, err := issuer.IssuePair(testUser())
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}

	if _, err := verifier.VerifyAccess(pair.Access); err == nil {
		t.Error("expected token signed with a different secret to be rejected")
	}
}
