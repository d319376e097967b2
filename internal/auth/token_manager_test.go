package auth

import (
	"testing"
	"time"
)

func newTestManager(clock func() time.Time) *TokenManager {
	return NewTokenManager(TokenManagerConfig{
		SigningSecret: []byte("test-secret"),
		Issuer:        "clipstream-auth",
		Audience:      "clipstream-api",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    24 * time.Hour,
		Clock:         clock,
	})
}

func TestAccessTokenRoundTrip(testContext *testing.T) {
	manager := newTestManager(nil)

	token, expiresIn, err := manager.IssueAccessToken("user-1")
	if err != nil {
		testContext.Fatalf("failed to issue access token: %v", err)
	}
	if expiresIn != int64((15 * time.Minute).Seconds()) {
		testContext.Fatalf("unexpected expiry: %d", expiresIn)
	}

	subject, err := manager.ValidateAccessToken(token)
	if err != nil {
		testContext.Fatalf("failed to validate access token: %v", err)
	}
	if subject != "user-1" {
		testContext.Fatalf("unexpected subject: %s", subject)
	}
}

func TestRefreshTokenIsNotAnAccessToken(testContext *testing.T) {
	manager := newTestManager(nil)

	refreshToken, err := manager.IssueRefreshToken("user-1")
	if err != nil {
		testContext.Fatalf("failed to issue refresh token: %v", err)
	}

	if _, err := manager.ValidateAccessToken(refreshToken); err == nil {
		testContext.Fatal("refresh token must not validate as an access token")
	}
	subject, err := manager.ValidateRefreshToken(refreshToken)
	if err != nil {
		testContext.Fatalf("failed to validate refresh token: %v", err)
	}
	if subject != "user-1" {
		testContext.Fatalf("unexpected subject: %s", subject)
	}
}

func TestExpiredAccessTokenRejected(testContext *testing.T) {
	issuedAt := time.Unix(1_700_000_000, 0)
	manager := newTestManager(func() time.Time { return issuedAt })

	token, _, err := manager.IssueAccessToken("user-1")
	if err != nil {
		testContext.Fatalf("failed to issue access token: %v", err)
	}

	lateManager := newTestManager(func() time.Time { return issuedAt.Add(16 * time.Minute) })
	if _, err := lateManager.ValidateAccessToken(token); err == nil {
		testContext.Fatal("expected expired token to be rejected")
	}
}

func TestIssueRequiresSecretAndSubject(testContext *testing.T) {
	missingSecret := NewTokenManager(TokenManagerConfig{Audience: "clipstream-api"})
	if _, _, err := missingSecret.IssueAccessToken("user-1"); err == nil {
		testContext.Fatal("expected error without signing secret")
	}

	manager := newTestManager(nil)
	if _, _, err := manager.IssueAccessToken(""); err == nil {
		testContext.Fatal("expected error without subject")
	}
}

func TestTamperedTokenRejected(testContext *testing.T) {
	manager := newTestManager(nil)
	token, _, err := manager.IssueAccessToken("user-1")
	if err != nil {
		testContext.Fatalf("failed to issue access token: %v", err)
	}

	otherManager := NewTokenManager(TokenManagerConfig{
		SigningSecret: []byte("other-secret"),
		Issuer:        "clipstream-auth",
		Audience:      "clipstream-api",
	})
	if _, err := otherManager.ValidateAccessToken(token); err == nil {
		testContext.Fatal("expected token signed with a different secret to be rejected")
	}
}
