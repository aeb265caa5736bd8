package utils

import (
	"testing"

	"flowcrm/config"
)

func setTestSecrets(t *testing.T) {
	t.Helper()
	config.AppConfig.JWTSecret = "test-access-secret"
	config.AppConfig.JWTRefreshSecret = "test-refresh-secret"
}

func TestTokenPairRoundTrip(t *testing.T) {
	setTestSecrets(t)

	access, refresh, err := GenerateTokenPair(42, 7)
	if err != nil {
		t.Fatalf("GenerateTokenPair: %v", err)
	}

	claims, err := ParseAccessToken(access)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if claims.UserID != 42 || claims.TenantID != 7 {
		t.Errorf("access claims = user %d tenant %d, want 42/7", claims.UserID, claims.TenantID)
	}

	claims, err = ParseRefreshToken(refresh)
	if err != nil {
		t.Fatalf("ParseRefreshToken: %v", err)
	}
	if claims.UserID != 42 || claims.TenantID != 7 {
		t.Errorf("refresh claims = user %d tenant %d, want 42/7", claims.UserID, claims.TenantID)
	}
}

func TestTokensUseSeparateSecrets(t *testing.T) {
	setTestSecrets(t)

	access, refresh, err := GenerateTokenPair(1, 1)
	if err != nil {
		t.Fatalf("GenerateTokenPair: %v", err)
	}

	if _, err := ParseAccessToken(refresh); err == nil {
		t.Error("refresh token accepted as access token")
	}
	if _, err := ParseRefreshToken(access); err == nil {
		t.Error("access token accepted as refresh token")
	}
}

func TestParseRejectsTamperedToken(t *testing.T) {
	setTestSecrets(t)

	access, _, err := GenerateTokenPair(1, 1)
	if err != nil {
		t.Fatalf("GenerateTokenPair: %v", err)
	}

	tampered := access[:len(access)-2] + "xx"
	if _, err := ParseAccessToken(tampered); err == nil {
		t.Error("tampered token accepted")
	}
}

func TestGenerateRandomToken(t *testing.T) {
	token, hashed, err := GenerateRandomToken()
	if err != nil {
		t.Fatalf("GenerateRandomToken: %v", err)
	}
	if len(token) != 64 {
		t.Errorf("token length = %d, want 64 hex chars", len(token))
	}
	if hashed == token {
		t.Error("hash equals plaintext token")
	}
	if HashToken(token) != hashed {
		t.Error("HashToken does not reproduce the stored hash")
	}

	other, _, err := GenerateRandomToken()
	if err != nil {
		t.Fatalf("GenerateRandomToken: %v", err)
	}
	if other == token {
		t.Error("two generated tokens are identical")
	}
}
