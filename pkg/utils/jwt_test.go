package utils

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	SetSecret("test-secret")

	token, err := GenerateToken("42", []string{"admin"}, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.UserID != "42" || !claims.IsAdmin() {
		t.Errorf("claims = %+v", claims)
	}
}

func TestValidateTokenRejectsExpiredAndForeign(t *testing.T) {
	SetSecret("test-secret")
	expired, _ := GenerateToken("42", nil, -time.Minute)
	if _, err := ValidateToken(expired); err == nil {
		t.Error("expired token should be rejected")
	}

	SetSecret("other-secret")
	foreign, _ := GenerateToken("42", nil, time.Hour)
	SetSecret("test-secret")
	if _, err := ValidateToken(foreign); err == nil {
		t.Error("token signed with another secret should be rejected")
	}
}
