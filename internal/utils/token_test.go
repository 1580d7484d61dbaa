package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func TestTokenExpired(t *testing.T) {
	expired := signedToken(t, jwt.MapClaims{"exp": time.Now().Add(-time.Minute).Unix()})
	if !TokenExpired(expired) {
		t.Fatal("expected expired token to be reported expired")
	}

	live := signedToken(t, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})
	if TokenExpired(live) {
		t.Fatal("expected live token to pass")
	}
}

func TestTokenExpiredToleratesNonJWTs(t *testing.T) {
	// Opaque tokens are left for the backend to judge
	if TokenExpired("not-a-jwt-at-all") {
		t.Fatal("opaque token must not be treated as expired")
	}

	noExpiry := signedToken(t, jwt.MapClaims{"sub": "u1"})
	if TokenExpired(noExpiry) {
		t.Fatal("token without exp must not be treated as expired")
	}
}
