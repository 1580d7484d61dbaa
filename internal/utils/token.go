package utils

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpired reports whether a stored bearer token carries an 'exp'
// claim in the past. The signature is not verified (the client holds
// no signing secret); tokens that are not JWTs or carry no expiry are
// treated as still live and left for the backend to judge.
func TokenExpired(tokenString string) bool {
	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return false
	}

	expiresAt, err := claims.GetExpirationTime()
	if err != nil || expiresAt == nil {
		return false
	}
	return expiresAt.Before(time.Now())
}
