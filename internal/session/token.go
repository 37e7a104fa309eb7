package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenExpired inspects the JWT exp claim without verifying the signature;
// the client never holds the signing secret. Opaque or claim-less tokens are
// kept and left for the service to reject.
func tokenExpired(raw string) bool {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}
