package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// Claims represents the JWT claims carried by a DittoDrive access token.
//
// The registered subject claim duplicates UserID; handlers should read
// UserID, which survives username changes.
type Claims struct {
	jwt.RegisteredClaims

	// UserID is the unique identifier of the authenticated user.
	UserID string `json:"uid"`

	// Username is the username at the time the token was issued.
	Username string `json:"username"`
}
