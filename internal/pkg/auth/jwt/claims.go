package jwt

import "github.com/golang-jwt/jwt"

// Payload defines the claims carried by the development server's access
// tokens: the standard expiry/issue fields plus the account identity.
type Payload struct {
	jwt.StandardClaims

	// UserID is the server-assigned account id the token authenticates.
	UserID int64 `json:"user_id"`

	// Email is the account's login email, carried for logging convenience.
	Email string `json:"email"`
}
