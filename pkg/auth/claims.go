package auth

import "github.com/golang-jwt/jwt/v5"

// IdentityClaims is the token shape issued by the hosted identity provider.
// The subject is the opaque user id that keys the remote cart and orders.
type IdentityClaims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the provider's subject.
func (c *IdentityClaims) UserID() string {
	if c == nil {
		return ""
	}
	return c.Subject
}
