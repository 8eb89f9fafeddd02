package models

import "github.com/golang-jwt/jwt/v5"

// Claims are the JWT claims the API layer expects on every request.
// Tokens are issued by the main barberhub auth service; this engine
// only validates them.
type Claims struct {
	TenantID string `json:"tenant_id"`
	UserID   string `json:"user_id"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}
