// server/internal/auth/auth.go
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims defines the payload for the JWT. Tokens are minted by the fleet
// gateway; this service only validates them.
type JWTClaims struct {
	Email   string `json:"email"`
	Role    string `json:"role"` // "rider", "reviewer" or "admin"
	RiderID string `json:"riderID,omitempty"`
	jwt.RegisteredClaims
}

var JwtSecret = []byte("YOUR_SUPER_SECRET_KEY")

// SetSecret installs the signing secret from configuration. Call once at
// startup before the router is built.
func SetSecret(secret string) {
	if secret != "" {
		JwtSecret = []byte(secret)
	}
}

// GenerateJWT issues a token; used by the seed tooling and tests, riders get
// theirs from the gateway.
func GenerateJWT(email, role, riderID string) (string, error) {
	expirationTime := time.Now().Add(24 * time.Hour)
	claims := &JWTClaims{
		Email:   email,
		Role:    role,
		RiderID: riderID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(JwtSecret)
}
