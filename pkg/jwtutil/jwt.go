package jwtutil

import (
	"time"

	"fitpro-server/pkg/config"

	"github.com/golang-jwt/jwt/v4"
)

var (
	secret     = []byte("fitpro-secret-key")
	expiration = 24 * time.Hour
)

// Initialize configures the signing key and token lifetime from configuration
func Initialize(cfg *config.JWTConfig) {
	if cfg.SigningKey != "" {
		secret = []byte(cfg.SigningKey)
	}
	if cfg.ExpirationHours > 0 {
		expiration = time.Duration(cfg.ExpirationHours) * time.Hour
	}
}

// UserClaims represents the JWT claims for user authentication
type UserClaims struct {
	Email   string `json:"email"`
	UserID  uint   `json:"user_id"`
	Role    string `json:"role"`
	GymID   *uint  `json:"gym_id,omitempty"`   // Current gym context, nil for unbound sysadmins
	GymName string `json:"gym_name,omitempty"` // Adding gym name for convenience
	jwt.RegisteredClaims
}

// GenerateToken creates a JWT token with user information and no gym context
func GenerateToken(email string, userID uint, role string) (string, error) {
	return GenerateTokenWithGym(email, userID, role, nil, "")
}

// GenerateTokenWithGym creates a JWT token with user and gym context information
func GenerateTokenWithGym(email string, userID uint, role string, gymID *uint, gymName string) (string, error) {
	claims := UserClaims{
		Email:   email,
		UserID:  userID,
		Role:    role,
		GymID:   gymID,
		GymName: gymName,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateToken validates and parses the JWT token
func ValidateToken(tokenString string) (*UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*UserClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrSignatureInvalid
}
