package jwtutil

import (
	"errors"
	"fmt"
	"time"

	"datapro-service/pkg/config"

	"github.com/golang-jwt/jwt/v4"
)

var (
	signingKey      []byte
	expirationHours = 24
)

// UserClaims represents the JWT claims for user authentication
type UserClaims struct {
	Email    string `json:"email"`
	UserID   uint   `json:"user_id"`
	Role     string `json:"role"`
	ClientID *uint  `json:"client_id,omitempty"` // Tenant the user is scoped to; nil for superadmins
	jwt.RegisteredClaims
}

// Initialize configures the package from the JWT section of the service config
func Initialize(cfg *config.JWTConfig) {
	signingKey = []byte(cfg.SigningKey)
	if cfg.ExpirationHours > 0 {
		expirationHours = cfg.ExpirationHours
	}
}

// GenerateToken creates a JWT token carrying the user's identity, role and
// tenant assignment
func GenerateToken(email string, userID uint, role string, clientID *uint) (string, error) {
	if len(signingKey) == 0 {
		return "", errors.New("jwtutil not initialized")
	}

	claims := UserClaims{
		Email:    email,
		UserID:   userID,
		Role:     role,
		ClientID: clientID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(expirationHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(signingKey)
}

// ValidateToken validates and parses the JWT token
func ValidateToken(tokenString string) (*UserClaims, error) {
	if len(signingKey) == 0 {
		return nil, errors.New("jwtutil not initialized")
	}

	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return signingKey, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*UserClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
