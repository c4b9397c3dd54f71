package utils

import (
	"errors"
	"time"

	"shutterbook/config"

	"github.com/golang-jwt/jwt"
)

const devSecret = "shutterbook-dev-secret"

// Roles carried in the "role" claim.
const (
	RoleClient = "client"
	RoleStaff  = "staff"
)

// TokenClaims is the identity extracted from a bearer token.
type TokenClaims struct {
	Subject string
	Role    string
}

var errNoSecret = errors.New("jwt: JWT_SECRET is not configured")

// secretKey falls back to the dev secret outside production only.
func secretKey() ([]byte, error) {
	if config.AppConfig.JWTSecret != "" {
		return []byte(config.AppConfig.JWTSecret), nil
	}
	if config.IsProduction() {
		return nil, errNoSecret
	}
	return []byte(devSecret), nil
}

// GenerateToken creates a signed JWT for the given subject and role.
// Tokens are normally minted by the identity provider; this exists for tooling and tests.
func GenerateToken(subject, role string, duration time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(duration).Unix(),
	}
	key, err := secretKey()
	if err != nil {
		return "", err
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(key)
}

// ValidateToken parses and validates a token string and returns the token if valid.
func ValidateToken(tokenString string) (*jwt.Token, error) {
	return jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secretKey()
	})
}

// ExtractClaims validates the token and returns its subject and role.
// A missing role is treated as a client.
func ExtractClaims(tokenString string) (TokenClaims, error) {
	token, err := ValidateToken(tokenString)
	if err != nil {
		return TokenClaims{}, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return TokenClaims{}, errors.New("invalid token")
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return TokenClaims{}, errors.New("token does not contain a valid 'sub' claim")
	}
	role, _ := claims["role"].(string)
	if role == "" {
		role = RoleClient
	}
	return TokenClaims{Subject: sub, Role: role}, nil
}
