package security

import (
	"context"
	"errors"
	"time"

	"bookstack/internal/common"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

// TokenService issues and verifies the stateless bearer tokens used for
// authentication. Verification depends only on the token, the secret and the
// clock, so no store lookup happens on the hot path.
type TokenService struct {
	tokenAuth *jwtauth.JWTAuth
	expiry    time.Duration
}

func NewTokenService(secret []byte, expiry time.Duration) *TokenService {
	return &TokenService{
		tokenAuth: jwtauth.New("HS256", secret, nil),
		expiry:    expiry,
	}
}

// TokenAuth exposes the underlying jwtauth handle for the router's Verifier
// middleware.
func (s *TokenService) TokenAuth() *jwtauth.JWTAuth {
	return s.tokenAuth
}

func (s *TokenService) GenerateToken(userID, role string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     now.Add(s.expiry).Unix(),
		"iat":     now.Unix(),
	}
	_, tokenString, err := s.tokenAuth.Encode(claims)
	return tokenString, err
}

// VerifyToken checks signature and validity window and returns the embedded
// identity. Expired tokens are reported separately from malformed or
// tampered ones.
func (s *TokenService) VerifyToken(tokenString string) (userID, role string, err error) {
	token, err := jwtauth.VerifyToken(s.tokenAuth, tokenString)
	if err != nil {
		if errors.Is(err, jwtauth.ErrExpired) {
			return "", "", common.ErrTokenExpired
		}
		return "", "", common.ErrTokenInvalid
	}

	claims, err := token.AsMap(context.Background())
	if err != nil {
		return "", "", common.ErrTokenInvalid
	}
	userID, err = GetUserIDFromClaims(claims)
	if err != nil {
		return "", "", common.ErrTokenInvalid
	}
	role, err = GetUserRoleFromClaims(claims)
	if err != nil {
		return "", "", common.ErrTokenInvalid
	}
	return userID, role, nil
}

// Helper functions to extract claims, used in middleware and services.
func GetUserIDFromClaims(claims jwt.MapClaims) (string, error) {
	id, ok := claims["user_id"].(string)
	if !ok {
		return "", errors.New("user_id claim is missing or not a string")
	}
	return id, nil
}

func GetUserRoleFromClaims(claims jwt.MapClaims) (string, error) {
	role, ok := claims["role"].(string)
	if !ok {
		return "", errors.New("role claim is missing or not a string")
	}
	return role, nil
}
