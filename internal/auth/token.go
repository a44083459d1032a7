// Package auth issues and verifies credentials and applies ownership rules.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// tokenClaims is the signed payload: the user id plus expiry
type tokenClaims struct {
	ID string `json:"id"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies bearer tokens
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a token service using HS256
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("jwt secret must be provided")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("invalid token ttl %s", ttl)
	}
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Generate issues a token for the user
func (s *TokenService) Generate(userID primitive.ObjectID) (string, error) {
	now := s.now()
	claims := tokenClaims{
		ID: userID.Hex(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify checks the signature and expiry and returns the caller
func (s *TokenService) Verify(tokenString string) (Caller, error) {
	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return Caller{}, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return Caller{}, errors.New("invalid token")
	}

	id, err := primitive.ObjectIDFromHex(claims.ID)
	if err != nil {
		return Caller{}, fmt.Errorf("invalid subject in token: %w", err)
	}

	return Caller{ID: id}, nil
}
