package helpers

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenClass separates access tokens from refresh tokens signed with the same secret.
type TokenClass string

const (
	AccessClass  TokenClass = "access"
	RefreshClass TokenClass = "refresh"
)

var ErrWrongTokenClass = errors.New("wrong token class")

// JWTManager handles generation and validation of JWT tokens
type JWTManager struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func NewJWTManager(secret string, accessTTL, refreshTTL time.Duration) *JWTManager {
	return &JWTManager{
		Secret:     []byte(secret),
		AccessTTL:  accessTTL,
		RefreshTTL: refreshTTL,
	}
}

type Claims struct {
	UserID string     `json:"userId"`
	Class  TokenClass `json:"typ"`
	jwt.RegisteredClaims
}

func (m *JWTManager) GenerateAccessToken(userID string) (string, time.Time, error) {
	return m.generate(userID, AccessClass, m.AccessTTL)
}

func (m *JWTManager) GenerateRefreshToken(userID string) (string, time.Time, error) {
	return m.generate(userID, RefreshClass, m.RefreshTTL)
}

func (m *JWTManager) generate(userID string, class TokenClass, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(ttl)
	claims := &Claims{
		UserID: userID,
		Class:  class,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(m.Secret)
	return s, exp, err
}

// Verify returns the claims of a valid token of either class, or nil.
func (m *JWTManager) Verify(tokenStr string) *Claims {
	claims, err := m.parse(tokenStr)
	if err != nil {
		return nil
	}
	return claims
}

func (m *JWTManager) ParseAccessToken(tokenStr string) (*Claims, error) {
	return m.parseClass(tokenStr, AccessClass)
}

func (m *JWTManager) ParseRefreshToken(tokenStr string) (*Claims, error) {
	return m.parseClass(tokenStr, RefreshClass)
}

func (m *JWTManager) parseClass(tokenStr string, class TokenClass) (*Claims, error) {
	claims, err := m.parse(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.Class != class {
		return nil, ErrWrongTokenClass
	}
	return claims, nil
}

func (m *JWTManager) parse(tokenStr string) (*Claims, error) {
	tokenStr = StripBearer(tokenStr)
	if tokenStr == "" {
		return nil, errors.New("empty token")
	}
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return m.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !tkn.Valid || claims.UserID == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// StripBearer removes a leading "Bearer " (any case) from an Authorization value.
func StripBearer(s string) string {
	s = strings.TrimSpace(s)
	const prefix = "bearer "
	if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
		return strings.TrimSpace(s[len(prefix):])
	}
	return s
}
