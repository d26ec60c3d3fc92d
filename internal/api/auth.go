package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Errors returned by JWTService, grounded on
// internal/controlplane/api/auth/jwt_service.go's error set, trimmed to
// the subset a read-only bearer-token check needs.
var (
	ErrInvalidToken        = errors.New("invalid token")
	ErrExpiredToken        = errors.New("token has expired")
	ErrInvalidSecretLength = errors.New("jwt secret must be at least 32 characters")
)

// Claims is this API's JWT claim set: just enough to identify the
// diagnostics caller, no role/group model since this API is read-only.
type Claims struct {
	jwt.RegisteredClaims
	ClientID string `json:"clientId"`
}

// JWTConfig configures JWTService.
type JWTConfig struct {
	Secret   string
	Issuer   string        // default "vassist"
	TokenTTL time.Duration // default 1 hour
}

// JWTService issues and validates bearer tokens for the diagnostics API.
// Grounded on internal/controlplane/api/auth/jwt_service.go's
// HS256-signed RegisteredClaims pattern.
type JWTService struct {
	cfg JWTConfig
}

// NewJWTService validates cfg and returns a ready JWTService.
func NewJWTService(cfg JWTConfig) (*JWTService, error) {
	if len(cfg.Secret) < 32 {
		return nil, ErrInvalidSecretLength
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "vassist"
	}
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = time.Hour
	}
	return &JWTService{cfg: cfg}, nil
}

// IssueToken creates a signed token identifying clientID.
func (s *JWTService) IssueToken(clientID string) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Subject:   clientID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
		},
		ClientID: clientID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and validates a bearer token.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

type claimsContextKey struct{}

// jwtAuth is chi-compatible middleware requiring a valid bearer token,
// grounded on pkg/api/middleware's JWTAuth shape.
func jwtAuth(svc *JWTService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := extractBearerToken(r)
			if !ok {
				http.Error(w, "authorization header required", http.StatusUnauthorized)
				return
			}
			claims, err := svc.ValidateToken(tokenString)
			if err != nil {
				http.Error(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), claimsContextKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractBearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	return strings.TrimPrefix(header, prefix), true
}
