package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Claims JWT claims structure
type Claims struct {
	UserID   string   `json:"user_id"`
	TenantID string   `json:"tenant_id"`
	Roles    []string `json:"roles"`
	jwt.RegisteredClaims
}

// UserContext is the authenticated identity extracted from a token,
// carried through the routing action boundary.
type UserContext struct {
	UserID   string
	TenantID string
	Roles    []string
}

// JWTManager JWT token manager
type JWTManager struct {
	secretKey    string
	accessExpiry time.Duration
}

// NewJWTManager creates a new JWT manager
func NewJWTManager(secretKey string, accessExpiry time.Duration) *JWTManager {
	if accessExpiry <= 0 {
		accessExpiry = time.Hour
	}
	return &JWTManager{
		secretKey:    secretKey,
		accessExpiry: accessExpiry,
	}
}

// GenerateAccessToken generates an access token
func (m *JWTManager) GenerateAccessToken(userID, tenantID string, roles []string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   userID,
		TenantID: tenantID,
		Roles:    roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "kire",
			Subject:   userID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.secretKey))
}

// ValidateToken validates a token and returns claims
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(m.secretKey), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}

// UserContextFromToken validates a token and maps its claims to a UserContext
func (m *JWTManager) UserContextFromToken(tokenString string) (*UserContext, error) {
	claims, err := m.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &UserContext{
		UserID:   claims.UserID,
		TenantID: claims.TenantID,
		Roles:    claims.Roles,
	}, nil
}

// ShouldRenew checks if a token should be renewed
// Returns true if the token will expire in less than 30 minutes
func (m *JWTManager) ShouldRenew(claims *Claims) bool {
	if claims.ExpiresAt == nil {
		return false
	}

	timeLeft := time.Until(claims.ExpiresAt.Time)
	return timeLeft > 0 && timeLeft < 30*time.Minute
}
