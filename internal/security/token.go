package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"metabridge/internal/models"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Claims is the JWT payload carried by session tokens
type Claims struct {
	AccountID int64  `json:"id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// TokenSigner mints and verifies stateless session tokens. Validity is
// determined purely by signature and expiry, never by a server-side lookup.
type TokenSigner struct {
	secret   []byte
	lifetime time.Duration
}

// NewTokenSigner creates a token signer with the given HMAC secret and
// token lifetime
func NewTokenSigner(secret string, lifetime time.Duration) (*TokenSigner, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	return &TokenSigner{secret: []byte(secret), lifetime: lifetime}, nil
}

// Mint issues a signed session token for the account
func (s *TokenSigner) Mint(account *models.Account) (string, error) {
	now := time.Now()
	claims := Claims{
		AccountID: account.ID,
		Email:     account.Email,
		Role:      account.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.lifetime)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify parses a token and returns its claims if the signature is valid
// and the token has not expired
func (s *TokenSigner) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
