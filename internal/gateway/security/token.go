package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"docbridge/internal/models"
)

// AccessClaims is what a docbridge bearer token carries. The role claim lets
// the gateway enforce ops/client capabilities without a user lookup on every
// request, but handlers still load the user so a verification flip is visible
// before the token rotates.
type AccessClaims struct {
	UserID   string          `json:"uid"`
	Email    string          `json:"email"`
	UserType models.UserType `json:"role"`
	Verified bool            `json:"verified"`
	jwt.RegisteredClaims
}

func GenerateAccessToken(secret string, user models.User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		UserID:   user.ID,
		Email:    user.Email,
		UserType: user.UserType,
		Verified: user.IsVerified,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Subject:   user.ID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign jwt: %w", err)
	}
	return signed, nil
}

func ParseAccessToken(tokenStr string, secret string) (*AccessClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*AccessClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}

// NewOpaqueToken returns a url-safe random token for email verification and
// download grants.
func NewOpaqueToken(length int) (string, error) {
	if length <= 0 {
		length = 32
	}
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
