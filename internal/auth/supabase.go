package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/masseurmatch/masseurmatch/internal/config"
	ierr "github.com/masseurmatch/masseurmatch/internal/errors"
)

// Claims are the identity fields read from a validated access token
type Claims struct {
	UserID string
	Email  string
}

// TokenValidator validates bearer tokens issued by the auth provider
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*Claims, error)
}

type supabaseTokenValidator struct {
	secret []byte
}

// NewTokenValidator validates Supabase access tokens signed with the
// project's HMAC secret.
func NewTokenValidator(cfg *config.Configuration) TokenValidator {
	return &supabaseTokenValidator{secret: []byte(cfg.Auth.Secret)}
}

func (v *supabaseTokenValidator) ValidateToken(ctx context.Context, token string) (*Claims, error) {
	if len(v.secret) == 0 {
		return nil, ierr.NewError("auth secret not configured").
			WithHint("Authentication is not configured").
			Mark(ierr.ErrNotConfigured)
	}

	parsedToken, err := jwt.Parse(strings.TrimSpace(token), func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Invalid token").
			Mark(ierr.ErrUnauthenticated)
	}

	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	if !ok || !parsedToken.Valid {
		return nil, ierr.NewError("invalid token claims").
			WithHint("Invalid token").
			Mark(ierr.ErrUnauthenticated)
	}

	userID, _ := claims["sub"].(string)
	if userID == "" {
		return nil, ierr.NewError("token missing user ID").
			WithHint("Invalid token").
			Mark(ierr.ErrUnauthenticated)
	}

	email, _ := claims["email"].(string)

	return &Claims{
		UserID: userID,
		Email:  email,
	}, nil
}
