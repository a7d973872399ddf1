package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/masseurmatch/masseurmatch/internal/cache"
	"github.com/masseurmatch/masseurmatch/internal/config"
	ierr "github.com/masseurmatch/masseurmatch/internal/errors"
	"github.com/masseurmatch/masseurmatch/internal/logger"
	"github.com/stretchr/testify/suite"
)

const testSecret = "super-secret-jwt-token-with-at-least-32-characters"

type AuthSuite struct {
	suite.Suite
	ctx context.Context
	cfg *config.Configuration
}

func TestAuth(t *testing.T) {
	suite.Run(t, new(AuthSuite))
}

func (s *AuthSuite) SetupTest() {
	s.ctx = context.Background()
	s.cfg = config.GetDefaultConfig()
	s.cfg.Auth.Secret = testSecret
}

func (s *AuthSuite) sign(claims jwt.MapClaims, secret string) string {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	s.Require().NoError(err)
	return token
}

func (s *AuthSuite) TestValidateToken() {
	token := s.sign(jwt.MapClaims{
		"sub":   "usr_1",
		"email": "a@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}, testSecret)

	claims, err := NewTokenValidator(s.cfg).ValidateToken(s.ctx, token)
	s.Require().NoError(err)
	s.Equal("usr_1", claims.UserID)
	s.Equal("a@example.com", claims.Email)
}

func (s *AuthSuite) TestValidateTokenRejects() {
	validator := NewTokenValidator(s.cfg)

	cases := map[string]string{
		"wrong secret": s.sign(jwt.MapClaims{"sub": "usr_1"}, "another-secret-another-secret-another"),
		"expired":      s.sign(jwt.MapClaims{"sub": "usr_1", "exp": time.Now().Add(-time.Hour).Unix()}, testSecret),
		"missing sub":  s.sign(jwt.MapClaims{"email": "a@example.com"}, testSecret),
		"garbage":      "not-a-token",
	}
	for name, token := range cases {
		_, err := validator.ValidateToken(s.ctx, token)
		s.Error(err, name)
		s.True(ierr.HTTPStatusFromErr(err) == 401, name)
	}
}

func (s *AuthSuite) TestValidateTokenWithoutSecret() {
	s.cfg.Auth.Secret = ""
	_, err := NewTokenValidator(s.cfg).ValidateToken(s.ctx, "x")
	s.True(ierr.IsNotConfigured(err))
}

func (s *AuthSuite) TestDirectoryServesCachedUser() {
	c := cache.NewInMemoryCache(s.cfg, logger.NewNopLogger())
	c.Set(s.ctx, cache.GenerateKey(cache.PrefixUser, "usr_1"), &User{ID: "usr_1", Email: "a@example.com"}, 0)

	dir := NewUserDirectory(s.cfg, c, logger.NewNopLogger())
	u, err := dir.GetUser(s.ctx, "usr_1")
	s.Require().NoError(err)
	s.Equal("a@example.com", u.Email)
}

func (s *AuthSuite) TestDirectoryWithoutCredentials() {
	c := cache.NewInMemoryCache(s.cfg, logger.NewNopLogger())
	dir := NewUserDirectory(s.cfg, c, logger.NewNopLogger())
	_, err := dir.GetUser(s.ctx, "usr_2")
	s.True(ierr.IsNotConfigured(err))
}
