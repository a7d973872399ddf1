package auth

import (
	"context"
	"time"

	"github.com/masseurmatch/masseurmatch/internal/cache"
	"github.com/masseurmatch/masseurmatch/internal/config"
	ierr "github.com/masseurmatch/masseurmatch/internal/errors"
	"github.com/masseurmatch/masseurmatch/internal/logger"
	"github.com/nedpals/supabase-go"
)

// userCacheTTL bounds how long a changed email address can keep receiving mail
const userCacheTTL = 15 * time.Minute

// User is the contact information of an account
type User struct {
	ID    string
	Email string
}

// UserDirectory resolves account contact details for outbound email
type UserDirectory interface {
	GetUser(ctx context.Context, userID string) (*User, error)
}

type supabaseDirectory struct {
	client *supabase.Client
	cache  cache.Cache
	logger *logger.Logger
}

// NewUserDirectory looks users up through the Supabase admin API. Without
// admin credentials every lookup fails with ErrNotConfigured.
func NewUserDirectory(cfg *config.Configuration, c cache.Cache, logger *logger.Logger) UserDirectory {
	d := &supabaseDirectory{cache: c, logger: logger}
	if cfg.Auth.Supabase.BaseURL != "" && cfg.Auth.Supabase.ServiceKey != "" {
		d.client = supabase.CreateClient(cfg.Auth.Supabase.BaseURL, cfg.Auth.Supabase.ServiceKey)
	}
	return d
}

func (d *supabaseDirectory) GetUser(ctx context.Context, userID string) (*User, error) {
	key := cache.GenerateKey(cache.PrefixUser, userID)
	if cached, ok := d.cache.Get(ctx, key); ok {
		if u, ok := cached.(*User); ok {
			return u, nil
		}
	}

	if d.client == nil {
		return nil, ierr.NewError("user directory not configured").
			WithHint("Supabase admin credentials are missing").
			Mark(ierr.ErrNotConfigured)
	}

	resp, err := d.client.Admin.GetUser(ctx, userID)
	if err != nil {
		d.logger.Debugw("supabase user lookup failed", "user_id", userID, "error", err)
		return nil, ierr.WithError(err).
			WithHint("Could not look up user").
			WithReportableDetails(map[string]any{"user_id": userID}).
			Mark(ierr.ErrHTTPClient)
	}
	if resp == nil || resp.Email == "" {
		return nil, ierr.NewError("user has no email").
			WithHint("User not found").
			WithReportableDetails(map[string]any{"user_id": userID}).
			Mark(ierr.ErrNotFound)
	}

	u := &User{ID: userID, Email: resp.Email}
	d.cache.Set(ctx, key, u, userCacheTTL)
	return u, nil
}
