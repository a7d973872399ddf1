package profile

import (
	"context"

	"github.com/masseurmatch/masseurmatch/internal/types"
)

// Profile is a provider's public listing. Only the fields billing and rate
// management need are mapped here.
type Profile struct {
	ID               string  `db:"id" json:"id"`
	UserID           string  `db:"user_id" json:"user_id"`
	DisplayName      string  `db:"display_name" json:"display_name"`
	StripeCustomerID *string `db:"stripe_customer_id" json:"stripe_customer_id,omitempty"`
	types.BaseModel
}

type Repository interface {
	GetByUserID(ctx context.Context, userID string) (*Profile, error)
	GetByStripeCustomerID(ctx context.Context, customerID string) (*Profile, error)
	SetStripeCustomerID(ctx context.Context, profileID, customerID string) error
}
