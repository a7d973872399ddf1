package identity

import (
	"context"
	"time"

	"github.com/masseurmatch/masseurmatch/internal/types"
)

// Verification is the identity check state of one user
type Verification struct {
	UserID            string               `db:"user_id" json:"user_id"`
	Status            types.IdentityStatus `db:"status" json:"status"`
	ExternalSessionID *string              `db:"external_session_id" json:"external_session_id,omitempty"`
	VerifiedAt        *time.Time           `db:"verified_at" json:"verified_at,omitempty"`
	FailureReason     *string              `db:"failure_reason" json:"failure_reason,omitempty"`
	LastEventAt       *time.Time           `db:"last_event_at" json:"-"`
	types.BaseModel
}

type Repository interface {
	// Upsert writes by user id. A verified user is never moved back to failed.
	Upsert(ctx context.Context, v *Verification) (applied bool, err error)
	Get(ctx context.Context, userID string) (*Verification, error)
}
