package webhookevent

import (
	"context"
	"time"

	"github.com/masseurmatch/masseurmatch/internal/types"
)

// Event is a ledger row for one inbound provider event id
type Event struct {
	ID          string                   `db:"id" json:"id"`
	Provider    string                   `db:"provider" json:"provider"`
	Type        string                   `db:"type" json:"type"`
	Status      types.WebhookEventStatus `db:"status" json:"status"`
	Attempts    int                      `db:"attempts" json:"attempts"`
	LastError   *string                  `db:"last_error" json:"last_error,omitempty"`
	ReceivedAt  time.Time                `db:"received_at" json:"received_at"`
	ProcessedAt *time.Time               `db:"processed_at" json:"processed_at,omitempty"`
}

type Repository interface {
	// Begin records a delivery of the event and returns the stored row,
	// bumping the attempt count when the id was seen before.
	Begin(ctx context.Context, e *Event) (*Event, error)
	MarkProcessed(ctx context.Context, id string, at time.Time) error
	MarkFailed(ctx context.Context, id string, reason string) error
}
