package stripe

import (
	"context"

	"github.com/masseurmatch/masseurmatch/internal/config"
	ierr "github.com/masseurmatch/masseurmatch/internal/errors"
	"github.com/masseurmatch/masseurmatch/internal/logger"
	"github.com/masseurmatch/masseurmatch/internal/types"
	"github.com/stripe/stripe-go/v82"
)

// CheckoutRequest describes a subscription checkout for one user
type CheckoutRequest struct {
	UserID     string
	Email      string
	CustomerID string
	Plan       types.SubscriptionPlan
	PriceID    string
	TrialDays  int64
	SuccessURL string
	CancelURL  string
}

// Session is a hosted provider page the user is redirected to
type Session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Gateway is the outbound half of the provider integration
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*Session, error)
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (*Session, error)
	CreateIdentitySession(ctx context.Context, userID, returnURL string) (*Session, error)
}

type Client struct {
	cfg    config.StripeConfig
	logger *logger.Logger
}

func NewClient(cfg *config.Configuration, logger *logger.Logger) Gateway {
	return &Client{cfg: cfg.Stripe, logger: logger}
}

// sdk builds a request-scoped SDK client so a missing key surfaces as a
// not-configured error instead of failing at boot.
func (c *Client) sdk() (*stripe.Client, error) {
	if c.cfg.SecretKey == "" {
		return nil, ierr.NewError("stripe secret key not configured").
			WithHint("Billing is not configured").
			Mark(ierr.ErrNotConfigured)
	}
	return stripe.NewClient(c.cfg.SecretKey, nil), nil
}

func (c *Client) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*Session, error) {
	sc, err := c.sdk()
	if err != nil {
		return nil, err
	}

	metadata := map[string]string{
		metadataUserID: req.UserID,
		metadataPlan:   string(req.Plan),
	}

	params := &stripe.CheckoutSessionCreateParams{
		Mode:              stripe.String("subscription"),
		ClientReferenceID: stripe.String(req.UserID),
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		Metadata:          metadata,
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{
			{
				Price:    stripe.String(req.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SubscriptionData: &stripe.CheckoutSessionCreateSubscriptionDataParams{
			Metadata: metadata,
		},
	}
	if req.TrialDays > 0 {
		params.SubscriptionData.TrialPeriodDays = stripe.Int64(req.TrialDays)
	}
	if req.CustomerID != "" {
		params.Customer = stripe.String(req.CustomerID)
	} else if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}

	session, err := sc.V1CheckoutSessions.Create(ctx, params)
	if err != nil {
		c.logger.Errorw("failed to create checkout session",
			"error", err,
			"user_id", req.UserID,
			"plan", req.Plan,
		)
		return nil, ierr.WithError(err).
			WithHint("Unable to start checkout").
			Mark(ierr.ErrHTTPClient)
	}

	c.logger.Infow("created checkout session",
		"session_id", session.ID,
		"user_id", req.UserID,
		"plan", req.Plan,
	)
	return &Session{ID: session.ID, URL: session.URL}, nil
}

func (c *Client) CreatePortalSession(ctx context.Context, customerID, returnURL string) (*Session, error) {
	sc, err := c.sdk()
	if err != nil {
		return nil, err
	}

	session, err := sc.V1BillingPortalSessions.Create(ctx, &stripe.BillingPortalSessionCreateParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	})
	if err != nil {
		c.logger.Errorw("failed to create billing portal session",
			"error", err,
			"customer_id", customerID,
		)
		return nil, ierr.WithError(err).
			WithHint("Unable to open billing portal").
			Mark(ierr.ErrHTTPClient)
	}
	return &Session{ID: session.ID, URL: session.URL}, nil
}

func (c *Client) CreateIdentitySession(ctx context.Context, userID, returnURL string) (*Session, error) {
	sc, err := c.sdk()
	if err != nil {
		return nil, err
	}

	params := &stripe.IdentityVerificationSessionCreateParams{
		Type:     stripe.String("document"),
		Metadata: map[string]string{metadataUserID: userID},
	}
	if returnURL != "" {
		params.ReturnURL = stripe.String(returnURL)
	}

	session, err := sc.V1IdentityVerificationSessions.Create(ctx, params)
	if err != nil {
		c.logger.Errorw("failed to create identity verification session",
			"error", err,
			"user_id", userID,
		)
		return nil, ierr.WithError(err).
			WithHint("Unable to start identity verification").
			Mark(ierr.ErrHTTPClient)
	}
	return &Session{ID: session.ID, URL: session.URL}, nil
}
