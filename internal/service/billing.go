package service

import (
	"context"

	"github.com/masseurmatch/masseurmatch/internal/api/dto"
	ierr "github.com/masseurmatch/masseurmatch/internal/errors"
	"github.com/masseurmatch/masseurmatch/internal/integration/stripe"
	"github.com/masseurmatch/masseurmatch/internal/types"
	"github.com/samber/lo"
)

// BillingService opens hosted provider pages for the signed-in user
type BillingService interface {
	CreateCheckoutSession(ctx context.Context, req dto.CreateCheckoutSessionRequest) (*dto.SessionResponse, error)
	CreatePortalSession(ctx context.Context, req dto.CreatePortalSessionRequest) (*dto.SessionResponse, error)
	CreateIdentitySession(ctx context.Context, req dto.CreateIdentitySessionRequest) (*dto.SessionResponse, error)
	GetIdentityStatus(ctx context.Context) (*dto.IdentityStatusResponse, error)
}

type billingService struct {
	ServiceParams
}

func NewBillingService(params ServiceParams) BillingService {
	return &billingService{ServiceParams: params}
}

func (s *billingService) currentUser(ctx context.Context) (string, error) {
	userID := types.GetUserID(ctx)
	if userID == "" {
		return "", ierr.NewError("user not authenticated").
			WithHint("Please sign in").
			Mark(ierr.ErrUnauthenticated)
	}
	return userID, nil
}

// customerID returns the provider customer already linked to the user, if any
func (s *billingService) customerID(ctx context.Context, userID string) (string, error) {
	p, err := s.ProfileRepo.GetByUserID(ctx, userID)
	if err != nil && !ierr.IsNotFound(err) {
		return "", err
	}
	if p != nil && lo.FromPtr(p.StripeCustomerID) != "" {
		return *p.StripeCustomerID, nil
	}

	sub, err := s.SubRepo.GetLatestByUserID(ctx, userID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return "", nil
		}
		return "", err
	}
	return sub.ExternalCustomerID, nil
}

func (s *billingService) CreateCheckoutSession(ctx context.Context, req dto.CreateCheckoutSessionRequest) (*dto.SessionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if !req.Plan.IsPaid() {
		return nil, ierr.NewError("free plan cannot be purchased").
			WithHint("Choose a paid plan to check out").
			WithReportableDetails(map[string]any{"plan": req.Plan}).
			Mark(ierr.ErrValidation)
	}

	userID, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	priceID := s.Config.Stripe.PriceID(req.Plan)
	if priceID == "" {
		s.Logger.Errorw("no stripe price configured for plan", "plan", req.Plan)
		return nil, ierr.NewError("price not configured").
			WithHint("This plan is not available right now").
			Mark(ierr.ErrNotConfigured)
	}

	customerID, err := s.customerID(ctx, userID)
	if err != nil {
		return nil, err
	}

	checkout := stripe.CheckoutRequest{
		UserID:     userID,
		Email:      types.GetUserEmail(ctx),
		CustomerID: customerID,
		Plan:       req.Plan,
		PriceID:    priceID,
		SuccessURL: firstNonEmpty(req.SuccessURL, s.Config.Stripe.SuccessURL),
		CancelURL:  firstNonEmpty(req.CancelURL, s.Config.Stripe.CancelURL),
	}
	// trials are for first-time subscribers only
	if customerID == "" {
		checkout.TrialDays = s.Config.Stripe.TrialDays
	}

	session, err := s.StripeGateway.CreateCheckoutSession(ctx, checkout)
	if err != nil {
		return nil, err
	}
	return &dto.SessionResponse{ID: session.ID, URL: session.URL}, nil
}

func (s *billingService) CreatePortalSession(ctx context.Context, req dto.CreatePortalSessionRequest) (*dto.SessionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	userID, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	customerID, err := s.customerID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if customerID == "" {
		return nil, ierr.NewError("no billing customer for user").
			WithHint("You do not have a subscription yet").
			Mark(ierr.ErrNotFound)
	}

	session, err := s.StripeGateway.CreatePortalSession(ctx, customerID,
		firstNonEmpty(req.ReturnURL, s.Config.Stripe.PortalReturnURL))
	if err != nil {
		return nil, err
	}
	return &dto.SessionResponse{ID: session.ID, URL: session.URL}, nil
}

func (s *billingService) CreateIdentitySession(ctx context.Context, req dto.CreateIdentitySessionRequest) (*dto.SessionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	userID, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	v, err := s.IdentityRepo.Get(ctx, userID)
	if err != nil && !ierr.IsNotFound(err) {
		return nil, err
	}
	if v != nil && v.Status == types.IdentityStatusVerified {
		return nil, ierr.NewError("identity already verified").
			WithHint("Your identity is already verified").
			Mark(ierr.ErrAlreadyExists)
	}

	session, err := s.StripeGateway.CreateIdentitySession(ctx, userID,
		firstNonEmpty(req.ReturnURL, s.Config.Stripe.IdentityReturnURL))
	if err != nil {
		return nil, err
	}
	return &dto.SessionResponse{ID: session.ID, URL: session.URL}, nil
}

func (s *billingService) GetIdentityStatus(ctx context.Context) (*dto.IdentityStatusResponse, error) {
	userID, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	v, err := s.IdentityRepo.Get(ctx, userID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return dto.NewIdentityStatusResponse(nil), nil
		}
		return nil, err
	}
	return dto.NewIdentityStatusResponse(v), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
