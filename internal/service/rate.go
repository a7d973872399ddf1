package service

import (
	"context"

	"github.com/masseurmatch/masseurmatch/internal/api/dto"
	"github.com/masseurmatch/masseurmatch/internal/domain/profile"
	"github.com/masseurmatch/masseurmatch/internal/domain/rate"
	ierr "github.com/masseurmatch/masseurmatch/internal/errors"
	"github.com/masseurmatch/masseurmatch/internal/types"
	"github.com/samber/lo"
)

type RateService interface {
	CreateRate(ctx context.Context, req dto.CreateRateRequest) (*dto.RateResponse, error)
	GetRate(ctx context.Context, id string) (*dto.RateResponse, error)
	ListRates(ctx context.Context, req dto.ListRatesRequest) (*dto.ListRatesResponse, error)
	UpdateRate(ctx context.Context, id string, req dto.UpdateRateRequest) (*dto.RateResponse, error)
	DeleteRate(ctx context.Context, id string) error
}

type rateService struct {
	ServiceParams
}

func NewRateService(params ServiceParams) RateService {
	return &rateService{ServiceParams: params}
}

// callerProfile resolves the profile of the authenticated user
func (s *rateService) callerProfile(ctx context.Context) (*profile.Profile, error) {
	userID := types.GetUserID(ctx)
	if userID == "" {
		return nil, ierr.NewError("user not authenticated").
			WithHint("Please sign in").
			Mark(ierr.ErrUnauthenticated)
	}

	p, err := s.ProfileRepo.GetByUserID(ctx, userID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, ierr.WithError(err).
				WithHint("Create a profile before managing rates").
				Mark(ierr.ErrNotFound)
		}
		return nil, err
	}
	return p, nil
}

// ownedRate loads a rate and hides rates of other profiles behind not found
func (s *rateService) ownedRate(ctx context.Context, p *profile.Profile, id string) (*rate.Rate, error) {
	r, err := s.RateRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.ProfileID != p.ID {
		return nil, ierr.NewError("rate not found").
			WithHint("Rate not found").
			WithReportableDetails(map[string]any{"rate_id": id}).
			Mark(ierr.ErrNotFound)
	}
	return r, nil
}

func duplicateDuration(candidate rate.Candidate, existing []*rate.Rate) error {
	dup, ok := lo.Find(existing, func(r *rate.Rate) bool {
		return r.DurationMinutes == candidate.DurationMinutes
	})
	if !ok {
		return nil
	}
	return ierr.NewError("rate already exists").
		WithHintf("You already have a %d minute %s rate", candidate.DurationMinutes, candidate.Context).
		WithReportableDetails(map[string]any{
			"rate_id":          dup.ID,
			"context":          candidate.Context,
			"duration_minutes": candidate.DurationMinutes,
		}).
		Mark(ierr.ErrAlreadyExists)
}

func (s *rateService) CreateRate(ctx context.Context, req dto.CreateRateRequest) (*dto.RateResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p, err := s.callerProfile(ctx)
	if err != nil {
		return nil, err
	}

	candidate := req.Candidate()
	var created *rate.Rate

	err = s.DB.WithTx(ctx, func(ctx context.Context) error {
		existing, err := s.RateRepo.List(ctx, &rate.Filter{
			ProfileID:  p.ID,
			Context:    lo.ToPtr(candidate.Context),
			ActiveOnly: true,
		})
		if err != nil {
			return err
		}

		if err := duplicateDuration(candidate, existing); err != nil {
			return err
		}

		if err := rate.ValidateNewRate(candidate, existing); err != nil {
			s.Logger.Infow("rate rejected",
				"profile_id", p.ID,
				"context", candidate.Context,
				"duration_minutes", candidate.DurationMinutes,
				"price_cents", candidate.PriceCents,
				"error", err,
			)
			return err
		}

		if candidate.IsBaseRate {
			if err := s.RateRepo.ClearBaseRate(ctx, p.ID, candidate.Context); err != nil {
				return err
			}
		}

		r := req.ToRate(p.ID)
		if err := s.RateRepo.Create(ctx, r); err != nil {
			return err
		}
		created = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("rate created",
		"rate_id", created.ID,
		"profile_id", p.ID,
		"context", created.Context,
		"duration_minutes", created.DurationMinutes,
		"is_base_rate", created.IsBaseRate,
	)
	return dto.NewRateResponse(created), nil
}

func (s *rateService) GetRate(ctx context.Context, id string) (*dto.RateResponse, error) {
	p, err := s.callerProfile(ctx)
	if err != nil {
		return nil, err
	}

	r, err := s.ownedRate(ctx, p, id)
	if err != nil {
		return nil, err
	}
	return dto.NewRateResponse(r), nil
}

func (s *rateService) ListRates(ctx context.Context, req dto.ListRatesRequest) (*dto.ListRatesResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p, err := s.callerProfile(ctx)
	if err != nil {
		return nil, err
	}

	filter := &rate.Filter{
		ProfileID:  p.ID,
		ActiveOnly: !req.IncludeInactive,
	}
	if req.Context != "" {
		filter.Context = lo.ToPtr(types.RateContext(req.Context))
	}

	rates, err := s.RateRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &dto.ListRatesResponse{
		Items: lo.Map(rates, func(r *rate.Rate, _ int) *dto.RateResponse {
			return dto.NewRateResponse(r)
		}),
		Total: len(rates),
	}, nil
}

// UpdateRate re-validates the changed rate against the other active rates of
// its context.
func (s *rateService) UpdateRate(ctx context.Context, id string, req dto.UpdateRateRequest) (*dto.RateResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p, err := s.callerProfile(ctx)
	if err != nil {
		return nil, err
	}

	var updated *rate.Rate
	err = s.DB.WithTx(ctx, func(ctx context.Context) error {
		current, err := s.ownedRate(ctx, p, id)
		if err != nil {
			return err
		}
		if !current.IsActive {
			return ierr.NewError("rate is inactive").
				WithHint("Deleted rates cannot be changed").
				WithReportableDetails(map[string]any{"rate_id": id}).
				Mark(ierr.ErrNotFound)
		}

		candidate := req.Apply(current)
		if err := candidate.Validate(); err != nil {
			return err
		}

		existing, err := s.RateRepo.List(ctx, &rate.Filter{
			ProfileID:  p.ID,
			Context:    lo.ToPtr(current.Context),
			ActiveOnly: true,
		})
		if err != nil {
			return err
		}
		others := lo.Reject(existing, func(r *rate.Rate, _ int) bool { return r.ID == current.ID })

		if err := duplicateDuration(candidate, others); err != nil {
			return err
		}
		if err := rate.ValidateNewRate(candidate, others); err != nil {
			return err
		}

		if candidate.IsBaseRate && !current.IsBaseRate {
			if err := s.RateRepo.ClearBaseRate(ctx, p.ID, current.Context); err != nil {
				return err
			}
		}

		next := *current
		next.DurationMinutes = candidate.DurationMinutes
		next.PriceCents = candidate.PriceCents
		next.IsBaseRate = candidate.IsBaseRate
		next.UpdatedAt = s.Clock.Now()
		if err := s.RateRepo.Update(ctx, &next); err != nil {
			return err
		}
		updated = &next
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("rate updated",
		"rate_id", updated.ID,
		"profile_id", p.ID,
	)
	return dto.NewRateResponse(updated), nil
}

func (s *rateService) DeleteRate(ctx context.Context, id string) error {
	p, err := s.callerProfile(ctx)
	if err != nil {
		return err
	}

	if _, err := s.ownedRate(ctx, p, id); err != nil {
		return err
	}

	if err := s.RateRepo.Deactivate(ctx, id, s.Clock.Now()); err != nil {
		return err
	}

	s.Logger.Infow("rate deactivated",
		"rate_id", id,
		"profile_id", p.ID,
	)
	return nil
}
