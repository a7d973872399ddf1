package service

import (
	"context"

	"github.com/masseurmatch/masseurmatch/internal/api/dto"
	ierr "github.com/masseurmatch/masseurmatch/internal/errors"
	"github.com/masseurmatch/masseurmatch/internal/types"
	"github.com/samber/lo"
)

type EntitlementService interface {
	GetEntitlements(ctx context.Context) (*dto.EntitlementsResponse, error)
	CheckPhotoQuota(ctx context.Context, req dto.CheckPhotoQuotaRequest) (*dto.PhotoQuotaResponse, error)
}

type entitlementService struct {
	ServiceParams
}

func NewEntitlementService(params ServiceParams) EntitlementService {
	return &entitlementService{ServiceParams: params}
}

// effectivePlan is the plan of the user's latest subscription while it is
// entitling, otherwise free.
func (s *entitlementService) effectivePlan(ctx context.Context, userID string) (types.SubscriptionPlan, *types.SubscriptionStatus, error) {
	sub, err := s.SubRepo.GetLatestByUserID(ctx, userID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return types.PlanFree, nil, nil
		}
		return "", nil, err
	}
	if !sub.Status.IsEntitling() {
		return types.PlanFree, lo.ToPtr(sub.Status), nil
	}
	return sub.Plan, lo.ToPtr(sub.Status), nil
}

func (s *entitlementService) GetEntitlements(ctx context.Context) (*dto.EntitlementsResponse, error) {
	userID := types.GetUserID(ctx)
	if userID == "" {
		return nil, ierr.NewError("user not authenticated").
			WithHint("Please sign in").
			Mark(ierr.ErrUnauthenticated)
	}

	plan, status, err := s.effectivePlan(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := &dto.EntitlementsResponse{
		Plan:       plan,
		Status:     status,
		PlanLimits: plan.Limits(),
	}
	if next, ok := plan.NextPlan(); ok {
		resp.NextPlan = lo.ToPtr(next)
	}
	return resp, nil
}

func (s *entitlementService) CheckPhotoQuota(ctx context.Context, req dto.CheckPhotoQuotaRequest) (*dto.PhotoQuotaResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ent, err := s.GetEntitlements(ctx)
	if err != nil {
		return nil, err
	}

	if req.CurrentCount >= ent.MaxPhotos {
		hint := "Photo limit reached for your plan"
		if ent.NextPlan != nil {
			hint = "Photo limit reached. Upgrade to " + ent.NextPlan.DisplayName() + " for more photos"
		}
		return nil, ierr.NewError("photo limit reached").
			WithHint(hint).
			WithReportableDetails(map[string]any{
				"plan":       ent.Plan,
				"max_photos": ent.MaxPhotos,
				"used":       req.CurrentCount,
			}).
			Mark(ierr.ErrPermissionDenied)
	}

	return &dto.PhotoQuotaResponse{
		Plan:      ent.Plan,
		MaxPhotos: ent.MaxPhotos,
		Used:      req.CurrentCount,
		Remaining: ent.MaxPhotos - req.CurrentCount,
	}, nil
}
