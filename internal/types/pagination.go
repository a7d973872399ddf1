package types

import (
	ierr "github.com/masseurmatch/masseurmatch/internal/errors"
	"github.com/samber/lo"
)

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 100
)

// QueryFilter holds pagination parameters shared by list endpoints
type QueryFilter struct {
	Limit  *int `json:"limit,omitempty" form:"limit" validate:"omitempty,min=1,max=100"`
	Offset *int `json:"offset,omitempty" form:"offset" validate:"omitempty,min=0"`
}

func NewDefaultQueryFilter() *QueryFilter {
	return &QueryFilter{
		Limit:  lo.ToPtr(DefaultPageLimit),
		Offset: lo.ToPtr(0),
	}
}

func (f QueryFilter) GetLimit() int {
	if f.Limit == nil {
		return DefaultPageLimit
	}
	return *f.Limit
}

func (f QueryFilter) GetOffset() int {
	if f.Offset == nil {
		return 0
	}
	return *f.Offset
}

func (f QueryFilter) Validate() error {
	if f.Limit != nil && (*f.Limit < 1 || *f.Limit > MaxPageLimit) {
		return ierr.NewError("invalid limit").
			WithHintf("Limit must be between 1 and %d", MaxPageLimit).
			Mark(ierr.ErrValidation)
	}
	if f.Offset != nil && *f.Offset < 0 {
		return ierr.NewError("invalid offset").
			WithHint("Offset must be non-negative").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// PaginationResponse represents standardized pagination metadata
type PaginationResponse struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// ListResponse represents a paginated response with items
type ListResponse[T any] struct {
	Items      []T                `json:"items"`
	Pagination PaginationResponse `json:"pagination"`
}

func NewListResponse[T any](items []T, total, limit, offset int) ListResponse[T] {
	return ListResponse[T]{
		Items: items,
		Pagination: PaginationResponse{
			Total:  total,
			Limit:  limit,
			Offset: offset,
		},
	}
}
