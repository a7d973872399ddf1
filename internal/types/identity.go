package types

import (
	ierr "github.com/masseurmatch/masseurmatch/internal/errors"
	"github.com/samber/lo"
)

type IdentityStatus string

const (
	IdentityStatusUnverified IdentityStatus = "unverified"
	IdentityStatusVerified   IdentityStatus = "verified"
	IdentityStatusFailed     IdentityStatus = "failed"
)

func (s IdentityStatus) String() string {
	return string(s)
}

func (s IdentityStatus) Validate() error {
	allowed := []IdentityStatus{
		IdentityStatusUnverified,
		IdentityStatusVerified,
		IdentityStatusFailed,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid identity status").
			WithHint("Invalid identity status").
			WithReportableDetails(map[string]any{
				"status":         s,
				"allowed_status": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
