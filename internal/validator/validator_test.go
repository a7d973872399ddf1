package validator

import (
	"testing"

	ierr "github.com/masseurmatch/masseurmatch/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Email string `json:"email" validate:"required,email"`
	Count int    `json:"count" validate:"min=1"`
}

func TestValidateRequest(t *testing.T) {
	require.NoError(t, ValidateRequest(sample{Email: "a@example.com", Count: 1}))

	err := ValidateRequest(sample{Email: "nope"})
	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))

	details := ierr.ReportableDetails(err)
	assert.Contains(t, details, "email")
	assert.Contains(t, details, "count")
}
