package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dukex/approvals/pkg/dispatch"
	"github.com/dukex/approvals/pkg/items"
	"github.com/dukex/approvals/pkg/persistence"
	"github.com/stretchr/testify/assert"
)

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind func(error) bool
	}{
		{"request not found", persistence.NewRequestError("RequestByID", "r-1", persistence.ErrRequestNotFound), IsNotFound},
		{"approver not found", fmt.Errorf("%w: u-1", ErrApproverNotFound), IsNotFound},
		{"active request", newError("Create", "active_request_exists", ErrActiveRequestExists), IsConflict},
		{"already decided", persistence.NewRequestError("SaveDecision", "r-1", persistence.ErrDecisionExists), IsConflict},
		{"not requester", ErrNotRequester, IsConflict},
		{"rule missing", newError("Decide", "configuration_error", ErrRuleMissing), IsConfiguration},
		{"unknown store", fmt.Errorf("%w: PROJECT", dispatch.ErrUnknownItemType), IsConfiguration},
		{"invalid data", fmt.Errorf("%w: title is required", items.ErrInvalidData), IsValidation},
		{"execution", &ExecutionError{Err: errors.New("disk full")}, IsExecutionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.kind(tt.err))
		})
	}
}

func TestExecutionError(t *testing.T) {
	cause := errors.New("disk full")
	err := &ExecutionError{Err: cause}

	assert.ErrorIs(t, err, ErrExecutionFailed)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to execute approved change: disk full", err.Error())
	assert.False(t, IsConflict(err))
}

func TestServiceError(t *testing.T) {
	err := newError("Withdraw", "not_requester", ErrNotRequester)

	assert.Equal(t, "Withdraw: only the requester can withdraw a request", err.Error())
	assert.ErrorIs(t, err, ErrNotRequester)
	assert.Equal(t, "not_requester", err.Code)
}
