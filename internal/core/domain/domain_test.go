package domain

import (
	"fmt"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestCopyTransitions(t *testing.T) {
	tests := []struct {
		from, to CopyState
		allowed  bool
	}{
		{CopyAvailable, CopyLoaned, true},
		{CopyLoaned, CopyAvailable, true},
		{CopyLoaned, CopyReserved, true},
		{CopyReserved, CopyLoaned, true},
		{CopyReserved, CopyAvailable, true},
		{CopyDamaged, CopyAvailable, true},
		{CopyAvailable, CopyReserved, false},
		{CopyLoaned, CopyLoaned, false},
		{CopyWithdrawn, CopyLoaned, false},
		{CopyLost, CopyReserved, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s->%s", tt.from, tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}

	assert.False(t, CopyState("MISSING").Valid())
	assert.True(t, CopyLost.OutOfCirculation())
	assert.False(t, CopyReserved.OutOfCirculation())
}

func TestOpenLoanState(t *testing.T) {
	due := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, LoanActive, OpenLoanState(due, due))
	assert.Equal(t, LoanActive, OpenLoanState(due, due.Add(-time.Hour)))
	assert.Equal(t, LoanOverdue, OpenLoanState(due, due.Add(time.Second)))
	assert.True(t, LoanOverdue.IsOpen())
	assert.False(t, LoanClosed.IsOpen())
}

func TestKindOfWrappedErrors(t *testing.T) {
	wrapped := errors.Wrapf(ErrCopyNotAvailable, "copy %d", 7)

	assert.True(t, errors.Is(wrapped, ErrCopyNotAvailable))
	assert.Equal(t, KindDenied, KindOf(wrapped))
	assert.Equal(t, "copy_not_available", CodeOf(wrapped))
	assert.Equal(t, KindInternal, KindOf(fmt.Errorf("boom")))
	assert.Equal(t, "copy is not available for loan", MessageOf(wrapped))
	assert.NotContains(t, MessageOf(wrapped), "copy 7")
	assert.Equal(t, "internal error", MessageOf(fmt.Errorf("boom")))
}

func TestStorageClassification(t *testing.T) {
	assert.Nil(t, Storage(nil))

	domainErr := errors.Wrap(ErrLoanNotFound, "loan 3")
	assert.Equal(t, domainErr, Storage(domainErr))

	err := Storage(fmt.Errorf("connection refused"))
	assert.True(t, errors.Is(err, ErrStorageUnavailable))
	assert.Equal(t, KindStorage, KindOf(err))
	assert.Contains(t, err.Error(), "connection refused")
}
