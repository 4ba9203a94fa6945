package services

import (
	"testing"

	"library-loanhub/internal/core/domain"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExonerateFine(t *testing.T) {
	f := newFixture(t)
	reader := f.client("r")
	fine := f.pendingFine(reader, 900, "12.00")

	_, err := f.fines.Exonerate(f.ctx, fine.ID, ExonerateFineInput{Justification: "   "}, 3)
	assert.True(t, errors.Is(err, domain.ErrJustificationRequired), "got %v", err)

	waived, err := f.fines.Exonerate(f.ctx, fine.ID, ExonerateFineInput{Justification: " book was returned in the drop box "}, 3)
	require.NoError(t, err)
	assert.Equal(t, domain.FineExonerated, waived.State)
	assert.Equal(t, "book was returned in the drop box", waived.ExonerationJustification)
	require.NotNil(t, waived.ExoneratedBy)
	assert.Equal(t, uint(3), *waived.ExoneratedBy)

	_, err = f.fines.Exonerate(f.ctx, fine.ID, ExonerateFineInput{Justification: "again"}, 3)
	assert.True(t, errors.Is(err, domain.ErrFineNotPending), "got %v", err)

	_, err = f.fines.Exonerate(f.ctx, 404, ExonerateFineInput{Justification: "x"}, 3)
	assert.True(t, errors.Is(err, domain.ErrFineNotFound), "got %v", err)
}

func TestExoneratedFineNoLongerCountsTowardCeiling(t *testing.T) {
	f := newFixture(t)
	c := f.copyOf(f.book("B1"), "C1")
	reader := f.client("r")
	fine := f.pendingFine(reader, 900, "60.00")

	_, err := f.ledger.CreateLoan(f.ctx, CreateLoanInput{ClientID: reader.ID, CopyID: c.ID}, 1)
	require.True(t, errors.Is(err, domain.ErrFineCeilingExceeded), "got %v", err)

	_, err = f.fines.Exonerate(f.ctx, fine.ID, ExonerateFineInput{Justification: "waived"}, 1)
	require.NoError(t, err)

	_, err = f.ledger.CreateLoan(f.ctx, CreateLoanInput{ClientID: reader.ID, CopyID: c.ID}, 1)
	assert.NoError(t, err)
}

func TestListFinesByClient(t *testing.T) {
	f := newFixture(t)
	reader := f.client("r")
	f.pendingFine(reader, 900, "3.00")
	waived := f.pendingFine(reader, 901, "4.00")
	f.pendingFine(f.client("other"), 902, "9.00")
	_, err := f.fines.Exonerate(f.ctx, waived.ID, ExonerateFineInput{Justification: "x"}, 1)
	require.NoError(t, err)

	all, err := f.fines.ListByClient(f.ctx, reader.ID, "")
	require.NoError(t, err)
	assert.Len(t, all.Fines, 2)
	assert.True(t, all.Outstanding.Equal(dec("3.00")))

	pending, err := f.fines.ListByClient(f.ctx, reader.ID, domain.FinePending)
	require.NoError(t, err)
	assert.Len(t, pending.Fines, 1)

	_, err = f.fines.ListByClient(f.ctx, 404, "")
	assert.True(t, errors.Is(err, domain.ErrClientNotFound), "got %v", err)
}
