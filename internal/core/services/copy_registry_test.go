package services

import (
	"testing"

	"library-loanhub/internal/core/domain"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetCondition(t *testing.T) {
	f := newFixture(t)
	c := f.copyOf(f.book("B1"), "C1")

	lost, err := f.copies.SetCondition(f.ctx, c.ID, domain.CopyLost)
	require.NoError(t, err)
	assert.Equal(t, domain.CopyLost, lost.State)

	// out of circulation to out of circulation goes through AVAILABLE
	_, err = f.copies.SetCondition(f.ctx, c.ID, domain.CopyDamaged)
	assert.True(t, errors.Is(err, domain.ErrInvalidStateTransition), "got %v", err)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))

	found, err := f.copies.SetCondition(f.ctx, c.ID, domain.CopyAvailable)
	require.NoError(t, err)
	assert.Equal(t, domain.CopyAvailable, found.State)
}

func TestSetConditionRefusesCirculatingStates(t *testing.T) {
	f := newFixture(t)
	c := f.copyOf(f.book("B1"), "C1")

	for _, state := range []domain.CopyState{domain.CopyLoaned, domain.CopyReserved, "SHREDDED"} {
		_, err := f.copies.SetCondition(f.ctx, c.ID, state)
		assert.True(t, errors.Is(err, domain.ErrInvalidInput), "%s: %v", state, err)
	}

	f.lend(f.client("r"), c)
	_, err := f.copies.SetCondition(f.ctx, c.ID, domain.CopyWithdrawn)
	assert.True(t, errors.Is(err, domain.ErrInvalidStateTransition), "got %v", err)
	assert.Equal(t, domain.CopyLoaned, f.copyState(c.ID))

	_, err = f.copies.SetCondition(f.ctx, 404, domain.CopyWithdrawn)
	assert.True(t, errors.Is(err, domain.ErrCopyNotFound), "got %v", err)
}

func TestFindByBarcodeAndLoanable(t *testing.T) {
	f := newFixture(t)
	book := f.book("B1")
	shelf := f.copyOf(book, "C1")
	f.lend(f.client("r"), f.copyOf(book, "C2"))

	got, err := f.copies.FindByBarcode(f.ctx, "  C2 ")
	require.NoError(t, err)
	assert.Equal(t, domain.CopyLoaned, got.State)

	_, err = f.copies.FindByBarcode(f.ctx, "")
	assert.True(t, errors.Is(err, domain.ErrInvalidInput), "got %v", err)

	loanable, err := f.copies.FindLoanable(f.ctx, book.ID)
	require.NoError(t, err)
	require.Len(t, loanable, 1)
	assert.Equal(t, shelf.ID, loanable[0].ID)

	_, err = f.copies.FindLoanable(f.ctx, 404)
	assert.True(t, errors.Is(err, domain.ErrBookNotFound), "got %v", err)
}

func TestSetActive(t *testing.T) {
	f := newFixture(t)
	book := f.book("B1")
	shelf := f.copyOf(book, "C1")
	loaned := f.copyOf(book, "C2")
	f.lend(f.client("r"), loaned)

	off, err := f.copies.SetActive(f.ctx, shelf.ID, false)
	require.NoError(t, err)
	assert.False(t, off.IsActive)
	assert.Equal(t, domain.CopyAvailable, off.State)

	loanable, err := f.copies.FindLoanable(f.ctx, book.ID)
	require.NoError(t, err)
	assert.Empty(t, loanable)

	_, err = f.copies.SetActive(f.ctx, loaned.ID, false)
	assert.True(t, errors.Is(err, domain.ErrCopyInCirculation), "got %v", err)
	assert.Equal(t, domain.KindDenied, domain.KindOf(err))

	on, err := f.copies.SetActive(f.ctx, shelf.ID, true)
	require.NoError(t, err)
	assert.True(t, on.IsActive)

	loanable, err = f.copies.FindLoanable(f.ctx, book.ID)
	require.NoError(t, err)
	require.Len(t, loanable, 1)
	assert.Equal(t, shelf.ID, loanable[0].ID)

	_, err = f.copies.SetActive(f.ctx, 404, false)
	assert.True(t, errors.Is(err, domain.ErrCopyNotFound), "got %v", err)
}

func TestSetBookActiveHidesCopies(t *testing.T) {
	f := newFixture(t)
	book := f.book("B1")
	f.copyOf(book, "C1")

	withdrawn, err := f.copies.SetBookActive(f.ctx, book.ID, false)
	require.NoError(t, err)
	assert.False(t, withdrawn.IsActive)

	loanable, err := f.copies.FindLoanable(f.ctx, book.ID)
	require.NoError(t, err)
	assert.Empty(t, loanable)

	_, err = f.copies.SetBookActive(f.ctx, 404, false)
	assert.True(t, errors.Is(err, domain.ErrBookNotFound), "got %v", err)
}
