package codefilter

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakmart/promotions/internal/domain/promotion"
)

type staticLister struct {
	codes []string
	err   error
}

func (l *staticLister) ListCodes(_ context.Context) ([]string, error) {
	return l.codes, l.err
}

type recordingRepo struct {
	promo *promotion.Promotion
	err   error
	calls int
}

func (r *recordingRepo) FindByCode(_ context.Context, _ string) (*promotion.Promotion, error) {
	r.calls++
	return r.promo, r.err
}

func TestFilter_WarmAndTest(t *testing.T) {
	f := New(1000, 0.001)
	require.NoError(t, f.Warm(context.Background(), &staticLister{
		codes: []string{"SAVE20", "shipfree"},
	}))

	assert.True(t, f.MayContain("SAVE20"))
	assert.True(t, f.MayContain("save20"), "matching is case-insensitive")
	assert.True(t, f.MayContain(" SHIPFREE "), "matching trims whitespace")
	assert.False(t, f.MayContain("NEVERSEEN"))
}

func TestFilter_WarmReplacesPreviousSet(t *testing.T) {
	f := New(1000, 0.001)
	require.NoError(t, f.Warm(context.Background(), &staticLister{codes: []string{"OLD"}}))
	require.NoError(t, f.Warm(context.Background(), &staticLister{codes: []string{"NEW"}}))

	assert.True(t, f.MayContain("NEW"))
	assert.False(t, f.MayContain("OLD"))
}

func TestFilter_WarmListError(t *testing.T) {
	f := New(1000, 0.001)
	err := f.Warm(context.Background(), &staticLister{err: errors.New("db down")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list codes")
}

func TestGuardedRepository(t *testing.T) {
	f := New(1000, 0.001)
	f.Add("SAVE20")

	promo := &promotion.Promotion{ID: "promo-1", Code: "SAVE20"}
	repo := &recordingRepo{promo: promo}
	guarded := Guard(repo, f)

	got, err := guarded.FindByCode(context.Background(), "SAVE20")
	require.NoError(t, err)
	assert.Equal(t, promo, got)
	assert.Equal(t, 1, repo.calls)

	_, err = guarded.FindByCode(context.Background(), "DEFINITELYNOT")
	require.ErrorIs(t, err, promotion.ErrInvalidCode)
	assert.Equal(t, 1, repo.calls, "definite miss must not hit the repository")
}

func TestGuardedRepository_CodeCreatedAfterWarm(t *testing.T) {
	f := New(1000, 0.001)
	require.NoError(t, f.Warm(context.Background(), &staticLister{codes: []string{"SAVE20"}}))

	promo := &promotion.Promotion{ID: "promo-2", Code: "LAUNCHDAY"}
	repo := &recordingRepo{promo: promo}
	guarded := Guard(repo, f)

	// A code inserted after the warm is a definite miss until the filter
	// learns about it.
	_, err := guarded.FindByCode(context.Background(), "LAUNCHDAY")
	require.ErrorIs(t, err, promotion.ErrInvalidCode)
	assert.Equal(t, 0, repo.calls)

	f.Add("LAUNCHDAY")

	got, err := guarded.FindByCode(context.Background(), "LAUNCHDAY")
	require.NoError(t, err)
	assert.Equal(t, promo, got)

	// A rewarm closes the window the same way.
	require.NoError(t, f.Warm(context.Background(), &staticLister{
		codes: []string{"SAVE20", "LAUNCHDAY"},
	}))
	assert.True(t, f.MayContain("LAUNCHDAY"))
}
