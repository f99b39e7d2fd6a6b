package scope

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrent_NoneSet(t *testing.T) {
	_, ok := Current(context.Background())
	assert.False(t, ok)
}

func TestWith_RoundTrip(t *testing.T) {
	s := New(uuid.New(), uuid.New(), uuid.New(), uuid.New(), "admin")
	ctx := With(context.Background(), s)

	got, ok := Current(ctx)
	require.True(t, ok)
	assert.Equal(t, s.CompanyID, got.CompanyID)
	assert.True(t, got.HasRole("admin"))
	assert.False(t, got.HasRole("viewer"))
}

func TestRequireCompany_Missing(t *testing.T) {
	_, err := RequireCompany(context.Background())
	assert.ErrorIs(t, err, ErrScopeMissing)
}

func TestRequireCompany_SystemScopeIsMissing(t *testing.T) {
	ctx := With(context.Background(), System(uuid.New()))

	_, err := RequireCompany(ctx)
	assert.ErrorIs(t, err, ErrScopeMissing)
}

func TestRequireCompany_Bound(t *testing.T) {
	companyID := uuid.New()
	s := New(uuid.New(), uuid.New(), uuid.New(), companyID)
	ctx := With(context.Background(), s)

	got, err := RequireCompany(ctx)
	require.NoError(t, err)
	assert.Equal(t, companyID, got)
}

func TestAssertCompanyScope(t *testing.T) {
	companyA := uuid.New()
	companyB := uuid.New()
	ctx := With(context.Background(), New(uuid.New(), uuid.New(), uuid.New(), companyA))

	assert.NoError(t, AssertCompanyScope(ctx, companyA))
	assert.ErrorIs(t, AssertCompanyScope(ctx, companyB), ErrCrossTenant)
}

func TestNestedScope_InnerWins(t *testing.T) {
	outer := New(uuid.New(), uuid.New(), uuid.New(), uuid.New())
	inner := New(uuid.New(), uuid.New(), uuid.New(), uuid.New())

	ctx := With(context.Background(), outer)
	ctx = With(ctx, inner)

	got, ok := Current(ctx)
	require.True(t, ok)
	assert.Equal(t, inner.CompanyID, got.CompanyID)
}
