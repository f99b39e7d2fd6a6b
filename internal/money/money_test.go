package money

import (
	"math"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
)

func TestAdd_Basic(t *testing.T) {
	sum, err := Add(10_000, 5_000)
	assert.NoError(t, err)
	assert.Equal(t, Minor(15_000), sum)
}

func TestAdd_OverflowPositive(t *testing.T) {
	_, err := Add(Minor(math.MaxInt64), 1)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestAdd_OverflowNegative(t *testing.T) {
	_, err := Add(Minor(math.MinInt64), -1)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestSum_Empty(t *testing.T) {
	total, err := Sum()
	assert.NoError(t, err)
	assert.Equal(t, Minor(0), total)
}

func TestRequireNonNegative(t *testing.T) {
	assert.NoError(t, RequireNonNegative(0))
	assert.NoError(t, RequireNonNegative(100))
	assert.ErrorIs(t, RequireNonNegative(-1), ErrNegative)
}

// Property: Sum is commutative and associative under non-overflowing inputs.
func TestProperty_SumOrderIndependent(t *testing.T) {
	f := func(a, b, c int32) bool {
		x, y, z := Minor(a), Minor(b), Minor(c)

		s1, err1 := Sum(x, y, z)
		s2, err2 := Sum(z, y, x)

		if err1 != nil || err2 != nil {
			return true
		}

		return s1 == s2
	}

	if err := quick.Check(f, &quick.Config{MaxCount: 200}); err != nil {
		t.Fatalf("sum order-independence property failed: %v", err)
	}
}
