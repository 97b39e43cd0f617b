package prime

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedSource always yields the same offset, clamped to the requested bound.
type fixedSource uint64

func (f fixedSource) Uint64N(n uint64) uint64 {
	if uint64(f) >= n {
		return n - 1
	}
	return uint64(f)
}

func TestIsPrime(t *testing.T) {
	tests := []struct {
		name     string
		input    int
		expected bool
	}{
		{"negative", -7, false},
		{"zero", 0, false},
		{"one", 1, false},
		{"two", 2, true},
		{"three", 3, true},
		{"four", 4, false},
		{"five", 5, true},
		{"seven", 7, true},
		{"nine", 9, false},
		{"eleven", 11, true},
		{"square of five", 25, false},
		{"square of seven", 49, false},
		{"ninety seven", 97, true},
		{"hundred", 100, false},
		{"five forty one", 541, true},
		{"nine nine seven", 997, true},
		{"nine nine nine", 999, false},
		{"product of twin primes", 143, false},
		{"large prime", 104729, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsPrime(tt.input), "IsPrime(%d)", tt.input)
		})
	}
}

func TestIsPrime_MatchesTrialDivision(t *testing.T) {
	naive := func(n int) bool {
		if n < 2 {
			return false
		}
		for d := 2; d*d <= n; d++ {
			if n%d == 0 {
				return false
			}
		}
		return true
	}
	for n := -10; n <= 10000; n++ {
		require.Equal(t, naive(n), IsPrime(n), "IsPrime(%d)", n)
	}
}

func TestIsPrime_Properties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("non-positive and one are not prime", prop.ForAll(
		func(n int) bool {
			return !IsPrime(n)
		},
		gen.IntRange(-1_000_000, 1),
	))

	properties.Property("products of two factors above one are not prime", prop.ForAll(
		func(a, b int) bool {
			return !IsPrime(a * b)
		},
		gen.IntRange(2, 3000),
		gen.IntRange(2, 3000),
	))

	properties.TestingRun(t)
}

func TestGenerate_DefaultRange(t *testing.T) {
	src := NewSeededSource(42)
	for i := 0; i < 1000; i++ {
		n := Generate(src, DefaultRange)
		require.True(t, IsPrime(n), "generated %d is not prime", n)
		require.True(t, DefaultRange.Contains(n), "generated %d outside %v", n, DefaultRange)
	}
}

func TestGenerate_GlobalSource(t *testing.T) {
	for i := 0; i < 1000; i++ {
		n := GenerateDefault()
		require.True(t, IsPrime(n))
		require.GreaterOrEqual(t, n, 1)
		require.LessOrEqual(t, n, 1000)
	}
}

func TestGenerate_SinglePrimeRange(t *testing.T) {
	assert.Equal(t, 2, Generate(NewSeededSource(1), Range{Min: 2, Max: 2}))
}

func TestGenerate_OnlyPrimeIsMax(t *testing.T) {
	r := Range{Min: 8, Max: 11}
	for off := 0; off <= r.Max-r.Min; off++ {
		assert.Equal(t, 11, Generate(fixedSource(off), r), "start offset %d", off)
	}
}

func TestGenerate_Wraparound(t *testing.T) {
	r := Range{Min: 7, Max: 10}
	// Start at 8: 8, 9, 10 are composite, the probe wraps to 7.
	assert.Equal(t, 7, Generate(fixedSource(1), r))
	// Start at 7 itself.
	assert.Equal(t, 7, Generate(fixedSource(0), r))
}

func TestGenerate_SearchesUpwardFromProbe(t *testing.T) {
	r := Range{Min: 1, Max: 1000}
	// Probe lands on 90; the next prime above it is 97.
	assert.Equal(t, 97, Generate(fixedSource(89), r))
	// Probe lands on 998; 998..1000 are composite, wrap to 1 then 2.
	assert.Equal(t, 2, Generate(fixedSource(997), r))
}

func TestGenerate_SeededIsReproducible(t *testing.T) {
	a := NewSeededSource(2025)
	b := NewSeededSource(2025)
	for i := 0; i < 100; i++ {
		require.Equal(t, Generate(a, DefaultRange), Generate(b, DefaultRange))
	}
}

func TestGenerate_Properties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("result is a prime inside the range", prop.ForAll(
		func(seed uint64, lo, width int) bool {
			r := Range{Min: lo, Max: lo + width}
			if !r.HasPrime() {
				return true
			}
			n := Generate(NewSeededSource(seed), r)
			return IsPrime(n) && r.Contains(n)
		},
		gen.UInt64(),
		gen.IntRange(-50, 5000),
		gen.IntRange(0, 200),
	))

	properties.TestingRun(t)
}

func TestRange_HasPrime(t *testing.T) {
	tests := []struct {
		name     string
		r        Range
		expected bool
	}{
		{"default", DefaultRange, true},
		{"single prime", Range{Min: 2, Max: 2}, true},
		{"composites only", Range{Min: 8, Max: 10}, false},
		{"prime gap", Range{Min: 114, Max: 126}, false},
		{"negative", Range{Min: -10, Max: 1}, false},
		{"inverted", Range{Min: 10, Max: 5}, false},
		{"gap edge", Range{Min: 114, Max: 127}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.r.HasPrime())
		})
	}
}

func TestSeededSource_Bounds(t *testing.T) {
	src := NewSeededSource(7)
	for i := 0; i < 500; i++ {
		require.Less(t, src.Uint64N(3), uint64(3))
	}
}

// 2^63-25 is the largest prime below 2^63.
const largestPrime = math.MaxInt - 24

func TestIsPrime_NearMaxInt(t *testing.T) {
	if testing.Short() {
		t.Skip("trial division up to 3e9")
	}
	assert.True(t, IsPrime(largestPrime))
	assert.False(t, IsPrime(math.MaxInt))
	assert.False(t, IsPrime(math.MinInt))
}

func TestRange_HasPrimeNearMaxInt(t *testing.T) {
	if testing.Short() {
		t.Skip("trial division up to 3e9")
	}
	assert.True(t, Range{Min: math.MaxInt - 29, Max: math.MaxInt}.HasPrime())
	assert.False(t, Range{Min: largestPrime + 1, Max: math.MaxInt}.HasPrime())
}

func TestGenerate_WraparoundAtMaxInt(t *testing.T) {
	if testing.Short() {
		t.Skip("trial division up to 3e9")
	}
	// Probe lands on MaxInt; the only prime in the range is Min.
	r := Range{Min: largestPrime, Max: math.MaxInt}
	assert.Equal(t, largestPrime, Generate(fixedSource(math.MaxUint64), r))
}

func TestGenerate_FullIntRange(t *testing.T) {
	r := Range{Min: math.MinInt, Max: math.MaxInt}
	require.True(t, r.HasPrime())
	// Offset 2^63+1 lands on 1.
	assert.Equal(t, 2, Generate(fixedSource(1<<62), r))
}

func TestOffset(t *testing.T) {
	full := Range{Min: math.MinInt, Max: math.MaxInt}
	assert.Equal(t, uint64(0), offset(fixedSource(0), full))
	assert.Equal(t, uint64(math.MaxUint64), offset(fixedSource(math.MaxUint64), full))

	wide := Range{Min: -10, Max: math.MaxInt}
	assert.Equal(t, uint64(math.MaxInt)+10, offset(fixedSource(math.MaxUint64), wide))
	assert.Equal(t, uint64(5), offset(fixedSource(5), wide))

	for i := 0; i < 1000; i++ {
		require.LessOrEqual(t, offset(NewSeededSource(uint64(i)), Range{Min: 3, Max: 9}), uint64(6))
	}
}
