// Package prime tests integers for primality and draws random primes from a
// closed range.
package prime

import "math"

// Range is an inclusive interval [Min, Max].
type Range struct {
	Min int `yaml:"min" json:"min"`
	Max int `yaml:"max" json:"max"`
}

// DefaultRange is the range used when none is configured.
var DefaultRange = Range{Min: 1, Max: 1000}

// Contains reports whether n lies within the range.
func (r Range) Contains(n int) bool {
	return n >= r.Min && n <= r.Max
}

// HasPrime reports whether the range contains at least one prime.
// Generate does not terminate on ranges for which this is false.
func (r Range) HasPrime() bool {
	if r.Min > r.Max {
		return false
	}
	for n := max(r.Min, 2); n <= r.Max; n++ {
		if IsPrime(n) {
			return true
		}
		if n == r.Max {
			break // n++ would overflow at math.MaxInt
		}
	}
	return false
}

// IsPrime reports whether n is prime.
func IsPrime(n int) bool {
	if n <= 1 {
		return false
	}
	if n <= 3 {
		return true
	}
	if n%2 == 0 || n%3 == 0 {
		return false
	}
	for i := 5; i <= n/i; i += 6 {
		if n%i == 0 || n%(i+2) == 0 {
			return false
		}
	}
	return true
}

// Generate returns a prime from r. The first candidate is drawn uniformly
// from r; candidates then advance by one, wrapping from Max back to Min,
// until a prime is found.
//
// Generate never returns if r contains no prime. Callers check HasPrime
// when the range is not known in advance.
func Generate(src Source, r Range) int {
	candidate := r.Min + int(offset(src, r))
	for !IsPrime(candidate) {
		if candidate == r.Max {
			candidate = r.Min
		} else {
			candidate++
		}
	}
	return candidate
}

// offset draws uniformly from [0, Max-Min]. The width is computed in uint64
// so that ranges wider than math.MaxInt do not overflow.
func offset(src Source, r Range) uint64 {
	width := uint64(r.Max) - uint64(r.Min)
	if width == math.MaxUint64 {
		return src.Uint64N(1<<63)<<1 | src.Uint64N(2)
	}
	return src.Uint64N(width + 1)
}

// GenerateDefault returns a prime from DefaultRange using the global source.
func GenerateDefault() int {
	return Generate(GlobalSource(), DefaultRange)
}
