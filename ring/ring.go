// Package ring implements arithmetic in Z_q[x]/(x^N - 1).
package ring

import (
	"github.com/pkg/errors"

	latticelite "github.com/BackendStack21/lattice-lite-go"
)

var (
	// ErrLength indicates a coefficient slice whose length is not N.
	ErrLength = errors.New("polynomial must have exactly N coefficients")

	// ErrCoefficient indicates a coefficient outside [0, Q).
	ErrCoefficient = errors.New("coefficient out of range [0, Q)")
)

// Reduce returns x mod Q in [0, Q).
func Reduce(x int64) int16 {
	r := x % latticelite.Q
	if r < 0 {
		r += latticelite.Q
	}
	return int16(r)
}

// CenteredReduce returns x mod Q in (-Q/2, Q/2].
// It is used to measure how far a residual sits from zero.
func CenteredReduce(x int64) int16 {
	r := Reduce(x)
	if r > latticelite.Q/2 {
		return r - latticelite.Q
	}
	return r
}

// Add returns a + b coefficient-wise.
func Add(a, b latticelite.Poly) latticelite.Poly {
	var r latticelite.Poly
	for i := range a {
		r[i] = Reduce(int64(a[i]) + int64(b[i]))
	}
	return r
}

// Sub returns a - b coefficient-wise.
func Sub(a, b latticelite.Poly) latticelite.Poly {
	var r latticelite.Poly
	for i := range a {
		r[i] = Reduce(int64(a[i]) - int64(b[i]))
	}
	return r
}

// Mul returns the cyclic convolution a*b: the product a[i]*b[j] accumulates
// into index (i+j) mod N. Schoolbook O(N^2).
func Mul(a, b latticelite.Poly) latticelite.Poly {
	var acc [latticelite.N]int64
	for i := 0; i < latticelite.N; i++ {
		ai := int64(a[i])
		if ai == 0 {
			continue
		}
		for j := 0; j < latticelite.N; j++ {
			k := (i + j) % latticelite.N
			acc[k] += ai * int64(b[j])
		}
	}
	var r latticelite.Poly
	for k, v := range acc {
		r[k] = Reduce(v)
	}
	return r
}

// Monomial returns c*x^i. i is taken mod N.
func Monomial(i int, c int64) latticelite.Poly {
	var p latticelite.Poly
	idx := i % latticelite.N
	if idx < 0 {
		idx += latticelite.N
	}
	p[idx] = Reduce(c)
	return p
}

// Equal reports whether a and b have identical coefficients.
func Equal(a, b latticelite.Poly) bool {
	return a == b
}

// IsCanonical reports whether every coefficient of p lies in [0, Q).
func IsCanonical(p latticelite.Poly) bool {
	for _, c := range p {
		if c < 0 || c >= latticelite.Q {
			return false
		}
	}
	return true
}

// FromSlice builds a polynomial from exactly N canonical coefficients.
func FromSlice(coeffs []int16) (latticelite.Poly, error) {
	var p latticelite.Poly
	if len(coeffs) != latticelite.N {
		return p, errors.Wrapf(ErrLength, "got %d", len(coeffs))
	}
	for i, c := range coeffs {
		if c < 0 || c >= latticelite.Q {
			return p, errors.Wrapf(ErrCoefficient, "index %d: %d", i, c)
		}
		p[i] = c
	}
	return p, nil
}

// FromInt64s builds a polynomial from exactly N arbitrary integers, reducing
// each one into [0, Q).
func FromInt64s(coeffs []int64) (latticelite.Poly, error) {
	var p latticelite.Poly
	if len(coeffs) != latticelite.N {
		return p, errors.Wrapf(ErrLength, "got %d", len(coeffs))
	}
	for i, c := range coeffs {
		p[i] = Reduce(c)
	}
	return p, nil
}

// Centered returns the coefficients of p lifted into (-Q/2, Q/2].
func Centered(p latticelite.Poly) []int16 {
	out := make([]int16, latticelite.N)
	for i, c := range p {
		out[i] = CenteredReduce(int64(c))
	}
	return out
}
