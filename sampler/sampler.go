// Package sampler draws ring elements from a seeded pseudorandom stream.
//
// The stream is SHAKE256(len(Domain) || Domain || seed). Each draw consumes
// two bytes, read as a little-endian uint16, masked to the bit length of the
// target range and rejected if it falls outside it. A fixed seed therefore
// fixes every polynomial the sampler will ever return, in order.
package sampler

import (
	"encoding/binary"
	"math/bits"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/crypto/sha3"

	latticelite "github.com/BackendStack21/lattice-lite-go"
	"github.com/BackendStack21/lattice-lite-go/ring"
	"github.com/BackendStack21/lattice-lite-go/utils"
)

// Domain separates the sampler stream from every other SHAKE256 use.
const Domain = "lattice-lite-sampler-v1"

// ErrSeedSize indicates a seed that is not SeedSize bytes long.
var ErrSeedSize = errors.Errorf("seed must be %d bytes", latticelite.SeedSize)

// Sampler holds the only mutable state of the scheme. Each call draws all
// N coefficients of its polynomial under a lock, so concurrent callers never
// interleave inside a polynomial; callers that need a fixed order across
// several polynomials must serialize themselves.
type Sampler struct {
	mu  sync.Mutex
	xof sha3.ShakeHash
	buf [2]byte
}

// New seeds a sampler from system entropy. A failing entropy source is an
// error; there is no weaker fallback.
func New() (*Sampler, error) {
	seed, err := utils.SecureRandomBytes(latticelite.SeedSize)
	if err != nil {
		return nil, errors.Wrap(err, "seeding sampler")
	}
	s, err := NewFromSeed(seed)
	utils.Zeroize(seed)
	return s, err
}

// NewFromSeed returns a deterministic sampler.
func NewFromSeed(seed []byte) (*Sampler, error) {
	if len(seed) != latticelite.SeedSize {
		return nil, errors.Wrapf(ErrSeedSize, "got %d", len(seed))
	}
	return &Sampler{xof: utils.NewShake256Stream(Domain, seed)}, nil
}

// next16 reads the next two stream bytes.
func (s *Sampler) next16() uint16 {
	_, _ = s.xof.Read(s.buf[:])
	return binary.LittleEndian.Uint16(s.buf[:])
}

// below returns a uniform value in [0, n). n must be in [1, 1<<16].
func (s *Sampler) below(n uint32) uint32 {
	if n == 1 {
		return 0
	}
	mask := uint32(1)<<bits.Len32(n-1) - 1
	for {
		v := uint32(s.next16()) & mask
		if v < n {
			return v
		}
	}
}

// Uniform returns a polynomial with every coefficient uniform in [0, Q).
func (s *Sampler) Uniform() latticelite.Poly {
	s.mu.Lock()
	defer s.mu.Unlock()

	var p latticelite.Poly
	for i := range p {
		p[i] = int16(s.below(latticelite.Q))
	}
	return p
}

// Noise returns a polynomial with every coefficient uniform in
// [-bound, bound], reduced into [0, Q). It panics if bound is negative or
// the range does not fit a 16-bit draw.
func (s *Sampler) Noise(bound int) latticelite.Poly {
	if bound < 0 || 2*bound+1 > 1<<16 {
		panic("sampler: noise bound out of range")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	width := uint32(2*bound + 1)
	var p latticelite.Poly
	for i := range p {
		p[i] = ring.Reduce(int64(s.below(width)) - int64(bound))
	}
	return p
}
