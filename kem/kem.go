// Package kem implements the lattice-lite key encapsulation mechanism.
//
// The algebra is the reference construction, unchanged:
//
//	keygen:      s, e <- noise; a <- uniform; b = a*s + e
//	encapsulate: r, e1, e2 <- noise; u = a*r + e1; v = b*r + e2; K = H(v)
//	decapsulate: t = v - u*s; K' = H(t)
//
// Expanding t gives e*r + e2 - e1*s, which is not v, so K and K' differ for
// any nonzero noise. Callers must not expect the two sides to agree; see the
// analysis package for measured agreement rates.
package kem

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	latticelite "github.com/BackendStack21/lattice-lite-go"
	"github.com/BackendStack21/lattice-lite-go/core"
	"github.com/BackendStack21/lattice-lite-go/kdf"
	"github.com/BackendStack21/lattice-lite-go/ring"
	"github.com/BackendStack21/lattice-lite-go/sampler"
	"github.com/BackendStack21/lattice-lite-go/utils"
)

const (
	DomainKeyGen = "lattice-lite-kem-keygen-v1"
	DomainEncaps = "lattice-lite-kem-encaps-v1"
)

// ErrNilInput indicates a nil key or ciphertext.
var ErrNilInput = errors.New("nil key or ciphertext")

// Option configures a KEM.
type Option func(*KEM)

// WithLogger sets the debug logger. The default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(k *KEM) {
		k.log = log
	}
}

// WithHash overrides the digest named by the parameters.
func WithHash(fn kdf.Func) Option {
	return func(k *KEM) {
		if fn != nil {
			k.hash = fn
		}
	}
}

// KEM binds a parameter set to a sampler. All randomness comes from that
// sampler; an operation holds the KEM's lock for all of its draws, so a
// seeded KEM yields the same keys and ciphertexts for the same call sequence.
type KEM struct {
	mu      sync.Mutex
	params  latticelite.Params
	sampler *sampler.Sampler
	hash    kdf.Func
	log     zerolog.Logger
}

// New validates params and returns a KEM drawing from s.
func New(params latticelite.Params, s *sampler.Sampler, opts ...Option) (*KEM, error) {
	if s == nil {
		return nil, errors.New("sampler must not be nil")
	}
	if err := core.ValidateParams(params); err != nil {
		return nil, err
	}
	hash, err := kdf.Lookup(params.Hash)
	if err != nil {
		return nil, err
	}
	k := &KEM{
		params:  params,
		sampler: s,
		hash:    hash,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(k)
	}
	return k, nil
}

// Params returns the parameter set.
func (k *KEM) Params() latticelite.Params {
	return k.params
}

// GenerateKeyPair draws s, e and a (in that order) and returns the key pair.
func (k *KEM) GenerateKeyPair() *latticelite.KeyPair {
	start := time.Now()
	k.mu.Lock()
	s := k.sampler.Noise(k.params.NoiseBound)
	e := k.sampler.Noise(k.params.NoiseBound)
	a := k.sampler.Uniform()
	k.mu.Unlock()

	b := ring.Add(ring.Mul(a, s), e)
	utils.ZeroizePoly(&e)

	k.log.Debug().
		Str("set", string(k.params.Set)).
		Int("noise_bound", k.params.NoiseBound).
		Dur("elapsed", time.Since(start)).
		Msg("generated key pair")

	return &latticelite.KeyPair{
		PublicKey:  latticelite.PublicKey{A: a, B: b},
		PrivateKey: latticelite.PrivateKey{S: s},
	}
}

// Encapsulate draws r, e1 and e2 and returns the ciphertext together with
// the sender-side secret H(v).
func (k *KEM) Encapsulate(pk *latticelite.PublicKey) (*latticelite.EncapsulationResult, error) {
	if pk == nil {
		return nil, ErrNilInput
	}
	start := time.Now()
	k.mu.Lock()
	r := k.sampler.Noise(k.params.NoiseBound)
	e1 := k.sampler.Noise(k.params.NoiseBound)
	e2 := k.sampler.Noise(k.params.NoiseBound)
	k.mu.Unlock()

	u := ring.Add(ring.Mul(pk.A, r), e1)
	v := ring.Add(ring.Mul(pk.B, r), e2)
	secret := kdf.DeriveSecret(v, k.hash)

	utils.ZeroizePoly(&r)
	utils.ZeroizePoly(&e1)
	utils.ZeroizePoly(&e2)

	k.log.Debug().
		Str("set", string(k.params.Set)).
		Dur("elapsed", time.Since(start)).
		Msg("encapsulated")

	return &latticelite.EncapsulationResult{
		SharedSecret: secret,
		Ciphertext:   latticelite.Ciphertext{U: u, V: v},
	}, nil
}

// Decapsulate returns the receiver-side secret H(v - u*s). It never rejects
// a well-formed ciphertext.
func (k *KEM) Decapsulate(ct *latticelite.Ciphertext, sk *latticelite.PrivateKey) ([]byte, error) {
	if ct == nil || sk == nil {
		return nil, ErrNilInput
	}
	return decapsulate(ct, sk, k.hash), nil
}

func decapsulate(ct *latticelite.Ciphertext, sk *latticelite.PrivateKey, hash kdf.Func) []byte {
	t := ring.Sub(ct.V, ring.Mul(ct.U, sk.S))
	secret := kdf.DeriveSecret(t, hash)
	utils.ZeroizePoly(&t)
	return secret
}

// =============================================================================
// Package-level helpers
// =============================================================================

// GenerateKeyPair generates a key pair for the named set from fresh entropy.
func GenerateKeyPair(set latticelite.ParamSet) (*latticelite.KeyPair, error) {
	params, err := core.GetParams(set)
	if err != nil {
		return nil, err
	}
	s, err := sampler.New()
	if err != nil {
		return nil, err
	}
	k, err := New(params, s)
	if err != nil {
		return nil, err
	}
	return k.GenerateKeyPair(), nil
}

// GenerateKeyPairFromSeed generates a deterministic key pair from seed.
func GenerateKeyPairFromSeed(params latticelite.Params, seed []byte) (*latticelite.KeyPair, error) {
	k, err := newSeeded(params, DomainKeyGen, seed)
	if err != nil {
		return nil, err
	}
	return k.GenerateKeyPair(), nil
}

// Encapsulate encapsulates to pk using fresh entropy.
func Encapsulate(params latticelite.Params, pk *latticelite.PublicKey) (*latticelite.EncapsulationResult, error) {
	s, err := sampler.New()
	if err != nil {
		return nil, err
	}
	k, err := New(params, s)
	if err != nil {
		return nil, err
	}
	return k.Encapsulate(pk)
}

// EncapsulateDeterministic performs deterministic encapsulation.
func EncapsulateDeterministic(params latticelite.Params, pk *latticelite.PublicKey, seed []byte) (*latticelite.EncapsulationResult, error) {
	k, err := newSeeded(params, DomainEncaps, seed)
	if err != nil {
		return nil, err
	}
	return k.Encapsulate(pk)
}

// Decapsulate derives the receiver-side secret under params.
func Decapsulate(params latticelite.Params, ct *latticelite.Ciphertext, sk *latticelite.PrivateKey) ([]byte, error) {
	if err := core.ValidateParams(params); err != nil {
		return nil, err
	}
	if ct == nil || sk == nil {
		return nil, ErrNilInput
	}
	hash, err := kdf.Lookup(params.Hash)
	if err != nil {
		return nil, err
	}
	return decapsulate(ct, sk, hash), nil
}

// newSeeded builds a KEM whose sampler seed is H(domain, seed), so one
// caller-provided seed never drives keygen and encapsulation identically.
func newSeeded(params latticelite.Params, domain string, seed []byte) (*KEM, error) {
	if len(seed) < latticelite.SeedSize {
		return nil, errors.Errorf("seed must be at least %d bytes", latticelite.SeedSize)
	}
	derived := utils.HashWithDomain(domain, seed)
	s, err := sampler.NewFromSeed(derived)
	utils.Zeroize(derived)
	if err != nil {
		return nil, err
	}
	return New(params, s)
}
