package kem

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	latticelite "github.com/BackendStack21/lattice-lite-go"
	"github.com/BackendStack21/lattice-lite-go/core"
	"github.com/BackendStack21/lattice-lite-go/kdf"
	"github.com/BackendStack21/lattice-lite-go/ring"
	"github.com/BackendStack21/lattice-lite-go/sampler"
	"github.com/BackendStack21/lattice-lite-go/utils"
)

type errorReader struct{}

func (errorReader) Read(p []byte) (int, error) { return 0, assert.AnError }

func testSeed(b byte) []byte {
	seed := make([]byte, latticelite.SeedSize)
	for i := range seed {
		seed[i] = b + byte(i*7)
	}
	return seed
}

func newTestKEM(t *testing.T, params latticelite.Params, seed []byte) *KEM {
	t.Helper()
	s, err := sampler.NewFromSeed(seed)
	require.NoError(t, err)
	k, err := New(params, s)
	require.NoError(t, err)
	return k
}

func TestNew_Validation(t *testing.T) {
	s, err := sampler.NewFromSeed(testSeed(1))
	require.NoError(t, err)

	_, err = New(core.LITE16Params, nil)
	assert.Error(t, err)

	bad := core.LITE16Params
	bad.NoiseBound = -1
	_, err = New(bad, s)
	assert.Error(t, err)

	bad = core.LITE16Params
	bad.Hash = "MD5"
	_, err = New(bad, s)
	assert.ErrorIs(t, err, kdf.ErrUnknownHash)

	k, err := New(core.LITE16Params, s)
	require.NoError(t, err)
	assert.Equal(t, core.LITE16Params, k.Params())
}

func TestKEM_Deterministic(t *testing.T) {
	k1 := newTestKEM(t, core.LITE16Params, testSeed(3))
	k2 := newTestKEM(t, core.LITE16Params, testSeed(3))

	kp1 := k1.GenerateKeyPair()
	kp2 := k2.GenerateKeyPair()
	assert.Equal(t, kp1, kp2)

	res1, err := k1.Encapsulate(&kp1.PublicKey)
	require.NoError(t, err)
	res2, err := k2.Encapsulate(&kp2.PublicKey)
	require.NoError(t, err)
	assert.Equal(t, res1, res2)

	k3 := newTestKEM(t, core.LITE16Params, testSeed(4))
	assert.NotEqual(t, kp1.PublicKey, k3.GenerateKeyPair().PublicKey)
}

func TestKEM_Shapes(t *testing.T) {
	k := newTestKEM(t, core.LITE16Params, testSeed(5))
	kp := k.GenerateKeyPair()

	for _, p := range []latticelite.Poly{kp.PublicKey.A, kp.PublicKey.B, kp.PrivateKey.S} {
		assert.True(t, ring.IsCanonical(p))
	}
	for _, c := range ring.Centered(kp.PrivateKey.S) {
		assert.LessOrEqual(t, c, int16(latticelite.DefaultNoiseBound))
		assert.GreaterOrEqual(t, c, int16(-latticelite.DefaultNoiseBound))
	}

	res, err := k.Encapsulate(&kp.PublicKey)
	require.NoError(t, err)
	assert.Len(t, res.SharedSecret, latticelite.SharedSecretSize)
	assert.True(t, ring.IsCanonical(res.Ciphertext.U))
	assert.True(t, ring.IsCanonical(res.Ciphertext.V))

	ss, err := k.Decapsulate(&res.Ciphertext, &kp.PrivateKey)
	require.NoError(t, err)
	assert.Len(t, ss, latticelite.SharedSecretSize)
}

// TestKEM_ReferenceScenario runs the N=16, Q=3329, bound 3 instance end to
// end and checks both secrets against the algebra directly.
func TestKEM_ReferenceScenario(t *testing.T) {
	params := core.LITE16Params
	kp, err := GenerateKeyPairFromSeed(params, testSeed(9))
	require.NoError(t, err)
	res, err := EncapsulateDeterministic(params, &kp.PublicKey, testSeed(10))
	require.NoError(t, err)
	ct := res.Ciphertext

	assert.Equal(t, kdf.DeriveSecret(ct.V, nil), res.SharedSecret)

	ss, err := Decapsulate(params, &ct, &kp.PrivateKey)
	require.NoError(t, err)
	assert.Equal(t, kdf.DeriveSecret(ring.Sub(ct.V, ring.Mul(ct.U, kp.PrivateKey.S)), nil), ss)
}

// TestKEM_Residual replays the sampler draws behind a seeded keygen and
// encapsulation and checks that v - u*s == e*r + e2 - e1*s.
func TestKEM_Residual(t *testing.T) {
	params := core.LITE16Params
	keySeed, encSeed := testSeed(11), testSeed(12)

	kp, err := GenerateKeyPairFromSeed(params, keySeed)
	require.NoError(t, err)
	res, err := EncapsulateDeterministic(params, &kp.PublicKey, encSeed)
	require.NoError(t, err)

	ks, err := sampler.NewFromSeed(utils.HashWithDomain(DomainKeyGen, keySeed))
	require.NoError(t, err)
	s := ks.Noise(params.NoiseBound)
	e := ks.Noise(params.NoiseBound)
	a := ks.Uniform()
	require.Equal(t, kp.PrivateKey.S, s)
	require.Equal(t, kp.PublicKey.A, a)
	require.Equal(t, ring.Add(ring.Mul(a, s), e), kp.PublicKey.B)

	es, err := sampler.NewFromSeed(utils.HashWithDomain(DomainEncaps, encSeed))
	require.NoError(t, err)
	r := es.Noise(params.NoiseBound)
	e1 := es.Noise(params.NoiseBound)
	e2 := es.Noise(params.NoiseBound)
	require.Equal(t, ring.Add(ring.Mul(a, r), e1), res.Ciphertext.U)
	require.Equal(t, ring.Add(ring.Mul(kp.PublicKey.B, r), e2), res.Ciphertext.V)

	tPoly := ring.Sub(res.Ciphertext.V, ring.Mul(res.Ciphertext.U, s))
	want := ring.Sub(ring.Add(ring.Mul(e, r), e2), ring.Mul(e1, s))
	assert.Equal(t, want, tPoly)
}

func TestKEM_ZeroNoiseAgrees(t *testing.T) {
	params := core.LITE16Params
	params.NoiseBound = 0
	k := newTestKEM(t, params, testSeed(13))
	kp := k.GenerateKeyPair()
	res, err := k.Encapsulate(&kp.PublicKey)
	require.NoError(t, err)
	ss, err := k.Decapsulate(&res.Ciphertext, &kp.PrivateKey)
	require.NoError(t, err)
	assert.Equal(t, res.SharedSecret, ss)
}

func TestKEM_AgreementRate(t *testing.T) {
	const trials = 200
	k := newTestKEM(t, core.LITE16Params, testSeed(14))
	agreed := 0
	for i := 0; i < trials; i++ {
		kp := k.GenerateKeyPair()
		res, err := k.Encapsulate(&kp.PublicKey)
		require.NoError(t, err)
		ss, err := k.Decapsulate(&res.Ciphertext, &kp.PrivateKey)
		require.NoError(t, err)
		if bytes.Equal(ss, res.SharedSecret) {
			agreed++
		}
	}
	t.Logf("LITE-16 agreement: %d/%d", agreed, trials)
}

func TestKEM_DistinctCiphertexts(t *testing.T) {
	k := newTestKEM(t, core.LITE16Params, testSeed(15))
	kp := k.GenerateKeyPair()
	res1, err := k.Encapsulate(&kp.PublicKey)
	require.NoError(t, err)
	res2, err := k.Encapsulate(&kp.PublicKey)
	require.NoError(t, err)
	assert.NotEqual(t, res1.Ciphertext, res2.Ciphertext)
}

func TestKEM_WithHash(t *testing.T) {
	s, err := sampler.NewFromSeed(testSeed(16))
	require.NoError(t, err)
	sha3, err := kdf.Lookup(kdf.SHA3_256)
	require.NoError(t, err)
	k, err := New(core.LITE16Params, s, WithHash(sha3))
	require.NoError(t, err)

	kp := k.GenerateKeyPair()
	res, err := k.Encapsulate(&kp.PublicKey)
	require.NoError(t, err)
	assert.Equal(t, kdf.DeriveSecret(res.Ciphertext.V, sha3), res.SharedSecret)
}

func TestKEM_NilInput(t *testing.T) {
	k := newTestKEM(t, core.LITE16Params, testSeed(17))
	kp := k.GenerateKeyPair()

	_, err := k.Encapsulate(nil)
	assert.ErrorIs(t, err, ErrNilInput)
	_, err = k.Decapsulate(nil, &kp.PrivateKey)
	assert.ErrorIs(t, err, ErrNilInput)
	_, err = Decapsulate(core.LITE16Params, &latticelite.Ciphertext{}, nil)
	assert.ErrorIs(t, err, ErrNilInput)
}

func TestKEM_Concurrent(t *testing.T) {
	k := newTestKEM(t, core.LITE16Params, testSeed(18))
	kp := k.GenerateKeyPair()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				res, err := k.Encapsulate(&kp.PublicKey)
				if err != nil {
					t.Error(err)
					return
				}
				if _, err := k.Decapsulate(&res.Ciphertext, &kp.PrivateKey); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestPackageHelpers(t *testing.T) {
	kp, err := GenerateKeyPair(latticelite.LITE16)
	require.NoError(t, err)
	res, err := Encapsulate(core.LITE16Params, &kp.PublicKey)
	require.NoError(t, err)
	_, err = Decapsulate(core.LITE16Params, &res.Ciphertext, &kp.PrivateKey)
	require.NoError(t, err)

	_, err = GenerateKeyPair("LITE-99")
	assert.ErrorIs(t, err, core.ErrUnknownLevel)

	_, err = GenerateKeyPairFromSeed(core.LITE16Params, make([]byte, 16))
	assert.Error(t, err)
	_, err = EncapsulateDeterministic(core.LITE16Params, &kp.PublicKey, make([]byte, 16))
	assert.Error(t, err)

	bad := core.LITE16Params
	bad.Hash = ""
	_, err = Decapsulate(bad, &res.Ciphertext, &kp.PrivateKey)
	assert.Error(t, err)
}

func TestSeededHelpers_DomainSeparated(t *testing.T) {
	seed := testSeed(19)
	kp, err := GenerateKeyPairFromSeed(core.LITE16Params, seed)
	require.NoError(t, err)

	// Encapsulating with the keygen seed must not replay s as r.
	es, err := sampler.NewFromSeed(utils.HashWithDomain(DomainEncaps, seed))
	require.NoError(t, err)
	r := es.Noise(core.LITE16Params.NoiseBound)
	assert.NotEqual(t, kp.PrivateKey.S, r)
}

func TestEntropyFailure(t *testing.T) {
	orig := utils.RandReader
	utils.RandReader = errorReader{}
	defer func() { utils.RandReader = orig }()

	_, err := GenerateKeyPair(latticelite.LITE16)
	assert.Error(t, err)
	_, err = Encapsulate(core.LITE16Params, &latticelite.PublicKey{})
	assert.Error(t, err)
	_, _, err = Scheme().GenerateKeyPair()
	assert.Error(t, err)
}

func BenchmarkGenerateKeyPair(b *testing.B) {
	s, _ := sampler.NewFromSeed(testSeed(20))
	k, _ := New(core.LITE16Params, s)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		k.GenerateKeyPair()
	}
}

func BenchmarkEncapsulate(b *testing.B) {
	s, _ := sampler.NewFromSeed(testSeed(21))
	k, _ := New(core.LITE16Params, s)
	kp := k.GenerateKeyPair()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = k.Encapsulate(&kp.PublicKey)
	}
}

func BenchmarkDecapsulate(b *testing.B) {
	s, _ := sampler.NewFromSeed(testSeed(22))
	k, _ := New(core.LITE16Params, s)
	kp := k.GenerateKeyPair()
	res, _ := k.Encapsulate(&kp.PublicKey)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = k.Decapsulate(&res.Ciphertext, &kp.PrivateKey)
	}
}
