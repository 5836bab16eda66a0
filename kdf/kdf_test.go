package kdf

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"hash/fnv"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	latticelite "github.com/BackendStack21/lattice-lite-go"
)

func TestEncodePoly_Layout(t *testing.T) {
	var p latticelite.Poly
	p[0] = 0x0102
	p[1] = latticelite.Q - 1 // 0x0D00
	p[latticelite.N-1] = 7

	enc := EncodePoly(p)
	require.Len(t, enc, EncodedSize)
	assert.Equal(t, []byte{0x02, 0x01}, enc[0:2])
	assert.Equal(t, []byte{0x00, 0x0D}, enc[2:4])
	assert.Equal(t, []byte{0x07, 0x00}, enc[EncodedSize-2:])
}

func TestDeriveSecret_ZeroPolyVector(t *testing.T) {
	// SHA-256 of 32 zero bytes.
	want, _ := hex.DecodeString("66687aadf862bd776c8fc18b8e9f8e20089714856ee233b3902a591d0d5f2925")
	got := DeriveSecret(latticelite.Poly{}, nil)
	assert.Equal(t, want, got)
}

func TestDeriveSecret_MatchesManualSHA256(t *testing.T) {
	var p latticelite.Poly
	for i := range p {
		p[i] = int16(i * 201 % latticelite.Q)
	}
	sum := sha256.Sum256(EncodePoly(p))
	assert.Equal(t, sum[:], DeriveSecret(p, sha256.New))
}

func TestDeriveSecret_Stable(t *testing.T) {
	var p latticelite.Poly
	p[3] = 42
	for _, name := range Names() {
		fn, err := Lookup(name)
		require.NoError(t, err)
		a := DeriveSecret(p, fn)
		b := DeriveSecret(p, fn)
		assert.Equal(t, a, b, name)
	}
}

func TestDeriveSecret_SingleCoefficientSensitivity(t *testing.T) {
	var base latticelite.Poly
	for i := range base {
		base[i] = int16(100 + i)
	}
	ref := DeriveSecret(base, nil)
	for i := 0; i < latticelite.N; i++ {
		p := base
		p[i] = (p[i] + 1) % latticelite.Q
		if bytes.Equal(ref, DeriveSecret(p, nil)) {
			t.Fatalf("changing coefficient %d did not change the secret", i)
		}
	}
}

func TestBackends_AllProduce32Bytes(t *testing.T) {
	var p latticelite.Poly
	p[0] = 1
	seen := map[string]string{}
	for _, name := range []string{SHA256, SHA3_256, BLAKE2b256, BLAKE2s256} {
		fn, err := Lookup(name)
		require.NoError(t, err)
		out := DeriveSecret(p, fn)
		require.Len(t, out, latticelite.SharedSecretSize, name)
		seen[hex.EncodeToString(out)] = name
	}
	assert.Len(t, seen, 4, "back-ends should disagree with each other")
}

func TestLookup_Unknown(t *testing.T) {
	_, err := Lookup("MD5")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownHash))
}

func TestRegister(t *testing.T) {
	Register("FNV-128a", func() hash.Hash { return fnv.New128a() })
	fn, err := Lookup("FNV-128a")
	require.NoError(t, err)
	assert.Len(t, DeriveSecret(latticelite.Poly{}, fn), 16)
	assert.Contains(t, Names(), "FNV-128a")

	assert.Panics(t, func() { Register("", fn) })
	assert.Panics(t, func() { Register("x", nil) })
}
