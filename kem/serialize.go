package kem

import (
	"github.com/pkg/errors"
	"golang.org/x/crypto/cryptobyte"

	latticelite "github.com/BackendStack21/lattice-lite-go"
	"github.com/BackendStack21/lattice-lite-go/ring"
)

// FormatVersion is the first byte of every encoding.
const FormatVersion = 1

const (
	kindPublicKey        = 0x01
	kindPrivateKey       = 0x02
	kindCiphertext       = 0x03
	kindSchemePrivateKey = 0x04
)

// polySize is a u16 coefficient count followed by N u16 coefficients.
const polySize = 2 + 2*latticelite.N

// Encoded sizes.
const (
	PublicKeySize  = 2 + 2*polySize
	PrivateKeySize = 2 + polySize
	CiphertextSize = 2 + 2*polySize
)

// ErrMalformed indicates a structurally invalid encoding: wrong version or
// kind, truncation, or trailing bytes. Polynomials with the wrong number of
// coefficients or out-of-range coefficients are reported with ring.ErrLength
// and ring.ErrCoefficient.
var ErrMalformed = errors.New("malformed encoding")

func addPoly(b *cryptobyte.Builder, p latticelite.Poly) {
	b.AddUint16(latticelite.N)
	for _, c := range p {
		b.AddUint16(uint16(c))
	}
}

func readPoly(s *cryptobyte.String) (latticelite.Poly, error) {
	var count uint16
	if !s.ReadUint16(&count) {
		return latticelite.Poly{}, errors.Wrap(ErrMalformed, "truncated coefficient count")
	}
	if count != latticelite.N {
		return latticelite.Poly{}, errors.Wrapf(ring.ErrLength, "got %d", count)
	}
	coeffs := make([]int16, latticelite.N)
	for i := range coeffs {
		var c uint16
		if !s.ReadUint16(&c) {
			return latticelite.Poly{}, errors.Wrapf(ErrMalformed, "truncated at coefficient %d", i)
		}
		if c >= latticelite.Q {
			return latticelite.Poly{}, errors.Wrapf(ring.ErrCoefficient, "index %d: %d", i, c)
		}
		coeffs[i] = int16(c)
	}
	return ring.FromSlice(coeffs)
}

func newBuilder(kind uint8, size int) *cryptobyte.Builder {
	b := cryptobyte.NewBuilder(make([]byte, 0, size))
	b.AddUint8(FormatVersion)
	b.AddUint8(kind)
	return b
}

func readHeader(s *cryptobyte.String, kind uint8) error {
	var version, got uint8
	if !s.ReadUint8(&version) || !s.ReadUint8(&got) {
		return errors.Wrap(ErrMalformed, "truncated header")
	}
	if version != FormatVersion {
		return errors.Wrapf(ErrMalformed, "unsupported version %d", version)
	}
	if got != kind {
		return errors.Wrapf(ErrMalformed, "kind 0x%02x, want 0x%02x", got, kind)
	}
	return nil
}

func readPolys(data []byte, kind uint8, out ...*latticelite.Poly) error {
	s := cryptobyte.String(data)
	if err := readHeader(&s, kind); err != nil {
		return err
	}
	for _, p := range out {
		v, err := readPoly(&s)
		if err != nil {
			return err
		}
		*p = v
	}
	if !s.Empty() {
		return errors.Wrapf(ErrMalformed, "%d trailing bytes", len(s))
	}
	return nil
}

// SerializePublicKey serializes a public key.
func SerializePublicKey(pk *latticelite.PublicKey) []byte {
	b := newBuilder(kindPublicKey, PublicKeySize)
	addPoly(b, pk.A)
	addPoly(b, pk.B)
	return b.BytesOrPanic()
}

// DeserializePublicKey parses a public key.
func DeserializePublicKey(data []byte) (*latticelite.PublicKey, error) {
	var pk latticelite.PublicKey
	if err := readPolys(data, kindPublicKey, &pk.A, &pk.B); err != nil {
		return nil, errors.WithMessage(err, "public key")
	}
	return &pk, nil
}

// SerializePrivateKey serializes a private key.
func SerializePrivateKey(sk *latticelite.PrivateKey) []byte {
	b := newBuilder(kindPrivateKey, PrivateKeySize)
	addPoly(b, sk.S)
	return b.BytesOrPanic()
}

// DeserializePrivateKey parses a private key.
func DeserializePrivateKey(data []byte) (*latticelite.PrivateKey, error) {
	var sk latticelite.PrivateKey
	if err := readPolys(data, kindPrivateKey, &sk.S); err != nil {
		return nil, errors.WithMessage(err, "private key")
	}
	return &sk, nil
}

// SerializeCiphertext serializes a ciphertext.
func SerializeCiphertext(ct *latticelite.Ciphertext) []byte {
	b := newBuilder(kindCiphertext, CiphertextSize)
	addPoly(b, ct.U)
	addPoly(b, ct.V)
	return b.BytesOrPanic()
}

// DeserializeCiphertext parses a ciphertext.
func DeserializeCiphertext(data []byte) (*latticelite.Ciphertext, error) {
	var ct latticelite.Ciphertext
	if err := readPolys(data, kindCiphertext, &ct.U, &ct.V); err != nil {
		return nil, errors.WithMessage(err, "ciphertext")
	}
	return &ct, nil
}
