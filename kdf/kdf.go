// Package kdf maps ring elements to fixed-length shared secrets.
//
// A polynomial is encoded as N coefficients in index order, each as a 2-byte
// little-endian integer, and the encoding is hashed with a registered digest.
package kdf

import (
	"crypto/sha256"
	"encoding/binary"
	"hash"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/blake2s"
	"golang.org/x/crypto/sha3"

	latticelite "github.com/BackendStack21/lattice-lite-go"
)

// Registered digest names.
const (
	SHA256     = "SHA-256"
	SHA3_256   = "SHA3-256"
	BLAKE2b256 = "BLAKE2b-256"
	BLAKE2s256 = "BLAKE2s-256"
)

// EncodedSize is the length of EncodePoly's output.
const EncodedSize = 2 * latticelite.N

// ErrUnknownHash indicates a digest name that is not registered.
var ErrUnknownHash = errors.New("unknown hash function")

// Func constructs a fresh digest.
type Func func() hash.Hash

var (
	registryMu sync.RWMutex
	registry   = map[string]Func{
		SHA256:   sha256.New,
		SHA3_256: sha3.New256,
		BLAKE2b256: func() hash.Hash {
			h, _ := blake2b.New256(nil)
			return h
		},
		BLAKE2s256: func() hash.Hash {
			h, _ := blake2s.New256(nil)
			return h
		},
	}
)

// Register adds or replaces a named digest. It is meant for test back-ends
// and for wiring additional hashes at init time.
func Register(name string, fn Func) {
	if name == "" || fn == nil {
		panic("kdf: Register with empty name or nil constructor")
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = fn
}

// Lookup returns the digest registered under name.
func Lookup(name string) (Func, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	fn, ok := registry[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownHash, "%q", name)
	}
	return fn, nil
}

// Names lists the registered digests in sorted order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EncodePoly returns the fixed little-endian encoding of p.
func EncodePoly(p latticelite.Poly) []byte {
	out := make([]byte, EncodedSize)
	for i, c := range p {
		binary.LittleEndian.PutUint16(out[2*i:], uint16(c))
	}
	return out
}

// DeriveSecret hashes the encoding of p with fn. A nil fn means SHA-256.
func DeriveSecret(p latticelite.Poly, fn Func) []byte {
	if fn == nil {
		fn = sha256.New
	}
	h := fn()
	h.Write(EncodePoly(p))
	return h.Sum(nil)
}
