package utils

import (
	"encoding/binary"
	"io"
	"sync"

	"golang.org/x/crypto/sha3"
)

var shake256Pool = sync.Pool{
	New: func() interface{} {
		return sha3.NewShake256()
	},
}

// writeDomain absorbs len(domain) || domain. Panics if domain is longer than 255 bytes.
func writeDomain(h io.Writer, domain string) {
	if len(domain) > 255 {
		panic("domain string must be at most 255 bytes")
	}
	h.Write([]byte{byte(len(domain))})
	h.Write([]byte(domain))
}

// HashWithDomain computes a domain-separated SHA3-256 hash.
func HashWithDomain(domain string, data []byte) []byte {
	h := sha3.New256()
	writeDomain(h, domain)
	h.Write(data)
	return h.Sum(nil)
}

// NewShake256Stream returns a SHAKE256 reader that has absorbed
// len(domain) || domain || seed. Every Read continues the same output
// stream, so the bytes handed out depend only on the seed and the total
// number of bytes read so far.
func NewShake256Stream(domain string, seed []byte) sha3.ShakeHash {
	h := sha3.NewShake256()
	writeDomain(h, domain)
	h.Write(seed)
	return h
}

// Shake256WithDomain works like HashWithDomain but produces an output of arbitrary length.
func Shake256WithDomain(domain string, data []byte, outputLen int) []byte {
	h := shake256Pool.Get().(sha3.ShakeHash)
	defer func() {
		h.Reset()
		shake256Pool.Put(h)
	}()

	writeDomain(h, domain)
	h.Write(data)
	output := make([]byte, outputLen)
	_, _ = h.Read(output)
	return output
}

// DeriveSeed expands (seed, index) into a fresh 32-byte seed under domain.
func DeriveSeed(domain string, seed []byte, index uint64) []byte {
	buf := make([]byte, len(seed)+8)
	copy(buf, seed)
	binary.LittleEndian.PutUint64(buf[len(seed):], index)
	return Shake256WithDomain(domain, buf, 32)
}
