// Package latticelite implements a minimal lattice-based key encapsulation
// mechanism over the ring Z_q[x]/(x^N - 1) with N = 16 and q = 3329.
// This package holds the shared types and constants; the protocol lives in
// the kem sub-package.
//
// WARNING: This is an educational construction. It is NOT cryptographically
// secure, has no side-channel protection and, as constructed, the sender and
// receiver do not in general derive the same shared secret. DO NOT use it to
// protect real data.
package latticelite

// Version of the lattice-lite Go implementation.
const Version = "0.3.0"

// API summary:
//
// Key Encapsulation (KEM):
//   - kem.New(params, sampler) - Bind parameters to a sampler
//   - (*kem.KEM).GenerateKeyPair() - Generate a key pair
//   - (*kem.KEM).Encapsulate(pk) - Generate ciphertext and sender-side secret
//   - (*kem.KEM).Decapsulate(ct, sk) - Derive receiver-side secret
//   - kem.Scheme() - circl kem.Scheme view of the reference instance
//
// Building blocks:
//   - ring.Add / ring.Sub / ring.Mul / ring.Reduce - Ring arithmetic
//   - sampler.New() / sampler.NewFromSeed(seed) - Pseudorandom sampling
//   - kdf.DeriveSecret(p, hash) - Polynomial to shared secret
//
// Parameters:
//   - core.GetParams(set) - Get parameters for a named set
//   - LITE16 - reference instance (noise bound 3, SHA-256)
