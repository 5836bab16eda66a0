package latticelite

const (
	// N is the number of coefficients of every ring element.
	N = 16
	// Q is the coefficient modulus.
	Q = 3329
	// SeedSize is the size in bytes of a sampler seed.
	SeedSize = 32
	// SharedSecretSize is the length of a shared secret for the registered digests.
	SharedSecretSize = 32
	// DefaultNoiseBound is the noise bound of the reference instance.
	DefaultNoiseBound = 3
)

// ParamSet names a parameter set.
type ParamSet string

const (
	// LITE16 is the reference instance: noise bound 3, SHA-256.
	LITE16 ParamSet = "LITE-16"
	// LITE16LN uses noise bound 1.
	LITE16LN ParamSet = "LITE-16-LN"
	// LITE16S3 derives secrets with SHA3-256.
	LITE16S3 ParamSet = "LITE-16-S3"
)

// =============================================================================
// Parameter Types
// =============================================================================

// Params is a complete parameter set. N and Q are fixed at compile time.
type Params struct {
	Set        ParamSet `json:"set" yaml:"set" toml:"set"`
	NoiseBound int      `json:"noise_bound" yaml:"noise_bound" toml:"noise_bound"` // noise drawn from [-NoiseBound, NoiseBound]
	Hash       string   `json:"hash" yaml:"hash" toml:"hash"`                      // kdf registry name
}

// =============================================================================
// Ring Element
// =============================================================================

// Poly is an element of Z_q[x]/(x^N - 1). Coefficient i is the coefficient of
// x^i and is kept in [0, Q).
type Poly [N]int16

// =============================================================================
// Key Types
// =============================================================================

// PublicKey is the pair (a, b) with b = a*s + e.
type PublicKey struct {
	A Poly
	B Poly
}

// PrivateKey holds the secret s.
type PrivateKey struct {
	S Poly
}

// KeyPair contains both public and private keys from a single keygen call.
type KeyPair struct {
	PublicKey  PublicKey
	PrivateKey PrivateKey
}

// =============================================================================
// KEM Types
// =============================================================================

// Ciphertext is the pair (u, v) produced by one encapsulation.
type Ciphertext struct {
	U Poly
	V Poly
}

// EncapsulationResult contains the result of KEM encapsulation.
type EncapsulationResult struct {
	SharedSecret []byte
	Ciphertext   Ciphertext
}
