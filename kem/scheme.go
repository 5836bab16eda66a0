package kem

import (
	circlkem "github.com/cloudflare/circl/kem"
	"github.com/pkg/errors"

	latticelite "github.com/BackendStack21/lattice-lite-go"
	"github.com/BackendStack21/lattice-lite-go/core"
	"github.com/BackendStack21/lattice-lite-go/utils"
)

// SchemePrivateKeySize is the packed size of a scheme private key, which
// carries its public half so that Public() can be answered.
const SchemePrivateKeySize = 2 + 3*polySize

type scheme struct {
	params latticelite.Params
}

// Scheme returns a circl kem.Scheme for the reference parameter set.
func Scheme() circlkem.Scheme {
	return &scheme{params: core.LITE16Params}
}

// NewScheme returns a circl kem.Scheme for params.
func NewScheme(params latticelite.Params) (circlkem.Scheme, error) {
	if err := core.ValidateParams(params); err != nil {
		return nil, err
	}
	return &scheme{params: params}, nil
}

type schemePublicKey struct {
	scheme *scheme
	pk     latticelite.PublicKey
}

type schemePrivateKey struct {
	scheme *scheme
	sk     latticelite.PrivateKey
	pk     latticelite.PublicKey
}

func (sch *scheme) Name() string               { return string(sch.params.Set) }
func (sch *scheme) PublicKeySize() int         { return PublicKeySize }
func (sch *scheme) PrivateKeySize() int        { return SchemePrivateKeySize }
func (sch *scheme) SeedSize() int              { return latticelite.SeedSize }
func (sch *scheme) EncapsulationSeedSize() int { return latticelite.SeedSize }
func (sch *scheme) CiphertextSize() int        { return CiphertextSize }
func (sch *scheme) SharedKeySize() int         { return latticelite.SharedSecretSize }

func (sch *scheme) wrap(kp *latticelite.KeyPair) (circlkem.PublicKey, circlkem.PrivateKey) {
	return &schemePublicKey{scheme: sch, pk: kp.PublicKey},
		&schemePrivateKey{scheme: sch, sk: kp.PrivateKey, pk: kp.PublicKey}
}

func (sch *scheme) GenerateKeyPair() (circlkem.PublicKey, circlkem.PrivateKey, error) {
	seed, err := utils.SecureRandomBytes(latticelite.SeedSize)
	if err != nil {
		return nil, nil, err
	}
	defer utils.Zeroize(seed)
	kp, err := GenerateKeyPairFromSeed(sch.params, seed)
	if err != nil {
		return nil, nil, err
	}
	pk, sk := sch.wrap(kp)
	return pk, sk, nil
}

func (sch *scheme) DeriveKeyPair(seed []byte) (circlkem.PublicKey, circlkem.PrivateKey) {
	if len(seed) != sch.SeedSize() {
		panic(circlkem.ErrSeedSize)
	}
	kp, err := GenerateKeyPairFromSeed(sch.params, seed)
	if err != nil {
		panic(err)
	}
	return sch.wrap(kp)
}

func (sch *scheme) publicKey(pk circlkem.PublicKey) (*schemePublicKey, error) {
	ppk, ok := pk.(*schemePublicKey)
	if !ok || ppk.scheme.params != sch.params {
		return nil, circlkem.ErrTypeMismatch
	}
	return ppk, nil
}

func (sch *scheme) Encapsulate(pk circlkem.PublicKey) (ct, ss []byte, err error) {
	seed, err := utils.SecureRandomBytes(latticelite.SeedSize)
	if err != nil {
		return nil, nil, err
	}
	defer utils.Zeroize(seed)
	return sch.EncapsulateDeterministically(pk, seed)
}

func (sch *scheme) EncapsulateDeterministically(pk circlkem.PublicKey, seed []byte) (ct, ss []byte, err error) {
	if len(seed) != sch.EncapsulationSeedSize() {
		return nil, nil, circlkem.ErrSeedSize
	}
	ppk, err := sch.publicKey(pk)
	if err != nil {
		return nil, nil, err
	}
	res, err := EncapsulateDeterministic(sch.params, &ppk.pk, seed)
	if err != nil {
		return nil, nil, err
	}
	return SerializeCiphertext(&res.Ciphertext), res.SharedSecret, nil
}

func (sch *scheme) Decapsulate(sk circlkem.PrivateKey, ct []byte) ([]byte, error) {
	if len(ct) != sch.CiphertextSize() {
		return nil, circlkem.ErrCiphertextSize
	}
	psk, ok := sk.(*schemePrivateKey)
	if !ok || psk.scheme.params != sch.params {
		return nil, circlkem.ErrTypeMismatch
	}
	c, err := DeserializeCiphertext(ct)
	if err != nil {
		return nil, errors.Wrap(circlkem.ErrCipherText, err.Error())
	}
	return Decapsulate(sch.params, c, &psk.sk)
}

func (sch *scheme) UnmarshalBinaryPublicKey(buf []byte) (circlkem.PublicKey, error) {
	if len(buf) != sch.PublicKeySize() {
		return nil, circlkem.ErrPubKeySize
	}
	pk, err := DeserializePublicKey(buf)
	if err != nil {
		return nil, errors.Wrap(circlkem.ErrPubKey, err.Error())
	}
	return &schemePublicKey{scheme: sch, pk: *pk}, nil
}

func (sch *scheme) UnmarshalBinaryPrivateKey(buf []byte) (circlkem.PrivateKey, error) {
	if len(buf) != sch.PrivateKeySize() {
		return nil, circlkem.ErrPrivKeySize
	}
	var key schemePrivateKey
	if err := readPolys(buf, kindSchemePrivateKey, &key.sk.S, &key.pk.A, &key.pk.B); err != nil {
		return nil, errors.WithMessage(err, "private key")
	}
	key.scheme = sch
	return &key, nil
}

func (pk *schemePublicKey) Scheme() circlkem.Scheme { return pk.scheme }

func (pk *schemePublicKey) MarshalBinary() ([]byte, error) {
	return SerializePublicKey(&pk.pk), nil
}

func (pk *schemePublicKey) Equal(other circlkem.PublicKey) bool {
	o, ok := other.(*schemePublicKey)
	if !ok || o.scheme.params != pk.scheme.params {
		return false
	}
	return pk.pk == o.pk
}

func (sk *schemePrivateKey) Scheme() circlkem.Scheme { return sk.scheme }

func (sk *schemePrivateKey) MarshalBinary() ([]byte, error) {
	b := newBuilder(kindSchemePrivateKey, SchemePrivateKeySize)
	addPoly(b, sk.sk.S)
	addPoly(b, sk.pk.A)
	addPoly(b, sk.pk.B)
	return b.Bytes()
}

func (sk *schemePrivateKey) Equal(other circlkem.PrivateKey) bool {
	o, ok := other.(*schemePrivateKey)
	if !ok || o.scheme.params != sk.scheme.params {
		return false
	}
	a, _ := sk.MarshalBinary()
	b, _ := o.MarshalBinary()
	return utils.ConstantTimeEqual(a, b)
}

func (sk *schemePrivateKey) Public() circlkem.PublicKey {
	return &schemePublicKey{scheme: sk.scheme, pk: sk.pk}
}
