// Package analysis measures how often the two sides of the KEM derive the
// same secret, and how far the receiver's polynomial t = v - u*s lands from
// the sender's v.
package analysis

import (
	"bytes"
	"math"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"

	latticelite "github.com/BackendStack21/lattice-lite-go"
	"github.com/BackendStack21/lattice-lite-go/core"
	"github.com/BackendStack21/lattice-lite-go/kem"
	"github.com/BackendStack21/lattice-lite-go/ring"
	"github.com/BackendStack21/lattice-lite-go/utils"
)

// Domains for the per-trial seeds.
const (
	DomainTrialKeyGen = "lattice-lite-analysis-keygen-v1"
	DomainTrialEncaps = "lattice-lite-analysis-encaps-v1"
)

// Report summarizes a batch of agreement trials.
type Report struct {
	Params         latticelite.Params `json:"params"`
	Trials         int                `json:"trials"`
	Agreements     int                `json:"agreements"`
	Rate           float64            `json:"rate"`
	ResidualMean   float64            `json:"residual_mean"`
	ResidualStdDev float64            `json:"residual_stddev"`
	ResidualMaxAbs float64            `json:"residual_max_abs"`
	ResidualP95    float64            `json:"residual_p95_abs"`

	// Residuals holds the centered coefficients of t - v, N per trial.
	Residuals []float64 `json:"-"`
}

// RunAgreementTrials runs trials independent keygen/encapsulate/decapsulate
// rounds. Trial i derives its key and encapsulation seeds from (seed, i), so
// a fixed seed reproduces the report exactly. An empty seed draws a fresh
// one from system entropy.
func RunAgreementTrials(params latticelite.Params, seed []byte, trials int) (*Report, error) {
	if err := utils.CheckPositive(trials, "trials"); err != nil {
		return nil, err
	}
	if err := utils.CheckLength(trials, utils.MaxTrials); err != nil {
		return nil, errors.Wrapf(err, "trials %d", trials)
	}
	if err := core.ValidateParams(params); err != nil {
		return nil, err
	}
	if len(seed) == 0 {
		var err error
		if seed, err = utils.SecureRandomBytes(latticelite.SeedSize); err != nil {
			return nil, err
		}
		defer utils.Zeroize(seed)
	} else if len(seed) < latticelite.SeedSize {
		return nil, errors.Errorf("seed must be at least %d bytes", latticelite.SeedSize)
	}

	rep := &Report{
		Params:    params,
		Trials:    trials,
		Residuals: make([]float64, 0, trials*latticelite.N),
	}
	for i := 0; i < trials; i++ {
		agreed, residual, err := runTrial(params, seed, uint64(i))
		if err != nil {
			return nil, errors.Wrapf(err, "trial %d", i)
		}
		if agreed {
			rep.Agreements++
		}
		for _, c := range ring.Centered(residual) {
			rep.Residuals = append(rep.Residuals, float64(c))
		}
	}
	rep.Rate = float64(rep.Agreements) / float64(trials)

	if err := rep.summarize(); err != nil {
		return nil, err
	}
	return rep, nil
}

func runTrial(params latticelite.Params, seed []byte, i uint64) (bool, latticelite.Poly, error) {
	keySeed := utils.DeriveSeed(DomainTrialKeyGen, seed, i)
	encSeed := utils.DeriveSeed(DomainTrialEncaps, seed, i)
	defer utils.Zeroize(keySeed)
	defer utils.Zeroize(encSeed)

	kp, err := kem.GenerateKeyPairFromSeed(params, keySeed)
	if err != nil {
		return false, latticelite.Poly{}, err
	}
	res, err := kem.EncapsulateDeterministic(params, &kp.PublicKey, encSeed)
	if err != nil {
		return false, latticelite.Poly{}, err
	}
	ss, err := kem.Decapsulate(params, &res.Ciphertext, &kp.PrivateKey)
	if err != nil {
		return false, latticelite.Poly{}, err
	}
	t := ring.Sub(res.Ciphertext.V, ring.Mul(res.Ciphertext.U, kp.PrivateKey.S))
	return bytes.Equal(ss, res.SharedSecret), ring.Sub(t, res.Ciphertext.V), nil
}

func (r *Report) summarize() error {
	data := stats.Float64Data(r.Residuals)
	var err error
	if r.ResidualMean, err = data.Mean(); err != nil {
		return errors.Wrap(err, "residual mean")
	}
	if r.ResidualStdDev, err = data.StandardDeviation(); err != nil {
		return errors.Wrap(err, "residual stddev")
	}

	abs := make(stats.Float64Data, len(data))
	for i, v := range data {
		abs[i] = math.Abs(v)
	}
	if r.ResidualMaxAbs, err = abs.Max(); err != nil {
		return errors.Wrap(err, "residual max")
	}
	if r.ResidualP95, err = abs.Percentile(95); err != nil {
		return errors.Wrap(err, "residual p95")
	}
	return nil
}
