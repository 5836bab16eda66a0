// Package core provides parameter sets and validation for lattice-lite.
package core

import (
	"github.com/pkg/errors"

	latticelite "github.com/BackendStack21/lattice-lite-go"
	"github.com/BackendStack21/lattice-lite-go/kdf"
)

// ErrUnknownLevel indicates a parameter set name with no preset.
var ErrUnknownLevel = errors.New("unknown parameter set")

// LITE16Params is the reference instance.
var LITE16Params = latticelite.Params{
	Set:        latticelite.LITE16,
	NoiseBound: latticelite.DefaultNoiseBound,
	Hash:       kdf.SHA256,
}

// LITE16LNParams trades (notional) hardness for smaller residuals.
var LITE16LNParams = latticelite.Params{
	Set:        latticelite.LITE16LN,
	NoiseBound: 1,
	Hash:       kdf.SHA256,
}

// LITE16S3Params is the reference instance with SHA3-256 key derivation.
var LITE16S3Params = latticelite.Params{
	Set:        latticelite.LITE16S3,
	NoiseBound: latticelite.DefaultNoiseBound,
	Hash:       kdf.SHA3_256,
}

// GetParams returns the parameter set for the given name.
func GetParams(set latticelite.ParamSet) (latticelite.Params, error) {
	switch set {
	case latticelite.LITE16:
		return LITE16Params, nil
	case latticelite.LITE16LN:
		return LITE16LNParams, nil
	case latticelite.LITE16S3:
		return LITE16S3Params, nil
	default:
		return latticelite.Params{}, errors.Wrapf(ErrUnknownLevel, "%q", set)
	}
}

// ParamSets lists the preset names.
func ParamSets() []latticelite.ParamSet {
	return []latticelite.ParamSet{latticelite.LITE16, latticelite.LITE16LN, latticelite.LITE16S3}
}

// ValidateParams validates the parameter set for consistency.
func ValidateParams(params latticelite.Params) error {
	if params.Set == "" {
		return errors.New("parameter set name must not be empty")
	}
	if params.NoiseBound < 0 {
		return errors.New("noise bound must not be negative")
	}
	if params.NoiseBound >= latticelite.Q/2 {
		return errors.Errorf("noise bound must be below Q/2 (%d)", latticelite.Q/2)
	}
	if _, err := kdf.Lookup(params.Hash); err != nil {
		return err
	}
	return nil
}
