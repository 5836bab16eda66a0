// Package utils provides utility functions for lattice-lite.
// This file contains length and bound checks used before allocating or
// decoding anything whose size comes from outside the process.

package utils

import (
	"github.com/pkg/errors"
)

const (
	// MaxInputFileSize bounds key and ciphertext files read by the CLI.
	MaxInputFileSize = 1 << 20 // 1MB

	// MaxTrials bounds the number of agreement trials in a single run.
	MaxTrials = 1 << 20
)

var (
	// ErrExceedsLimit indicates a value exceeds the allowed limit.
	ErrExceedsLimit = errors.New("value exceeds allowed limit")

	// ErrInvalidLength indicates an invalid length value.
	ErrInvalidLength = errors.New("invalid length")
)

// CheckLength validates that length is within [0, maxAllowed].
func CheckLength(length, maxAllowed int) error {
	if length < 0 {
		return ErrInvalidLength
	}
	if length > maxAllowed {
		return ErrExceedsLimit
	}
	return nil
}

// CheckPositive validates that value is > 0.
func CheckPositive(value int, name string) error {
	if value <= 0 {
		return errors.New(name + " must be positive")
	}
	return nil
}
