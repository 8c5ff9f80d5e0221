package snark

import (
	"errors"

	"go.uber.org/zap"
)

type option struct {
	keysDir       string
	curve         string
	minFreeMemory uint64
	setupOnDemand bool
	logger        *zap.Logger
}

func (o *option) validate() error {
	if o.keysDir == "" {
		return errors.New("`keysDir` is required")
	}
	if _, err := ParseCurve(o.curve); err != nil {
		return err
	}
	return nil
}

type OptionFunc func(*option) error

// WithKeysDir sets the directory holding circuit keys.
func WithKeysDir(dir string) OptionFunc {
	return func(opts *option) error {
		opts.keysDir = dir
		return nil
	}
}

func WithCurve(curve string) OptionFunc {
	return func(opts *option) error {
		opts.curve = curve
		return nil
	}
}

// WithMinFreeMemory sets the amount of available memory, in bytes, required
// before proving starts. 0 disables the check.
func WithMinFreeMemory(bytes uint64) OptionFunc {
	return func(opts *option) error {
		opts.minFreeMemory = bytes
		return nil
	}
}

// WithSetupOnDemand allows Prove to run the Groth16 setup for a circuit whose
// keys are not in the keys directory. Verify never runs a setup.
func WithSetupOnDemand(enabled bool) OptionFunc {
	return func(opts *option) error {
		opts.setupOnDemand = enabled
		return nil
	}
}

func WithLogger(logger *zap.Logger) OptionFunc {
	return func(opts *option) error {
		opts.logger = logger
		return nil
	}
}
