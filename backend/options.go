package backend

import (
	"errors"

	"go.uber.org/zap"
)

type option struct {
	program string
	logger  *zap.Logger
}

func (o *option) validate() error {
	if o.program == "" {
		return errors.New("`program` is required")
	}
	return nil
}

type OptionFunc func(*option) error

func applyOpts(opts ...OptionFunc) (*option, error) {
	options := &option{
		program: DefaultProgram,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}
	if err := options.validate(); err != nil {
		return nil, err
	}
	return options, nil
}

// WithProgram sets the program identifier circuits are registered under.
func WithProgram(program string) OptionFunc {
	return func(opts *option) error {
		opts.program = program
		return nil
	}
}

func WithLogger(logger *zap.Logger) OptionFunc {
	return func(opts *option) error {
		opts.logger = logger
		return nil
	}
}
