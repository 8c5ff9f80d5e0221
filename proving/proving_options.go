package proving

import (
	"errors"

	"go.uber.org/zap"

	"github.com/zkaccess/zkpass/backend"
	"github.com/zkaccess/zkpass/metrics"
)

type option struct {
	backend backend.Backend
	logger  *zap.Logger
	metrics *metrics.Metrics
	// Identifies the prover in logs only; never part of the receipt.
	subject string
}

func (o *option) validate() error {
	if o.backend == nil {
		return errors.New("`backend` is required")
	}
	return nil
}

type OptionFunc func(*option) error

func applyOpts(opts ...OptionFunc) (*option, error) {
	options := &option{
		logger: zap.NewNop(),
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

// WithBackend sets the backend that runs the commitment circuit.
func WithBackend(b backend.Backend) OptionFunc {
	return func(o *option) error {
		o.backend = b
		return nil
	}
}

func WithLogger(logger *zap.Logger) OptionFunc {
	return func(o *option) error {
		o.logger = logger
		return nil
	}
}

func WithMetrics(m *metrics.Metrics) OptionFunc {
	return func(o *option) error {
		o.metrics = m
		return nil
	}
}

// WithSubject sets a label for the prover, such as an email address, used in logs.
func WithSubject(subject string) OptionFunc {
	return func(o *option) error {
		o.subject = subject
		return nil
	}
}
