package verifying

import (
	"runtime"

	"go.uber.org/zap"

	"github.com/zkaccess/zkpass/backend"
	"github.com/zkaccess/zkpass/metrics"
)

type option struct {
	backend backend.Backend
	logger  *zap.Logger
	metrics *metrics.Metrics
	// maximum number of receipts verified in parallel by VerifyAll
	concurrency int
	// when set, the verified nonce must equal it
	expectedNonce []byte
}

func applyOpts(options ...OptionFunc) *option {
	opts := &option{
		logger:      zap.NewNop(),
		concurrency: runtime.NumCPU(),
	}
	for _, opt := range options {
		opt(opts)
	}
	return opts
}

type OptionFunc func(*option)

func WithBackend(b backend.Backend) OptionFunc {
	return func(o *option) {
		o.backend = b
	}
}

func WithLogger(logger *zap.Logger) OptionFunc {
	return func(o *option) {
		o.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) OptionFunc {
	return func(o *option) {
		o.metrics = m
	}
}

func WithConcurrency(n int) OptionFunc {
	return func(o *option) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithExpectedNonce rejects receipts whose verified nonce is not nonce.
func WithExpectedNonce(nonce []byte) OptionFunc {
	return func(o *option) {
		o.expectedNonce = append([]byte{}, nonce...)
	}
}
