package challenge

import (
	"errors"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultTTL       = 120 * time.Second
	DefaultNonceSize = 16
)

type option struct {
	ttl       time.Duration
	nonceSize int
	inMemory  bool
	logger    *zap.Logger
	now       func() time.Time
}

func (o *option) validate() error {
	if o.ttl <= 0 {
		return errors.New("`ttl` must be greater than 0")
	}
	if o.nonceSize <= 0 {
		return errors.New("`nonceSize` must be greater than 0")
	}
	return nil
}

type OptionFunc func(*option) error

func WithTTL(ttl time.Duration) OptionFunc {
	return func(o *option) error {
		o.ttl = ttl
		return nil
	}
}

func WithNonceSize(n int) OptionFunc {
	return func(o *option) error {
		o.nonceSize = n
		return nil
	}
}

// WithInMemory keeps challenges in memory only; the directory passed to Open is ignored.
func WithInMemory() OptionFunc {
	return func(o *option) error {
		o.inMemory = true
		return nil
	}
}

func WithLogger(logger *zap.Logger) OptionFunc {
	return func(o *option) error {
		o.logger = logger
		return nil
	}
}

func withClock(now func() time.Time) OptionFunc {
	return func(o *option) error {
		o.now = now
		return nil
	}
}
