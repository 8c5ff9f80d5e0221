// Package proving turns a salt, a password and a challenge nonce into an
// encoded receipt.
package proving

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/zkaccess/zkpass/backend"
	"github.com/zkaccess/zkpass/shared"
)

// Request is the textual input of Generate.
type Request struct {
	SaltHex  string
	NonceHex string
	Password string
}

// Result is the output of a successful Generate.
type Result struct {
	Receipt string             `json:"receipt_b64"`
	Journal shared.JournalView `json:"journal"`
	Mode    shared.Mode        `json:"-"`
}

// Generate decodes req and proves it. The password is used as its UTF-8 bytes.
func Generate(ctx context.Context, req Request, opts ...OptionFunc) (*Result, error) {
	salt, err := shared.DecodeHex("salt", req.SaltHex)
	if err != nil {
		return nil, err
	}
	nonce, err := shared.DecodeHex("nonce", req.NonceHex)
	if err != nil {
		return nil, err
	}
	return GenerateInput(ctx, shared.Input{Salt: salt, Password: []byte(req.Password), Nonce: nonce}, opts...)
}

// GenerateInput proves in and encodes the resulting receipt.
func GenerateInput(ctx context.Context, in shared.Input, opts ...OptionFunc) (*Result, error) {
	options, err := applyOpts(opts...)
	if err != nil {
		return nil, err
	}
	mode := options.backend.Mode()
	logger := options.logger.With(zap.String("mode", string(mode)))
	if options.subject != "" {
		logger = logger.With(zap.String("subject", options.subject))
	}

	logger.Info("proving: starting", zap.Object("input", in))
	start := time.Now()
	res, err := generate(ctx, in, options.backend)
	options.metrics.ObserveProve(mode, err, time.Since(start))
	if err != nil {
		logger.Error("proving: failed", zap.Error(err))
		return nil, err
	}

	logger.Info("proving: generated receipt",
		zap.String("commitment", res.Journal.CommitmentHex),
		zap.String("nonce", res.Journal.NonceHex),
		zap.Duration("duration", time.Since(start)),
	)
	return res, nil
}

func generate(ctx context.Context, in shared.Input, b backend.Backend) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrProveFailed, err)
	}

	receipt, err := b.Prove(ctx, in)
	if err != nil {
		if !errors.Is(err, shared.ErrProveFailed) {
			err = fmt.Errorf("%w: %w", shared.ErrProveFailed, err)
		}
		return nil, err
	}

	encoded, err := receipt.EncodeString()
	if err != nil {
		return nil, fmt.Errorf("%w: encoding receipt: %w", shared.ErrProveFailed, err)
	}
	return &Result{
		Receipt: encoded,
		Journal: receipt.Journal.View(),
		Mode:    b.Mode(),
	}, nil
}
