// Package verifying checks encoded receipts and extracts their public claim.
package verifying

import (
	"bytes"
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/zkaccess/zkpass/shared"
)

var ErrNoBackend = errors.New("`backend` is required")

// Verify decodes a base64 receipt and verifies it with the configured backend.
// On any failure no journal is returned.
func Verify(ctx context.Context, encoded string, opts ...OptionFunc) (*shared.JournalView, error) {
	options := applyOpts(opts...)
	j, err := verify(ctx, encoded, options)
	if err != nil {
		return nil, err
	}
	view := j.View()
	return &view, nil
}

// VerifyReceipt verifies an already decoded receipt.
func VerifyReceipt(ctx context.Context, receipt *shared.Receipt, opts ...OptionFunc) (*shared.Journal, error) {
	options := applyOpts(opts...)
	if options.backend == nil {
		return nil, ErrNoBackend
	}

	start := time.Now()
	j, err := verifyReceipt(ctx, receipt, options)
	options.metrics.ObserveVerify(options.backend.Mode(), err, time.Since(start))
	return j, err
}

// Result is the outcome of one receipt in VerifyAll.
type Result struct {
	Journal *shared.JournalView
	Err     error
}

// VerifyAll verifies independent receipts in parallel and returns their
// results in input order. A failing receipt does not affect the others.
func VerifyAll(ctx context.Context, encoded []string, opts ...OptionFunc) ([]Result, error) {
	options := applyOpts(opts...)
	if options.backend == nil {
		return nil, ErrNoBackend
	}

	results := make([]Result, len(encoded))
	var eg errgroup.Group
	eg.SetLimit(options.concurrency)
	for i, e := range encoded {
		i, e := i, e
		eg.Go(func() error {
			j, err := verify(ctx, e, options)
			if err != nil {
				results[i] = Result{Err: err}
				return nil
			}
			view := j.View()
			results[i] = Result{Journal: &view}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, ctx.Err()
}

func verify(ctx context.Context, encoded string, options *option) (*shared.Journal, error) {
	if options.backend == nil {
		return nil, ErrNoBackend
	}

	start := time.Now()
	j, err := decodeAndVerify(ctx, encoded, options)
	options.metrics.ObserveVerify(options.backend.Mode(), err, time.Since(start))
	return j, err
}

func decodeAndVerify(ctx context.Context, encoded string, options *option) (*shared.Journal, error) {
	receipt, err := shared.DecodeReceiptString(encoded)
	if err != nil {
		options.logger.Info("verifying: malformed receipt", zap.Error(err))
		return nil, err
	}
	return verifyReceipt(ctx, receipt, options)
}

func verifyReceipt(ctx context.Context, receipt *shared.Receipt, options *option) (*shared.Journal, error) {
	logger := options.logger.With(zap.String("mode", string(options.backend.Mode())), zap.Stringer("kind", receipt.Kind))

	j, err := options.backend.Verify(ctx, receipt)
	if err != nil {
		logger.Info("verifying: receipt rejected", zap.Error(err))
		return nil, err
	}

	if options.expectedNonce != nil && !bytes.Equal(j.Nonce, options.expectedNonce) {
		err := &shared.RejectedError{Reason: "unexpected nonce", Err: shared.ErrNonceMismatch}
		logger.Info("verifying: receipt rejected", zap.Error(err))
		return nil, err
	}

	logger.Info("verifying: receipt accepted", zap.Object("journal", j))
	return j, nil
}
