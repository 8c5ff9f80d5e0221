package backend

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/zkaccess/zkpass/shared"
)

// Real proves with a Substrate and verifies by checking the substrate evidence.
type Real struct {
	substrate Substrate
	program   string
	logger    *zap.Logger
}

func NewReal(substrate Substrate, opts ...OptionFunc) (*Real, error) {
	if substrate == nil {
		return nil, errors.New("`substrate` is required")
	}
	options, err := applyOpts(opts...)
	if err != nil {
		return nil, err
	}
	return &Real{
		substrate: substrate,
		program:   options.program,
		logger:    options.logger,
	}, nil
}

func (r *Real) Mode() shared.Mode { return shared.ModeReal }

func (r *Real) Prove(ctx context.Context, in shared.Input) (*shared.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrProveFailed, err)
	}

	r.logger.Debug("proving", zap.String("program", r.program), zap.Object("input", in))
	evidence, journal, err := r.substrate.Prove(ctx, r.program, in)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrProveFailed, err)
	}
	if len(evidence) == 0 {
		return nil, fmt.Errorf("%w: substrate returned no evidence", shared.ErrProveFailed)
	}
	return shared.NewProvenReceipt(evidence, journal), nil
}

func (r *Real) Verify(ctx context.Context, receipt *shared.Receipt) (*shared.Journal, error) {
	if receipt.Kind != shared.KindProven {
		return nil, &shared.RejectedError{
			Reason: fmt.Sprintf("%v receipt carries no evidence", receipt.Kind),
			Err:    shared.ErrModeMismatch,
		}
	}
	if err := receipt.Validate(); err != nil {
		return nil, err
	}

	derived, err := r.substrate.Verify(ctx, r.program, receipt.Evidence)
	if err != nil {
		return nil, &shared.RejectedError{Reason: "evidence did not verify", Err: err}
	}
	if !derived.Equal(receipt.Journal) {
		return nil, &shared.RejectedError{Reason: "journal does not match the evidence"}
	}

	r.logger.Debug("receipt verified", zap.Object("journal", derived))
	return &derived, nil
}
