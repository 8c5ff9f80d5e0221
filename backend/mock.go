package backend

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/zkaccess/zkpass/circuit"
	"github.com/zkaccess/zkpass/shared"
)

// Mock computes the claim directly and produces receipts without evidence.
//
// Verify is the identity on the Journal: it only fails for receipts of the
// wrong kind and never returns shared.ErrVerificationRejected. A receipt
// accepted by Mock proves nothing about the password.
type Mock struct {
	logger *zap.Logger
}

func NewMock(opts ...OptionFunc) (*Mock, error) {
	options, err := applyOpts(opts...)
	if err != nil {
		return nil, err
	}
	return &Mock{logger: options.logger}, nil
}

func (m *Mock) Mode() shared.Mode { return shared.ModeMock }

func (m *Mock) Prove(ctx context.Context, in shared.Input) (*shared.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrProveFailed, err)
	}
	return shared.NewAssertedReceipt(circuit.Commit(in)), nil
}

func (m *Mock) Verify(_ context.Context, receipt *shared.Receipt) (*shared.Journal, error) {
	if receipt.Kind != shared.KindAsserted {
		return nil, fmt.Errorf("%w: mock backend cannot check a %v receipt", shared.ErrModeMismatch, receipt.Kind)
	}
	if err := receipt.Validate(); err != nil {
		return nil, err
	}

	m.logger.Warn("accepting receipt without cryptographic verification", zap.Object("journal", receipt.Journal))
	j := shared.NewJournal(receipt.Journal.Commitment, receipt.Journal.Nonce)
	return &j, nil
}
