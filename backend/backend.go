// Package backend runs the commitment circuit and checks its receipts.
//
// Two variants share one contract. Real delegates to a Substrate that
// produces and checks cryptographic evidence. Mock recomputes the claim
// directly and trusts it: it offers no soundness and must only be used
// where the prover is trusted.
package backend

import (
	"context"

	"github.com/zkaccess/zkpass/shared"
)

// DefaultProgram is the program identifier circuits are registered under.
const DefaultProgram = "zkpass-commit-v1"

type Backend interface {
	Mode() shared.Mode
	Prove(ctx context.Context, in shared.Input) (*shared.Receipt, error)
	Verify(ctx context.Context, receipt *shared.Receipt) (*shared.Journal, error)
}

// Substrate is the verifiable computation capability behind the Real backend.
//
// Verify must derive the Journal from the evidence alone; it never trusts a
// Journal supplied next to it.
type Substrate interface {
	Prove(ctx context.Context, program string, in shared.Input) ([]byte, shared.Journal, error)
	Verify(ctx context.Context, program string, evidence []byte) (shared.Journal, error)
}
