// Package backendtest provides a deterministic Substrate for exercising the
// Real backend without running a proving system.
package backendtest

import (
	"context"
	"crypto/hmac"
	"errors"
	"fmt"

	"github.com/spacemeshos/sha256-simd"

	"github.com/zkaccess/zkpass/circuit"
	"github.com/zkaccess/zkpass/shared"
)

const macSize = sha256.Size

var ErrBadEvidence = errors.New("bad evidence")

// Substrate authenticates the encoded journal with HMAC-SHA256 under a fixed key.
// Evidence is the CBOR payload followed by its MAC, so any altered bit is detected.
type Substrate struct {
	key []byte

	// ProveErr, when set, is returned by every Prove call.
	ProveErr error
}

func New(key []byte) *Substrate {
	return &Substrate{key: append([]byte{}, key...)}
}

type payload struct {
	_          struct{} `cbor:",toarray"`
	Program    string
	Commitment []byte
	Nonce      []byte
}

func (s *Substrate) Prove(ctx context.Context, program string, in shared.Input) ([]byte, shared.Journal, error) {
	if s.ProveErr != nil {
		return nil, shared.Journal{}, s.ProveErr
	}
	if err := ctx.Err(); err != nil {
		return nil, shared.Journal{}, err
	}

	j := circuit.Commit(in)
	data, err := shared.EncMode().Marshal(payload{Program: program, Commitment: j.Commitment[:], Nonce: j.Nonce})
	if err != nil {
		return nil, shared.Journal{}, err
	}
	return append(data, s.mac(data)...), j, nil
}

func (s *Substrate) Verify(_ context.Context, program string, evidence []byte) (shared.Journal, error) {
	if len(evidence) <= macSize {
		return shared.Journal{}, fmt.Errorf("%w: too short", ErrBadEvidence)
	}
	data, tag := evidence[:len(evidence)-macSize], evidence[len(evidence)-macSize:]
	if !hmac.Equal(tag, s.mac(data)) {
		return shared.Journal{}, fmt.Errorf("%w: mac mismatch", ErrBadEvidence)
	}

	var p payload
	if err := shared.DecMode().Unmarshal(data, &p); err != nil {
		return shared.Journal{}, fmt.Errorf("%w: %v", ErrBadEvidence, err)
	}
	if p.Program != program {
		return shared.Journal{}, fmt.Errorf("%w: program %q, expected %q", ErrBadEvidence, p.Program, program)
	}
	if len(p.Commitment) != shared.CommitmentSize {
		return shared.Journal{}, fmt.Errorf("%w: commitment length %d", ErrBadEvidence, len(p.Commitment))
	}
	return shared.NewJournal([shared.CommitmentSize]byte(p.Commitment), p.Nonce), nil
}

func (s *Substrate) mac(data []byte) []byte {
	h := hmac.New(sha256.New, s.key)
	h.Write(data)
	return h.Sum(nil)
}
