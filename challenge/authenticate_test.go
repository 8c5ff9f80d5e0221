package challenge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zkaccess/zkpass/backend"
	"github.com/zkaccess/zkpass/backend/backendtest"
	"github.com/zkaccess/zkpass/circuit"
	"github.com/zkaccess/zkpass/proving"
	"github.com/zkaccess/zkpass/shared"
	"github.com/zkaccess/zkpass/verifying"
)

func TestAuthenticate(t *testing.T) {
	r := require.New(t)
	ctx := context.Background()
	s := openStore(t)

	// Enrollment.
	salt, err := RandomSalt(16)
	r.NoError(err)
	enrolled := circuit.Commit(shared.Input{Salt: salt, Password: []byte("correct horse")}).Commitment

	b, err := backend.NewReal(backendtest.New([]byte("key")))
	r.NoError(err)

	login := func(password string) (*Challenge, *shared.Journal) {
		c, err := s.Issue(ctx, "frank")
		r.NoError(err)
		res, err := proving.GenerateInput(ctx, shared.Input{Salt: salt, Password: []byte(password), Nonce: c.Nonce}, proving.WithBackend(b))
		r.NoError(err)
		receipt, err := shared.DecodeReceiptString(res.Receipt)
		r.NoError(err)
		j, err := verifying.VerifyReceipt(ctx, receipt, verifying.WithBackend(b), verifying.WithExpectedNonce(c.Nonce))
		r.NoError(err)
		return c, j
	}

	c, j := login("correct horse")
	r.NoError(Authenticate(ctx, s, c.ID, enrolled, j))
	// Replay of the same receipt.
	r.ErrorIs(Authenticate(ctx, s, c.ID, enrolled, j), ErrChallengeConsumed)

	c, j = login("wrong horse")
	r.ErrorIs(Authenticate(ctx, s, c.ID, enrolled, j), ErrCommitmentMismatch)
	// The failed attempt used up the challenge.
	r.ErrorIs(Authenticate(ctx, s, c.ID, enrolled, j), ErrChallengeConsumed)

	// A receipt bound to another challenge's nonce.
	other, err := s.Issue(ctx, "frank")
	r.NoError(err)
	_, j = login("correct horse")
	r.ErrorIs(Authenticate(ctx, s, other.ID, enrolled, j), ErrChallengeMismatch)
}
