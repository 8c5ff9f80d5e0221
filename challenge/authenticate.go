package challenge

import (
	"context"
	"crypto/subtle"

	"github.com/zkaccess/zkpass/shared"
)

// Authenticate completes a login: it consumes challenge id with the nonce of
// a verified journal and checks that the journal's commitment is the one
// enrolled for the subject. The challenge is consumed even when the
// commitment does not match, so a nonce can back a single attempt only.
func Authenticate(ctx context.Context, store *Store, id string, expected [shared.CommitmentSize]byte, journal *shared.Journal) error {
	if err := store.Consume(ctx, id, journal.Nonce); err != nil {
		return err
	}
	if subtle.ConstantTimeCompare(expected[:], journal.Commitment[:]) != 1 {
		return ErrCommitmentMismatch
	}
	return nil
}
