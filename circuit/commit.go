// Package circuit holds the password commitment computation: a pure Go
// function used by the prover and the mock backend, and its arithmetic
// circuit form proven by the gnark substrate.
package circuit

import (
	"github.com/spacemeshos/sha256-simd"

	"github.com/zkaccess/zkpass/shared"
)

// Commit computes the public claim for in: SHA-256 over the salt followed by
// the password, with no separator, and a copy of the nonce.
func Commit(in shared.Input) shared.Journal {
	h := sha256.New()
	h.Write(in.Salt)
	h.Write(in.Password)

	var commitment [shared.CommitmentSize]byte
	h.Sum(commitment[:0])
	return shared.NewJournal(commitment, in.Nonce)
}

// PublicInputs returns the public inputs of the proof for j, commitment first.
func PublicInputs(j shared.Journal) []byte {
	out := make([]byte, 0, shared.CommitmentSize+len(j.Nonce))
	out = append(out, j.Commitment[:]...)
	return append(out, j.Nonce...)
}

// JournalFromPublicInputs is the inverse of PublicInputs for a known shape.
func JournalFromPublicInputs(public []byte, shape Shape) (shared.Journal, error) {
	if len(public) != shared.CommitmentSize+shape.NonceLen {
		return shared.Journal{}, errPublicLength(len(public), shared.CommitmentSize+shape.NonceLen)
	}
	return shared.NewJournal([shared.CommitmentSize]byte(public[:shared.CommitmentSize]), public[shared.CommitmentSize:]), nil
}
