package circuit

import (
	"fmt"

	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash/sha2"
	"github.com/consensys/gnark/std/math/uints"
	"github.com/consensys/gnark/std/rangecheck"

	"github.com/zkaccess/zkpass/shared"
)

// CommitCircuit proves knowledge of a preimage whose SHA-256 digest is
// Commitment. Nonce is not hashed: it is bound to the proof by being a
// public input.
type CommitCircuit struct {
	Preimage   []uints.U8
	Commitment [shared.CommitmentSize]uints.U8 `gnark:",public"`
	Nonce      []uints.U8                      `gnark:",public"`
}

// NewCircuit returns the compile-time placeholder of the circuit for shape.
func NewCircuit(shape Shape) *CommitCircuit {
	return &CommitCircuit{
		Preimage: make([]uints.U8, shape.PreimageLen),
		Nonce:    make([]uints.U8, shape.NonceLen),
	}
}

func (c *CommitCircuit) Define(api frontend.API) error {
	rc := rangecheck.New(api)
	for i := range c.Preimage {
		rc.Check(c.Preimage[i].Val, 8)
	}
	for i := range c.Nonce {
		rc.Check(c.Nonce[i].Val, 8)
	}

	uapi, err := uints.New[uints.U32](api)
	if err != nil {
		return err
	}
	h, err := sha2.New(api)
	if err != nil {
		return err
	}
	h.Write(c.Preimage)
	sum := h.Sum()
	if len(sum) != len(c.Commitment) {
		return fmt.Errorf("digest is %d bytes, expected %d", len(sum), len(c.Commitment))
	}
	for i := range c.Commitment {
		uapi.ByteAssertEq(c.Commitment[i], sum[i])
	}
	return nil
}

// Assign builds the full witness assignment for in.
func Assign(in shared.Input) (*CommitCircuit, error) {
	if _, err := ShapeOf(in); err != nil {
		return nil, err
	}

	preimage := make([]byte, 0, in.PreimageLen())
	preimage = append(preimage, in.Salt...)
	preimage = append(preimage, in.Password...)

	j := Commit(in)
	c := &CommitCircuit{
		Preimage: uints.NewU8Array(preimage),
		Nonce:    uints.NewU8Array(j.Nonce),
	}
	copy(c.Commitment[:], uints.NewU8Array(j.Commitment[:]))
	return c, nil
}

// PublicAssignment builds the assignment used for a public-only witness of j.
// The preimage is zero-filled to the shape's length and ignored by the
// public witness.
func PublicAssignment(j shared.Journal, shape Shape) *CommitCircuit {
	c := &CommitCircuit{
		Preimage: uints.NewU8Array(make([]byte, shape.PreimageLen)),
		Nonce:    uints.NewU8Array(j.Nonce),
	}
	copy(c.Commitment[:], uints.NewU8Array(j.Commitment[:]))
	return c
}
