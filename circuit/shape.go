package circuit

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zkaccess/zkpass/shared"
)

const (
	// MaxPreimageLen bounds salt plus password; in-circuit hashing cost grows with every 64-byte block.
	MaxPreimageLen = 512
	// MaxNonceLen bounds the challenge nonce carried as public input.
	MaxNonceLen = 64
)

// Shape identifies the constraint system of a length class.
type Shape struct {
	PreimageLen int
	NonceLen    int
}

// ShapeOf returns the shape of the circuit proving in.
func ShapeOf(in shared.Input) (Shape, error) {
	s := Shape{PreimageLen: in.PreimageLen(), NonceLen: len(in.Nonce)}
	return s, s.Validate()
}

func (s Shape) Validate() error {
	if s.PreimageLen < 0 || s.PreimageLen > MaxPreimageLen {
		return fmt.Errorf("invalid `preimage length`; expected: 0-%d, given: %d", MaxPreimageLen, s.PreimageLen)
	}
	if s.NonceLen < 0 || s.NonceLen > MaxNonceLen {
		return fmt.Errorf("invalid `nonce length`; expected: 0-%d, given: %d", MaxNonceLen, s.NonceLen)
	}
	return nil
}

// ID renders the circuit identity "<program>/p<preimage>/n<nonce>".
func (s Shape) ID(program string) string {
	return fmt.Sprintf("%s/p%d/n%d", program, s.PreimageLen, s.NonceLen)
}

// ParseID parses a circuit identity rendered by Shape.ID. It only accepts the
// canonical rendering for the given program.
func ParseID(program, id string) (Shape, error) {
	parts := strings.Split(id, "/")
	if len(parts) != 3 {
		return Shape{}, fmt.Errorf("circuit id %q: expected 3 segments", id)
	}
	if parts[0] != program {
		return Shape{}, fmt.Errorf("circuit id %q: program mismatch; expected: %q, found: %q", id, program, parts[0])
	}

	p, err := parseSegment(parts[1], "p")
	if err != nil {
		return Shape{}, fmt.Errorf("circuit id %q: %w", id, err)
	}
	n, err := parseSegment(parts[2], "n")
	if err != nil {
		return Shape{}, fmt.Errorf("circuit id %q: %w", id, err)
	}

	s := Shape{PreimageLen: p, NonceLen: n}
	if err := s.Validate(); err != nil {
		return Shape{}, fmt.Errorf("circuit id %q: %w", id, err)
	}
	if s.ID(program) != id {
		return Shape{}, fmt.Errorf("circuit id %q is not canonical", id)
	}
	return s, nil
}

func parseSegment(seg, prefix string) (int, error) {
	if !strings.HasPrefix(seg, prefix) {
		return 0, fmt.Errorf("segment %q: missing %q prefix", seg, prefix)
	}
	v, err := strconv.Atoi(seg[len(prefix):])
	if err != nil {
		return 0, fmt.Errorf("segment %q: %w", seg, err)
	}
	return v, nil
}

func errPublicLength(given, expected int) error {
	return fmt.Errorf("public inputs are %d bytes, expected %d", given, expected)
}
