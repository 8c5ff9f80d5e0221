package circuit

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zkaccess/zkpass/shared"
)

func TestShape_ID(t *testing.T) {
	r := require.New(t)

	shape, err := ShapeOf(shared.Input{Salt: []byte{0xab, 0xcd}, Password: []byte("secret"), Nonce: []byte{1, 2}})
	r.NoError(err)
	r.Equal(Shape{PreimageLen: 8, NonceLen: 2}, shape)
	r.Equal("zkpass-commit-v1/p8/n2", shape.ID("zkpass-commit-v1"))

	parsed, err := ParseID("zkpass-commit-v1", "zkpass-commit-v1/p8/n2")
	r.NoError(err)
	r.Equal(shape, parsed)
}

func TestShapeOf_Limits(t *testing.T) {
	r := require.New(t)

	_, err := ShapeOf(shared.Input{Password: make([]byte, MaxPreimageLen+1)})
	r.EqualError(err, "invalid `preimage length`; expected: 0-512, given: 513")

	_, err = ShapeOf(shared.Input{Nonce: make([]byte, MaxNonceLen+1)})
	r.EqualError(err, "invalid `nonce length`; expected: 0-64, given: 65")

	_, err = ShapeOf(shared.Input{Password: make([]byte, MaxPreimageLen), Nonce: make([]byte, MaxNonceLen)})
	r.NoError(err)
}

func TestParseID_Invalid(t *testing.T) {
	r := require.New(t)

	for _, id := range []string{
		"",
		"zkpass-commit-v1",
		"zkpass-commit-v1/p8",
		"other/p8/n2",
		"zkpass-commit-v1/p8/n2/x",
		"zkpass-commit-v1/8/n2",
		"zkpass-commit-v1/p8/2",
		"zkpass-commit-v1/px/n2",
		"zkpass-commit-v1/p08/n2",
		"zkpass-commit-v1/p+8/n2",
		"zkpass-commit-v1/p-1/n2",
		"zkpass-commit-v1/p8/n65",
	} {
		_, err := ParseID("zkpass-commit-v1", id)
		r.Error(err, id)
	}
}
