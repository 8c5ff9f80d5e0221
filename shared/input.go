package shared

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"go.uber.org/zap/zapcore"
)

// CommitmentSize is the size of a commitment in bytes (SHA-256 digest).
const CommitmentSize = 32

// Input is the private input of the commitment circuit.
// Salt and Password must never leave the prover: String, GoString and
// MarshalLogObject only report their lengths.
type Input struct {
	Salt     []byte
	Password []byte
	Nonce    []byte
}

func (in Input) String() string {
	return fmt.Sprintf("Input{salt: %d bytes, password: <redacted>, nonce: %d bytes}", len(in.Salt), len(in.Nonce))
}

func (in Input) GoString() string { return in.String() }

func (in Input) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddInt("salt_len", len(in.Salt))
	enc.AddInt("password_len", len(in.Password))
	enc.AddInt("nonce_len", len(in.Nonce))
	return nil
}

// PreimageLen is the length of the hashed preimage (salt followed by password).
func (in Input) PreimageLen() int {
	return len(in.Salt) + len(in.Password)
}

// Journal is the public claim produced by the commitment circuit.
type Journal struct {
	Commitment [CommitmentSize]byte
	Nonce      []byte
}

// NewJournal builds a Journal that does not alias nonce.
func NewJournal(commitment [CommitmentSize]byte, nonce []byte) Journal {
	return Journal{
		Commitment: commitment,
		Nonce:      append([]byte{}, nonce...),
	}
}

func (j Journal) Equal(other Journal) bool {
	return j.Commitment == other.Commitment && bytes.Equal(j.Nonce, other.Nonce)
}

func (j Journal) View() JournalView {
	return JournalView{
		CommitmentHex: hex.EncodeToString(j.Commitment[:]),
		NonceHex:      hex.EncodeToString(j.Nonce),
	}
}

func (j Journal) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("commitment", hex.EncodeToString(j.Commitment[:]))
	enc.AddString("nonce", hex.EncodeToString(j.Nonce))
	return nil
}

// JournalView is the text-safe projection of a Journal.
type JournalView struct {
	CommitmentHex string `json:"commitment_hex"`
	NonceHex      string `json:"nonce_hex"`
}

// DecodeHex decodes a hex field, reporting failures as *EncodingError.
func DecodeHex(field, s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, &EncodingError{Field: field, Err: err}
	}
	return b, nil
}
