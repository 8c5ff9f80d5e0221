package snark

import (
	"bytes"
	"fmt"

	"github.com/zkaccess/zkpass/shared"
)

// evidence is the opaque payload of a proven receipt.
// Public holds the proof's public inputs: commitment followed by nonce.
type evidence struct {
	_       struct{} `cbor:",toarray"`
	Circuit string
	Curve   string
	Proof   []byte
	Public  []byte
}

func (e *evidence) marshal() ([]byte, error) {
	return shared.EncMode().Marshal(e)
}

// unmarshalEvidence only accepts the canonical encoding, so that any altered
// byte either fails here or changes a field that is checked later.
func unmarshalEvidence(data []byte) (*evidence, error) {
	var e evidence
	if err := shared.DecMode().Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvidence, err)
	}
	canonical, err := e.marshal()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvidence, err)
	}
	if !bytes.Equal(canonical, data) {
		return nil, fmt.Errorf("%w: non-canonical encoding", ErrInvalidEvidence)
	}
	return &e, nil
}
