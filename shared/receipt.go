package shared

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Mode selects the backend variant.
type Mode string

const (
	ModeReal Mode = "real"
	ModeMock Mode = "mock"
)

func (m Mode) Validate() error {
	switch m {
	case ModeReal, ModeMock:
		return nil
	default:
		return fmt.Errorf("invalid `mode`; expected: %q or %q, given: %q", ModeReal, ModeMock, string(m))
	}
}

// Kind returns the receipt kind a backend in mode m produces.
func (m Mode) Kind() Kind {
	if m == ModeMock {
		return KindAsserted
	}
	return KindProven
}

// Kind tags a Receipt as carrying cryptographic evidence or not.
type Kind uint8

const (
	// KindProven receipts carry substrate evidence.
	KindProven Kind = iota + 1
	// KindAsserted receipts are produced by the mock backend and carry none.
	KindAsserted
)

func (k Kind) String() string {
	switch k {
	case KindProven:
		return "proven"
	case KindAsserted:
		return "asserted"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Receipt is the transportable artifact handed from prover to verifier.
type Receipt struct {
	Kind     Kind
	Evidence []byte
	Journal  Journal
}

func NewProvenReceipt(evidence []byte, journal Journal) *Receipt {
	return &Receipt{Kind: KindProven, Evidence: evidence, Journal: journal}
}

func NewAssertedReceipt(journal Journal) *Receipt {
	return &Receipt{Kind: KindAsserted, Journal: journal}
}

// Validate checks the structural rules of the tagged union.
func (r *Receipt) Validate() error {
	switch r.Kind {
	case KindProven:
		if len(r.Evidence) == 0 {
			return fmt.Errorf("%w: proven receipt without evidence", ErrMalformedReceipt)
		}
	case KindAsserted:
		if r.Evidence != nil {
			return fmt.Errorf("%w: asserted receipt carries evidence", ErrMalformedReceipt)
		}
	default:
		return fmt.Errorf("%w: unknown kind %v", ErrMalformedReceipt, r.Kind)
	}
	return nil
}

type wireJournal struct {
	Commitment []byte `cbor:"1,keyasint"`
	Nonce      []byte `cbor:"2,keyasint"`
}

type wireReceipt struct {
	Kind     Kind        `cbor:"1,keyasint"`
	Evidence []byte      `cbor:"2,keyasint,omitempty"`
	Journal  wireJournal `cbor:"3,keyasint"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	decMode, err = cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyEnforcedAPF,
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
		IndefLength:       cbor.IndefLengthForbidden,
	}.DecMode()
	if err != nil {
		panic(err)
	}
}

// EncMode is the deterministic CBOR encoding shared by every wire format of the module.
func EncMode() cbor.EncMode { return encMode }

// DecMode is the strict CBOR decoding shared by every wire format of the module.
func DecMode() cbor.DecMode { return decMode }

func (r *Receipt) MarshalBinary() ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	nonce := r.Journal.Nonce
	if nonce == nil {
		nonce = []byte{}
	}
	return encMode.Marshal(wireReceipt{
		Kind:     r.Kind,
		Evidence: r.Evidence,
		Journal: wireJournal{
			Commitment: r.Journal.Commitment[:],
			Nonce:      nonce,
		},
	})
}

func (r *Receipt) UnmarshalBinary(data []byte) error {
	var w wireReceipt
	if err := decMode.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedReceipt, err)
	}
	if len(w.Journal.Commitment) != CommitmentSize {
		return fmt.Errorf("%w: commitment is %d bytes, expected %d", ErrMalformedReceipt, len(w.Journal.Commitment), CommitmentSize)
	}
	if w.Journal.Nonce == nil {
		w.Journal.Nonce = []byte{}
	}

	decoded := Receipt{
		Kind:     w.Kind,
		Evidence: w.Evidence,
		Journal: Journal{
			Commitment: [CommitmentSize]byte(w.Journal.Commitment),
			Nonce:      w.Journal.Nonce,
		},
	}
	if err := decoded.Validate(); err != nil {
		return err
	}
	*r = decoded
	return nil
}

// EncodeString returns the transport form of the receipt: standard base64 of its CBOR encoding.
func (r *Receipt) EncodeString() (string, error) {
	data, err := r.MarshalBinary()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// DecodeReceiptString parses the transport form produced by EncodeString.
func DecodeReceiptString(s string) (*Receipt, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, &EncodingError{Field: "receipt", Err: err}
	}
	if len(data) == 0 {
		return nil, &EncodingError{Field: "receipt", Err: errors.New("empty")}
	}

	r := &Receipt{}
	if err := r.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return r, nil
}
