package shared

import (
	"bytes"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func testJournal() Journal {
	var c [CommitmentSize]byte
	for i := range c {
		c[i] = byte(i)
	}
	return NewJournal(c, []byte{0x01, 0x02})
}

func TestReceipt_Encode_Decode(t *testing.T) {
	for _, base := range []*Receipt{
		NewProvenReceipt([]byte{0xde, 0xad, 0xbe, 0xef}, testJournal()),
		NewAssertedReceipt(testJournal()),
		NewAssertedReceipt(NewJournal([CommitmentSize]byte{}, nil)),
	} {
		t.Run(base.Kind.String(), func(t *testing.T) {
			r := require.New(t)

			encoded, err := base.EncodeString()
			r.NoError(err)

			decoded, err := DecodeReceiptString(encoded)
			r.NoError(err)
			r.Equal(base, decoded)

			// deterministic
			again, err := decoded.EncodeString()
			r.NoError(err)
			r.Equal(encoded, again)
		})
	}
}

func TestReceipt_KindsDistinguishable(t *testing.T) {
	r := require.New(t)

	proven, err := NewProvenReceipt([]byte{1}, testJournal()).EncodeString()
	r.NoError(err)
	asserted, err := NewAssertedReceipt(testJournal()).EncodeString()
	r.NoError(err)
	r.NotEqual(proven, asserted)

	p, err := DecodeReceiptString(proven)
	r.NoError(err)
	a, err := DecodeReceiptString(asserted)
	r.NoError(err)

	r.Equal(KindProven, p.Kind)
	r.NotEmpty(p.Evidence)
	r.Equal(KindAsserted, a.Kind)
	r.Nil(a.Evidence)
}

func TestReceipt_Validate(t *testing.T) {
	r := require.New(t)

	r.ErrorIs((&Receipt{Kind: KindProven, Journal: testJournal()}).Validate(), ErrMalformedReceipt)
	r.ErrorIs((&Receipt{Kind: KindAsserted, Evidence: []byte{}, Journal: testJournal()}).Validate(), ErrMalformedReceipt)
	r.ErrorIs((&Receipt{Kind: 0, Journal: testJournal()}).Validate(), ErrMalformedReceipt)
	r.ErrorIs((&Receipt{Kind: 7, Journal: testJournal()}).Validate(), ErrMalformedReceipt)

	_, err := (&Receipt{Kind: KindProven, Journal: testJournal()}).EncodeString()
	r.ErrorIs(err, ErrMalformedReceipt)
}

func TestDecodeReceiptString_MalformedEncoding(t *testing.T) {
	r := require.New(t)

	for _, s := range []string{"not base64!", "QUJD=", ""} {
		_, err := DecodeReceiptString(s)
		r.ErrorIs(err, ErrMalformedEncoding, s)
		r.False(errors.Is(err, ErrMalformedReceipt))

		var encErr *EncodingError
		r.ErrorAs(err, &encErr)
		r.Equal("receipt", encErr.Field)
	}
}

func TestDecodeReceiptString_MalformedReceipt(t *testing.T) {
	r := require.New(t)

	valid, err := NewAssertedReceipt(testJournal()).MarshalBinary()
	r.NoError(err)

	shortCommitment, err := encMode.Marshal(wireReceipt{
		Kind:    KindAsserted,
		Journal: wireJournal{Commitment: make([]byte, 31), Nonce: []byte{1}},
	})
	r.NoError(err)

	evidenceOnMock, err := encMode.Marshal(wireReceipt{
		Kind:     KindAsserted,
		Evidence: []byte{1},
		Journal:  wireJournal{Commitment: make([]byte, CommitmentSize), Nonce: []byte{1}},
	})
	r.NoError(err)

	unknownField, err := encMode.Marshal(map[int]any{
		1: uint8(KindAsserted),
		3: map[int][]byte{1: make([]byte, CommitmentSize), 2: {1}},
		9: "extra",
	})
	r.NoError(err)

	for name, data := range map[string][]byte{
		"garbage":          []byte("definitely not cbor"),
		"trailing bytes":   append(bytes.Clone(valid), 0x00),
		"truncated":        valid[:len(valid)-1],
		"short commitment": shortCommitment,
		"evidence on mock": evidenceOnMock,
		"unknown field":    unknownField,
	} {
		_, err := DecodeReceiptString(base64.StdEncoding.EncodeToString(data))
		r.ErrorIs(err, ErrMalformedReceipt, name)
		r.False(errors.Is(err, ErrVerificationRejected), name)
	}
}

func TestMode_Validate(t *testing.T) {
	r := require.New(t)

	r.NoError(ModeReal.Validate())
	r.NoError(ModeMock.Validate())
	r.EqualError(Mode("fake").Validate(), "invalid `mode`; expected: \"real\" or \"mock\", given: \"fake\"")

	r.Equal(KindProven, ModeReal.Kind())
	r.Equal(KindAsserted, ModeMock.Kind())
}

func FuzzReceiptDecodeSafety(f *testing.F) {
	proven, _ := NewProvenReceipt([]byte{1, 2, 3}, testJournal()).MarshalBinary()
	asserted, _ := NewAssertedReceipt(testJournal()).MarshalBinary()
	f.Add(proven)
	f.Add(asserted)
	f.Add([]byte{})

	f.Fuzz(func(t *testing.T, data []byte) {
		var rc Receipt
		if err := rc.UnmarshalBinary(data); err != nil {
			require.ErrorIs(t, err, ErrMalformedReceipt)
			return
		}
		encoded, err := rc.MarshalBinary()
		require.NoError(t, err)

		var again Receipt
		require.NoError(t, again.UnmarshalBinary(encoded))
		require.Equal(t, rc, again)
	})
}
