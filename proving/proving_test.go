package proving

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/zkaccess/zkpass/backend"
	"github.com/zkaccess/zkpass/backend/backendtest"
	"github.com/zkaccess/zkpass/metrics"
	"github.com/zkaccess/zkpass/shared"
)

const scenarioCommitment = "f6f1fa9c4e8950cb3b2c3ca85821c14ea1b4c95b20dc863601165768f6699434"

var scenario = Request{SaltHex: "abcd", NonceHex: "0102", Password: "secret"}

func backends(t *testing.T) map[string]backend.Backend {
	t.Helper()
	mock, err := backend.NewMock(backend.WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	rb, err := backend.NewReal(backendtest.New([]byte("key")), backend.WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	return map[string]backend.Backend{"mock": mock, "real": rb}
}

func TestGenerate(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			r := require.New(t)

			res, err := Generate(context.Background(), scenario, WithBackend(b), WithLogger(zaptest.NewLogger(t)), WithSubject("alice@example.com"))
			r.NoError(err)
			r.Equal(scenarioCommitment, res.Journal.CommitmentHex)
			r.Equal("0102", res.Journal.NonceHex)
			r.Equal(b.Mode(), res.Mode)

			receipt, err := shared.DecodeReceiptString(res.Receipt)
			r.NoError(err)
			r.Equal(b.Mode().Kind(), receipt.Kind)
		})
	}
}

func TestGenerate_JSON(t *testing.T) {
	r := require.New(t)

	res, err := Generate(context.Background(), scenario, WithBackend(backends(t)["mock"]))
	r.NoError(err)

	data, err := json.Marshal(res)
	r.NoError(err)

	var out map[string]any
	r.NoError(json.Unmarshal(data, &out))
	r.Len(out, 2)
	r.Equal(res.Receipt, out["receipt_b64"])
	r.Equal(map[string]any{"commitment_hex": scenarioCommitment, "nonce_hex": "0102"}, out["journal"])
}

func TestGenerate_ReceiptDoesNotLeakSecrets(t *testing.T) {
	r := require.New(t)

	for _, b := range backends(t) {
		res, err := Generate(context.Background(), Request{SaltHex: "abcd", NonceHex: "01", Password: "hunter2-correct-horse"}, WithBackend(b))
		r.NoError(err)

		receipt, err := shared.DecodeReceiptString(res.Receipt)
		r.NoError(err)
		data, err := receipt.MarshalBinary()
		r.NoError(err)
		r.NotContains(string(data), "hunter2-correct-horse")
	}
}

func TestGenerate_EmptyPassword(t *testing.T) {
	r := require.New(t)

	res, err := Generate(context.Background(), Request{SaltHex: "abcd", NonceHex: "01"}, WithBackend(backends(t)["real"]))
	r.NoError(err)
	r.Len(res.Journal.CommitmentHex, 64)
}

func TestGenerate_MalformedHex(t *testing.T) {
	r := require.New(t)
	b := backends(t)["mock"]

	_, err := Generate(context.Background(), Request{SaltHex: "abc", NonceHex: "0102", Password: "secret"}, WithBackend(b))
	r.ErrorIs(err, shared.ErrMalformedEncoding)
	var encErr *shared.EncodingError
	r.ErrorAs(err, &encErr)
	r.Equal("salt", encErr.Field)

	_, err = Generate(context.Background(), Request{SaltHex: "abcd", NonceHex: "xyz0", Password: "secret"}, WithBackend(b))
	r.ErrorAs(err, &encErr)
	r.Equal("nonce", encErr.Field)
}

func TestGenerate_BackendRequired(t *testing.T) {
	_, err := Generate(context.Background(), scenario)
	require.EqualError(t, err, "`backend` is required")
}

func TestGenerate_ProveFailed(t *testing.T) {
	r := require.New(t)

	substrate := backendtest.New([]byte("key"))
	substrate.ProveErr = errors.New("substrate crashed")
	b, err := backend.NewReal(substrate)
	r.NoError(err)

	m := metrics.New()
	_, err = Generate(context.Background(), scenario, WithBackend(b), WithMetrics(m))
	r.ErrorIs(err, shared.ErrProveFailed)

	count, err := testutil.GatherAndCount(m.Registry(), "zkpass_prove_total")
	r.NoError(err)
	r.Equal(1, count)
}

func TestGenerate_Canceled(t *testing.T) {
	r := require.New(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Generate(ctx, scenario, WithBackend(backends(t)["mock"]))
	r.ErrorIs(err, shared.ErrProveFailed)
	r.ErrorIs(err, context.Canceled)
}

func TestGenerateInput_NonceVerbatim(t *testing.T) {
	r := require.New(t)

	nonce := []byte{0x00, 0xff, 0x10}
	res, err := GenerateInput(context.Background(), shared.Input{Salt: []byte{1}, Password: []byte("pw"), Nonce: nonce}, WithBackend(backends(t)["real"]))
	r.NoError(err)
	r.Equal("00ff10", res.Journal.NonceHex)
}
