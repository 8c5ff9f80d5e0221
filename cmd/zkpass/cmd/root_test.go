package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zkaccess/zkpass/challenge"
	"github.com/zkaccess/zkpass/proving"
	"github.com/zkaccess/zkpass/shared"
)

const scenarioCommitment = "f6f1fa9c4e8950cb3b2c3ca85821c14ea1b4c95b20dc863601165768f6699434"

type harness struct {
	t            *testing.T
	challengeDir string
}

func newHarness(t *testing.T) *harness {
	return &harness{t: t, challengeDir: t.TempDir()}
}

// exec runs the command line in mock mode and returns stdout and the exit code.
func (h *harness) exec(args ...string) (string, int) {
	h.t.Helper()
	var stdout, stderr bytes.Buffer
	a := newApp()
	a.stdout = &stdout
	a.stderr = &stderr

	base := []string{"--mode", "mock", "--challenge-dir", h.challengeDir, "--log-level", "warn"}
	if len(args) > 0 && args[0] == "version" {
		base = nil
	}
	err := run(context.Background(), a, append(args, base...))
	if err != nil {
		h.t.Logf("%v: %v\nstderr: %s", args, err, stderr.String())
	}
	return stdout.String(), exitCode(err)
}

func (h *harness) prove(saltHex, nonceHex, password string) proving.Result {
	h.t.Helper()
	out, code := h.exec("prove", "--salt-hex", saltHex, "--nonce-hex", nonceHex, "--password", password, "--email", "alice@example.com")
	require.Equal(h.t, exitOK, code)

	var res proving.Result
	require.NoError(h.t, json.Unmarshal([]byte(out), &res))
	return res
}

func Test_ProveVerify(t *testing.T) {
	r := require.New(t)
	h := newHarness(t)

	res := h.prove("abcd", "0102", "secret")
	r.Equal(shared.JournalView{CommitmentHex: scenarioCommitment, NonceHex: "0102"}, res.Journal)
	r.NotEmpty(res.Receipt)

	out, code := h.exec("verify", "--receipt-b64", res.Receipt)
	r.Equal(exitOK, code)

	var view shared.JournalView
	r.NoError(json.Unmarshal([]byte(out), &view))
	r.Equal(res.Journal, view)
}

func Test_Prove_Out(t *testing.T) {
	r := require.New(t)
	h := newHarness(t)
	path := filepath.Join(t.TempDir(), "receipt.json")

	out, code := h.exec("prove", "--salt-hex", "abcd", "--nonce-hex", "0102", "--password", "secret", "--out", path)
	r.Equal(exitOK, code)
	r.Empty(out)

	data, err := os.ReadFile(path)
	r.NoError(err)
	var res proving.Result
	r.NoError(json.Unmarshal(data, &res))
	r.Equal(scenarioCommitment, res.Journal.CommitmentHex)
}

func Test_Prove_MalformedHex(t *testing.T) {
	h := newHarness(t)

	_, code := h.exec("prove", "--salt-hex", "zz", "--nonce-hex", "0102", "--password", "secret")
	require.Equal(t, exitMalformed, code)
}

func Test_Verify_Malformed(t *testing.T) {
	h := newHarness(t)

	for _, receipt := range []string{"!!!", "AAAA"} {
		_, code := h.exec("verify", "--receipt-b64", receipt)
		require.Equal(t, exitMalformed, code, receipt)
	}
}

func Test_Verify_ExpectedNonce(t *testing.T) {
	r := require.New(t)
	h := newHarness(t)
	res := h.prove("abcd", "0102", "secret")

	_, code := h.exec("verify", "--receipt-b64", res.Receipt, "--expected-nonce-hex", "0102")
	r.Equal(exitOK, code)

	_, code = h.exec("verify", "--receipt-b64", res.Receipt, "--expected-nonce-hex", "0103")
	r.Equal(exitRejected, code)
}

func Test_Verify_ReceiptsFile(t *testing.T) {
	r := require.New(t)
	h := newHarness(t)
	first := h.prove("abcd", "01", "secret")
	second := h.prove("abcd", "02", "secret")

	path := filepath.Join(t.TempDir(), "receipts")
	r.NoError(os.WriteFile(path, []byte(strings.Join([]string{first.Receipt, "", "!!!", second.Receipt}, "\n")), 0o600))

	out, code := h.exec("verify", "--receipts-file", path)
	r.Equal(exitMalformed, code)

	var results []batchResult
	r.NoError(json.Unmarshal([]byte(out), &results))
	r.Len(results, 3)
	r.Equal(first.Journal, *results[0].Journal)
	r.Equal(exitMalformed, results[1].Exit)
	r.NotEmpty(results[1].Error)
	r.Equal(second.Journal, *results[2].Journal)
}

func Test_Verify_RequiresOneSource(t *testing.T) {
	h := newHarness(t)

	_, code := h.exec("verify")
	require.Equal(t, exitFailure, code)
}

func Test_Login(t *testing.T) {
	r := require.New(t)
	h := newHarness(t)

	out, code := h.exec("enroll", "--password", "secret")
	r.Equal(exitOK, code)
	var e enrollment
	r.NoError(json.Unmarshal([]byte(out), &e))
	r.Len(e.SaltHex, 2*16)

	out, code = h.exec("challenge", "issue", "--subject", "alice@example.com")
	r.Equal(exitOK, code)
	var c challenge.Challenge
	r.NoError(json.Unmarshal([]byte(out), &c))
	r.Len(c.Nonce, 16)

	res := h.prove(e.SaltHex, c.Nonce.String(), "secret")
	r.Equal(e.CommitmentHex, res.Journal.CommitmentHex)

	_, code = h.exec("verify", "--receipt-b64", res.Receipt, "--challenge-id", c.ID, "--commitment-hex", e.CommitmentHex)
	r.Equal(exitOK, code)

	// replay
	_, code = h.exec("verify", "--receipt-b64", res.Receipt, "--challenge-id", c.ID, "--commitment-hex", e.CommitmentHex)
	r.Equal(exitRejected, code)

	out, code = h.exec("challenge", "list")
	r.Equal(exitOK, code)
	r.Contains(out, c.ID)
	r.Contains(out, "consumed")
}

func Test_Login_WrongPassword(t *testing.T) {
	r := require.New(t)
	h := newHarness(t)

	out, code := h.exec("enroll", "--password", "secret", "--salt-hex", "abcd")
	r.Equal(exitOK, code)
	var e enrollment
	r.NoError(json.Unmarshal([]byte(out), &e))
	r.Equal(enrollment{SaltHex: "abcd", CommitmentHex: scenarioCommitment}, e)

	out, code = h.exec("challenge", "issue", "--subject", "alice@example.com")
	r.Equal(exitOK, code)
	var c challenge.Challenge
	r.NoError(json.Unmarshal([]byte(out), &c))

	res := h.prove("abcd", c.Nonce.String(), "wrong")
	_, code = h.exec("verify", "--receipt-b64", res.Receipt, "--challenge-id", c.ID, "--commitment-hex", e.CommitmentHex)
	r.Equal(exitRejected, code)

	// the attempt used up the challenge
	res = h.prove("abcd", c.Nonce.String(), "secret")
	_, code = h.exec("verify", "--receipt-b64", res.Receipt, "--challenge-id", c.ID, "--commitment-hex", e.CommitmentHex)
	r.Equal(exitRejected, code)
}

func Test_Verify_ChallengeNeedsCommitment(t *testing.T) {
	r := require.New(t)
	h := newHarness(t)
	res := h.prove("abcd", "0102", "secret")

	_, code := h.exec("verify", "--receipt-b64", res.Receipt, "--challenge-id", "id")
	r.Equal(exitFailure, code)

	_, code = h.exec("verify", "--receipt-b64", res.Receipt, "--challenge-id", "id", "--commitment-hex", "abcd")
	r.Equal(exitMalformed, code)
}

func Test_ChallengeConsume(t *testing.T) {
	r := require.New(t)
	h := newHarness(t)

	out, code := h.exec("challenge", "issue", "--subject", "bob")
	r.Equal(exitOK, code)
	var c challenge.Challenge
	r.NoError(json.Unmarshal([]byte(out), &c))

	_, code = h.exec("challenge", "consume", "--id", c.ID, "--nonce-hex", "00")
	r.Equal(exitRejected, code)

	_, code = h.exec("challenge", "consume", "--id", c.ID, "--nonce-hex", c.Nonce.String())
	r.Equal(exitOK, code)

	_, code = h.exec("challenge", "consume", "--id", "unknown", "--nonce-hex", c.Nonce.String())
	r.Equal(exitRejected, code)
}

func Test_Keys_RequireRealMode(t *testing.T) {
	h := newHarness(t)

	_, code := h.exec("keys", "list")
	require.Equal(t, exitFailure, code)
}

func Test_InvalidConfig(t *testing.T) {
	h := newHarness(t)

	_, code := h.exec("enroll", "--password", "secret", "--salt-size", "2")
	require.Equal(t, exitFailure, code)
}

func Test_PrintConfig(t *testing.T) {
	r := require.New(t)
	h := newHarness(t)

	out, code := h.exec("enroll", "--password", "secret", "--nonce-size", "32", "--print-config")
	r.Equal(exitOK, code)
	r.Contains(out, "NonceSize: (int) 32")
	r.NotContains(out, "commitment_hex")
}

func Test_ConfigFile(t *testing.T) {
	r := require.New(t)
	h := newHarness(t)

	path := filepath.Join(t.TempDir(), "zkpass.yaml")
	r.NoError(os.WriteFile(path, []byte("salt-size: 24\n"), 0o600))

	out, code := h.exec("enroll", "--password", "secret", "--config", path)
	r.Equal(exitOK, code)
	var e enrollment
	r.NoError(json.Unmarshal([]byte(out), &e))
	r.Len(e.SaltHex, 2*24)
}

func Test_MetricsFile(t *testing.T) {
	r := require.New(t)
	h := newHarness(t)
	path := filepath.Join(t.TempDir(), "zkpass.prom")

	_, code := h.exec("prove", "--salt-hex", "abcd", "--nonce-hex", "0102", "--password", "secret", "--metrics-file", path)
	r.Equal(exitOK, code)

	data, err := os.ReadFile(path)
	r.NoError(err)
	r.Contains(string(data), "zkpass_prove_total")
}

func Test_Version(t *testing.T) {
	h := newHarness(t)

	out, code := h.exec("version")
	require.Equal(t, exitOK, code)
	require.Equal(t, fmt.Sprintf("zkpass %s\n", Version), out)
}

func Test_ExitCode(t *testing.T) {
	for _, tc := range []struct {
		err  error
		code int
	}{
		{nil, exitOK},
		{errors.New("boom"), exitFailure},
		{fmt.Errorf("wrapped: %w", shared.ErrProveFailed), exitFailure},
		{&shared.EncodingError{Field: "salt", Err: errors.New("bad")}, exitMalformed},
		{fmt.Errorf("%w: short", shared.ErrMalformedReceipt), exitMalformed},
		{&shared.RejectedError{Reason: "proof"}, exitRejected},
		{challenge.ErrChallengeConsumed, exitRejected},
		{challenge.ErrCommitmentMismatch, exitRejected},
	} {
		require.Equal(t, tc.code, exitCode(tc.err), "%v", tc.err)
	}
}
