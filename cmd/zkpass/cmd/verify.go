package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zkaccess/zkpass/backend"
	"github.com/zkaccess/zkpass/challenge"
	"github.com/zkaccess/zkpass/shared"
	"github.com/zkaccess/zkpass/verifying"
)

func newVerifyCmd(a *app) *cobra.Command {
	var (
		receiptB64       string
		expectedNonceHex string
		challengeID      string
		commitmentHex    string
		receiptsFile     string
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a receipt and print its commitment and nonce",
		Long: `Verify checks a base64 receipt and prints the commitment and nonce it proves.
With --challenge-id and --commitment-hex it also consumes the challenge and checks
the commitment enrolled for the account. With --receipts-file it verifies one
receipt per line in parallel and prints one result per receipt.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (receiptB64 == "") == (receiptsFile == "") {
				return errors.New("exactly one of --receipt-b64 and --receipts-file is required")
			}

			b, err := backend.New(a.cfg, a.logger)
			if err != nil {
				return err
			}
			opts := []verifying.OptionFunc{
				verifying.WithBackend(b),
				verifying.WithLogger(a.logger),
				verifying.WithMetrics(a.metrics),
				verifying.WithConcurrency(a.cfg.Concurrency),
			}
			if expectedNonceHex != "" {
				nonce, err := shared.DecodeHex("expected-nonce", expectedNonceHex)
				if err != nil {
					return err
				}
				opts = append(opts, verifying.WithExpectedNonce(nonce))
			}

			if receiptsFile != "" {
				return verifyBatch(cmd, receiptsFile, opts)
			}

			if challengeID == "" {
				view, err := verifying.Verify(cmd.Context(), receiptB64, opts...)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), "", view)
			}

			if commitmentHex == "" {
				return errors.New("--commitment-hex is required with --challenge-id")
			}
			expected, err := shared.DecodeHex("commitment", commitmentHex)
			if err != nil {
				return err
			}
			if len(expected) != shared.CommitmentSize {
				return &shared.EncodingError{Field: "commitment", Err: fmt.Errorf("%d bytes, expected %d", len(expected), shared.CommitmentSize)}
			}

			receipt, err := shared.DecodeReceiptString(receiptB64)
			if err != nil {
				return err
			}
			j, err := verifying.VerifyReceipt(cmd.Context(), receipt, opts...)
			if err != nil {
				return err
			}

			store, err := challenge.Open(a.cfg.ChallengeDir,
				challenge.WithTTL(a.cfg.ChallengeTTL),
				challenge.WithNonceSize(a.cfg.NonceSize),
				challenge.WithLogger(a.logger),
			)
			if err != nil {
				return err
			}
			defer store.Close()
			if err := challenge.Authenticate(cmd.Context(), store, challengeID, [shared.CommitmentSize]byte(expected), j); err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), "", j.View())
		},
	}

	cmd.Flags().StringVar(&receiptB64, "receipt-b64", "", "Receipt, in base64")
	cmd.Flags().StringVar(&receiptsFile, "receipts-file", "", "Verify the base64 receipts listed in this file, one per line")
	cmd.Flags().StringVar(&expectedNonceHex, "expected-nonce-hex", "", "Reject receipts not bound to this nonce, in hex")
	cmd.Flags().StringVar(&challengeID, "challenge-id", "", "Consume this issued challenge")
	cmd.Flags().StringVar(&commitmentHex, "commitment-hex", "", "Enrolled commitment of the account, in hex")
	cmd.MarkFlagsMutuallyExclusive("receipts-file", "challenge-id")
	return cmd
}

type batchResult struct {
	Journal *shared.JournalView `json:"journal,omitempty"`
	Error   string              `json:"error,omitempty"`
	Exit    int                 `json:"exit_code"`
}

// verifyBatch prints one result per receipt and fails if any receipt failed,
// with the exit code of the first failure.
func verifyBatch(cmd *cobra.Command, path string, opts []verifying.OptionFunc) error {
	encoded, err := readLines(path)
	if err != nil {
		return err
	}
	results, err := verifying.VerifyAll(cmd.Context(), encoded, opts...)
	if err != nil {
		return err
	}

	out := make([]batchResult, len(results))
	var firstErr error
	for i, res := range results {
		out[i] = batchResult{Journal: res.Journal, Exit: exitCode(res.Err)}
		if res.Err != nil {
			out[i].Error = res.Err.Error()
			if firstErr == nil {
				firstErr = fmt.Errorf("receipt %d: %w", i+1, res.Err)
			}
		}
	}
	if err := writeJSON(cmd.OutOrStdout(), "", out); err != nil {
		return err
	}
	return firstErr
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}
