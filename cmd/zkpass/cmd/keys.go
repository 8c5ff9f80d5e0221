package cmd

import (
	"fmt"
	"strconv"

	"code.cloudfoundry.org/bytefmt"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/zkaccess/zkpass/circuit"
	"github.com/zkaccess/zkpass/internal/snark"
	"github.com/zkaccess/zkpass/shared"
)

func newKeysCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage the circuit keys of the real backend",
	}
	cmd.AddCommand(newKeysSetupCmd(a), newKeysListCmd(a))
	return cmd
}

func shapeFlags(flags *pflag.FlagSet, shape *circuit.Shape) {
	flags.IntVar(&shape.PreimageLen, "preimage-len", 0, "Length in bytes of salt followed by password (required)")
	flags.IntVar(&shape.NonceLen, "nonce-len", 0, "Length in bytes of the challenge nonce (required)")
}

func (a *app) substrate() (*snark.Substrate, error) {
	if shared.Mode(a.cfg.Mode) != shared.ModeReal {
		return nil, fmt.Errorf("keys are only used by the %q mode, given: %q", shared.ModeReal, a.cfg.Mode)
	}
	return snark.New(
		snark.WithKeysDir(a.cfg.KeysDir),
		snark.WithCurve(a.cfg.Curve),
		snark.WithLogger(a.logger),
	)
}

func newKeysSetupCmd(a *app) *cobra.Command {
	var shape circuit.Shape

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Produce the keys of the circuit for one length class",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.substrate()
			if err != nil {
				return err
			}
			m, err := s.Setup(cmd.Context(), a.cfg.Program, shape)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), "", m)
		},
	}

	shapeFlags(cmd.Flags(), &shape)
	_ = cmd.MarkFlagRequired("preimage-len")
	_ = cmd.MarkFlagRequired("nonce-len")
	return cmd
}

func newKeysListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the circuits with keys in the keys directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.substrate()
			if err != nil {
				return err
			}
			manifests, err := s.List()
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(manifests))
			for _, m := range manifests {
				rows = append(rows, []string{
					m.Circuit,
					m.Curve,
					strconv.Itoa(m.Constraints),
					bytefmt.ByteSize(m.ProvingKeySize),
					m.VerifyingKeyHash.String(),
					m.CreatedAt.Format("2006-01-02 15:04:05"),
				})
			}
			writeTable(cmd.OutOrStdout(), []string{"Circuit", "Curve", "Constraints", "Proving key", "Verifying key hash", "Created"}, rows)
			return nil
		},
	}
}
