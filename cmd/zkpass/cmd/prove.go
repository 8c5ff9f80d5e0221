package cmd

import (
	"github.com/spf13/cobra"

	"github.com/zkaccess/zkpass/backend"
	"github.com/zkaccess/zkpass/proving"
)

func newProveCmd(a *app) *cobra.Command {
	var (
		req   proving.Request
		email string
		out   string
	)

	cmd := &cobra.Command{
		Use:   "prove",
		Short: "Prove knowledge of the password behind a salted commitment",
		Long: `Prove computes SHA-256(salt || password) and produces a receipt binding the
commitment to the challenge nonce. The password never leaves this process.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := backend.New(a.cfg, a.logger)
			if err != nil {
				return err
			}
			res, err := proving.Generate(cmd.Context(), req,
				proving.WithBackend(b),
				proving.WithLogger(a.logger),
				proving.WithMetrics(a.metrics),
				proving.WithSubject(email),
			)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), out, res)
		},
	}

	cmd.Flags().StringVar(&req.SaltHex, "salt-hex", "", "Salt, in hex (required)")
	cmd.Flags().StringVar(&req.NonceHex, "nonce-hex", "", "Challenge nonce, in hex (required)")
	cmd.Flags().StringVar(&req.Password, "password", "", "Password (required, may be empty)")
	cmd.Flags().StringVar(&email, "email", "", "Account identifier, used in logs only")
	cmd.Flags().StringVar(&out, "out", "", "Write the result to this file instead of stdout")
	for _, name := range []string{"salt-hex", "nonce-hex", "password"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}
