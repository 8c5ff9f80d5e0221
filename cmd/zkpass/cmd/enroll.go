package cmd

import (
	"encoding/hex"

	"github.com/spf13/cobra"

	"github.com/zkaccess/zkpass/challenge"
	"github.com/zkaccess/zkpass/circuit"
	"github.com/zkaccess/zkpass/shared"
)

type enrollment struct {
	SaltHex       string `json:"salt_hex"`
	CommitmentHex string `json:"commitment_hex"`
}

func newEnrollCmd(a *app) *cobra.Command {
	var (
		password string
		saltHex  string
	)

	cmd := &cobra.Command{
		Use:   "enroll",
		Short: "Compute the salted commitment to store for an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				salt []byte
				err  error
			)
			if saltHex != "" {
				salt, err = shared.DecodeHex("salt", saltHex)
			} else {
				salt, err = challenge.RandomSalt(a.cfg.SaltSize)
			}
			if err != nil {
				return err
			}

			j := circuit.Commit(shared.Input{Salt: salt, Password: []byte(password)})
			return writeJSON(cmd.OutOrStdout(), "", enrollment{
				SaltHex:       hex.EncodeToString(salt),
				CommitmentHex: j.View().CommitmentHex,
			})
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "Password (required, may be empty)")
	cmd.Flags().StringVar(&saltHex, "salt-hex", "", "Use this salt instead of a random one, in hex")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
