package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/zkaccess/zkpass/challenge"
	"github.com/zkaccess/zkpass/shared"
)

func newChallengeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "challenge",
		Short: "Issue and consume single-use login challenges",
	}
	cmd.AddCommand(newChallengeIssueCmd(a), newChallengeConsumeCmd(a), newChallengeListCmd(a))
	return cmd
}

func (a *app) openChallenges() (*challenge.Store, error) {
	return challenge.Open(a.cfg.ChallengeDir,
		challenge.WithTTL(a.cfg.ChallengeTTL),
		challenge.WithNonceSize(a.cfg.NonceSize),
		challenge.WithLogger(a.logger),
	)
}

func newChallengeIssueCmd(a *app) *cobra.Command {
	var subject string

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a fresh nonce for a subject",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openChallenges()
			if err != nil {
				return err
			}
			defer store.Close()

			c, err := store.Issue(cmd.Context(), subject)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), "", c)
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "Account the challenge is issued to (required)")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

func newChallengeConsumeCmd(a *app) *cobra.Command {
	var id, nonceHex string

	cmd := &cobra.Command{
		Use:   "consume",
		Short: "Consume a challenge with the nonce of a verified receipt",
		RunE: func(cmd *cobra.Command, args []string) error {
			nonce, err := shared.DecodeHex("nonce", nonceHex)
			if err != nil {
				return err
			}
			store, err := a.openChallenges()
			if err != nil {
				return err
			}
			defer store.Close()

			return store.Consume(cmd.Context(), id, nonce)
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Challenge id (required)")
	cmd.Flags().StringVar(&nonceHex, "nonce-hex", "", "Nonce of the verified receipt, in hex (required)")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("nonce-hex")
	return cmd
}

func newChallengeListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the challenges held by the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openChallenges()
			if err != nil {
				return err
			}
			defer store.Close()

			cs, err := store.List(cmd.Context())
			if err != nil {
				return err
			}

			now := time.Now()
			rows := make([][]string, 0, len(cs))
			for _, c := range cs {
				state := "open"
				switch {
				case c.Consumed:
					state = "consumed"
				case !now.Before(c.ExpiresAt):
					state = "expired"
				}
				rows = append(rows, []string{c.ID, c.Subject, c.IssuedAt.Format(time.RFC3339), c.ExpiresAt.Format(time.RFC3339), state})
			}
			writeTable(cmd.OutOrStdout(), []string{"ID", "Subject", "Issued", "Expires", "State"}, rows)
			return nil
		},
	}
}
