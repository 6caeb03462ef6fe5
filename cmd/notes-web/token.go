package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/amirk1998/notes-web/internal/identity"
)

var tokenUser string

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a session token for calling the JSON API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		issuer := identity.NewTokenIssuer(cfg.SessionSecret, cfg.SessionTTL)
		token, expiresAt, err := issuer.Issue(tokenUser)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", expiresAt.UTC().Format("2006-01-02 15:04:05 UTC"))
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUser, "user", "", "user id to put in the token")
	_ = tokenCmd.MarkFlagRequired("user")
}
