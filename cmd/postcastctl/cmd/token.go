package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/jeremyjsx/postcast/internal/auth"
	"github.com/jeremyjsx/postcast/internal/config"
	"github.com/spf13/cobra"
)

var (
	tokenUserID int64
	tokenAdmin  bool
	tokenTTL    time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token signed with JWT_SECRET",
	Example: `  postcastctl token --user 7
  curl -H "Authorization: Bearer $(postcastctl token --user 7)" ...`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if tokenUserID <= 0 {
			return errors.New("--user must be a positive id")
		}
		issuer, err := auth.NewIssuer(config.Load().JWTSecret, tokenTTL)
		if err != nil {
			return err
		}
		tok, err := issuer.Issue(auth.User{ID: tokenUserID, Admin: tokenAdmin})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().Int64Var(&tokenUserID, "user", 0, "user id to put in the token subject")
	tokenCmd.Flags().BoolVar(&tokenAdmin, "admin", false, "mark the user as admin")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", auth.DefaultTokenTTL, "token lifetime")
	rootCmd.AddCommand(tokenCmd)
}
