package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ismaelmkumbi/smarttaxchain-sub004/core/auth"
)

var tokenCmd = &cobra.Command{
	Use:   "token <subject>",
	Short: "Issue a bearer token signed with the node's shared secret",
	Example: `  TAXCHAIN_JWT_SECRET=s3cret taxchain-cli token officer-7 --ttl 8h
  export TAXCHAIN_TOKEN=$(taxchain-cli token officer-7)`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		secret := viper.GetString("jwt-secret")
		if secret == "" {
			return fmt.Errorf("no signing secret: set --jwt-secret or TAXCHAIN_JWT_SECRET")
		}
		ttl, _ := cmd.Flags().GetDuration("ttl")
		roles, _ := cmd.Flags().GetStringSlice("role")
		tok, err := auth.IssueToken([]byte(secret), args[0], roles, ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().String("jwt-secret", "", "HS256 secret shared with the node (env TAXCHAIN_JWT_SECRET)")
	tokenCmd.Flags().Duration("ttl", time.Hour, "token lifetime")
	tokenCmd.Flags().StringSlice("role", []string{auth.RoleOfficer}, "roles to grant")
	if err := viper.BindPFlag("jwt-secret", tokenCmd.Flags().Lookup("jwt-secret")); err != nil {
		panic(err)
	}
}
