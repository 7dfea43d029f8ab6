package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ismaelmkumbi/smarttaxchain-sub004/cli/api"
)

var rootCmd = &cobra.Command{
	Use:           "taxchain-cli",
	Short:         "TaxChain ledger CLI",
	Long:          "A command-line tool for inspecting and recording tax assessments on a TaxChain node.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("server", "http://localhost:8080", "node base URL (env TAXCHAIN_SERVER)")
	rootCmd.PersistentFlags().String("token", "", "bearer token for mutating calls (env TAXCHAIN_TOKEN)")
	rootCmd.PersistentFlags().StringP("output", "o", "plain", "output format: plain|json")

	viper.SetEnvPrefix("TAXCHAIN")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	for _, name := range []string{"server", "token", "output"} {
		if err := viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			panic(err)
		}
	}
}

func newClient() *api.Client {
	return api.NewClient(viper.GetString("server"), viper.GetString("token"))
}

func jsonOutput() bool {
	return viper.GetString("output") == "json"
}

// Root exposes the command tree for embedding and tests.
func Root() *cobra.Command {
	return rootCmd
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
