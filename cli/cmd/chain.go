package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "Print the chain, optionally verifying it locally",
	Example: `  taxchain-cli chain
  taxchain-cli chain --verify`,
	RunE: func(cmd *cobra.Command, args []string) error {
		verify, _ := cmd.Flags().GetBool("verify")
		client := newClient()
		out := cmd.OutOrStdout()

		if verify {
			ch, err := client.VerifyChain(cmd.Context())
			if err != nil {
				return fmt.Errorf("chain of %d blocks failed verification: %w", len(ch.Blocks), err)
			}
			fmt.Fprintf(out, "Chain OK: %d blocks, tip %s\n", len(ch.Blocks), ch.Blocks[len(ch.Blocks)-1].Hash)
			return nil
		}

		ch, err := client.GetChain(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput() {
			return printJSON(out, ch)
		}
		for _, b := range ch.Blocks {
			types := make([]string, 0, len(b.Transactions))
			for _, tx := range b.Transactions {
				types = append(types, tx.Type())
			}
			fmt.Fprintf(out, "#%d %s prev=%s txs=%v\n", b.Index, b.Hash, b.PreviousHash, types)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chainCmd)
	chainCmd.Flags().Bool("verify", false, "verify hash links and fingerprints locally")
}
