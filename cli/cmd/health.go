package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Query node health summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		health, err := newClient().GetHealthMetrics(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if jsonOutput() {
			return printJSON(out, health)
		}
		fmt.Fprintf(out, "Node Health: %s (%s)\n", health.Status, health.Version)
		fmt.Fprintf(out, "Uptime: %ds\n", health.Metrics.UptimeSeconds)
		fmt.Fprintf(out, "Block Height: %d\n", health.Metrics.BlockHeight)
		fmt.Fprintf(out, "Assessments: %d\n", health.Metrics.Assessments)
		fmt.Fprintf(out, "CPU Load: %.2f%%\n", health.Metrics.CPULoadPercent)
		fmt.Fprintf(out, "Memory Usage: %.2f MB\n", health.Metrics.MemoryMB)
		fmt.Fprintf(out, "Disk Free: %.2f MB\n", health.Metrics.DiskFreeMB)
		fmt.Fprintf(out, "Last Block Time: %s\n", health.Metrics.LastBlockTime)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
