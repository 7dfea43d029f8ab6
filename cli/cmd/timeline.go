package cmd

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/ismaelmkumbi/smarttaxchain-sub004/core/timeline"
)

var timelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "Show the ledger timeline, optionally for one assessment",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, _ := cmd.Flags().GetString("assessment")
		tl, err := newClient().GetTimeline(cmd.Context(), id)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if jsonOutput() {
			return printJSON(out, tl)
		}
		if len(tl.Events) == 0 {
			pterm.Fprintln(out, pterm.Gray("No ledger entries yet."))
			return nil
		}

		data := pterm.TableData{{"Time", "Event", "Assessment", "Amount", "Block", "Description"}}
		for _, ev := range tl.Events {
			amount := ""
			if ev.Amount != nil {
				amount = ev.Amount.String()
			}
			data = append(data, []string{
				ev.Timestamp.Format("2006-01-02 15:04"),
				colorFor(ev.Treatment)(ev.Category.Title()),
				ev.AssessmentID,
				amount,
				pterm.Sprintf("#%d", ev.BlockNumber),
				ev.Description,
			})
		}
		rendered, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
		if err != nil {
			return err
		}
		pterm.Fprintln(out, rendered)
		if tl.Events[0].Example {
			pterm.Fprintln(out, pterm.Yellow("(example entries, the ledger is empty)"))
		}
		return nil
	},
}

func colorFor(t timeline.Treatment) func(a ...interface{}) string {
	switch t.Color {
	case "primary", "info":
		return pterm.LightBlue
	case "warning":
		return pterm.LightYellow
	case "error":
		return pterm.LightRed
	case "success":
		return pterm.LightGreen
	default:
		return pterm.Gray
	}
}

func init() {
	rootCmd.AddCommand(timelineCmd)
	timelineCmd.Flags().String("assessment", "", "only show entries for this assessment id")
}
