package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ismaelmkumbi/smarttaxchain-sub004/cli/api"
	"github.com/ismaelmkumbi/smarttaxchain-sub004/core/taxops"
)

var assessmentCmd = &cobra.Command{
	Use:     "assessment",
	Aliases: []string{"a"},
	Short:   "Assessment operations (get, create, delete)",
}

var assessmentGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show an assessment with its adjustments and history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newClient().GetAssessment(cmd.Context(), args[0])
		if err != nil {
			if api.IsNotFound(err) {
				return fmt.Errorf("assessment %s not found", args[0])
			}
			return err
		}
		out := cmd.OutOrStdout()
		if jsonOutput() {
			return printJSON(out, a)
		}
		printAssessment(out, a)
		return nil
	},
}

var assessmentCreateCmd = &cobra.Command{
	Use:   "create <id>",
	Short: "Create an assessment and record it on the ledger",
	Example: `  taxchain-cli assessment create A-2025-001 --taxpayer TIN-100200 --type VAT --amount 500000 --due 2025-09-30`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc := map[string]interface{}{"assessmentId": args[0]}
		for flag, key := range map[string]string{
			"taxpayer": "taxpayerId",
			"type":     "taxType",
			"status":   "status",
			"amount":   "amount",
			"due":      "dueDate",
		} {
			if v, _ := cmd.Flags().GetString(flag); v != "" {
				doc[key] = v
			}
		}
		res, err := newClient().CreateAssessment(cmd.Context(), doc)
		if err != nil {
			return err
		}
		return printResult(cmd.OutOrStdout(), "Created", res)
	},
}

var assessmentDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Remove an assessment from the store (the ledger keeps its entries)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newClient().DeleteAssessment(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
		return nil
	},
}

var penaltyCmd = &cobra.Command{
	Use:   "penalty <id> <amount>",
	Short: "Apply a penalty to an assessment",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		reason, _ := cmd.Flags().GetString("reason")
		res, err := newClient().ApplyPenalty(cmd.Context(), args[0], args[1], reason)
		if err != nil {
			return err
		}
		return printResult(cmd.OutOrStdout(), "Penalty applied", res)
	},
}

var interestCmd = &cobra.Command{
	Use:   "interest <id> <rate>",
	Short: "Charge interest on the outstanding balance (rate 0.015 = 1.5%)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		reason, _ := cmd.Flags().GetString("reason")
		res, err := newClient().ApplyInterest(cmd.Context(), args[0], args[1], reason)
		if err != nil {
			return err
		}
		return printResult(cmd.OutOrStdout(), "Interest applied", res)
	},
}

var paymentCmd = &cobra.Command{
	Use:   "payment <id> <amount>",
	Short: "Record a payment against an assessment",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref, _ := cmd.Flags().GetString("reference")
		res, err := newClient().RecordPayment(cmd.Context(), args[0], args[1], ref)
		if err != nil {
			return err
		}
		return printResult(cmd.OutOrStdout(), "Payment recorded", res)
	},
}

func printResult(out io.Writer, verb string, res taxops.Result) error {
	if jsonOutput() {
		return printJSON(out, res)
	}
	a := res.Assessment
	fmt.Fprintf(out, "%s: %s balance=%s block=#%d hash=%s\n",
		verb, a.AssessmentID, a.Balance().String(), res.Receipt.Block.Index, res.Receipt.Block.Hash)
	return nil
}

func printAssessment(out io.Writer, a api.Assessment) {
	fmt.Fprintf(out, "Assessment: %s\n", a.AssessmentID)
	fmt.Fprintf(out, "Taxpayer:   %s\n", a.TaxpayerID)
	fmt.Fprintf(out, "Tax Type:   %s\n", a.TaxType)
	fmt.Fprintf(out, "Status:     %s\n", a.Status)
	fmt.Fprintf(out, "Amount:     %s\n", a.Amount.String())
	fmt.Fprintf(out, "Balance:    %s\n", a.Balance)
	fmt.Fprintf(out, "Hash:       %s\n", a.BlockchainHash)
	if len(a.Adjustments) > 0 {
		fmt.Fprintln(out, "Adjustments:")
		for _, adj := range a.Adjustments {
			fmt.Fprintf(out, "  %-10s %12s  %s\n", adj.Type, adj.Amount.String(), adj.Reason)
		}
	}
	fmt.Fprintln(out, "History:")
	for _, h := range a.History {
		fmt.Fprintf(out, "  %s  %-16s %s\n", h.Timestamp.Format("2006-01-02 15:04:05"), h.Action, h.Details)
	}
}

func init() {
	rootCmd.AddCommand(assessmentCmd, penaltyCmd, interestCmd, paymentCmd)
	assessmentCmd.AddCommand(assessmentGetCmd, assessmentCreateCmd, assessmentDeleteCmd)

	assessmentCreateCmd.Flags().String("taxpayer", "", "taxpayer identification number")
	assessmentCreateCmd.Flags().String("type", "", "tax type, e.g. VAT")
	assessmentCreateCmd.Flags().String("status", "", "initial status")
	assessmentCreateCmd.Flags().String("amount", "", "assessed amount")
	assessmentCreateCmd.Flags().String("due", "", "due date (YYYY-MM-DD)")

	penaltyCmd.Flags().String("reason", "", "reason recorded with the penalty")
	interestCmd.Flags().String("reason", "", "reason recorded with the interest charge")
	paymentCmd.Flags().String("reference", "", "payment reference, e.g. a receipt number")
}
