package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/AngleProtocol/merkl-dispute-sub000/dispute"
)

// ErrViolation makes `check` exit non-zero when the tree is disputable.
var ErrViolation = errors.New("violation found")

func checkCmd() *cobra.Command {
	var (
		block  uint64
		dryRun bool
		output string
	)
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run one verification of the tree in its dispute window",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConf(cmd)
			if err != nil {
				return err
			}
			opts := appOptions{dryRun: dryRun}
			if cmd.Flags().Changed("block") {
				opts.block = &block
			}
			a, err := newApp(cmd.Context(), c, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			r := a.runner.Run(cmd.Context(), a.dc)
			s := r.Summary()
			if err := render(cmd.OutOrStdout(), output, s, func(w io.Writer) { printSummary(w, s) }); err != nil {
				return err
			}
			if v, ok := r.Outcome.(dispute.Violation); ok && v.Code.Disputable() {
				return fmt.Errorf("%w: %s", ErrViolation, v.Describe())
			}
			return nil
		},
	}
	cmd.Flags().Uint64Var(&block, "block", 0, "Pin the check to this block number")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Never send transactions, only report what would be sent")
	cmd.Flags().StringVarP(&output, "output", "o", outputText, "Output format: text, json or yaml")
	return cmd
}

func printSummary(w io.Writer, s dispute.Summary) {
	fmt.Fprintf(w, "run       %s\n", s.RunID)
	fmt.Fprintf(w, "chain     %d block %d (time %d)\n", s.ChainID, s.BlockNumber, s.BlockTime)
	if s.EndRoot != "" {
		fmt.Fprintf(w, "roots     start %s end %s\n", s.StartRoot, s.EndRoot)
	}
	if s.ComputedEndRoot != "" {
		fmt.Fprintf(w, "computed  start %s (epoch %d) end %s (epoch %d)\n", s.ComputedStartRoot, s.StartEpoch, s.ComputedEndRoot, s.EndEpoch)
	}
	if s.Code != "" {
		fmt.Fprintf(w, "outcome   %s %s: %s\n", s.Outcome, s.Code, s.Reason)
	} else {
		fmt.Fprintf(w, "outcome   %s: %s\n", s.Outcome, s.Reason)
	}
	for _, c := range s.Campaigns {
		fmt.Fprintf(w, "campaign  %s diff %s total %s budget %s recipients %d\n", c.CampaignID, c.Diff, c.NewTotal, c.Budget, c.Recipients)
	}
	for _, n := range s.NegativeDiffs {
		fmt.Fprintf(w, "negative  %s %s %s %s %s\n", n.CampaignID, n.Pool, n.Recipient, n.Reason, n.Amount)
	}
	for _, o := range s.OverDistributed {
		fmt.Fprintf(w, "overdist  %s %s distributed %s budget %s\n", o.CampaignID, o.Pool, o.Distributed, o.Budget)
	}
	for _, o := range s.OverClaims {
		fmt.Fprintf(w, "overclaim %s %s claimed %s granted %s\n", o.Holder, o.Symbol, o.Claimed, o.Unclaimed)
	}
	if d := s.Dispute; d != nil {
		fmt.Fprintf(w, "dispute   dry_run=%t approve=%s approve_tx=%s dispute_tx=%s %s\n", d.DryRun, d.ApproveAmount, d.ApproveTx, d.DisputeTx, d.Outcome)
	}
}
