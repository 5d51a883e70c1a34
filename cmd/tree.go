package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/AngleProtocol/merkl-dispute-sub000/reward"
)

func treeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Inspect reward snapshot files offline",
	}
	cmd.AddCommand(treeRootCmd())
	cmd.AddCommand(treeProofCmd())
	cmd.AddCommand(treeDiffCmd())
	return cmd
}

func readTree(path string) (*reward.Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	t, err := reward.ParseTree(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := t.CheckUnique(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

type treeRootOutput struct {
	Epoch       uint32 `json:"epoch" yaml:"epoch"`
	Root        string `json:"root" yaml:"root"`
	Leaves      int    `json:"leaves" yaml:"leaves"`
	MerkleNodes int    `json:"merkleLeaves" yaml:"merkleLeaves"`
}

func treeRootCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "root <snapshot.json>",
		Short: "Compute the merkle root of a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := readTree(args[0])
			if err != nil {
				return err
			}
			if err := t.Build(); err != nil {
				return err
			}
			out := treeRootOutput{Epoch: t.Epoch, Root: t.RootHex(), Leaves: t.Len(), MerkleNodes: t.MerkleLeafCount()}
			return render(cmd.OutOrStdout(), output, out, func(w io.Writer) {
				fmt.Fprintf(w, "epoch %d root %s (%d leaves, %d merkle leaves)\n", out.Epoch, out.Root, out.Leaves, out.MerkleNodes)
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", outputText, "Output format: text, json or yaml")
	return cmd
}

type treeProofOutput struct {
	Root   string   `json:"root" yaml:"root"`
	Leaf   string   `json:"leaf" yaml:"leaf"`
	Amount string   `json:"amount" yaml:"amount"`
	Proof  []string `json:"proof" yaml:"proof"`
	Valid  bool     `json:"valid" yaml:"valid"`
}

func treeProofCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "proof <snapshot.json> <recipient> <token>",
		Short: "Print the claim proof of a recipient for a token",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := readTree(args[0])
			if err != nil {
				return err
			}
			leaf, amount, err := t.LeafHashFor(args[1], args[2])
			if err != nil {
				return err
			}
			proof, err := t.Proof(args[1], args[2])
			if err != nil {
				return err
			}
			out := treeProofOutput{
				Root:   t.RootHex(),
				Leaf:   leaf.Hex(),
				Amount: amount.String(),
				Proof:  make([]string, 0, len(proof)),
				Valid:  reward.VerifyProof(t.Root(), leaf, proof),
			}
			for _, p := range proof {
				out.Proof = append(out.Proof, p.Hex())
			}
			return render(cmd.OutOrStdout(), output, out, func(w io.Writer) {
				fmt.Fprintf(w, "root   %s\nleaf   %s\namount %s\nvalid  %t\n", out.Root, out.Leaf, out.Amount, out.Valid)
				for _, p := range out.Proof {
					fmt.Fprintf(w, "proof  %s\n", p)
				}
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", outputText, "Output format: text, json or yaml")
	return cmd
}

type treeDiffCampaign struct {
	CampaignID string `json:"campaignId" yaml:"campaignId"`
	Diff       string `json:"diff" yaml:"diff"`
	OldTotal   string `json:"oldTotal" yaml:"oldTotal"`
	NewTotal   string `json:"newTotal" yaml:"newTotal"`
	Recipients int    `json:"recipients" yaml:"recipients"`
}

type treeDiffNegative struct {
	CampaignID string `json:"campaignId" yaml:"campaignId"`
	Recipient  string `json:"recipient" yaml:"recipient"`
	Reason     string `json:"reason" yaml:"reason"`
	Amount     string `json:"amount" yaml:"amount"`
}

type treeDiffOutput struct {
	OldRoot          string             `json:"oldRoot" yaml:"oldRoot"`
	NewRoot          string             `json:"newRoot" yaml:"newRoot"`
	Campaigns        []treeDiffCampaign `json:"campaigns" yaml:"campaigns"`
	NegativeDiffs    []treeDiffNegative `json:"negativeDiffs,omitempty" yaml:"negativeDiffs,omitempty"`
	MissingCampaigns []string           `json:"missingCampaigns,omitempty" yaml:"missingCampaigns,omitempty"`
}

func treeDiffCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "diff <old.json> <new.json>",
		Short: "Compare two snapshots without checking campaign budgets",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			oldTree, err := readTree(args[0])
			if err != nil {
				return err
			}
			newTree, err := readTree(args[1])
			if err != nil {
				return err
			}
			d, err := reward.ComputeDiff(oldTree, newTree, nil)
			if err != nil {
				return err
			}

			out := treeDiffOutput{OldRoot: oldTree.RootHex(), NewRoot: newTree.RootHex(), MissingCampaigns: d.MissingCampaigns}
			for _, id := range sortedIDs(d.PerCampaign) {
				c := d.PerCampaign[id]
				out.Campaigns = append(out.Campaigns, treeDiffCampaign{
					CampaignID: id,
					Diff:       c.Diff.String(),
					OldTotal:   c.OldTotal.String(),
					NewTotal:   c.NewTotal.String(),
					Recipients: c.Recipients,
				})
			}
			for _, l := range d.NegativeDiffs {
				out.NegativeDiffs = append(out.NegativeDiffs, treeDiffNegative{
					CampaignID: l.CampaignID,
					Recipient:  l.Recipient,
					Reason:     l.Reason,
					Amount:     l.Amount.String(),
				})
			}
			return render(cmd.OutOrStdout(), output, out, func(w io.Writer) {
				fmt.Fprintf(w, "old %s\nnew %s\n", out.OldRoot, out.NewRoot)
				for _, c := range out.Campaigns {
					fmt.Fprintf(w, "campaign %s diff %s (%s -> %s) recipients %d\n", c.CampaignID, c.Diff, c.OldTotal, c.NewTotal, c.Recipients)
				}
				for _, n := range out.NegativeDiffs {
					fmt.Fprintf(w, "negative %s %s %s %s\n", n.CampaignID, n.Recipient, n.Reason, n.Amount)
				}
				for _, id := range out.MissingCampaigns {
					fmt.Fprintf(w, "missing  %s\n", id)
				}
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", outputText, "Output format: text, json or yaml")
	return cmd
}

func sortedIDs(m map[string]*reward.CampaignDiff) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
