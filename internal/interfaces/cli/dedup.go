package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	rectypes "github.com/turtacn/ScenarioIQ/pkg/types/recommend"
)

// dedupResult wraps duplicate groups for PrintResult.
type dedupResult struct {
	Groups []rectypes.DuplicateGroup `json:"groups"`
	Count  int                       `json:"count"`
}

func (r dedupResult) String() string {
	if r.Count == 0 {
		return "no duplicate groups found"
	}
	var sb strings.Builder
	for i, g := range r.Groups {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("%s: keep %s, merge %s (mean similarity %.3f)",
			g.GroupID, g.RepresentativeID,
			strings.Join(othersOf(g), ", "), g.MeanSimilarity))
	}
	return sb.String()
}

// othersOf lists a group's members except the representative.
func othersOf(g rectypes.DuplicateGroup) []string {
	others := make([]string, 0, len(g.MemberIDs)-1)
	for _, id := range g.MemberIDs {
		if id != g.RepresentativeID {
			others = append(others, id)
		}
	}
	return others
}

func (r dedupResult) TableHeaders() []string {
	return []string{"GROUP", "REPRESENTATIVE", "MEMBERS", "MEAN SIMILARITY"}
}

func (r dedupResult) TableRows() [][]string {
	rows := make([][]string, 0, len(r.Groups))
	for _, g := range r.Groups {
		rows = append(rows, []string{
			g.GroupID,
			g.RepresentativeID,
			strings.Join(g.MemberIDs, ","),
			fmt.Sprintf("%.3f", g.MeanSimilarity),
		})
	}
	return rows
}

// pairsResult wraps similar pairs for PrintResult.
type pairsResult struct {
	Pairs []rectypes.SimilarPair `json:"pairs"`
	Count int                    `json:"count"`
}

func (r pairsResult) String() string {
	if r.Count == 0 {
		return "no similar pairs found"
	}
	var sb strings.Builder
	for i, p := range r.Pairs {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("%s <-> %s  %.3f", p.ScenarioA, p.ScenarioB, p.Similarity))
	}
	return sb.String()
}

func (r pairsResult) TableHeaders() []string {
	return []string{"SCENARIO A", "SCENARIO B", "SIMILARITY"}
}

func (r pairsResult) TableRows() [][]string {
	rows := make([][]string, 0, len(r.Pairs))
	for _, p := range r.Pairs {
		rows = append(rows, []string{p.ScenarioA, p.ScenarioB, fmt.Sprintf("%.3f", p.Similarity)})
	}
	return rows
}

// NewDedupCmd creates the dedup command and its pairs subcommand.
func NewDedupCmd() *cobra.Command {
	var threshold float64

	cmd := &cobra.Command{
		Use:   "dedup",
		Short: "Detect duplicated validation scenarios in the corpus",
		Example: `  sceniq dedup
  sceniq dedup --threshold 0.9 -o table`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDedup(cmd, threshold)
		},
	}

	cmd.Flags().Float64VarP(&threshold, "threshold", "t", 0, "similarity threshold override (0 = server default)")

	cmd.AddCommand(newDedupPairsCmd())

	return cmd
}

func runDedup(cmd *cobra.Command, threshold float64) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cliCtx.Timeout)
	defer cancel()

	result, err := cliCtx.Client.Duplicates().Detect(ctx, rectypes.DedupRequest{Threshold: threshold})
	if err != nil {
		return err
	}

	return PrintResult(cmd, dedupResult{Groups: result.Groups, Count: result.Count})
}

// newDedupPairsCmd creates the pairs subcommand, which lists scenario pairs
// above a similarity threshold without grouping them.
func newDedupPairsCmd() *cobra.Command {
	var threshold float64

	cmd := &cobra.Command{
		Use:   "pairs",
		Short: "List scenario pairs above a similarity threshold",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cliCtx.Timeout)
			defer cancel()

			result, err := cliCtx.Client.Duplicates().Pairs(ctx, threshold)
			if err != nil {
				return err
			}

			return PrintResult(cmd, pairsResult{Pairs: result.Pairs, Count: result.Count})
		},
	}

	cmd.Flags().Float64VarP(&threshold, "threshold", "t", 0.85, "similarity threshold in [0,1]")
	return cmd
}
