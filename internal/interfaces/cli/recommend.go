package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	rectypes "github.com/turtacn/ScenarioIQ/pkg/types/recommend"
)

// recommendOptions holds flags for the recommend command.
type recommendOptions struct {
	Platform    string
	Systems     []string
	Components  []string
	Standards   []string
	Description string
	Candidates  []string
	TopK        int
}

// recommendResult wraps a recommendation list for PrintResult.
type recommendResult struct {
	Recommendations []rectypes.Recommendation `json:"recommendations"`
	Count           int                       `json:"count"`
}

func (r recommendResult) String() string {
	if r.Count == 0 {
		return "no recommendations"
	}
	var sb strings.Builder
	for i, rec := range r.Recommendations {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("%d. %s", i+1, rec.Explain()))
	}
	return sb.String()
}

func (r recommendResult) TableHeaders() []string {
	return []string{"RANK", "SCENARIO", "SCORE", "SEMANTIC", "GRAPH", "RULE", "HISTORICAL"}
}

func (r recommendResult) TableRows() [][]string {
	rows := make([][]string, 0, len(r.Recommendations))
	for i, rec := range r.Recommendations {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			rec.ScenarioID,
			fmt.Sprintf("%.3f", rec.Score),
			fmt.Sprintf("%.3f", rec.Breakdown.Semantic),
			fmt.Sprintf("%.3f", rec.Breakdown.Graph),
			fmt.Sprintf("%.3f", rec.Breakdown.Rule),
			fmt.Sprintf("%.3f", rec.Breakdown.Historical),
		})
	}
	return rows
}

// NewRecommendCmd creates the recommend command and its select subcommand.
func NewRecommendCmd() *cobra.Command {
	opts := &recommendOptions{}

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Rank validation scenarios for a change request",
		Example: `  sceniq recommend --platform EV --system Battery --description "new cell chemistry"
  sceniq recommend --platform HEV --top-k 10 -o table`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecommend(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.Platform, "platform", "p", "", "powertrain platform, e.g. EV, HEV, ICE (required)")
	f.StringSliceVar(&opts.Systems, "system", nil, "vehicle system under test (repeatable)")
	f.StringSliceVar(&opts.Components, "component", nil, "component under test (repeatable)")
	f.StringSliceVar(&opts.Standards, "standard", nil, "regulatory standard to satisfy (repeatable)")
	f.StringVarP(&opts.Description, "description", "d", "", "free-text change description")
	f.StringSliceVar(&opts.Candidates, "candidate", nil, "restrict scoring to these scenario IDs (repeatable)")
	f.IntVarP(&opts.TopK, "top-k", "k", 0, "number of recommendations (0 = server default)")
	_ = cmd.MarkFlagRequired("platform")

	cmd.AddCommand(newRecommendSelectCmd())

	return cmd
}

func runRecommend(cmd *cobra.Command, opts *recommendOptions) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cliCtx.Timeout)
	defer cancel()

	result, err := cliCtx.Client.Recommendations().Recommend(ctx, rectypes.Query{
		Platform:     opts.Platform,
		Systems:      opts.Systems,
		Components:   opts.Components,
		Standards:    opts.Standards,
		Description:  opts.Description,
		CandidateIDs: opts.Candidates,
		TopK:         opts.TopK,
	})
	if err != nil {
		return err
	}

	return PrintResult(cmd, recommendResult{
		Recommendations: result.Recommendations,
		Count:           result.Count,
	})
}

// newRecommendSelectCmd creates the select subcommand, which reports the
// scenario an engineer actually picked so future rankings learn from it.
func newRecommendSelectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "select <scenario-id>",
		Short: "Record that a recommended scenario was selected",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cliCtx.Timeout)
			defer cancel()

			if err := cliCtx.Client.Recommendations().RecordSelection(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "recorded selection of %s\n", args[0])
			return nil
		},
	}
}
