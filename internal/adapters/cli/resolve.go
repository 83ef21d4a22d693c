package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/colonyforge/internal/application/jobs/queries"
	"github.com/andrescamacho/colonyforge/internal/domain/catalog"
)

// NewResolveCommand creates the resolve command
func NewResolveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <family-key>",
		Short: "Show the target a series currently offers",
		Long: `Resolve which level a series offers next and whether it is actionable.

A series offers exactly one target: the first level when nothing is owned,
or the next level above what is owned. Fully built series report CAPPED;
unowned series whose first level is stage-locked report HIDDEN.

Examples:
  colony resolve building.barn
  colony resolve research.irrigation`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(args[0])
		},
	}
}

func runResolve(familyKey string) error {
	s, err := newSession(contextForCommand())
	if err != nil {
		return err
	}
	defer s.close()

	resp, err := s.engine.Send(s.ctx, &queries.ResolveTargetQuery{FamilyKey: familyKey})
	if err != nil {
		return err
	}
	result := resp.(*queries.ResolveTargetResponse)

	if result.Resolution != catalog.ResolutionOffered {
		fmt.Printf("%s: %s\n", familyKey, result.Resolution)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Target:\t%s\n", result.TargetID)
	fmt.Fprintf(w, "Level:\t%d (owned %d)\n", result.Level, result.OwnedLevel)
	fmt.Fprintf(w, "Upgrade:\t%v\n", result.IsUpgrade)
	fmt.Fprintf(w, "Stage ok:\t%v\n", result.StageOk)
	fmt.Fprintf(w, "Duration:\t%ds\n", result.DurationSeconds)
	fmt.Fprintf(w, "Cost:\t%s\n", formatAmounts(result.Cost))
	fmt.Fprintf(w, "Affordable:\t%v\n", result.CanAfford)
	if len(result.Shortfalls) > 0 {
		fmt.Fprintf(w, "Short on:\t%s\n", strings.Join(result.Shortfalls, ", "))
	}
	fmt.Fprintf(w, "Prerequisites ok:\t%v\n", result.PrerequisitesOk)
	fmt.Fprintf(w, "Capacity ok:\t%v\n", result.CapacityOk)
	if len(result.BlockedReasons) > 0 {
		fmt.Fprintf(w, "Blocked by:\t%s\n", strings.Join(result.BlockedReasons, "; "))
	}
	fmt.Fprintf(w, "Job running:\t%v\n", result.JobRunning)
	fmt.Fprintf(w, "Actionable:\t%v\n", result.Actionable())
	return w.Flush()
}

func formatAmounts(amounts map[string]float64) string {
	if len(amounts) == 0 {
		return "free"
	}
	parts := make([]string, 0, len(amounts))
	for id, amount := range amounts {
		parts = append(parts, fmt.Sprintf("%s x%g", id, amount))
	}
	return strings.Join(parts, ", ")
}
