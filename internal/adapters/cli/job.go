package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/colonyforge/internal/application/jobs/commands"
	"github.com/andrescamacho/colonyforge/internal/application/jobs/queries"
)

func contextForCommand() context.Context {
	return context.Background()
}

// NewStartCommand creates the start command
func NewStartCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "start <target-id>",
		Short: "Start a timed job for a catalog target",
		Long: `Start a job against an exact catalog target. The cost is escrowed when
the backend accepts and the job completes on a later invocation (or under
the daemon) once its end time passes.

Examples:
  colony start building.barn.l1
  colony start research.irrigation.l2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStart(args[0])
		},
	}
}

func runStart(targetID string) error {
	s, err := newSession(contextForCommand())
	if err != nil {
		return err
	}
	defer s.close()

	resp, err := s.engine.Send(s.ctx, &commands.StartJobCommand{TargetID: targetID})
	if err != nil {
		return err
	}
	result := resp.(*commands.StartJobResponse)

	fmt.Printf("Started %s (job %s)\n", result.TargetID, result.JobID)
	fmt.Printf("Finishes at %s (%ds remaining)\n", result.EndUTC, result.RemainingSeconds)
	if len(result.LockedCosts) > 0 {
		fmt.Printf("Escrowed: %s\n", formatAmounts(result.LockedCosts))
	}
	return nil
}

// NewCancelCommand creates the cancel command
func NewCancelCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <target-id>",
		Short: "Cancel the running job for a target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCancel(args[0])
		},
	}
}

func runCancel(targetID string) error {
	s, err := newSession(contextForCommand())
	if err != nil {
		return err
	}
	defer s.close()

	if _, err := s.engine.Send(s.ctx, &commands.CancelJobCommand{TargetID: targetID}); err != nil {
		return err
	}
	fmt.Printf("Cancelled job for %s\n", targetID)
	return nil
}

// NewJobsCommand creates the jobs command
func NewJobsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "jobs",
		Short: "List running and pending-completion jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJobs()
		},
	}
}

func runJobs() error {
	s, err := newSession(contextForCommand())
	if err != nil {
		return err
	}
	defer s.close()

	resp, err := s.engine.Send(s.ctx, &queries.ListJobsQuery{})
	if err != nil {
		return err
	}
	result := resp.(*queries.ListJobsResponse)

	if len(result.Jobs) == 0 {
		fmt.Println("No jobs")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TARGET\tJOB\tSTATE\tPROGRESS\tREMAINING\tENDS")
	for _, j := range result.Jobs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.0f%%\t%ds\t%s\n",
			j.TargetID, j.JobID, j.State, j.Fraction*100, j.RemainingSeconds, j.EndUTC)
	}
	return w.Flush()
}
