package cli

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewStatusCommand creates the status command
func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show player state: stage, inventory and job counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus()
		},
	}
}

func runStatus() error {
	s, err := newSession(contextForCommand())
	if err != nil {
		return err
	}
	defer s.close()

	state := s.engine.State()
	fmt.Printf("Stage: %d\n", state.Stage())
	fmt.Printf("Jobs: %d\n\n", s.engine.Store().Count())

	amounts := state.Ledger().Amounts()
	ids := make([]string, 0, len(amounts))
	for id := range amounts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RESOURCE\tAMOUNT")
	for _, id := range ids {
		fmt.Fprintf(w, "%s\t%g\n", id, amounts[id])
	}
	return w.Flush()
}
