package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewEventsCommand creates the events command
func NewEventsCommand() *cobra.Command {
	var (
		limit int
		level string
	)

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show recent job lifecycle events",
		Long: `Show the durable job event history: starts, completions, cancels,
stale cleanups and deferred retries.

Examples:
  colony events --limit 20
  colony events --level WARN`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvents(limit, level)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of events to show")
	cmd.Flags().StringVar(&level, "level", "", "Filter by level (INFO, WARN, ERROR)")

	return cmd
}

func runEvents(limit int, level string) error {
	s, err := newSession(contextForCommand())
	if err != nil {
		return err
	}
	defer s.close()

	var levelFilter *string
	if level != "" {
		levelFilter = &level
	}

	events, err := s.events.RecentEvents(s.ctx, limit, levelFilter)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Println("No events")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tLEVEL\tMESSAGE\tTARGET")
	for _, event := range events {
		target := ""
		if t, ok := event.Metadata["target"].(string); ok {
			target = t
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			event.Timestamp.Format("2006-01-02 15:04:05"), event.Level, event.Message, target)
	}
	return w.Flush()
}
