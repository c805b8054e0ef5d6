package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/mrwillibald/nuliga-helper/internal/game"
	"github.com/mrwillibald/nuliga-helper/internal/planner"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// WriteOutput writes the run summary in the specified format
func WriteOutput(w io.Writer, summary *planner.Summary, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, summary)
	case FormatText:
		return writeText(w, summary, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs the summary as JSON
func writeJSON(w io.Writer, summary *planner.Summary) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(summary)
}

// writeText outputs the summary as human-readable text
func writeText(w io.Writer, summary *planner.Summary, verbose bool) error {
	fmt.Fprintf(w, "Run %s for %s (season %s)\n", summary.RunID, summary.Today, summary.Season)

	fmt.Fprintf(w, "Games in roster: %d", summary.Games)
	if summary.Bootstrapped {
		fmt.Fprint(w, " (started from league schedule)")
	}
	fmt.Fprintln(w)

	if len(summary.Changes) == 0 {
		fmt.Fprintln(w, "No changes detected.")
	} else {
		fmt.Fprintf(w, "\nChanges (%d):\n", len(summary.Changes))
		for _, c := range summary.Changes {
			fmt.Fprintf(w, "  %s\n", describeChange(c))
		}
	}

	if len(summary.Notifications) > 0 {
		categories := make([]string, 0, len(summary.Notifications))
		for category := range summary.Notifications {
			categories = append(categories, category)
		}
		sort.Strings(categories)

		fmt.Fprintln(w, "\nNotifications:")
		for _, category := range categories {
			t := summary.Notifications[category]
			fmt.Fprintf(w, "  %-10s sent %d, skipped %d, failed %d\n", category, t.Sent, t.Skipped, t.Failed)
		}
	}
	fmt.Fprintf(w, "\nTotal: %d sent, %d skipped, %d failed\n", summary.Total.Sent, summary.Total.Skipped, summary.Total.Failed)

	if summary.Uploaded {
		fmt.Fprintln(w, "Roster uploaded.")
	}
	if summary.RosterKept {
		fmt.Fprintf(w, "Persisted roster left untouched, merged roster saved to %s\n", summary.SavedTo)
	}

	if verbose {
		names := make([]string, 0, len(summary.Metrics.Timings))
		for name := range summary.Metrics.Timings {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			timing := summary.Metrics.Timings[name]
			fmt.Fprintf(w, "  timing %s: %s (n=%d)\n", name, timing.Total, timing.Count)
		}
	}

	return nil
}

func describeChange(c game.Change) string {
	switch c.Kind {
	case game.ChangeScheduleShift:
		return fmt.Sprintf("#%d rescheduled: %s %s -> %s %s", c.Number, c.OldDate, c.OldTime, c.NewDate, c.NewTime)
	case game.ChangeRefereeMissing:
		return fmt.Sprintf("#%d needs a home referee on %s %s", c.Number, c.NewDate, c.NewTime)
	case game.ChangeUnmatchedGame:
		return fmt.Sprintf("#%d missing from roster", c.Number)
	default:
		return fmt.Sprintf("#%d %s", c.Number, c.Kind)
	}
}
