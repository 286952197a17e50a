package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/gematik/app-AfoReporter/evidence"
	"github.com/gematik/app-AfoReporter/storage"
)

const historyTimeLayout = "2006-01-02 15:04:05"

func printRuns(out io.Writer, runs []*storage.Run) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(out, "No archived runs")
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTARTED\tFAMILY\tREQUIREMENTS\tPASSED\tFAILED\tERROR\tSKIPPED\tUNKNOWN")
	for _, r := range runs {
		s := r.Summary
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\n",
			r.ID,
			r.StartedAt.Local().Format(historyTimeLayout),
			r.Family,
			s.Sum(),
			s.Count(evidence.StatusPassed),
			s.Count(evidence.StatusFailed),
			s.Count(evidence.StatusError),
			s.Count(evidence.StatusSkipped),
			s.RealUnknown())
	}
	return tw.Flush()
}

// showRun prints one archived run as JSON.
func showRun(ctx context.Context, out io.Writer, store *storage.Store, id storage.RunID) error {
	run, err := store.GetRun(ctx, id)
	if err != nil {
		return fmt.Errorf("run %s: %w", id, err)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(run)
}
