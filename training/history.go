package training

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"weathersense/db"
)

type RunLister interface {
	ListTrainingRuns(ctx context.Context, limit int) ([]db.TrainingRun, error)
}

// PrintHistory writes the most recent runs as an aligned table.
func PrintHistory(ctx context.Context, w io.Writer, runs RunLister, limit int) error {
	list, err := runs.ListTrainingRuns(ctx, limit)
	if err != nil {
		return fmt.Errorf("list training runs: %w", err)
	}
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, "no training runs recorded")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TRAINED AT\tRUN\tROWS\tACCURACY\tPRECISION\tRECALL\tF1\tMODEL")
	for _, r := range list {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.4f\t%.2f\t%.2f\t%.2f\t%s\n",
			r.TrainedAt.UTC().Format("2006-01-02 15:04:05"),
			shortID(r.RunID),
			r.DataPoints,
			r.Accuracy,
			r.Precision,
			r.Recall,
			r.F1,
			shortID(r.ModelFingerprint),
		)
	}
	return tw.Flush()
}

func shortID(s string) string {
	if len(s) > 8 {
		return s[:8]
	}
	return s
}
