package presenter

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// WriteText renders v for a terminal.
func WriteText(w io.Writer, v View) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "%s: %d%% chance of rain\n", v.Headline, v.Percent)
	if v.UV != nil {
		fmt.Fprintf(tw, "UV index estimate: %d/10 (%s risk)\n", v.UV.Index, v.UV.Risk)
	}

	fmt.Fprintln(tw, "\nCurrent conditions")
	for _, g := range v.Gauges {
		fmt.Fprintf(tw, "  %s\t%s%s\t%3.0f%% of %s..%s\n", g.Name, formatReading(g.Value), g.Unit, g.Fill*100, formatReading(g.Min), formatReading(g.Max))
	}

	fmt.Fprintln(tw, "\nFactor\tYour input\tFavourable\tEffect")
	for _, f := range v.Factors {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", f.Name, f.Current, f.Favourable, f.Effect)
	}

	fmt.Fprintln(tw, "\nMetric\tToday\tJanuary avg\tJuly avg")
	for _, s := range v.Seasonal {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.Metric, formatReading(s.Today), formatReading(s.January), formatReading(s.July))
	}
	return tw.Flush()
}
