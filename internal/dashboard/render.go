package dashboard

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// Render writes snap as a plain-text table, one block per section.
func Render(w io.Writer, snap Snapshot, f *Formatter) error {
	if snap.Err != nil {
		_, err := fmt.Fprintf(w, "error: %v\n", snap.Err)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, s := range snap.Sections {
		if i > 0 {
			fmt.Fprintln(tw)
		}
		if s.Name != "" {
			fmt.Fprintf(tw, "[%s]\n", s.Name)
		}

		for _, e := range s.Entries {
			switch {
			case e.Pending:
				fmt.Fprintf(tw, "%s\t%s\n", e.Favorite.Name, f.Loading())
			case e.Arrival == nil:
				fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Favorite.Name, f.NoInformation(), f.NoInformationHint())
			default:
				a := e.Arrival
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					e.Favorite.Name,
					f.Route(*a),
					a.NodeName,
					f.Arrival(a.ArrivalSecs),
					f.StopsAway(a.StopsAway),
				)
			}
		}
	}

	if !snap.UpdatedAt.IsZero() && !snap.Loading() {
		fmt.Fprintf(tw, "\nupdated %s\n", snap.UpdatedAt.Format("15:04:05"))
	}
	return tw.Flush()
}
