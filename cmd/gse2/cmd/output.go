package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/ssargent/gse2/pkg/catalog"
	"github.com/ssargent/gse2/pkg/codec"
	"github.com/ssargent/gse2/pkg/trace"
)

const timeLayout = "2006-01-02T15:04:05.000000Z"

// outputTracesTable displays trace headers in table format
func outputTracesTable(out io.Writer, traces []*trace.Trace) error {
	if len(traces) == 0 {
		fmt.Fprintln(out, "No records found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "#\tSTATION\tCHANNEL\tSTART\tEND\tRATE\tSAMPLES\tCALIB\tTYPE")

	for i, tr := range traces {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%g\t%d\t%g\t%s\n",
			i,
			tr.Station,
			tr.Channel,
			tr.StartTime.UTC().Format(timeLayout),
			tr.EndTime().UTC().Format(timeLayout),
			tr.SamplingRate,
			tr.SampleCount,
			tr.Calibration,
			extensionString(tr.Extensions, codec.FieldDataType))
	}

	return nil
}

// outputEntriesTable displays catalog entries in table format
func outputEntriesTable(out io.Writer, entries []*catalog.Entry) error {
	if len(entries) == 0 {
		fmt.Fprintln(out, "No entries found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "ID\tSOURCE\t#\tSTATION\tCHANNEL\tSTART\tSAMPLES\tINDEXED")

	for _, e := range entries {
		source := e.Source
		if len(source) > 40 {
			source = "..." + source[len(source)-37:]
		}

		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\t%d\t%s\n",
			e.ID,
			source,
			e.Index,
			e.Station,
			e.Channel,
			e.StartTime.UTC().Format(timeLayout),
			e.SampleCount,
			e.IndexedAt.Format(time.RFC3339))
	}

	return nil
}

// outputEntryTable displays a single catalog entry
func outputEntryTable(out io.Writer, e *catalog.Entry) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	tr := e.Trace()

	fmt.Fprintf(w, "ID:\t%s\n", e.ID)
	fmt.Fprintf(w, "Source:\t%s\n", e.Source)
	fmt.Fprintf(w, "Record:\t%d\n", e.Index)
	fmt.Fprintf(w, "Trace:\t%s\n", tr)
	fmt.Fprintf(w, "Station:\t%s\n", tr.Station)
	fmt.Fprintf(w, "Channel:\t%s\n", tr.Channel)
	fmt.Fprintf(w, "Start:\t%s\n", tr.StartTime.UTC().Format(timeLayout))
	fmt.Fprintf(w, "End:\t%s\n", tr.EndTime().UTC().Format(timeLayout))
	fmt.Fprintf(w, "Rate:\t%g\n", tr.SamplingRate)
	fmt.Fprintf(w, "Samples:\t%d\n", tr.SampleCount)
	fmt.Fprintf(w, "Calibration:\t%g\n", tr.Calibration)

	for _, name := range []string{codec.FieldDataType, codec.FieldInstType, codec.FieldAuxID, codec.FieldCalPeriod, codec.FieldHAng, codec.FieldVAng} {
		if v, ok := tr.Extensions[name]; ok {
			fmt.Fprintf(w, "%s:\t%v\n", name, v)
		}
	}

	fmt.Fprintf(w, "Indexed:\t%s\n", e.IndexedAt.Format(time.RFC3339))

	return nil
}

// outputJSON displays any value in indented JSON format
func outputJSON(out io.Writer, v interface{}) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func extensionString(ext map[string]any, name string) string {
	if v, ok := ext[name].(string); ok {
		return v
	}
	return ""
}
