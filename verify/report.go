package verify

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

// RowFilter selects which records appear in the report table.
type RowFilter func(r Record) bool

// FailuresOnly lists failing records.
func FailuresOnly(r Record) bool {
	return !r.Pass
}

// AllRecords lists every record.
func AllRecords(Record) bool {
	return true
}

// FirstAndFailures lists the first n records and every failure.
func FirstAndFailures(n int) RowFilter {
	return func(r Record) bool {
		return r.Index < n || !r.Pass
	}
}

func hex(v uint32) string {
	return fmt.Sprintf("0x%08X", v)
}

// WriteTable renders the selected records as a pass/fail table with a totals
// footer.
func (s Summary) WriteTable(w io.Writer, filter RowFilter) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(fmt.Sprintf("Verification: %s", s.Kernel))
	t.AppendHeader(table.Row{"Index", "Input", "Hardware", "Reference", "Result"})

	for _, r := range s.Records {
		if filter != nil && !filter(r) {
			continue
		}

		result := "PASS"
		if !r.Pass {
			result = "FAIL"
		}

		t.AppendRow(table.Row{
			r.Index, hex(r.Input), hex(r.Hardware), hex(r.Reference), result,
		})
	}

	t.AppendFooter(table.Row{
		"", "", "Pass", s.Pass, fmt.Sprintf("Fail %d", s.Fail),
	})
	t.Render()
}

// WriteReport writes a formatted report to a writer.
func (s Summary) WriteReport(w io.Writer, filter RowFilter) {
	separator := strings.Repeat("=", 60)

	fmt.Fprintln(w, separator)
	fmt.Fprintln(w, "CONVOLUTION ACCELERATOR VERIFICATION REPORT")
	fmt.Fprintln(w, separator)

	fmt.Fprintf(w, "Kernel:  %s\n", s.Kernel)
	if s.RunID != "" {
		fmt.Fprintf(w, "Run:     %s\n", s.RunID)
	}
	fmt.Fprintf(w, "Samples: %d\n", s.Total())
	fmt.Fprintf(w, "Cycles:  %d (0x%X)\n\n", s.Cycles, s.Cycles)

	s.WriteTable(w, filter)

	fmt.Fprintln(w)
	if s.OK() {
		fmt.Fprintf(w, "✓ ALL %d SAMPLES MATCH THE REFERENCE\n", s.Total())
	} else {
		fmt.Fprintf(w, "⚠ %d OF %d SAMPLES DIFFER FROM THE REFERENCE\n",
			s.Fail, s.Total())
	}

	fmt.Fprintln(w, separator)
}

// SaveToFile writes the full report, listing every record, to a file.
func (s Summary) SaveToFile(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	s.WriteReport(file, AllRecords)

	return nil
}
