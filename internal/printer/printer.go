// Package printer formats extracted DEX strings as per-file text reports,
// terminal previews and the aggregate JSON document.
package printer

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/richardwooding/dexstr/internal/record"
)

// Separator lines used in reports and run logs.
var (
	Rule      = strings.Repeat("-", 70)
	EntryRule = strings.Repeat("-", 50)
)

// ReportTimeLayout is the timestamp format in report headers.
const ReportTimeLayout = "2006-01-02 15:04:05.000000"

// ReportName returns the per-file report name for a DEX file name.
func ReportName(fileName string) string {
	base := fileName
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	return base + "_dex_strings.txt"
}

// WriteReport writes the human-readable listing for one file.
func WriteReport(w io.Writer, fileName string, records []record.Record, now time.Time) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "File: %s\n", fileName)
	fmt.Fprintf(bw, "Total strings: %d\n", len(records))
	fmt.Fprintf(bw, "Timestamp: %s\n", now.Format(ReportTimeLayout))
	fmt.Fprintf(bw, "%s\n\n", Rule)

	for _, r := range records {
		fmt.Fprintf(bw, "HEX ID: %s\n", r.HexID)
		fmt.Fprintf(bw, "SIZE: %s\n", r.Size)
		fmt.Fprintf(bw, "STRING: %s\n", r.Content)
		if r.Type != "" {
			fmt.Fprintf(bw, "TYPE: %s\n", r.Type)
		}
		fmt.Fprintf(bw, "%s\n", EntryRule)
	}

	return bw.Flush()
}

// WriteReportFile creates path and writes the report into it.
func WriteReportFile(path, fileName string, records []record.Record, now time.Time) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close report: %w", closeErr)
		}
	}()

	if err := WriteReport(f, fileName, records, now); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}

// Truncate shortens s to 47 runes plus "..." when it is longer than 50 runes.
func Truncate(s string) string {
	runes := []rune(s)
	if len(runes) > 50 {
		return string(runes[:47]) + "..."
	}
	return s
}

// PrintPreview writes the first n records as "addr [size]: content" lines.
func PrintPreview(w io.Writer, records []record.Record, n int, useColor bool) {
	if n <= 0 {
		return
	}
	if len(records) < n {
		n = len(records)
	}

	fmt.Fprintf(w, "  First %d strings:\n", n)
	for _, r := range records[:n] {
		fmt.Fprintf(w, "    %s [%s]: %s\n",
			ColorString(r.HexID, AnsiYellow, useColor),
			ColorString(r.Size, AnsiDim, useColor),
			Truncate(r.Content))
	}
}
