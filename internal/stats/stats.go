// Package stats aggregates statistics over the records extracted in a run.
package stats

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/exp/slices"

	"github.com/richardwooding/dexstr/internal/extractor"
	"github.com/richardwooding/dexstr/internal/parser"
	"github.com/richardwooding/dexstr/internal/printer"
	"github.com/richardwooding/dexstr/internal/record"
)

const (
	// TypeListing is the type bucket for records from the plain listings.
	TypeListing = "listing"

	maxLongest = 5
)

// Statistics holds aggregated statistics about extracted records
type Statistics struct {
	// File counts
	Files            int
	FilesWithStrings int

	// Count statistics
	TotalStrings       int
	TotalBytes         int64
	MaxLength          int
	Filtered           int // Records dropped by match/exclude patterns
	MalformedAddresses int // Records whose 0x address is not valid hex
	LaunchFailures     int // Commands that could not be started

	// Distribution maps
	TypeCounts    map[string]int
	LengthBuckets map[string]int
	SkipReasons   map[parser.Reason]int

	// Longest strings
	LongestStrings []LongestString
}

// LongestString represents one of the longest strings found
type LongestString struct {
	File   string
	HexID  string
	Value  string
	Length int
}

// New creates a new Statistics instance with initialized maps
func New() *Statistics {
	return &Statistics{
		TypeCounts:     make(map[string]int),
		LengthBuckets:  make(map[string]int),
		SkipReasons:    make(map[parser.Reason]int),
		LongestStrings: make([]LongestString, 0, maxLongest),
	}
}

// AddFile folds one file's extraction result into the statistics.
func (s *Statistics) AddFile(name string, res extractor.FileResult) {
	s.Files++
	if len(res.Records) > 0 {
		s.FilesWithStrings++
	}
	s.Filtered += res.Filtered

	for _, c := range res.Commands {
		if c.Err != nil {
			s.LaunchFailures++
		}
		for _, skip := range c.Skips {
			s.SkipReasons[skip.Reason]++
		}
	}

	for _, r := range res.Records {
		s.Add(name, r)
	}
}

// Add adds a single record to the statistics.
func (s *Statistics) Add(file string, r record.Record) {
	s.TotalStrings++

	length := utf8.RuneCountInString(r.Content)
	s.TotalBytes += int64(len(r.Content))
	if length > s.MaxLength {
		s.MaxLength = length
	}

	if !record.WellFormedAddress(r.HexID) {
		s.MalformedAddresses++
	}

	kind := r.Type
	if kind == "" {
		kind = TypeListing
	}
	s.TypeCounts[kind]++
	s.LengthBuckets[getBucket(length)]++

	s.updateLongest(LongestString{File: file, HexID: r.HexID, Value: r.Content, Length: length})
}

// getBucket returns the length bucket for a string
func getBucket(length int) string {
	switch {
	case length <= 10:
		return "0-10"
	case length <= 50:
		return "11-50"
	case length <= 100:
		return "51-100"
	default:
		return "100+"
	}
}

func (s *Statistics) updateLongest(entries ...LongestString) {
	s.LongestStrings = append(s.LongestStrings, entries...)
	slices.SortStableFunc(s.LongestStrings, func(a, b LongestString) int {
		return b.Length - a.Length
	})
	if len(s.LongestStrings) > maxLongest {
		s.LongestStrings = s.LongestStrings[:maxLongest]
	}
}

// AvgLength calculates the average string length in bytes
func (s *Statistics) AvgLength() float64 {
	if s.TotalStrings == 0 {
		return 0.0
	}
	return float64(s.TotalBytes) / float64(s.TotalStrings)
}

// Merge combines another Statistics instance into this one
func (s *Statistics) Merge(other *Statistics) {
	s.Files += other.Files
	s.FilesWithStrings += other.FilesWithStrings
	s.TotalStrings += other.TotalStrings
	s.TotalBytes += other.TotalBytes
	s.Filtered += other.Filtered
	s.MalformedAddresses += other.MalformedAddresses
	s.LaunchFailures += other.LaunchFailures
	if other.MaxLength > s.MaxLength {
		s.MaxLength = other.MaxLength
	}

	for k, v := range other.TypeCounts {
		s.TypeCounts[k] += v
	}
	for k, v := range other.LengthBuckets {
		s.LengthBuckets[k] += v
	}
	for k, v := range other.SkipReasons {
		s.SkipReasons[k] += v
	}

	s.updateLongest(other.LongestStrings...)
}

// Format outputs human-readable statistics to the writer with optional colors
//
//nolint:errcheck // Writing to stdout/buffer, errors are not critical
func (s *Statistics) Format(w io.Writer, colorMode printer.ColorMode) {
	useColor := printer.ShouldUseColor(colorMode)
	num := func(n int) string {
		return printer.ColorString(formatNumber(n), printer.AnsiYellow, useColor)
	}
	heading := func(h string) string {
		return printer.ColorString(h, printer.AnsiBold+printer.AnsiCyan, useColor)
	}

	fmt.Fprintf(w, "%s\n", heading("Statistics:"))
	fmt.Fprintf(w, "  Files analyzed:       %s\n", num(s.Files))
	fmt.Fprintf(w, "  Files with strings:   %s\n", num(s.FilesWithStrings))
	fmt.Fprintf(w, "  Total strings:        %s\n", num(s.TotalStrings))
	fmt.Fprintf(w, "  Total bytes:          %s\n", num(int(s.TotalBytes)))
	fmt.Fprintf(w, "  Max length:           %s\n", num(s.MaxLength))
	fmt.Fprintf(w, "  Avg length:           %s\n",
		printer.ColorString(fmt.Sprintf("%.1f", s.AvgLength()), printer.AnsiYellow, useColor))
	if s.Filtered > 0 {
		fmt.Fprintf(w, "  Filtered out:         %s\n", num(s.Filtered))
	}
	if s.MalformedAddresses > 0 {
		fmt.Fprintf(w, "  Malformed addresses:  %s\n", num(s.MalformedAddresses))
	}
	if s.LaunchFailures > 0 {
		fmt.Fprintf(w, "  Failed commands:      %s\n", num(s.LaunchFailures))
	}
	fmt.Fprintln(w)

	if len(s.TypeCounts) > 0 {
		fmt.Fprintf(w, "  %s\n", heading("Type distribution:"))
		for _, kind := range sortedKeys(s.TypeCounts) {
			count := s.TypeCounts[kind]
			name := printer.ColorString(kind+":", printer.AnsiMagenta, useColor)
			pct := printer.ColorString(fmt.Sprintf("%5.1f%%", percentage(count, s.TotalStrings)), printer.AnsiGreen, useColor)
			fmt.Fprintf(w, "    %-15s %6s (%s)\n", name, num(count), pct)
		}
		fmt.Fprintln(w)
	}

	if len(s.LengthBuckets) > 0 {
		fmt.Fprintf(w, "  %s\n", heading("Length distribution:"))
		for _, bucket := range []string{"0-10", "11-50", "51-100", "100+"} {
			if count, ok := s.LengthBuckets[bucket]; ok {
				pct := printer.ColorString(fmt.Sprintf("%5.1f%%", percentage(count, s.TotalStrings)), printer.AnsiGreen, useColor)
				fmt.Fprintf(w, "    %s chars:    %6s (%s)\n", bucket, num(count), pct)
			}
		}
		fmt.Fprintln(w)
	}

	if len(s.SkipReasons) > 0 {
		fmt.Fprintf(w, "  %s\n", heading("Skipped output:"))
		reasons := make(map[string]int, len(s.SkipReasons))
		for k, v := range s.SkipReasons {
			reasons[string(k)] = v
		}
		for _, reason := range sortedKeys(reasons) {
			fmt.Fprintf(w, "    %-16s %6s\n", reason+":", num(reasons[reason]))
		}
		fmt.Fprintln(w)
	}

	if len(s.LongestStrings) > 0 {
		fmt.Fprintf(w, "  %s\n", heading("Longest strings:"))
		for _, ls := range s.LongestStrings {
			fmt.Fprintf(w, "    %s chars at %s in %s: %s\n",
				num(ls.Length),
				printer.ColorString(ls.HexID, printer.AnsiYellow, useColor),
				ls.File,
				printer.ColorString(fmt.Sprintf("%q", printer.Truncate(ls.Value)), printer.AnsiDim, useColor))
		}
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// formatNumber adds thousand separators to numbers
func formatNumber(n int) string {
	str := fmt.Sprintf("%d", n)
	if n < 1000 {
		return str
	}

	var b strings.Builder
	for i, digit := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}
	return b.String()
}

// percentage calculates percentage with 1 decimal place
func percentage(part, total int) float64 {
	if total == 0 {
		return 0.0
	}
	return float64(part) * 100.0 / float64(total)
}

// ToJSON converts statistics to JSON format
func (s *Statistics) ToJSON() ([]byte, error) {
	output := map[string]any{
		"files":               s.Files,
		"files_with_strings":  s.FilesWithStrings,
		"total_strings":       s.TotalStrings,
		"total_bytes":         s.TotalBytes,
		"max_length":          s.MaxLength,
		"avg_length":          s.AvgLength(),
		"filtered":            s.Filtered,
		"malformed_addresses": s.MalformedAddresses,
		"launch_failures":     s.LaunchFailures,
	}

	if len(s.TypeCounts) > 0 {
		output["type_distribution"] = s.TypeCounts
	}
	if len(s.LengthBuckets) > 0 {
		output["length_distribution"] = s.LengthBuckets
	}
	if len(s.SkipReasons) > 0 {
		output["skip_reasons"] = s.SkipReasons
	}

	if len(s.LongestStrings) > 0 {
		longest := make([]map[string]any, len(s.LongestStrings))
		for i, ls := range s.LongestStrings {
			longest[i] = map[string]any{
				"file":    ls.File,
				"hex_id":  ls.HexID,
				"length":  ls.Length,
				"preview": printer.Truncate(ls.Value),
			}
		}
		output["longest_strings"] = longest
	}

	return printer.MarshalIndent(output)
}
