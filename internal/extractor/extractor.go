// Package extractor runs the fixed set of radare2 string listings against a
// DEX file and merges their output into one ordered record list.
package extractor

import (
	"context"
	"regexp"

	"github.com/richardwooding/dexstr/internal/parser"
	"github.com/richardwooding/dexstr/internal/radare"
	"github.com/richardwooding/dexstr/internal/record"
)

// Config holds the configuration for string extraction
type Config struct {
	MatchPatterns   []*regexp.Regexp // Only keep strings matching at least one pattern
	ExcludePatterns []*regexp.Regexp // Drop strings matching any pattern
}

// Command is one radare2 command and the parser for its output.
type Command struct {
	Name  string
	Parse parser.Func
}

// Commands lists the radare2 invocations made for every file, in order.
var Commands = []Command{
	{Name: "izz", Parse: parser.Lines},                 // strings from the whole binary
	{Name: "iz", Parse: parser.Lines},                  // strings from data sections
	{Name: "is", Parse: parser.Lines},                  // symbols
	{Name: "icj", Parse: parser.Classes},               // classes, JSON
	{Name: "izq", Parse: parser.Lines},                 // quiet string listing
	{Name: "ir", Parse: parser.Lines},                  // relocations / references
	{Name: "px @@ string.data", Parse: parser.Hexdump}, // string table hexdump
}

// CommandOutcome records what one command contributed.
type CommandOutcome struct {
	Command string
	Records int
	Skips   []parser.Skip
	Err     error // launch failure, if any
}

// FileResult is the extraction result for one file.
type FileResult struct {
	File     string
	Records  []record.Record
	Commands []CommandOutcome
	// Filtered counts records dropped by match/exclude patterns.
	Filtered int
}

// Extract runs every command in Commands against path and returns the
// deduplicated records sorted by address. Failed or empty commands
// contribute nothing; only stdout is parsed.
func Extract(ctx context.Context, runner radare.Runner, path string, config Config) FileResult {
	result := FileResult{File: path}

	var all []record.Record
	for _, c := range Commands {
		out := runner.Run(ctx, path, c.Name)
		outcome := CommandOutcome{Command: c.Name, Err: out.Err}

		switch {
		case out.Err != nil:
			outcome.Skips = []parser.Skip{{Reason: parser.ReasonLaunchFailure, Text: out.Stderr}}
		case out.Stdout == "":
			outcome.Skips = []parser.Skip{{Reason: parser.ReasonEmptyOutput}}
		default:
			parsed := c.Parse(out.Stdout)
			outcome.Records = len(parsed.Records)
			outcome.Skips = parsed.Skips
			all = append(all, parsed.Records...)
		}

		result.Commands = append(result.Commands, outcome)
	}

	unique := record.Normalize(all)
	kept := unique[:0]
	for _, r := range unique {
		if ShouldKeep(r.Content, config) {
			kept = append(kept, r)
		}
	}
	result.Filtered = len(unique) - len(kept)
	result.Records = kept

	return result
}
