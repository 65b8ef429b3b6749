// Package parser turns radare2 command output into string records.
//
// radare2's listing output is meant for humans and has no versioned grammar,
// so every shape this tool depends on is parsed here and nowhere else. Each
// parser reports the lines it could not use together with a reason, instead
// of failing.
package parser

import (
	"strings"
	"unicode"

	"github.com/richardwooding/dexstr/internal/record"
)

// Reason explains why a piece of output produced no record.
type Reason string

// Skip reasons.
const (
	ReasonTooFewFields  Reason = "too-few-fields"
	ReasonNoHexPrefix   Reason = "no-hex-prefix"
	ReasonInvalidJSON   Reason = "invalid-json"
	ReasonNotAnObject   Reason = "not-an-object"
	ReasonNoClassname   Reason = "no-classname"
	ReasonInvalidAddr   Reason = "invalid-addr"
	ReasonEmptyOutput   Reason = "empty-output"
	ReasonLaunchFailure Reason = "launch-failure"
)

// Skip is a line (or JSON element) that was ignored.
type Skip struct {
	// Line is 1-based; for JSON output it is the array index plus one,
	// and 0 when the whole output was rejected.
	Line   int
	Reason Reason
	Text   string
}

// Result is what a parser extracted from one command's output.
type Result struct {
	Records []record.Record
	Skips   []Skip
}

func (r *Result) skip(line int, reason Reason, text string) {
	r.Skips = append(r.Skips, Skip{Line: line, Reason: reason, Text: text})
}

// Func is the signature shared by all parsers.
type Func func(output string) Result

// lines splits command output the way it is printed, dropping trailing
// blank lines.
func lines(output string) []string {
	output = strings.TrimRightFunc(output, unicode.IsSpace)
	if output == "" {
		return nil
	}
	return strings.Split(output, "\n")
}

// Lines parses the "<0xADDR> <SIZE> <CONTENT...>" listings printed by izz,
// iz, is, izq and ir.
func Lines(output string) Result {
	var res Result
	for i, line := range lines(output) {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		fields := splitFields(line, 3)
		if len(fields) < 3 {
			res.skip(i+1, ReasonTooFewFields, line)
			continue
		}
		if !strings.HasPrefix(fields[0], "0x") {
			res.skip(i+1, ReasonNoHexPrefix, line)
			continue
		}

		res.Records = append(res.Records, record.Record{
			HexID:   fields[0],
			Size:    fields[1],
			Content: Unquote(strings.TrimSpace(fields[2])),
		})
	}
	return res
}

// splitFields splits s on runs of whitespace into at most n fields. The
// last field holds the unsplit remainder of the line.
func splitFields(s string, n int) []string {
	var fields []string
	rest := strings.TrimLeftFunc(s, unicode.IsSpace)
	for rest != "" {
		if len(fields) == n-1 {
			fields = append(fields, rest)
			break
		}
		end := strings.IndexFunc(rest, unicode.IsSpace)
		if end < 0 {
			fields = append(fields, rest)
			break
		}
		fields = append(fields, rest[:end])
		rest = strings.TrimLeftFunc(rest[end:], unicode.IsSpace)
	}
	return fields
}

// Unquote strips one pair of enclosing double quotes. A lone quote
// becomes the empty string.
func Unquote(s string) string {
	if strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		if len(s) < 2 {
			return ""
		}
		return s[1 : len(s)-1]
	}
	return s
}

// Hexdump parses the output of "px @@ string.data". Only rows with a '|'
// separator are considered; the text between the first and second bar is
// taken as the string.
func Hexdump(output string) Result {
	var res Result
	for i, line := range lines(output) {
		line = strings.TrimRight(line, "\r")
		if !strings.Contains(line, "|") {
			continue
		}

		parts := strings.SplitN(line, "|", 3)
		addr := strings.Fields(parts[0])
		if len(addr) == 0 || !strings.HasPrefix(addr[0], "0x") {
			res.skip(i+1, ReasonNoHexPrefix, line)
			continue
		}

		res.Records = append(res.Records, record.Record{
			HexID:   addr[0],
			Size:    record.SizeUnknown,
			Content: strings.TrimSpace(parts[1]),
			Type:    record.TypeStringTable,
		})
	}
	return res
}
