// Package main implements dexstr, which extracts strings, symbols and class
// names from a directory of DEX files using radare2.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/alecthomas/kong"
	"github.com/sirupsen/logrus"

	"github.com/richardwooding/dexstr/internal/batch"
	"github.com/richardwooding/dexstr/internal/config"
	"github.com/richardwooding/dexstr/internal/extractor"
	"github.com/richardwooding/dexstr/internal/printer"
	"github.com/richardwooding/dexstr/internal/radare"
)

const version = "1.0.0"

// CLI defines the command-line interface structure
type CLI struct {
	InputDir   string          `arg:"" optional:"" name:"input-dir" default:"." help:"Directory containing .dex files" type:"path"`
	Output     string          `short:"o" name:"output" default:"dex_string_analysis" help:"Directory for reports, run log and aggregate JSON"`
	R2         string          `name:"r2" default:"r2" help:"radare2 binary to run"`
	Timeout    time.Duration   `name:"timeout" default:"0s" help:"Timeout for each radare2 command (0 = none)"`
	Preview    int             `name:"preview" default:"5" help:"Number of strings to preview per file (0 = none)"`
	Match      []string        `short:"m" name:"match" sep:"none" help:"Only keep strings matching regex (repeatable)"`
	Exclude    []string        `short:"x" name:"exclude" sep:"none" help:"Drop strings matching regex (repeatable)"`
	IgnoreCase bool            `short:"i" name:"ignore-case" help:"Case-insensitive matching for --match and --exclude"`
	Stats      bool            `name:"stats" help:"Print statistics after the run"`
	StatsJSON  string          `name:"stats-json" help:"Write run statistics as JSON to this file"`
	Color      string          `name:"color" enum:"auto,always,never" default:"auto" help:"Colorize output (auto/always/never)"`
	LogLevel   string          `name:"log-level" enum:"trace,debug,info,warn,error" default:"warn" help:"Diagnostic log level on stderr"`
	Config     kong.ConfigFlag `name:"config" help:"Load flag defaults from a YAML file"`
	Version    bool            `short:"v" name:"version" help:"Display version information"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func newParser(cli *CLI, stdout, stderr io.Writer) (*kong.Kong, error) {
	return kong.New(cli,
		kong.Name("dexstr"),
		kong.Description("Extract strings, symbols and class names from DEX files with radare2."),
		kong.UsageOnError(),
		kong.Writers(stdout, stderr),
		kong.Configuration(config.Loader, config.DefaultPaths...),
	)
}

func newLogger(w io.Writer, level string) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	log := logrus.New()
	log.SetOutput(w)
	log.SetLevel(lvl)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return log, nil
}

// run executes dexstr and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var cli CLI
	parser, err := newParser(&cli, stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "dexstr: %v\n", err)
		return 1
	}
	if _, err := parser.Parse(args); err != nil {
		fmt.Fprintf(stderr, "dexstr: error: %v\n", err)
		return 1
	}

	if cli.Version {
		fmt.Fprintf(stdout, "dexstr %s\n", version)
		return 0
	}

	log, err := newLogger(stderr, cli.LogLevel)
	if err != nil {
		fmt.Fprintf(stderr, "dexstr: %v\n", err)
		return 1
	}

	colorMode, err := printer.ParseColorMode(cli.Color)
	if err != nil {
		fmt.Fprintf(stderr, "dexstr: %v\n", err)
		return 1
	}

	matchPatterns, err := extractor.CompilePatterns(cli.Match, cli.IgnoreCase)
	if err != nil {
		fmt.Fprintf(stderr, "dexstr: --match: %v\n", err)
		return 1
	}
	excludePatterns, err := extractor.CompilePatterns(cli.Exclude, cli.IgnoreCase)
	if err != nil {
		fmt.Fprintf(stderr, "dexstr: --exclude: %v\n", err)
		return 1
	}

	r2 := radare.Exec{Path: cli.R2, Timeout: cli.Timeout}
	r2Version, err := r2.Probe(ctx)
	if err != nil {
		log.WithError(err).Debug("radare2 probe failed")
		fmt.Fprintln(stdout, "Error: radare2 is not installed or not in PATH")
		fmt.Fprintln(stdout, "Please install radare2 first: https://github.com/radareorg/radare2")
		return 1
	}
	log.WithField("version", r2Version).Debug("radare2 found")

	summary, err := batch.Run(ctx, batch.Options{
		InputDir:  cli.InputDir,
		OutputDir: cli.Output,
		Runner:    r2,
		Extract: extractor.Config{
			MatchPatterns:   matchPatterns,
			ExcludePatterns: excludePatterns,
		},
		Preview:  cli.Preview,
		UseColor: printer.ShouldUseColor(colorMode),
		Stdout:   stdout,
		Logger:   log,
	})
	if errors.Is(err, batch.ErrNoDexFiles) {
		return 0
	}

	if cli.Stats && summary != nil {
		fmt.Fprintln(stdout)
		summary.Stats.Format(stdout, colorMode)
	}
	if cli.StatsJSON != "" && summary != nil {
		if werr := writeStatsJSON(cli.StatsJSON, summary); werr != nil {
			fmt.Fprintf(stderr, "dexstr: %v\n", werr)
			return 1
		}
	}

	if err != nil {
		fmt.Fprintf(stderr, "dexstr: %v\n", err)
		return 1
	}
	return 0
}

func writeStatsJSON(path string, summary *batch.Summary) error {
	data, err := summary.Stats.ToJSON()
	if err != nil {
		return fmt.Errorf("encode statistics: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write statistics: %w", err)
	}
	return nil
}
