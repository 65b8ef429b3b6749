// Package batch drives extraction over every DEX file in a directory and
// writes the per-file reports, the run log and the aggregate JSON.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/richardwooding/dexstr/internal/extractor"
	"github.com/richardwooding/dexstr/internal/printer"
	"github.com/richardwooding/dexstr/internal/radare"
	"github.com/richardwooding/dexstr/internal/stats"
)

// DefaultOutputDir is where results go when no output directory is given.
const DefaultOutputDir = "dex_string_analysis"

// RunStampLayout names the log and aggregate files of one run.
const RunStampLayout = "20060102_150405"

// ErrNoDexFiles is returned when the input directory holds no .dex files.
var ErrNoDexFiles = errors.New("no .dex files found")

// Options configures a run.
type Options struct {
	InputDir  string
	OutputDir string
	Runner    radare.Runner
	Extract   extractor.Config

	// Preview is how many records to print per file.
	Preview  int
	UseColor bool

	// Stdout receives operator-facing progress. Nil means os.Stdout.
	Stdout io.Writer
	// Logger receives diagnostics. Nil discards them.
	Logger *logrus.Logger
	// Now is the clock. Nil means time.Now.
	Now func() time.Time
}

// Summary is what a run produced.
type Summary struct {
	Files     []string
	LogPath   string
	JSONPath  string
	Results   printer.Aggregate
	Reports   map[string]string // DEX file name to report path
	// FileStats holds the statistics of each processed file; Stats is
	// their merge.
	FileStats map[string]*stats.Statistics
	Stats     *stats.Statistics
}

// FindDexFiles lists the direct children of dir whose name ends in ".dex".
func FindDexFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".dex") {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

func (o *Options) defaults() {
	if o.InputDir == "" {
		o.InputDir = "."
	}
	if o.OutputDir == "" {
		o.OutputDir = DefaultOutputDir
	}
	if o.Runner == nil {
		o.Runner = radare.Exec{}
	}
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Logger == nil {
		o.Logger = logrus.New()
		o.Logger.SetOutput(io.Discard)
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// newRunLog opens the append-only log file of a run.
func newRunLog(path string) (*logrus.Logger, *os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("open run log: %w", err)
	}

	log := logrus.New()
	log.SetOutput(f)
	log.SetLevel(logrus.InfoLevel)
	log.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: printer.ReportTimeLayout,
	})
	return log, f, nil
}

// Run analyzes every .dex file in opts.InputDir.
//
// Files are processed one at a time in directory order. A file whose
// commands all fail simply yields no report. Errors writing reports, the
// log or the aggregate abort the run.
func Run(ctx context.Context, opts Options) (summary *Summary, err error) {
	opts.defaults()
	out := opts.Stdout
	diag := opts.Logger

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	files, err := FindDexFiles(opts.InputDir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		fmt.Fprintf(out, "No .dex files found in %s\n", opts.InputDir)
		return nil, fmt.Errorf("%w in %s", ErrNoDexFiles, opts.InputDir)
	}

	stamp := opts.Now().Format(RunStampLayout)
	summary = &Summary{
		Files:     files,
		LogPath:   filepath.Join(opts.OutputDir, "dex_string_analysis_log_"+stamp+".txt"),
		JSONPath:  filepath.Join(opts.OutputDir, "all_dex_strings_"+stamp+".json"),
		Results:   printer.Aggregate{},
		Reports:   map[string]string{},
		FileStats: map[string]*stats.Statistics{},
		Stats:     stats.New(),
	}

	fmt.Fprintf(out, "Found %d .dex files to analyze\n", len(files))
	fmt.Fprintf(out, "Output will be saved to %s\n", opts.OutputDir)
	fmt.Fprintf(out, "Log file: %s\n", summary.LogPath)
	fmt.Fprintln(out, printer.Rule)

	runLog, logFile, err := newRunLog(summary.LogPath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := logFile.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close run log: %w", closeErr)
		}
	}()

	runLog.WithField("input", opts.InputDir).Info("DEX string analysis started")
	runLog.Infof("Found %d .dex files to analyze", len(files))

	for i, name := range files {
		if ctx.Err() != nil {
			runLog.WithError(ctx.Err()).Warn("Analysis interrupted")
			break
		}
		if err := processFile(ctx, opts, runLog, summary, i+1, name); err != nil {
			return summary, err
		}
	}

	if err := printer.WriteJSONFile(summary.JSONPath, summary.Results); err != nil {
		return summary, err
	}

	st := summary.Stats
	runLog.WithFields(logrus.Fields{
		"files":               st.Files,
		"files_with_strings":  st.FilesWithStrings,
		"total_strings":       st.TotalStrings,
		"malformed_addresses": st.MalformedAddresses,
		"failed_commands":     st.LaunchFailures,
		"filtered":            st.Filtered,
	}).Info("DEX string analysis completed")
	runLog.Infof("Global JSON results saved to: %s", summary.JSONPath)
	diag.WithField("json", summary.JSONPath).Debug("Aggregate written")

	fmt.Fprintf(out, "\n%s\n", printer.Rule)
	fmt.Fprintf(out, "DEX string analysis complete! Check the %s folder for results.\n", opts.OutputDir)
	fmt.Fprintf(out, "Log file saved to: %s\n", summary.LogPath)
	fmt.Fprintf(out, "All strings saved to: %s\n", summary.JSONPath)

	return summary, ctx.Err()
}

// processFile extracts one file and records its outcome in summary.
func processFile(ctx context.Context, opts Options, runLog *logrus.Logger, summary *Summary, index int, name string) error {
	out := opts.Stdout
	total := len(summary.Files)
	fileLog := runLog.WithField("file", name)

	fmt.Fprintf(out, "\n[%d/%d] Processing: %s\n", index, total, name)
	fileLog.Infof("[%d/%d] Processing: %s", index, total, name)
	fmt.Fprintln(out, "  Extracting strings and hex addresses from DEX...")

	res := extractor.Extract(ctx, opts.Runner, filepath.Join(opts.InputDir, name), opts.Extract)
	fileStats := stats.New()
	fileStats.AddFile(name, res)
	summary.FileStats[name] = fileStats
	summary.Stats.Merge(fileStats)
	logOutcomes(opts.Logger, name, res)

	if len(res.Records) == 0 {
		fmt.Fprintln(out, "  No strings found or error occurred")
		fileLog.Info("No strings found or error occurred")
		return nil
	}

	reportPath := filepath.Join(opts.OutputDir, printer.ReportName(name))
	if err := printer.WriteReportFile(reportPath, name, res.Records, opts.Now()); err != nil {
		return err
	}

	fmt.Fprintf(out, "  Found %d strings\n", len(res.Records))
	fmt.Fprintf(out, "  Results saved to: %s\n", reportPath)
	fileLog.WithField("count", len(res.Records)).Infof("Found %d strings", len(res.Records))
	fileLog.Infof("Results saved to: %s", reportPath)

	summary.Results[name] = res.Records
	summary.Reports[name] = reportPath

	printer.PrintPreview(out, res.Records, opts.Preview, opts.UseColor)
	return nil
}

// logOutcomes reports per-command failures and skipped output as diagnostics.
func logOutcomes(log *logrus.Logger, name string, res extractor.FileResult) {
	for _, c := range res.Commands {
		entry := log.WithFields(logrus.Fields{
			"file":    name,
			"command": c.Command,
			"records": c.Records,
			"skipped": len(c.Skips),
		})
		if c.Err != nil {
			entry.WithError(c.Err).Warn("radare2 command failed")
			continue
		}
		entry.Debug("radare2 command parsed")
		for _, s := range c.Skips {
			log.WithFields(logrus.Fields{
				"file":    name,
				"command": c.Command,
				"line":    s.Line,
				"reason":  s.Reason,
			}).Trace(s.Text)
		}
	}
}
