package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// fakeR2 writes a shell script that answers -v and a few listing commands
// the way radare2 would.
func fakeR2(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported on windows")
	}
	script := `#!/bin/sh
if [ "$1" = "-v" ]; then
  echo "radare2 5.9.0"
  exit 0
fi
case "$3" in
  izz) printf '0x20 5 world\n0x10 5 "hello"\n' ;;
  icj) printf '[{"classname":"Lcom/example/Main;","addr":48}]' ;;
  "px @@ string.data") printf '0x00000040  6869 |Lcom/util,Helper;|\n' ;;
esac
`
	path := filepath.Join(t.TempDir(), "r2")
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("Failed to write fake r2: %v", err)
	}
	return path
}

func inputDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("dex\n"), 0644); err != nil {
			t.Fatalf("Failed to create %s: %v", name, err)
		}
	}
	return dir
}

func TestRunVersion(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), []string{"--version"}, &stdout, &stderr); code != 0 {
		t.Fatalf("run() = %d, stderr = %s", code, stderr.String())
	}
	if !strings.HasPrefix(stdout.String(), "dexstr ") {
		t.Errorf("stdout = %q", stdout.String())
	}
}

func TestRunMissingRadare(t *testing.T) {
	input := inputDir(t, "a.dex")
	output := filepath.Join(t.TempDir(), "out")
	missing := filepath.Join(t.TempDir(), "no-r2")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"--r2", missing, "-o", output, input}, &stdout, &stderr)
	if code != 1 {
		t.Fatalf("run() = %d, want 1", code)
	}
	if !strings.Contains(stdout.String(), "Please install radare2 first") {
		t.Errorf("stdout = %q", stdout.String())
	}
	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Errorf("output dir created before radare2 check (err = %v)", err)
	}
}

func TestRunNoDexFiles(t *testing.T) {
	input := inputDir(t, "readme.txt")
	output := filepath.Join(t.TempDir(), "out")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"--r2", fakeR2(t), "-o", output, input}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("run() = %d, stderr = %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "No .dex files found") {
		t.Errorf("stdout = %q", stdout.String())
	}
}

func TestRunEndToEnd(t *testing.T) {
	input := inputDir(t, "classes.dex")
	output := filepath.Join(t.TempDir(), "out")

	var stdout, stderr bytes.Buffer
	args := []string{"--r2", fakeR2(t), "-o", output, "--color", "never", "--stats", "-x", `^Lcom/util,`, input}
	code := run(context.Background(), args, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("run() = %d, stderr = %s", code, stderr.String())
	}

	report, err := os.ReadFile(filepath.Join(output, "classes_dex_strings.txt"))
	if err != nil {
		t.Fatalf("report missing: %v", err)
	}
	text := string(report)
	if !strings.Contains(text, "Total strings: 3\n") {
		t.Errorf("report header wrong:\n%s", text)
	}
	hello := strings.Index(text, "STRING: hello")
	world := strings.Index(text, "STRING: world")
	class := strings.Index(text, "STRING: Lcom/example/Main;")
	if hello < 0 || world < 0 || class < 0 || !(hello < world && world < class) {
		t.Errorf("report not sorted by address:\n%s", text)
	}
	if strings.Contains(text, "Helper") {
		t.Errorf("excluded string present:\n%s", text)
	}

	matches, _ := filepath.Glob(filepath.Join(output, "all_dex_strings_*.json"))
	if len(matches) != 1 {
		t.Errorf("found %d aggregate files, want 1", len(matches))
	}
	logs, _ := filepath.Glob(filepath.Join(output, "dex_string_analysis_log_*.txt"))
	if len(logs) != 1 {
		t.Errorf("found %d log files, want 1", len(logs))
	}

	if !strings.Contains(stdout.String(), "Statistics:") || !strings.Contains(stdout.String(), "Filtered out:         1") {
		t.Errorf("stats missing from stdout:\n%s", stdout.String())
	}
}

func TestRunConfigFile(t *testing.T) {
	input := inputDir(t, "a.dex")
	output := filepath.Join(t.TempDir(), "from-config")
	cfg := filepath.Join(t.TempDir(), "dexstr.yaml")
	body := "output: " + output + "\nr2: " + fakeR2(t) + "\npreview: 0\n"
	if err := os.WriteFile(cfg, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), []string{"--config", cfg, input}, &stdout, &stderr); code != 0 {
		t.Fatalf("run() = %d, stderr = %s", code, stderr.String())
	}
	if _, err := os.Stat(filepath.Join(output, "a_dex_strings.txt")); err != nil {
		t.Errorf("report not written to configured output: %v", err)
	}
	if strings.Contains(stdout.String(), "First ") {
		t.Errorf("preview printed despite preview: 0:\n%s", stdout.String())
	}
}

func TestRunInvalidPattern(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"--match", "[bad", t.TempDir()}, &stdout, &stderr)
	if code != 1 {
		t.Fatalf("run() = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "--match") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestRunStatsJSON(t *testing.T) {
	input := inputDir(t, "classes.dex")
	output := filepath.Join(t.TempDir(), "out")
	statsPath := filepath.Join(t.TempDir(), "stats.json")

	var stdout, stderr bytes.Buffer
	args := []string{"--r2", fakeR2(t), "-o", output, "--stats-json", statsPath, input}
	if code := run(context.Background(), args, &stdout, &stderr); code != 0 {
		t.Fatalf("run() = %d, stderr = %s", code, stderr.String())
	}

	data, err := os.ReadFile(statsPath)
	if err != nil {
		t.Fatalf("stats file missing: %v", err)
	}
	text := string(data)
	for _, want := range []string{"\n  \"files\": 1,", "\n  \"total_strings\": 4,", "\n  \"type_distribution\": {\n    \""} {
		if !strings.Contains(text, want) {
			t.Errorf("stats JSON missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(stdout.String(), "Statistics:") {
		t.Errorf("text statistics printed without --stats:\n%s", stdout.String())
	}
}
