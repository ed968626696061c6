package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bft-labs/gpwatch"
	"github.com/bft-labs/gpwatch/internal/domain"
	"github.com/bft-labs/gpwatch/internal/testsupport"
	"github.com/bft-labs/gpwatch/internal/worklist"
)

// runCLI executes the root command with args in an isolated HOME.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	t.Setenv("HOME", t.TempDir())
	t.Setenv("GPWATCH_LOG_LEVEL", "error")

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func grownExport(id string, lastAbove int) testsupport.Export {
	e := testsupport.NewExport(id, 8, 12)
	e.Samples = []testsupport.Sample{
		testsupport.GrowthSample("00:15:00", 96, 0),
		testsupport.GrowthSample("01:15:00", 96, 12),
		testsupport.GrowthSample("02:15:00", 96, lastAbove),
	}
	return e
}

func TestProcessCommand_WritesWorklist(t *testing.T) {
	dir := t.TempDir()
	path := testsupport.WriteExport(t, dir, "GP-0001.csv", grownExport("GP-0001", 50))

	out, err := runCLI(t, "process", "--mode", "last-only", "--variant", "single-step-notify", path)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if !strings.Contains(out, "Done") {
		t.Errorf("output missing Done:\n%s", out)
	}

	data, err := os.ReadFile(filepath.Join(dir, "GP-0001.xml"))
	if err != nil {
		t.Fatalf("read worklist: %v", err)
	}
	doc, err := worklist.Parse(data)
	if err != nil {
		t.Fatalf("parse worklist: %v", err)
	}
	if n := len(doc.Workunit.Batches); n != 1 {
		t.Errorf("batches = %d, want 1", n)
	}
}

func TestProcessCommand_OutputLocked(t *testing.T) {
	dir := t.TempDir()
	path := testsupport.WriteExport(t, dir, "GP-0004.csv", grownExport("GP-0004", 50))

	unlock, err := gpwatch.LockOutput(dir)
	if err != nil {
		t.Fatalf("LockOutput() error = %v", err)
	}
	defer unlock()

	_, err = runCLI(t, "process", path)
	if !errors.Is(err, domain.ErrAlreadyRunning) {
		t.Fatalf("process error = %v, want ErrAlreadyRunning", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "GP-0004.xml")); !os.IsNotExist(err) {
		t.Errorf("worklist written while output was locked (stat err = %v)", err)
	}
}

func TestProcessCommand_ContinuesPastFailures(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	good := testsupport.WriteExport(t, dir, "GP-0002.csv", grownExport("GP-0002", 70))
	missing := filepath.Join(dir, "missing.csv")

	out, err := runCLI(t, "process", "--output-dir", outDir, missing, good)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if !strings.Contains(out, "Failed") || !strings.Contains(out, "io:") {
		t.Errorf("output missing failure row:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(outDir, "GP-0002.xml")); err != nil {
		t.Errorf("worklist for the good file not written: %v", err)
	}
}

func TestInspectCommand(t *testing.T) {
	dir := t.TempDir()
	path := testsupport.WriteExport(t, dir, "GP-0003.csv", grownExport("GP-0003", 48))

	out, err := runCLI(t, "inspect", path)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}

	for _, want := range []string{"GP-0003", "96 wells", "48 wells above 1", "scan-earliest:", "02:15:00"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("inspect wrote files: %d entries in %s", len(entries), dir)
	}
}

func TestRootCommand_StartupErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing target", []string{}},
		{"unknown mode", []string{t.TempDir(), "--mode", "sometimes"}},
		{"missing target directory", []string{filepath.Join(t.TempDir(), "nope", "x.csv")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, tt.args...)
			if !errors.Is(err, domain.ErrInvalidConfig) {
				t.Errorf("error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}
