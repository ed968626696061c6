package gpwatch_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bft-labs/gpwatch"
	"github.com/bft-labs/gpwatch/internal/testsupport"
)

func fixedNow() time.Time {
	return time.Date(2025, 9, 30, 11, 13, 31, 0, time.UTC)
}

func grown(id string) testsupport.Export {
	e := testsupport.NewExport(id, 8, 12)
	e.Samples = []testsupport.Sample{
		testsupport.GrowthSample("00:15:00", 96, 5),
		testsupport.GrowthSample("02:15:00", 96, 50),
	}
	return e
}

// ExampleNewPipeline processes a single export without watching.
func ExampleNewPipeline() {
	dir, _ := os.MkdirTemp("", "gpwatch-example")
	defer os.RemoveAll(dir)

	e := grown("GP-0001")
	path := filepath.Join(dir, "GP-0001.csv")
	_ = os.WriteFile(path, []byte(e.CSV()), 0o644)

	cfg := gpwatch.DefaultConfig()
	cfg.Target = path
	cfg.OutputDir = dir
	cfg.Variant = "single-step-notify"

	p, err := gpwatch.NewPipeline(cfg)
	if err != nil {
		fmt.Printf("failed to create pipeline: %v\n", err)
		return
	}

	out := p.Process(context.Background(), path)
	fmt.Println(out.Stage, out.TriggerTime, filepath.Base(out.WorklistPath))

	// Output: Done 02:15:00 GP-0001.xml
}

func TestRun_ProcessesExistingAndStops(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteExport(t, dir, "GP-0001.csv", grown("GP-0001"))
	testsupport.WriteExport(t, dir, "notes.txt", grown("GP-0002"))

	outDir := filepath.Join(dir, "worklists")
	cfg := gpwatch.DefaultConfig()
	cfg.Target = dir
	cfg.OutputDir = outDir
	cfg.ProcessExisting = true

	outcomes := make(chan gpwatch.Outcome, 4)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- gpwatch.Run(ctx, cfg,
			gpwatch.WithClock(fixedNow),
			gpwatch.WithOutcomeHandler(func(o gpwatch.Outcome) { outcomes <- o }),
		)
	}()

	select {
	case o := <-outcomes:
		if o.Err != nil {
			t.Fatalf("outcome error: %v", o.Err)
		}
		if filepath.Base(o.Path) != "GP-0001.csv" {
			t.Errorf("processed %s, want GP-0001.csv", o.Path)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the existing export")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}

	if _, err := os.Stat(filepath.Join(outDir, "GP-0001.xml")); err != nil {
		t.Errorf("worklist not written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "GP-0001-2025-09-30_11-13-31.dl.txt")); err != nil {
		t.Errorf("dispense list not written: %v", err)
	}
	if len(outcomes) != 0 {
		t.Errorf("unexpected extra outcomes: %d", len(outcomes))
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	cfg := gpwatch.DefaultConfig()
	if err := gpwatch.Run(context.Background(), cfg); err == nil {
		t.Error("Run() without a target should fail")
	}
}
