package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	fsAdapter "github.com/bft-labs/gpwatch/internal/adapters/fs"
	"github.com/bft-labs/gpwatch/internal/domain"
	"github.com/bft-labs/gpwatch/internal/growth"
	"github.com/bft-labs/gpwatch/internal/plate"
	"github.com/bft-labs/gpwatch/internal/testsupport"
	"github.com/bft-labs/gpwatch/internal/worklist"
)

// memWriter implements ports.WorklistWriter in memory.
type memWriter struct {
	mu        sync.Mutex
	worklists map[string][]byte
	lists     map[string][]byte
	err       error
}

func newMemWriter() *memWriter {
	return &memWriter{worklists: map[string][]byte{}, lists: map[string][]byte{}}
}

func (m *memWriter) WriteWorklist(ctx context.Context, plateID string, xml []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.worklists[plateID] = xml
	return "mem/" + plateID + ".xml", nil
}

func (m *memWriter) WriteDispenseList(ctx context.Context, name string, content []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.lists[name] = content
	return "mem/" + name, nil
}

func (m *memWriter) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.worklists) + len(m.lists)
}

func testClock() time.Time {
	return time.Date(2025, 9, 30, 11, 13, 31, 0, time.UTC)
}

func newTestPipeline(t *testing.T, mode growth.Mode, variant worklist.Variant, writer *memWriter, obs StageObserver) *Pipeline {
	t.Helper()

	extractor, err := plate.NewExtractor(plate.DefaultLayout())
	if err != nil {
		t.Fatalf("NewExtractor() error: %v", err)
	}
	cfg := worklist.DefaultConfig()
	cfg.Now = testClock

	p, err := NewPipeline(
		PipelineConfig{Mode: mode, Variant: variant},
		extractor,
		worklist.NewBuilder(cfg),
		writer,
		mockLogger{},
		obs,
	)
	if err != nil {
		t.Fatalf("NewPipeline() error: %v", err)
	}
	return p
}

// growthExport is an 8x12 plate whose last sample has lastAbove wells grown.
func growthExport(lastAbove int) testsupport.Export {
	e := testsupport.NewExport("GP-0001", 8, 12)
	e.Samples = []testsupport.Sample{
		testsupport.GrowthSample("00:15:00", 96, 0),
		testsupport.GrowthSample("01:15:00", 96, 20),
		testsupport.GrowthSample("02:15:00", 96, lastAbove),
	}
	return e
}

func TestNewPipeline_RequiresModeAndVariant(t *testing.T) {
	extractor, _ := plate.NewExtractor(plate.DefaultLayout())
	builder := worklist.NewBuilder(worklist.DefaultConfig())

	tests := []struct {
		name string
		cfg  PipelineConfig
	}{
		{"no mode", PipelineConfig{Variant: worklist.VariantSingleStepNotify}},
		{"no variant", PipelineConfig{Mode: growth.ModeLastOnly}},
		{"neither", PipelineConfig{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPipeline(tt.cfg, extractor, builder, newMemWriter(), mockLogger{}, nil)
			if !errors.Is(err, domain.ErrInvalidConfig) {
				t.Errorf("NewPipeline() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestPipeline_Process_TriggersLastOnlyNotify(t *testing.T) {
	dir := t.TempDir()
	path := testsupport.WriteExport(t, dir, "GP-0001.csv", growthExport(50))

	writer := newMemWriter()
	obs := &mockObserver{}
	p := newTestPipeline(t, growth.ModeLastOnly, worklist.VariantSingleStepNotify, writer, obs)

	out := p.Process(context.Background(), path)

	if out.Err != nil {
		t.Fatalf("Process() error: %v", out.Err)
	}
	if out.Stage != StageDone {
		t.Errorf("Stage = %v, want Done", out.Stage)
	}
	if out.TriggerTime != "02:15:00" {
		t.Errorf("TriggerTime = %q, want 02:15:00", out.TriggerTime)
	}
	if out.RunID == "" {
		t.Error("RunID is empty")
	}
	if out.DispenseListPath != "" {
		t.Errorf("DispenseListPath = %q, want empty for notify", out.DispenseListPath)
	}

	data, ok := writer.worklists["GP-0001"]
	if !ok {
		t.Fatal("worklist for GP-0001 not written")
	}
	doc, err := worklist.Parse(data)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if len(doc.Workunit.Batches) != 1 {
		t.Fatalf("batches = %d, want 1", len(doc.Workunit.Batches))
	}
	if got := doc.Workunit.Batches[0].Name; got != "GP-0001-1" {
		t.Errorf("batch name = %q, want GP-0001-1", got)
	}

	want := []Stage{StageParsing, StageEvaluating, StageBuilding, StageSerializing, StageDone}
	got := obs.Stages()
	if len(got) != len(want) {
		t.Fatalf("stages = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("stage[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestPipeline_Process_BelowThresholdWritesNothing(t *testing.T) {
	dir := t.TempDir()
	path := testsupport.WriteExport(t, dir, "GP-0001.csv", growthExport(40))

	for _, mode := range []growth.Mode{growth.ModeLastOnly, growth.ModeScanEarliest} {
		t.Run(mode.String(), func(t *testing.T) {
			writer := newMemWriter()
			p := newTestPipeline(t, mode, worklist.VariantDispenseAndRecord, writer, nil)

			out := p.Process(context.Background(), path)

			if out.Err != nil {
				t.Fatalf("Process() error: %v", out.Err)
			}
			if out.Stage != StageNoTrigger {
				t.Errorf("Stage = %v, want NoTrigger", out.Stage)
			}
			if out.Samples != 3 {
				t.Errorf("Samples = %d, want 3", out.Samples)
			}
			if n := writer.count(); n != 0 {
				t.Errorf("wrote %d files, want 0", n)
			}
		})
	}
}

func TestPipeline_Process_ScanEarliestPicksFirstQualifying(t *testing.T) {
	dir := t.TempDir()
	e := testsupport.NewExport("GP-0002", 8, 12)
	e.Samples = []testsupport.Sample{
		testsupport.GrowthSample("00:15:00", 96, 10),
		testsupport.GrowthSample("01:15:00", 96, 48),
		testsupport.GrowthSample("02:15:00", 96, 30),
	}
	path := testsupport.WriteExport(t, dir, "GP-0002.csv", e)

	writer := newMemWriter()
	p := newTestPipeline(t, growth.ModeScanEarliest, worklist.VariantSingleStepNotify, writer, nil)

	out := p.Process(context.Background(), path)

	if out.Stage != StageDone {
		t.Fatalf("Stage = %v (err %v), want Done", out.Stage, out.Err)
	}
	if out.TriggerTime != "01:15:00" {
		t.Errorf("TriggerTime = %q, want 01:15:00", out.TriggerTime)
	}
}

func TestPipeline_Process_DispenseAndRecordWritesBothFiles(t *testing.T) {
	dir := t.TempDir()
	path := testsupport.WriteExport(t, filepath.Join(dir, "in"), "GP-0001.csv", growthExport(60))

	outDir := filepath.Join(dir, "out")
	listDir := filepath.Join(dir, "lists")

	extractor, _ := plate.NewExtractor(plate.DefaultLayout())
	cfg := worklist.DefaultConfig()
	cfg.Now = testClock
	p, err := NewPipeline(
		PipelineConfig{Mode: growth.ModeScanEarliest, Variant: worklist.VariantDispenseAndRecord},
		extractor,
		worklist.NewBuilder(cfg),
		fsAdapter.NewWorklistWriter(outDir, listDir),
		mockLogger{},
		nil,
	)
	if err != nil {
		t.Fatalf("NewPipeline() error: %v", err)
	}

	out := p.Process(context.Background(), path)
	if out.Stage != StageDone {
		t.Fatalf("Stage = %v (err %v), want Done", out.Stage, out.Err)
	}

	wantXML := filepath.Join(outDir, "GP-0001.xml")
	wantList := filepath.Join(listDir, "GP-0001-2025-09-30_11-13-31.dl.txt")
	if out.WorklistPath != wantXML {
		t.Errorf("WorklistPath = %q, want %q", out.WorklistPath, wantXML)
	}
	if out.DispenseListPath != wantList {
		t.Errorf("DispenseListPath = %q, want %q", out.DispenseListPath, wantList)
	}

	data, err := os.ReadFile(wantXML)
	if err != nil {
		t.Fatalf("read worklist: %v", err)
	}
	doc, err := worklist.Parse(data)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	batches := doc.Workunit.Batches
	if len(batches) != 2 {
		t.Fatalf("batches = %d, want 2", len(batches))
	}
	if batches[1].Reference != "GP-0001-1" {
		t.Errorf("step 2 reference = %q, want GP-0001-1", batches[1].Reference)
	}

	list, err := os.ReadFile(wantList)
	if err != nil {
		t.Fatalf("read dispense list: %v", err)
	}
	contents, _ := batches[0].Variable(worklist.ArgFileContents)
	if contents != string(list) {
		t.Error("FileContents variable differs from the written dispense list")
	}
	if !strings.Contains(string(list), "\r\n") {
		t.Error("dispense list is not CRLF")
	}
}

func TestPipeline_Process_Failures(t *testing.T) {
	dir := t.TempDir()
	good := testsupport.WriteExport(t, dir, "good.csv", growthExport(50))

	bad := growthExport(50)
	bad.Samples[2].Values[7] = "n/a"
	badValue := testsupport.WriteExport(t, dir, "bad-value.csv", bad)

	noID := growthExport(50)
	noID.PlateID = ""
	missingID := testsupport.WriteExport(t, dir, "no-id.csv", noID)

	empty := filepath.Join(dir, "empty.csv")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		path      string
		writerErr error
		wantErr   error
		wantKind  string
		wantStage []Stage
	}{
		{
			name:      "missing file",
			path:      filepath.Join(dir, "missing.csv"),
			wantErr:   domain.ErrIO,
			wantKind:  "io",
			wantStage: []Stage{StageParsing, StageFailed},
		},
		{
			name:      "empty file",
			path:      empty,
			wantErr:   domain.ErrFormat,
			wantKind:  "format",
			wantStage: []Stage{StageParsing, StageFailed},
		},
		{
			name:      "missing plate id",
			path:      missingID,
			wantErr:   domain.ErrFormat,
			wantKind:  "format",
			wantStage: []Stage{StageParsing, StageFailed},
		},
		{
			name:      "non-numeric well value",
			path:      badValue,
			wantErr:   domain.ErrFormat,
			wantKind:  "format",
			wantStage: []Stage{StageParsing, StageEvaluating, StageFailed},
		},
		{
			name:      "write failure",
			path:      good,
			writerErr: domain.ErrIO,
			wantErr:   domain.ErrIO,
			wantKind:  "io",
			wantStage: []Stage{StageParsing, StageEvaluating, StageBuilding, StageSerializing, StageFailed},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writer := newMemWriter()
			writer.err = tt.writerErr
			obs := &mockObserver{}
			p := newTestPipeline(t, growth.ModeLastOnly, worklist.VariantSingleStepNotify, writer, obs)

			out := p.Process(context.Background(), tt.path)

			if out.Stage != StageFailed {
				t.Errorf("Stage = %v, want Failed", out.Stage)
			}
			if !errors.Is(out.Err, tt.wantErr) {
				t.Errorf("Err = %v, want %v", out.Err, tt.wantErr)
			}
			if out.Kind() != tt.wantKind {
				t.Errorf("Kind() = %q, want %q", out.Kind(), tt.wantKind)
			}
			got := obs.Stages()
			if len(got) != len(tt.wantStage) {
				t.Fatalf("stages = %v, want %v", got, tt.wantStage)
			}
			for i := range got {
				if got[i] != tt.wantStage[i] {
					t.Errorf("stage[%d] = %v, want %v", i, got[i], tt.wantStage[i])
				}
			}
		})
	}
}

// panicObserver panics once the run reaches Building.
type panicObserver struct{}

func (panicObserver) OnStageChange(runID, path string, previous, current Stage) {
	if current == StageBuilding {
		panic("observer exploded")
	}
}

func TestPipeline_Process_RecoversPanic(t *testing.T) {
	dir := t.TempDir()
	path := testsupport.WriteExport(t, dir, "GP-0001.csv", growthExport(50))

	p := newTestPipeline(t, growth.ModeLastOnly, worklist.VariantSingleStepNotify, newMemWriter(), panicObserver{})

	out := p.Process(context.Background(), path)

	if out.Stage != StageFailed {
		t.Errorf("Stage = %v, want Failed", out.Stage)
	}
	if out.Err == nil || !strings.Contains(out.Err.Error(), "observer exploded") {
		t.Errorf("Err = %v, want panic message", out.Err)
	}
}
