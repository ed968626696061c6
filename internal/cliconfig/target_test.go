package cliconfig

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bft-labs/gpwatch/internal/domain"
)

func TestResolveTarget(t *testing.T) {
	tmpDir := t.TempDir()

	existing := filepath.Join(tmpDir, "GP-0001.csv")
	if err := os.WriteFile(existing, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		target    string
		outputDir string
		wantDir   string
		wantIsDir bool
		wantOut   string
		wantErr   bool
	}{
		{
			name:      "directory",
			target:    tmpDir,
			wantDir:   tmpDir,
			wantIsDir: true,
			wantOut:   tmpDir,
		},
		{
			name:    "existing file",
			target:  existing,
			wantDir: tmpDir,
			wantOut: tmpDir,
		},
		{
			name:    "file not yet written",
			target:  filepath.Join(tmpDir, "later.csv"),
			wantDir: tmpDir,
			wantOut: tmpDir,
		},
		{
			name:      "explicit output dir is kept",
			target:    tmpDir,
			outputDir: "/srv/worklists",
			wantDir:   tmpDir,
			wantIsDir: true,
			wantOut:   "/srv/worklists",
		},
		{
			name:    "missing parent directory",
			target:  filepath.Join(tmpDir, "nope", "export.csv"),
			wantErr: true,
		},
		{
			name:    "empty target",
			target:  "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{Target: tt.target, OutputDir: tt.outputDir}
			got, err := ResolveTarget(&cfg)

			if tt.wantErr {
				if !errors.Is(err, domain.ErrInvalidConfig) {
					t.Errorf("ResolveTarget() error = %v, want ErrInvalidConfig", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveTarget() unexpected error: %v", err)
			}
			if got.Dir != tt.wantDir {
				t.Errorf("Dir = %v, want %v", got.Dir, tt.wantDir)
			}
			if got.IsDir != tt.wantIsDir {
				t.Errorf("IsDir = %v, want %v", got.IsDir, tt.wantIsDir)
			}
			if !filepath.IsAbs(got.Path) {
				t.Errorf("Path = %v, want absolute", got.Path)
			}
			if cfg.OutputDir != tt.wantOut {
				t.Errorf("OutputDir = %v, want %v", cfg.OutputDir, tt.wantOut)
			}
		})
	}
}
