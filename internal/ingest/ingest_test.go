package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/staticrd/staticrd/internal/diag"
	"github.com/staticrd/staticrd/internal/hist"
	"github.com/staticrd/staticrd/internal/lru"
)

func TestRunCountsReuse(t *testing.T) {
	input := "address\n5\n6\n5\n5\n"
	h, stats, err := Run(context.Background(), strings.NewReader(input), "mem.csv", lru.NewSplay())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if stats.Rows != 4 || stats.Accepted != 4 || stats.Skipped != 0 {
		t.Errorf("unexpected stats %+v", stats)
	}
	if h.Count(hist.Never()) != 2 || h.Count(hist.Finite(2)) != 1 || h.Count(hist.Finite(1)) != 1 {
		t.Errorf("unexpected histogram:\n%s", h)
	}
}

func TestRunSkipsUnparseableRows(t *testing.T) {
	input := strings.Join([]string{
		"addr,size",
		"10,8",
		"ten,8",
		"-4,8",
		",8",
		" 10 ,8",
	}, "\n")

	rep := diag.NewReporter(diag.StageIngest)
	h, stats, err := Run(context.Background(), strings.NewReader(input), "mem.csv", lru.NewStack(), WithReporter(rep))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if stats.Accepted != 2 || stats.Skipped != 3 {
		t.Errorf("expected 2 accepted and 3 skipped, got %+v", stats)
	}
	if h.Total() != 2 || h.Count(hist.Finite(1)) != 1 {
		t.Errorf("unexpected histogram:\n%s", h)
	}

	ds := rep.Diagnostics()
	if len(ds) != 3 {
		t.Fatalf("expected 3 diagnostics, got %d", len(ds))
	}
	wantCodes := []diag.Code{diag.CodeUnparseableRow, diag.CodeUnparseableRow, diag.CodeEmptyRow}
	wantLines := []int{3, 4, 5}
	for i := range ds {
		if ds[i].Code != wantCodes[i] {
			t.Errorf("diagnostic %d: expected %s, got %s", i, wantCodes[i], ds[i].Code)
		}
		if ds[i].Pos.Row != wantLines[i] || ds[i].Pos.Source != "mem.csv" {
			t.Errorf("diagnostic %d: expected mem.csv:%d, got %s", i, wantLines[i], ds[i].Pos)
		}
		if ds[i].Severity != diag.SeverityWarning {
			t.Errorf("diagnostic %d: skipped rows are warnings, got %s", i, ds[i].Severity)
		}
	}
}

func TestRunWithoutHeader(t *testing.T) {
	h, stats, err := Run(context.Background(), strings.NewReader("1\n1\n"), "t", lru.NewVec(), WithoutHeader())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if stats.Accepted != 2 || h.Count(hist.Finite(1)) != 1 {
		t.Errorf("expected the first row to be data, got %+v\n%s", stats, h)
	}
}

func TestRunMalformedCSV(t *testing.T) {
	input := "addr\n1\n1\"2\n"
	if _, _, err := Run(context.Background(), strings.NewReader(input), "t", lru.NewSplay()); err == nil {
		t.Errorf("expected an error for malformed csv")
	}
}

func TestRunFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.csv")
	if err := os.WriteFile(path, []byte("addr\n1\n2\n1\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	h, _, err := RunFile(context.Background(), path, lru.NewSplay())
	if err != nil {
		t.Fatalf("RunFile failed: %v", err)
	}
	if h.Count(hist.Finite(2)) != 1 {
		t.Errorf("unexpected histogram:\n%s", h)
	}

	if _, _, err := RunFile(context.Background(), filepath.Join(t.TempDir(), "missing.csv"), lru.NewSplay()); err == nil {
		t.Errorf("expected error for missing file")
	}
}
