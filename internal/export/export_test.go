package export

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/pkg/errors"

	"github.com/staticrd/staticrd/internal/eventlog"
	"github.com/staticrd/staticrd/internal/hist"
	"github.com/staticrd/staticrd/internal/trace"
	"github.com/staticrd/staticrd/internal/tree"
)

func sampleHist() *hist.Histogram {
	h := hist.New()
	h.Add(hist.Never())
	h.Add(hist.Finite(1))
	h.Add(hist.Finite(1))
	h.Add(hist.Finite(1))
	return h
}

func sampleResult(t *testing.T) *trace.Result {
	t.Helper()
	root := tree.NewSingleLoop("i", 0, 4).Extend(
		tree.NewRef("A", []int{1}, func([]int) []int { return []int{0} }),
	)
	res, err := trace.Run(context.Background(), root, "Stack", trace.WithName("a0"))
	if err != nil {
		t.Fatalf("trace failed: %v", err)
	}
	return res
}

func TestHistogramJSON(t *testing.T) {
	data, err := HistogramJSON(sampleHist())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(data) != `{"1":3,"None":1}` {
		t.Errorf("unexpected json %s", data)
	}

	back, err := ParseHistogramJSON(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if back.Total() != 4 || back.Count(hist.Finite(1)) != 3 || back.Count(hist.Never()) != 1 {
		t.Errorf("unexpected decoded histogram:\n%s", back)
	}
}

func TestParseHistogramJSONErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not json", `[1,2`},
		{"bad key", `{"far":1}`},
		{"negative key", `{"-3":1}`},
		{"negative count", `{"2":-1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseHistogramJSON([]byte(tt.input)); err == nil {
				t.Errorf("expected error for %s", tt.input)
			}
		})
	}
}

func TestCSVWriters(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHistogramCSV(&buf, sampleHist()); err != nil {
		t.Fatalf("histogram csv: %v", err)
	}
	if got, want := buf.String(), "distance,count\n1,3\nNone,1\n"; got != want {
		t.Errorf("histogram csv:\nwant %q\ngot  %q", want, got)
	}

	accesses := eventlog.New[trace.Access]()
	accesses.Add(trace.Access{Addr: 7, Dist: hist.Never()})
	accesses.Add(trace.Access{Addr: 7, Dist: hist.Finite(1)})
	buf.Reset()
	if err := WriteAccessesCSV(&buf, accesses); err != nil {
		t.Fatalf("access csv: %v", err)
	}
	if got, want := buf.String(), "address,distance\n7,None\n7,1\n"; got != want {
		t.Errorf("access csv:\nwant %q\ngot  %q", want, got)
	}

	addrs := eventlog.New[int]()
	addrs.Add(3)
	addrs.Add(4)
	buf.Reset()
	if err := WriteAddressesCSV(&buf, addrs); err != nil {
		t.Fatalf("address csv: %v", err)
	}
	if got, want := buf.String(), "address\n3\n4\n"; got != want {
		t.Errorf("address csv:\nwant %q\ngot  %q", want, got)
	}
}

func TestKeys(t *testing.T) {
	if got := HistogramJSONKey("matmul", "Olken"); got != "json/hist/rd/matmul_Olken.json" {
		t.Errorf("unexpected key %s", got)
	}
	if got := HistogramCSVKey("matmul", "Scale"); got != "csv/hist/rd/matmul_Scale.csv" {
		t.Errorf("unexpected key %s", got)
	}
	if got := ManifestKey("abc"); got != "runs/abc.json" {
		t.Errorf("unexpected key %s", got)
	}
}

func TestDirSink(t *testing.T) {
	sink := NewDirSink(t.TempDir())
	ctx := context.Background()

	if err := sink.Put(ctx, "a/b/c.txt", []byte("hello")); err != nil {
		t.Fatalf("put: %v", err)
	}
	data, err := sink.Get("a/b/c.txt")
	if err != nil || string(data) != "hello" {
		t.Errorf("expected hello, got %q (%v)", data, err)
	}
	if _, err := sink.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := sink.Put(ctx, "../escape", nil); err == nil {
		t.Errorf("expected an error for a key outside the root")
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := sink.Put(cancelled, "x", nil); err == nil {
		t.Errorf("expected an error for a cancelled context")
	}
}

func TestBadgerSink(t *testing.T) {
	sink, err := OpenBadger("")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer sink.Close()

	ctx := context.Background()
	for _, k := range []string{"runs/1.json", "runs/2.json", "csv/x.csv"} {
		if err := sink.Put(ctx, k, []byte(k)); err != nil {
			t.Fatalf("put %s: %v", k, err)
		}
	}

	data, err := sink.Get("runs/2.json")
	if err != nil || string(data) != "runs/2.json" {
		t.Errorf("unexpected value %q (%v)", data, err)
	}
	if _, err := sink.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	keys, err := sink.Keys("runs/")
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if len(keys) != 2 || keys[0] != "runs/1.json" || keys[1] != "runs/2.json" {
		t.Errorf("unexpected keys %v", keys)
	}
}

func TestSave(t *testing.T) {
	res := sampleResult(t)
	sink := NewDirSink(t.TempDir())

	m, err := Save(context.Background(), sink, FromResult(res))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if m.RunID != res.RunID || m.Algorithm != "Stack" || m.Accesses != 4 || m.Buckets != 2 {
		t.Errorf("unexpected manifest %+v", m)
	}
	if m.MissRatio != 0.25 {
		t.Errorf("expected miss ratio 0.25, got %v", m.MissRatio)
	}
	if len(m.Keys) != 4 {
		t.Errorf("expected 4 artifacts, got %v", m.Keys)
	}

	data, err := sink.Get(HistogramJSONKey("a0", "Stack"))
	if err != nil {
		t.Fatalf("get histogram: %v", err)
	}
	if string(data) != `{"1":3,"None":1}` {
		t.Errorf("unexpected stored histogram %s", data)
	}

	raw, err := sink.Get(ManifestKey(res.RunID))
	if err != nil {
		t.Fatalf("get manifest: %v", err)
	}
	var stored Manifest
	if err := json.Unmarshal(raw, &stored); err != nil {
		t.Fatalf("decode manifest: %v", err)
	}
	if stored.Name != "a0" || len(stored.Keys) != len(m.Keys) {
		t.Errorf("unexpected stored manifest %+v", stored)
	}
}

func TestSaveWithoutEventLogs(t *testing.T) {
	root := tree.NewSingleLoop("i", 0, 3).Extend(
		tree.NewRef("A", []int{3}, func(ivec []int) []int { return []int{ivec[0]} }),
	)
	res, err := trace.Run(context.Background(), root, "Olken", trace.WithoutEventLogs())
	if err != nil {
		t.Fatalf("trace failed: %v", err)
	}

	sink, err := OpenBadger("")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer sink.Close()

	m, err := Save(context.Background(), sink, FromResult(res))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if len(m.Keys) != 2 {
		t.Errorf("expected only histogram artifacts, got %v", m.Keys)
	}
	if _, err := sink.Get(HistogramCSVKey("trace", "Olken")); err != nil {
		t.Errorf("expected default name in keys: %v", err)
	}
}

func TestSaveRejectsEmptyReport(t *testing.T) {
	if _, err := Save(context.Background(), NewDirSink(t.TempDir()), Report{}); err == nil {
		t.Errorf("expected an error without a histogram")
	}
}
