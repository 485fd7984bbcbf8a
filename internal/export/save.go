package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/staticrd/staticrd/internal/eventlog"
	"github.com/staticrd/staticrd/internal/hist"
	"github.com/staticrd/staticrd/internal/trace"
)

// Report is the exportable part of one run.
type Report struct {
	RunID     string
	Name      string
	Algorithm string
	Selector  string
	Hist      *hist.Histogram
	Distances *eventlog.Log[trace.Access]
	Addresses *eventlog.Log[int]
	Created   time.Time
}

// FromResult builds a report from a completed trace.
func FromResult(r *trace.Result) Report {
	return Report{
		RunID:     r.RunID,
		Name:      r.Name,
		Algorithm: r.Algorithm(),
		Selector:  r.Selection.Requested,
		Hist:      r.Hist,
		Distances: r.Distances,
		Addresses: r.Addresses,
		Created:   time.Now().UTC(),
	}
}

// Manifest indexes the artifacts written for one run.
type Manifest struct {
	RunID     string    `json:"run_id"`
	Name      string    `json:"name"`
	Algorithm string    `json:"algorithm"`
	Selector  string    `json:"selector,omitempty"`
	Accesses  int       `json:"accesses"`
	Buckets   int       `json:"buckets"`
	MissRatio float64   `json:"miss_ratio_1"`
	CreatedAt time.Time `json:"created_at"`
	Keys      []string  `json:"keys"`
}

// AccessesCSVKey is the storage key of the detailed access log.
func AccessesCSVKey(name, algorithm string) string {
	return fmt.Sprintf("csv/accesses/%s_%s.csv", name, algorithm)
}

// AddressesCSVKey is the storage key of the address-only log.
func AddressesCSVKey(name, algorithm string) string {
	return fmt.Sprintf("csv/addresses/%s_%s.csv", name, algorithm)
}

type artifact struct {
	key    string
	render func() ([]byte, error)
}

func (r Report) artifacts() []artifact {
	arts := []artifact{
		{HistogramJSONKey(r.Name, r.Algorithm), func() ([]byte, error) { return HistogramJSON(r.Hist) }},
		{HistogramCSVKey(r.Name, r.Algorithm), func() ([]byte, error) {
			var buf bytes.Buffer
			err := WriteHistogramCSV(&buf, r.Hist)
			return buf.Bytes(), err
		}},
	}
	if r.Distances != nil && r.Distances.Len() > 0 {
		arts = append(arts, artifact{AccessesCSVKey(r.Name, r.Algorithm), func() ([]byte, error) {
			var buf bytes.Buffer
			err := WriteAccessesCSV(&buf, r.Distances)
			return buf.Bytes(), err
		}})
	}
	if r.Addresses != nil && r.Addresses.Len() > 0 {
		arts = append(arts, artifact{AddressesCSVKey(r.Name, r.Algorithm), func() ([]byte, error) {
			var buf bytes.Buffer
			err := WriteAddressesCSV(&buf, r.Addresses)
			return buf.Bytes(), err
		}})
	}
	return arts
}

// Save writes every artifact of r to sink concurrently, then the manifest.
// The manifest is only written when all artifacts were stored.
func Save(ctx context.Context, sink Sink, r Report) (*Manifest, error) {
	if r.Hist == nil {
		return nil, errors.New("export: report has no histogram")
	}
	if r.Name == "" {
		r.Name = "trace"
	}
	arts := r.artifacts()

	errs := make([]error, len(arts))
	var wg sync.WaitGroup
	for i, a := range arts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			data, err := a.render()
			if err != nil {
				errs[i] = err
				return
			}
			errs[i] = sink.Put(ctx, a.key, data)
		}()
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	m := &Manifest{
		RunID:     r.RunID,
		Name:      r.Name,
		Algorithm: r.Algorithm,
		Selector:  r.Selector,
		Accesses:  r.Hist.Total(),
		Buckets:   r.Hist.Len(),
		MissRatio: r.Hist.MissRatio(1),
		CreatedAt: r.Created,
	}
	for _, a := range arts {
		m.Keys = append(m.Keys, a.key)
	}
	if r.RunID == "" {
		return m, nil
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "encode manifest")
	}
	if err := sink.Put(ctx, ManifestKey(r.RunID), data); err != nil {
		return nil, err
	}
	return m, nil
}
