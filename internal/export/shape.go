// Package export shapes trace results for storage: histograms as a JSON
// object and as CSV rows, event logs as CSV, and a per-run manifest.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/pkg/errors"

	"github.com/staticrd/staticrd/internal/eventlog"
	"github.com/staticrd/staticrd/internal/hist"
	"github.com/staticrd/staticrd/internal/trace"
)

// HistogramJSON encodes h as {"<distance>": count}, with first-time
// accesses under hist.NeverToken.
func HistogramJSON(h *hist.Histogram) ([]byte, error) {
	m := make(map[string]int, h.Len())
	for d, c := range h.Pairs() {
		m[d.String()] = c
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, errors.Wrap(err, "encode histogram")
	}
	return data, nil
}

// ParseHistogramJSON decodes the output of HistogramJSON.
func ParseHistogramJSON(data []byte) (*hist.Histogram, error) {
	var m map[string]int
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, "decode histogram")
	}
	h := hist.New()
	for k, c := range m {
		d, err := parseDistance(k)
		if err != nil {
			return nil, err
		}
		if c < 0 {
			return nil, errors.Errorf("negative count %d for distance %s", c, k)
		}
		h.AddN(d, c)
	}
	return h, nil
}

func parseDistance(s string) (hist.Distance, error) {
	if s == hist.NeverToken {
		return hist.Never(), nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return hist.Distance{}, errors.Errorf("bad distance key %q", s)
	}
	return hist.Finite(n), nil
}

// WriteHistogramCSV writes a distance,count header and one row per bucket.
func WriteHistogramCSV(w io.Writer, h *hist.Histogram) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"distance", "count"}); err != nil {
		return errors.Wrap(err, "write histogram header")
	}
	for d, c := range h.Pairs() {
		if err := cw.Write([]string{d.String(), strconv.Itoa(c)}); err != nil {
			return errors.Wrap(err, "write histogram row")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flush histogram")
}

// WriteAccessesCSV writes the detailed (address, distance) log.
func WriteAccessesCSV(w io.Writer, log *eventlog.Log[trace.Access]) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"address", "distance"}); err != nil {
		return errors.Wrap(err, "write access header")
	}
	for _, a := range log.All() {
		if err := cw.Write([]string{strconv.Itoa(a.Addr), a.Dist.String()}); err != nil {
			return errors.Wrap(err, "write access row")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flush accesses")
}

// WriteAddressesCSV writes the address-only log in the format ingestion
// reads back.
func WriteAddressesCSV(w io.Writer, log *eventlog.Log[int]) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"address"}); err != nil {
		return errors.Wrap(err, "write address header")
	}
	for _, a := range log.All() {
		if err := cw.Write([]string{strconv.Itoa(a)}); err != nil {
			return errors.Wrap(err, "write address row")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flush addresses")
}

// HistogramJSONKey is the storage key of the JSON histogram.
func HistogramJSONKey(name, algorithm string) string {
	return fmt.Sprintf("json/hist/rd/%s_%s.json", name, algorithm)
}

// HistogramCSVKey is the storage key of the CSV histogram.
func HistogramCSVKey(name, algorithm string) string {
	return fmt.Sprintf("csv/hist/rd/%s_%s.csv", name, algorithm)
}

// ManifestKey is the storage key of a run manifest.
func ManifestKey(runID string) string {
	return fmt.Sprintf("runs/%s.json", runID)
}
