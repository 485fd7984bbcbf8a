package diag

import (
	"fmt"
	"sort"
)

// Reporter collects diagnostics during a run.
type Reporter struct {
	stage       Stage
	diagnostics []Diagnostic
}

// NewReporter creates a new diagnostic reporter for stage.
func NewReporter(stage Stage) *Reporter {
	return &Reporter{
		stage:       stage,
		diagnostics: make([]Diagnostic, 0),
	}
}

// Add records a prepared diagnostic. An empty stage is filled in.
func (r *Reporter) Add(d Diagnostic) {
	if d.Stage == "" {
		d.Stage = r.stage
	}
	r.diagnostics = append(r.diagnostics, d)
}

// Report adds a diagnostic to the collection.
func (r *Reporter) Report(severity Severity, code Code, pos Position, format string, args ...interface{}) {
	r.Add(Diagnostic{
		Stage:    r.stage,
		Severity: severity,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Pos:      pos,
	})
}

// Error reports an error.
func (r *Reporter) Error(code Code, pos Position, format string, args ...interface{}) {
	r.Report(SeverityError, code, pos, format, args...)
}

// Warning reports a warning.
func (r *Reporter) Warning(code Code, pos Position, format string, args ...interface{}) {
	r.Report(SeverityWarning, code, pos, format, args...)
}

// Note reports an informational message.
func (r *Reporter) Note(code Code, pos Position, format string, args ...interface{}) {
	r.Report(SeverityNote, code, pos, format, args...)
}

// Len returns the number of collected diagnostics.
func (r *Reporter) Len() int {
	return len(r.diagnostics)
}

// Diagnostics returns all collected diagnostics, sorted by source and row.
// Diagnostics at the same position keep their reporting order.
func (r *Reporter) Diagnostics() []Diagnostic {
	sorted := make([]Diagnostic, len(r.diagnostics))
	copy(sorted, r.diagnostics)

	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Pos.Source != sorted[j].Pos.Source {
			return sorted[i].Pos.Source < sorted[j].Pos.Source
		}
		return sorted[i].Pos.Row < sorted[j].Pos.Row
	})

	return sorted
}

// HasErrors returns true if any errors have been reported.
func (r *Reporter) HasErrors() bool {
	for _, d := range r.diagnostics {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}
