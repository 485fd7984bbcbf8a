package diag

import "fmt"

// Stage identifies which phase produced the diagnostic.
type Stage string

const (
	StageSelect Stage = "select"
	StageLayout Stage = "layout"
	StageTrace  Stage = "trace"
	StageIngest Stage = "ingest"
	StageExport Stage = "export"
)

// Severity captures how impactful the diagnostic is.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityNote    Severity = "note"
)

// Code is a stable identifier for a diagnostic.
type Code string

const (
	// Oracle selection
	CodeUnknownAlgorithm Code = "SELECT_UNKNOWN_ALGORITHM"
	CodeBadSelector      Code = "SELECT_BAD_SELECTOR"

	// Base assignment
	CodeLayoutConflict Code = "LAYOUT_CONFLICT"

	// Trace interpretation
	CodeDimensionMismatch Code = "TRACE_DIMENSION_MISMATCH"
	CodeUnresolvedBase    Code = "TRACE_UNRESOLVED_BASE"

	// Real-trace ingestion
	CodeUnparseableRow Code = "INGEST_UNPARSEABLE_ROW"
	CodeEmptyRow       Code = "INGEST_EMPTY_ROW"
)

// Position locates a diagnostic in its input. Row is 1-based; zero
// means the diagnostic is not tied to a row.
type Position struct {
	Source string
	Row    int
}

// String returns a human-readable representation of the position.
func (p Position) String() string {
	switch {
	case p.Source != "" && p.Row > 0:
		return fmt.Sprintf("%s:%d", p.Source, p.Row)
	case p.Source != "":
		return p.Source
	case p.Row > 0:
		return fmt.Sprintf("row %d", p.Row)
	default:
		return ""
	}
}

// IsValid returns true if the position carries location information.
func (p Position) IsValid() bool {
	return p.Source != "" || p.Row > 0
}

// Diagnostic is a non-fatal condition surfaced to the user.
type Diagnostic struct {
	Stage    Stage
	Severity Severity
	Code     Code
	Message  string
	Pos      Position
	Notes    []string
	Help     string
}

// WithNote adds a note to the diagnostic.
func (d Diagnostic) WithNote(note string) Diagnostic {
	d.Notes = append(d.Notes, note)
	return d
}

// WithHelp adds help text to the diagnostic.
func (d Diagnostic) WithHelp(help string) Diagnostic {
	d.Help = help
	return d
}

func (d Diagnostic) String() string {
	if d.Pos.IsValid() {
		return fmt.Sprintf("%s: %s[%s]: %s", d.Pos, d.Severity, d.Code, d.Message)
	}
	return fmt.Sprintf("%s[%s]: %s", d.Severity, d.Code, d.Message)
}
