package diag

import (
	"fmt"
	"io"
)

// Formatter writes diagnostics in a compiler-style layout:
//
//	warning[INGEST_UNPARSEABLE_ROW]: could not parse address "x"
//	  --> trace.csv:12
//	  = note: row skipped
type Formatter struct {
	w io.Writer
}

// NewFormatter creates a formatter writing to w.
func NewFormatter(w io.Writer) *Formatter {
	return &Formatter{w: w}
}

// Format writes one diagnostic.
func (f *Formatter) Format(d Diagnostic) {
	f.printHeader(d)
	if d.Pos.IsValid() {
		fmt.Fprintf(f.w, "  --> %s\n", d.Pos)
	}
	f.printHelp(d)
}

// FormatAll writes every diagnostic in order.
func (f *Formatter) FormatAll(ds []Diagnostic) {
	for _, d := range ds {
		f.Format(d)
	}
}

// printHeader prints the header (severity[CODE]: message).
func (f *Formatter) printHeader(d Diagnostic) {
	severity := string(d.Severity)
	if severity == "" {
		severity = "error"
	}

	if d.Code != "" {
		fmt.Fprintf(f.w, "%s[%s]: %s\n", severity, d.Code, d.Message)
	} else {
		fmt.Fprintf(f.w, "%s: %s\n", severity, d.Message)
	}
}

func (f *Formatter) printHelp(d Diagnostic) {
	for _, note := range d.Notes {
		fmt.Fprintf(f.w, "  = note: %s\n", note)
	}
	if d.Help != "" {
		fmt.Fprintf(f.w, "help: %s\n", d.Help)
	}
}
