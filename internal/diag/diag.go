// Package diag defines the field-level diagnostics reported for job documents.
//
// Diagnostics are data, not failures: a caller collects the whole list and
// renders every problem at once. Diagnostics also satisfies error so that a
// non-empty list can be returned where an error is expected, the same way
// hcl.Diagnostics does.
package diag

import (
	"fmt"
	"strings"
)

// Code classifies a diagnostic. The string values are part of the public
// surface and must not change.
type Code string

const (
	FeaturesEmpty      Code = "FEATURES_EMPTY"
	InvalidStockType   Code = "INVALID_STOCK_TYPE"
	InvalidFeatureType Code = "INVALID_FEATURE_TYPE"
	MissingAxis        Code = "MISSING_AXIS"
	AxisLength         Code = "AXIS_LENGTH"
	MissingPayload     Code = "MISSING_PAYLOAD"
	MissingProfile     Code = "MISSING_PROFILE"
	ProfileTooShort    Code = "TURN_PROFILE_TOO_SHORT"
	ProfileTooLong     Code = "TURN_PROFILE_TOO_LONG"
	EmptyOutputDir     Code = "EMPTY_OUTPUT_DIR"
	EmptyOutputFile    Code = "EMPTY_OUTPUT_FILE"
	NonFiniteNumber    Code = "NON_FINITE_NUMBER"

	InvalidIndex Code = "INVALID_INDEX"
	EmptyPath    Code = "EMPTY_PATH"
	EmptyJSON    Code = "EMPTY_JSON"
	ParseError   Code = "PARSE_ERROR"
	FileNotFound Code = "FILE_NOT_FOUND"
	IOError      Code = "IO_ERROR"

	ConversionFailed Code = "CONVERSION_FAILED"
)

// Diagnostic points at one defect in a document.
type Diagnostic struct {
	Code    Code   `json:"code"`
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s at %s: %s", d.Code, d.Path, d.Message)
}

// New is shorthand for a Diagnostic literal.
func New(code Code, path, message string) Diagnostic {
	return Diagnostic{Code: code, Path: path, Message: message}
}

// Newf builds a Diagnostic with a formatted message.
func Newf(code Code, path, format string, args ...any) Diagnostic {
	return Diagnostic{Code: code, Path: path, Message: fmt.Sprintf(format, args...)}
}

// Diagnostics is an ordered list of diagnostics.
type Diagnostics []Diagnostic

// HasErrors reports whether the list is non-empty. Every diagnostic is an
// error; there are no warnings.
func (ds Diagnostics) HasErrors() bool {
	return len(ds) > 0
}

// Codes returns the code of every diagnostic, in order.
func (ds Diagnostics) Codes() []Code {
	out := make([]Code, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.Code)
	}
	return out
}

// Has reports whether some diagnostic carries code at path. An empty path
// matches any path.
func (ds Diagnostics) Has(code Code, path string) bool {
	for _, d := range ds {
		if d.Code == code && (path == "" || d.Path == path) {
			return true
		}
	}
	return false
}

func (ds Diagnostics) Error() string {
	switch len(ds) {
	case 0:
		return "no diagnostics"
	case 1:
		return ds[0].String()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d problems:", len(ds))
	for _, d := range ds {
		b.WriteString("\n  - ")
		b.WriteString(d.String())
	}
	return b.String()
}
