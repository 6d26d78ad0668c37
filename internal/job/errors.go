package job

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyDocument is returned by Parse for blank input.
	ErrEmptyDocument = errors.New("document is empty")
	// ErrMissingField is wrapped by a ParseError naming the absent field.
	ErrMissingField = errors.New("required field is missing")
)

// ParseError reports a document that is not well-formed job data. Path is a
// dotted field path, or empty when the document as a whole is at fault.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("parse job: %v", e.Err)
	}
	return fmt.Sprintf("parse job: %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ConversionError reports the first defect that kept a job from becoming a
// kernel job.
type ConversionError struct {
	Path    string
	Message string
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("convert job: %s: %s", e.Path, e.Message)
}
