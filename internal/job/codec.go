package job

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/millgrid/internal/geom"
)

// Parse decodes a wire document. It fails with *ParseError when the input is
// not valid JSON, when a field has the wrong JSON type, or when one of the
// required fields (stock, stock.type, features, features[i].type, output) is
// absent. Recognized type tags are canonicalized to upper case; unknown tags
// are kept verbatim for the validator to report.
func Parse(data []byte) (*Job, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &ParseError{Err: ErrEmptyDocument}
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, &ParseError{Err: err}
	}
	for _, key := range []string{"stock", "features", "output"} {
		if isAbsent(top[key]) {
			return nil, &ParseError{Path: key, Err: ErrMissingField}
		}
	}
	if err := requireType(top["stock"], "stock"); err != nil {
		return nil, err
	}
	var rawFeatures []json.RawMessage
	if err := json.Unmarshal(top["features"], &rawFeatures); err != nil {
		return nil, &ParseError{Path: "features", Err: err}
	}
	for i, raw := range rawFeatures {
		if err := requireType(raw, fmt.Sprintf("features[%d]", i)); err != nil {
			return nil, err
		}
	}

	var j Job
	if err := json.Unmarshal(data, &j); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return nil, &ParseError{Path: typeErr.Field, Err: err}
		}
		return nil, &ParseError{Err: err}
	}
	j.canonicalize()
	return &j, nil
}

func isAbsent(raw json.RawMessage) bool {
	return raw == nil || string(bytes.TrimSpace(raw)) == "null"
}

func requireType(raw json.RawMessage, path string) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return &ParseError{Path: path, Err: err}
	}
	if isAbsent(obj["type"]) {
		return &ParseError{Path: path + ".type", Err: ErrMissingField}
	}
	return nil
}

// Serialize encodes j as a wire document with canonical type tags. With
// pretty set the output is indented by two spaces.
func Serialize(j *Job, pretty bool) ([]byte, error) {
	out := j.Clone()
	out.canonicalize()
	if out.Features == nil {
		out.Features = []Feature{}
	}
	if pretty {
		return json.MarshalIndent(out, "", "  ")
	}
	return json.Marshal(out)
}

// canonicalize rewrites recognized type tags in their upper-case form.
func (j *Job) canonicalize() {
	if kind, ok := geom.ParseStockKind(j.Stock.Type); ok {
		j.Stock.Type = kind.String()
	}
	for i := range j.Features {
		j.Features[i].Type = CanonicalFeatureType(j.Features[i].Type)
	}
}

// CanonicalFeatureType returns the upper-case tag for a recognized feature
// type and tag unchanged otherwise.
func CanonicalFeatureType(tag string) string {
	if kind, ok := geom.ParseFeatureKind(tag); ok {
		return kind.String()
	}
	return tag
}

// Load reads and parses the job document at path. A missing file yields an
// error matching fs.ErrNotExist.
func Load(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load job: %w", err)
	}
	return Parse(data)
}

// SaveOptions controls Save.
type SaveOptions struct {
	Pretty bool
	// EnsureDir creates the parent directory of the target path first.
	EnsureDir bool
}

// Save serializes j and writes it to path.
func Save(path string, j *Job, opts SaveOptions) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("save job: %w", errEmptyPath)
	}
	data, err := Serialize(j, opts.Pretty)
	if err != nil {
		return fmt.Errorf("save job: %w", err)
	}
	if opts.EnsureDir {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("save job: %w", err)
			}
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save job: %w", err)
	}
	return nil
}

var errEmptyPath = errors.New("path must not be empty")
