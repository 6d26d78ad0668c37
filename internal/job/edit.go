package job

import (
	"errors"
	"strings"

	"github.com/vk/millgrid/internal/geom"
)

// ErrInvalidIndex is returned by AddFeature for a negative position.
var ErrInvalidIndex = errors.New("index must be >= 0")

// ErrUnknownFeatureType is returned by AddFeature for a tag outside the
// closed feature set.
var ErrUnknownFeatureType = errors.New("unsupported feature type")

// Defaults seeds New. Nil fields start empty.
type Defaults struct {
	Stock  *Stock
	Output *Output
}

// New returns a draft job with no features. The draft is not valid until a
// feature is added and the output is named.
func New(d Defaults) *Job {
	j := &Job{Features: []Feature{}}
	if d.Stock != nil {
		j.SetStock(*d.Stock)
	}
	if d.Output != nil {
		j.SetOutput(*d.Output)
	}
	return j
}

// SetStock replaces the stock. The type tag is upper-cased.
func (j *Job) SetStock(s Stock) {
	s.Type = strings.ToUpper(s.Type)
	s.Axis = s.Axis.clone()
	j.Stock = s
}

// AddFeature inserts f at index, or appends it when index is nil or past the
// end. The type tag must name a known feature; it is stored canonicalized.
func (j *Job) AddFeature(f Feature, index *int) error {
	kind, ok := geom.ParseFeatureKind(f.Type)
	if !ok {
		return ErrUnknownFeatureType
	}
	f = f.Clone()
	f.Type = kind.String()

	switch {
	case index == nil || *index >= len(j.Features):
		j.Features = append(j.Features, f)
	case *index < 0:
		return ErrInvalidIndex
	default:
		j.Features = append(j.Features, Feature{})
		copy(j.Features[*index+1:], j.Features[*index:])
		j.Features[*index] = f
	}
	return nil
}

// SetOutput replaces the output settings.
func (j *Job) SetOutput(o Output) {
	j.Output = o
}
