// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package geom

import (
	"fmt"
	"strings"
)

// Profile bounds. MaxProfilePoints is the capacity of the native turn payload.
const (
	MinProfilePoints = 2
	MaxProfilePoints = 64
)

// FeatureKind is the discriminator of a Feature. Values match the native
// FeatureType enum.
type FeatureKind int32

const (
	FeatureDrill      FeatureKind = 1
	FeaturePocketRect FeatureKind = 2
	FeatureTurnOD     FeatureKind = 3
	FeatureTurnID     FeatureKind = 4
)

var featureTags = map[FeatureKind]string{
	FeatureDrill:      "DRILL",
	FeaturePocketRect: "POCKET_RECT",
	FeatureTurnOD:     "TURN_OD",
	FeatureTurnID:     "TURN_ID",
}

// String returns the canonical, upper-case wire tag.
func (k FeatureKind) String() string {
	if tag, ok := featureTags[k]; ok {
		return tag
	}
	return fmt.Sprintf("FeatureKind(%d)", int32(k))
}

// ParseFeatureKind maps a wire tag to a FeatureKind, ignoring case.
// Surrounding whitespace is not ignored.
func ParseFeatureKind(tag string) (FeatureKind, bool) {
	upper := strings.ToUpper(tag)
	for kind, t := range featureTags {
		if t == upper {
			return kind, true
		}
	}
	return 0, false
}

// Feature is one machining operation. The set of implementations is closed.
type Feature interface {
	Kind() FeatureKind
	ToolAxis() Axis
	isFeature()
}

// Drill removes a cylinder of Radius and Depth along the axis direction.
type Drill struct {
	Radius float64
	Depth  float64
	Axis   Axis
}

// PocketRect removes a Width x Height box of Depth, centred on the axis origin.
type PocketRect struct {
	Width  float64
	Height float64
	Depth  float64
	Axis   Axis
}

// ProfilePoint is one station of a turning profile: radius at axial offset Z.
type ProfilePoint struct {
	Z      float64
	Radius float64
}

// TurnProfile is shared by outer and inner turning. TargetDiameter and Length
// are optional overrides; when nil they are derived from the profile.
type TurnProfile struct {
	Profile        []ProfilePoint
	Axis           Axis
	TargetDiameter *float64
	Length         *float64
}

// Diameter is the supplied target diameter, or twice the first radius.
func (t TurnProfile) Diameter() float64 {
	if t.TargetDiameter != nil {
		return *t.TargetDiameter
	}
	if len(t.Profile) == 0 {
		return 0
	}
	return 2 * t.Profile[0].Radius
}

// Span is the supplied length, or the axial distance from first to last point.
func (t TurnProfile) Span() float64 {
	if t.Length != nil {
		return *t.Length
	}
	if len(t.Profile) == 0 {
		return 0
	}
	return t.Profile[len(t.Profile)-1].Z - t.Profile[0].Z
}

// TurnOD turns the outside diameter down to the profile.
type TurnOD struct{ TurnProfile }

// TurnID bores the inside diameter out to the profile.
type TurnID struct{ TurnProfile }

func (Drill) Kind() FeatureKind      { return FeatureDrill }
func (PocketRect) Kind() FeatureKind { return FeaturePocketRect }
func (TurnOD) Kind() FeatureKind     { return FeatureTurnOD }
func (TurnID) Kind() FeatureKind     { return FeatureTurnID }

func (f Drill) ToolAxis() Axis       { return f.Axis }
func (f PocketRect) ToolAxis() Axis  { return f.Axis }
func (f TurnProfile) ToolAxis() Axis { return f.Axis }

func (Drill) isFeature()      {}
func (PocketRect) isFeature() {}
func (TurnOD) isFeature()     {}
func (TurnID) isFeature()     {}
