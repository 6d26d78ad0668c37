package memkernel

import "math"

type vec [3]float64

func (a vec) add(b vec) vec      { return vec{a[0] + b[0], a[1] + b[1], a[2] + b[2]} }
func (a vec) scale(k float64) vec { return vec{a[0] * k, a[1] * k, a[2] * k} }

func (a vec) cross(b vec) vec {
	return vec{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

// unit normalizes a; ok is false for a null vector.
func (a vec) unit() (vec, bool) {
	n := math.Sqrt(a[0]*a[0] + a[1]*a[1] + a[2]*a[2])
	if n <= 1e-12 {
		return vec{}, false
	}
	return a.scale(1 / n), true
}

// box is an axis-aligned bounding box. The development kernel approximates
// every solid by its bounds.
type box struct {
	Min, Max vec
}

// empty reports a box with no volume.
func (b box) empty() bool {
	for i := 0; i < 3; i++ {
		if b.Max[i] <= b.Min[i] {
			return true
		}
	}
	return false
}

func (b box) span() vec {
	return vec{b.Max[0] - b.Min[0], b.Max[1] - b.Min[1], b.Max[2] - b.Min[2]}
}

func (b box) intersect(o box) box {
	var out box
	for i := 0; i < 3; i++ {
		out.Min[i] = math.Max(b.Min[i], o.Min[i])
		out.Max[i] = math.Min(b.Max[i], o.Max[i])
		if out.Max[i] < out.Min[i] {
			out.Max[i] = out.Min[i]
		}
	}
	return out
}

// boundsOf returns the bounds of a point cloud.
func boundsOf(points ...vec) box {
	b := box{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		for i := 0; i < 3; i++ {
			b.Min[i] = math.Min(b.Min[i], p[i])
			b.Max[i] = math.Max(b.Max[i], p[i])
		}
	}
	return b
}

// cylinderBounds bounds a cylinder of radius r whose axis runs from origin
// along the unit vector dir for length. The end discs extend
// r*sqrt(1-dir[i]^2) along each world axis.
func cylinderBounds(origin, dir vec, r, length float64) box {
	b := boundsOf(origin, origin.add(dir.scale(length)))
	for i := 0; i < 3; i++ {
		pad := r * math.Sqrt(math.Max(0, 1-dir[i]*dir[i]))
		b.Min[i] -= pad
		b.Max[i] += pad
	}
	return b
}

// corners returns the eight corners of the parallelepiped spanned by the
// three edge vectors from corner.
func corners(corner, ex, ey, ez vec) []vec {
	out := make([]vec, 0, 8)
	for _, a := range []float64{0, 1} {
		for _, b := range []float64{0, 1} {
			for _, c := range []float64{0, 1} {
				out = append(out, corner.add(ex.scale(a)).add(ey.scale(b)).add(ez.scale(c)))
			}
		}
	}
	return out
}
