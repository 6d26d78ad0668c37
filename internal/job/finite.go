package job

import (
	"fmt"
	"math"
)

// NonFinite returns the path of every NaN or infinite number in j, in
// document order. Such numbers cannot be written as JSON and mean nothing to
// the kernel.
func NonFinite(j *Job) []string {
	var out []string
	check := func(path string, v float64) {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			out = append(out, path)
		}
	}
	checkAxis := func(path string, a *Axis) {
		if a == nil {
			return
		}
		for _, v := range []struct {
			name string
			vec  []float64
		}{{"origin", a.Origin}, {"dir", a.Dir}, {"xdir", a.XDir}} {
			for i, x := range v.vec {
				check(fmt.Sprintf("%s.%s[%d]", path, v.name, i), x)
			}
		}
	}
	checkTurn := func(path string, t *Turn) {
		if t == nil {
			return
		}
		for i, p := range t.Profile {
			check(fmt.Sprintf("%s.profile[%d].z", path, i), p.Z)
			check(fmt.Sprintf("%s.profile[%d].radius", path, i), p.Radius)
		}
		checkAxis(path+".axis", t.Axis)
		if t.TargetDiameter != nil {
			check(path+".targetDiameter", *t.TargetDiameter)
		}
		if t.Length != nil {
			check(path+".length", *t.Length)
		}
	}

	check("stock.p1", j.Stock.P1)
	check("stock.p2", j.Stock.P2)
	check("stock.p3", j.Stock.P3)
	checkAxis("stock.axis", j.Stock.Axis)

	for i, f := range j.Features {
		base := fmt.Sprintf("features[%d]", i)
		if d := f.Drill; d != nil {
			check(base+".drill.radius", d.Radius)
			check(base+".drill.depth", d.Depth)
			checkAxis(base+".drill.axis", d.Axis)
		}
		if p := f.PocketRect; p != nil {
			check(base+".pocketRect.width", p.Width)
			check(base+".pocketRect.height", p.Height)
			check(base+".pocketRect.depth", p.Depth)
			checkAxis(base+".pocketRect.axis", p.Axis)
		}
		checkTurn(base+".turnOd", f.TurnOD)
		checkTurn(base+".turnId", f.TurnID)
	}

	check("output.linearDeflection", j.Output.LinearDeflection)
	check("output.angularDeflection", j.Output.AngularDeflection)
	return out
}
