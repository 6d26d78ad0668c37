package testutil

import "github.com/vk/millgrid/internal/job"

// DrilledBlock is the reference job: a 100x80x20 box at the world origin with
// one 8mm drill 12 deep entering the top face at (30,20,20).
func DrilledBlock() *job.Job {
	return &job.Job{
		Stock: job.Stock{Type: "BOX", P1: 100, P2: 80, P3: 20, Axis: job.WorldAxis()},
		Features: []job.Feature{{
			Type: "DRILL",
			Drill: &job.Drill{
				Radius: 8,
				Depth:  12,
				Axis:   job.NewAxis([]float64{30, 20, 20}, []float64{0, 0, -1}, []float64{1, 0, 0}),
			},
		}},
		Output: job.Output{
			LinearDeflection:  0.1,
			AngularDeflection: 0.5,
			Dir:               "out",
			StepFile:          "result.step",
			StlFile:           "result.stl",
			DeltaStepFile:     "delta.step",
			DeltaStlFile:      "delta.stl",
		},
	}
}

// TurnedShaft is a cylinder with an OD turn and an ID bore.
func TurnedShaft() *job.Job {
	j := DrilledBlock()
	j.Stock = job.Stock{Type: "CYLINDER", P1: 25, P2: 60, Axis: job.WorldAxis()}
	j.Features = []job.Feature{
		{
			Type: "TURN_OD",
			TurnOD: &job.Turn{
				Profile: []job.ProfilePoint{{Z: 0, Radius: 20}, {Z: 30, Radius: 20}, {Z: 30, Radius: 15}, {Z: 60, Radius: 15}},
				Axis:    job.WorldAxis(),
			},
		},
		{
			Type: "TURN_ID",
			TurnID: &job.Turn{
				Profile: []job.ProfilePoint{{Z: 0, Radius: 5}, {Z: 20, Radius: 5}},
				Axis:    job.WorldAxis(),
			},
		},
	}
	return j
}

// Chain returns a box job with n pockets, each feeding the next.
func Chain(n int) *job.Job {
	j := DrilledBlock()
	j.Features = nil
	for i := 0; i < n; i++ {
		j.Features = append(j.Features, job.Feature{
			Type: "POCKET_RECT",
			PocketRect: &job.PocketRect{
				Width:  10,
				Height: 10,
				Depth:  2,
				Axis:   job.NewAxis([]float64{float64(10 + 12*i), 40, 20}, []float64{0, 0, -1}, []float64{1, 0, 0}),
			},
		})
	}
	return j
}
