package memkernel

import (
	"bufio"
	"fmt"
	"os"

	"github.com/vk/millgrid/internal/kernel"
)

// writeSTEP writes the bounds as a minimal ISO 10303-21 exchange file holding
// the eight corner points.
func writeSTEP(path string, id kernel.ShapeID, b box) error {
	return writeFile(path, func(w *bufio.Writer) {
		fmt.Fprintln(w, "ISO-10303-21;")
		fmt.Fprintln(w, "HEADER;")
		fmt.Fprintln(w, "FILE_DESCRIPTION(('millgrid development kernel'),'2;1');")
		fmt.Fprintf(w, "FILE_NAME('shape_%d','',(''),(''),'millgrid','memkernel','');\n", id)
		fmt.Fprintln(w, "FILE_SCHEMA(('AUTOMOTIVE_DESIGN'));")
		fmt.Fprintln(w, "ENDSEC;")
		fmt.Fprintln(w, "DATA;")
		for i, c := range corners(b.Min, vec{b.Max[0] - b.Min[0]}, vec{0, b.Max[1] - b.Min[1]}, vec{0, 0, b.Max[2] - b.Min[2]}) {
			fmt.Fprintf(w, "#%d=CARTESIAN_POINT('',(%g,%g,%g));\n", i+1, c[0], c[1], c[2])
		}
		fmt.Fprintln(w, "ENDSEC;")
		fmt.Fprintln(w, "END-ISO-10303-21;")
	})
}

// boxFaces lists the two triangles of each face of the unit cube, by corner
// index into corners(); corner i has bits x=i>>2, y=i>>1&1, z=i&1.
var boxFaces = [12][3]int{
	{0, 2, 6}, {0, 6, 4}, // z = min
	{1, 5, 7}, {1, 7, 3}, // z = max
	{0, 4, 5}, {0, 5, 1}, // y = min
	{2, 3, 7}, {2, 7, 6}, // y = max
	{0, 1, 3}, {0, 3, 2}, // x = min
	{4, 6, 7}, {4, 7, 5}, // x = max
}

// writeSTL writes the bounds as an ASCII STL mesh of twelve triangles.
func writeSTL(path string, id kernel.ShapeID, b box) error {
	pts := corners(b.Min, vec{b.Max[0] - b.Min[0]}, vec{0, b.Max[1] - b.Min[1]}, vec{0, 0, b.Max[2] - b.Min[2]})
	return writeFile(path, func(w *bufio.Writer) {
		fmt.Fprintf(w, "solid shape_%d\n", id)
		for _, f := range boxFaces {
			a, c, d := pts[f[0]], pts[f[1]], pts[f[2]]
			n, _ := vec{c[0] - a[0], c[1] - a[1], c[2] - a[2]}.cross(vec{d[0] - a[0], d[1] - a[1], d[2] - a[2]}).unit()
			fmt.Fprintf(w, "  facet normal %g %g %g\n", n[0], n[1], n[2])
			fmt.Fprintln(w, "    outer loop")
			for _, p := range [3]vec{a, c, d} {
				fmt.Fprintf(w, "      vertex %g %g %g\n", p[0], p[1], p[2])
			}
			fmt.Fprintln(w, "    endloop")
			fmt.Fprintln(w, "  endfacet")
		}
		fmt.Fprintf(w, "endsolid shape_%d\n", id)
	})
}

func writeFile(path string, body func(*bufio.Writer)) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	body(w)
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
