package pointcloud

import (
	"bufio"
	"fmt"
	"io"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// WritePCD writes points and their labels as an ASCII PCD v0.7 file. Coordinates are converted from
// centimeters to meters; unlabeled clouds write NoLabel for every point.
func WritePCD(out io.Writer, points []r3.Vector, labels []int32) error {
	if len(labels) != 0 && len(labels) != len(points) {
		return errors.Errorf("%d labels for %d points", len(labels), len(points))
	}
	w := bufio.NewWriter(out)
	_, err := fmt.Fprintf(w, "VERSION .7\n"+
		"FIELDS x y z label\n"+
		"SIZE 4 4 4 4\n"+
		"TYPE F F F I\n"+
		"COUNT 1 1 1 1\n"+
		"WIDTH %d\n"+
		"HEIGHT 1\n"+
		"VIEWPOINT 0 0 0 1 0 0 0\n"+
		"POINTS %d\n"+
		"DATA ascii\n",
		len(points), len(points))
	if err != nil {
		return err
	}
	for i, p := range points {
		label := NoLabel
		if len(labels) != 0 {
			label = labels[i]
		}
		if _, err := fmt.Fprintf(w, "%f %f %f %d\n", p.X/100., p.Y/100., p.Z/100., label); err != nil {
			return err
		}
	}
	return w.Flush()
}
