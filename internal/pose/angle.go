// Package pose turns landmark readings into joint angles.
package pose

import (
	"math"

	"github.com/claude/kinetic/internal/models"
	"github.com/golang/geo/r3"
	"github.com/golang/geo/s1"
)

// AngleAt returns the angle at vertex p2 formed by p1-p2-p3, in degrees within
// [0,180]. A zero-length arm yields 0.
func AngleAt(p1, p2, p3 models.Point) float64 {
	v1 := vec(p1).Sub(vec(p2))
	v2 := vec(p3).Sub(vec(p2))

	n1, n2 := v1.Norm(), v2.Norm()
	if n1 == 0 || n2 == 0 {
		return 0
	}

	cos := v1.Dot(v2) / (n1 * n2)
	cos = math.Max(-1, math.Min(1, cos))
	deg := s1.Angle(math.Acos(cos)).Degrees()
	if math.IsNaN(deg) {
		return 0
	}
	return deg
}

func vec(p models.Point) r3.Vector {
	return r3.Vector{X: p.X, Y: p.Y, Z: p.Z}
}
