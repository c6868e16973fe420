package pose

import (
	"math"
	"math/rand"
	"testing"

	"github.com/claude/kinetic/internal/models"
)

func pt(x, y float64) models.Point { return models.Point{X: x, Y: y} }

// TestAngleAtKnownShapes verifies right, straight, folded and oblique angles.
func TestAngleAtKnownShapes(t *testing.T) {
	tests := []struct {
		name       string
		p1, p2, p3 models.Point
		want       float64
	}{
		{"right angle", pt(1, 0), pt(0, 0), pt(0, 1), 90},
		{"straight", pt(-1, 0), pt(0, 0), pt(1, 0), 180},
		{"folded", pt(1, 0), pt(0, 0), pt(2, 0), 0},
		{"45 degrees", pt(1, 0), pt(0, 0), pt(1, 1), 45},
		{"135 degrees", pt(1, 0), pt(0, 0), pt(-1, 1), 135},
		{"3d right angle", models.Point{X: 0, Y: 0, Z: 2}, pt(0, 0), pt(3, 0), 90},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AngleAt(tt.p1, tt.p2, tt.p3)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("AngleAt = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestAngleAtDegenerate verifies coincident landmarks short-circuit to 0
// instead of producing NaN.
func TestAngleAtDegenerate(t *testing.T) {
	cases := [][3]models.Point{
		{pt(0, 0), pt(0, 0), pt(1, 1)},
		{pt(1, 1), pt(0, 0), pt(0, 0)},
		{pt(2, 2), pt(2, 2), pt(2, 2)},
	}
	for _, c := range cases {
		got := AngleAt(c[0], c[1], c[2])
		if math.IsNaN(got) || got != 0 {
			t.Errorf("AngleAt(%v) = %v, want 0", c, got)
		}
	}
}

// TestAngleAtRange checks that random non-degenerate triplets always land in
// [0,180], including nearly collinear ones where rounding pushes the cosine
// past ±1.
func TestAngleAtRange(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 5000; i++ {
		p1 := models.Point{X: rng.NormFloat64() * 100, Y: rng.NormFloat64() * 100, Z: rng.NormFloat64()}
		p2 := models.Point{X: rng.NormFloat64() * 100, Y: rng.NormFloat64() * 100, Z: rng.NormFloat64()}
		p3 := models.Point{X: rng.NormFloat64() * 100, Y: rng.NormFloat64() * 100, Z: rng.NormFloat64()}
		got := AngleAt(p1, p2, p3)
		if math.IsNaN(got) || got < 0 || got > 180 {
			t.Fatalf("AngleAt(%v, %v, %v) = %v, out of range", p1, p2, p3, got)
		}
	}
	for i := 0; i < 1000; i++ {
		k := rng.Float64()*1e6 + 1e-3
		got := AngleAt(pt(k, k*3), pt(0, 0), pt(k*1e-3, k*3e-3))
		if math.IsNaN(got) || got < 0 || got > 180 {
			t.Fatalf("collinear AngleAt = %v, out of range", got)
		}
	}
}
