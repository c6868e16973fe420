package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/claude/kinetic/internal/models"
	"github.com/claude/kinetic/internal/pose"
)

// TestLoadDefault verifies the embedded catalog parses and is non-empty.
func TestLoadDefault(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Len() < 5 {
		t.Errorf("catalog has %d exercises, want at least 5", c.Len())
	}
	ex, err := c.ByID("shoulder_flexion")
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	if len(ex.Phases) != 2 {
		t.Errorf("shoulder_flexion phases = %d, want 2", len(ex.Phases))
	}
	if ex.Repetitions.Recommended != 10 {
		t.Errorf("recommended reps = %d, want 10", ex.Repetitions.Recommended)
	}
	spec := ex.Phases[1].KeyAngles[0]
	if spec.Joint != "shoulder_flexion" || spec.TargetAngle != 90 || spec.Tolerance != 10 {
		t.Errorf("raised phase spec = %+v", spec)
	}
}

// TestDefaultCatalogJointsKnown verifies every joint referenced by the built-in
// catalog can be produced by the angle calculator.
func TestDefaultCatalogJointsKnown(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	known := map[string]bool{}
	for _, j := range pose.Joints() {
		known[j] = true
	}
	for _, ex := range c.Filter("", "") {
		for _, ph := range ex.Phases {
			for _, spec := range ph.KeyAngles {
				if !known[spec.Joint] {
					t.Errorf("%s/%s uses unknown joint %q", ex.ID, ph.Name, spec.Joint)
				}
			}
		}
	}
}

// TestByIDUnknown verifies unknown ids return ErrUnknownExercise.
func TestByIDUnknown(t *testing.T) {
	c, _ := Load("")
	if _, err := c.ByID("moonwalk"); !errors.Is(err, ErrUnknownExercise) {
		t.Errorf("err = %v, want ErrUnknownExercise", err)
	}
}

// TestFilters verifies category and difficulty lookups.
func TestFilters(t *testing.T) {
	c, _ := Load("")
	lower := c.Filter(models.CategoryLowerBody, "")
	for _, ex := range lower {
		if ex.Category != models.CategoryLowerBody {
			t.Errorf("category filter returned %s (%s)", ex.ID, ex.Category)
		}
	}
	if len(lower) == 0 {
		t.Error("expected lower body exercises")
	}
	for _, ex := range c.Filter("", models.DifficultyIntermediate) {
		if ex.Difficulty != models.DifficultyIntermediate {
			t.Errorf("difficulty filter returned %s (%s)", ex.ID, ex.Difficulty)
		}
	}
	both := c.Filter(models.CategoryLowerBody, models.DifficultyIntermediate)
	if len(both) != 1 || both[0].ID != "squat" {
		t.Errorf("Filter(lower_body, intermediate) = %v", both)
	}
	if got := c.Filter("", ""); len(got) != c.Len() {
		t.Errorf("Filter with no criteria = %d, want %d", len(got), c.Len())
	}
}

// TestParseRejectsInvalid verifies validation errors for malformed catalogs.
func TestParseRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"missing id": `
exercises:
  - name: x
    phases: [{name: p, key_angles: []}]
`,
		"no phases": `
exercises:
  - id: a
`,
		"inverted range": `
exercises:
  - id: a
    phases:
      - name: p
        key_angles: [{joint: knee_flexion, min_angle: 100, max_angle: 90, target_angle: 95, tolerance: 5}]
`,
		"duplicate": `
exercises:
  - id: a
    phases: [{name: p}]
  - id: a
    phases: [{name: p}]
`,
		"not yaml": "exercises: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(doc)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

// TestLoadFile verifies a catalog file on disk replaces the built-in one.
func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	doc := `
version: 3
exercises:
  - id: neck_tilt
    name: Neck Tilt
    category: flexibility
    difficulty: beginner
    phases:
      - name: Tilted
        key_angles: [{joint: trunk_alignment, min_angle: 80, max_angle: 100, target_angle: 90, tolerance: 5}]
    repetitions: {min: 1, max: 3, recommended: 2}
`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Version != 3 || c.Len() != 1 {
		t.Errorf("version=%d len=%d", c.Version, c.Len())
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
