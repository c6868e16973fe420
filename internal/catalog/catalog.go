// Package catalog loads the static exercise library.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/claude/kinetic/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed exercises.yaml
var defaultCatalog []byte

// ErrUnknownExercise is returned when an exercise id is not in the catalog.
var ErrUnknownExercise = errors.New("unknown exercise")

// Catalog is an immutable, ordered exercise library.
type Catalog struct {
	Version   int
	exercises []models.ExerciseDefinition
	byID      map[string]int
}

type document struct {
	Version   int                         `yaml:"version"`
	Exercises []models.ExerciseDefinition `yaml:"exercises"`
}

// Load reads a catalog from path, or the built-in catalog when path is empty.
func Load(path string) (*Catalog, error) {
	data := defaultCatalog
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading catalog file: %w", err)
		}
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	c := &Catalog{
		Version:   doc.Version,
		exercises: doc.Exercises,
		byID:      make(map[string]int, len(doc.Exercises)),
	}
	for i, ex := range doc.Exercises {
		if err := validate(ex); err != nil {
			return nil, fmt.Errorf("exercise %d: %w", i, err)
		}
		if _, dup := c.byID[ex.ID]; dup {
			return nil, fmt.Errorf("duplicate exercise id %q", ex.ID)
		}
		c.byID[ex.ID] = i
	}
	return c, nil
}

func validate(ex models.ExerciseDefinition) error {
	if ex.ID == "" {
		return fmt.Errorf("id is required")
	}
	if len(ex.Phases) == 0 {
		return fmt.Errorf("%s: at least one phase is required", ex.ID)
	}
	for _, ph := range ex.Phases {
		for _, spec := range ph.KeyAngles {
			if spec.Joint == "" {
				return fmt.Errorf("%s/%s: joint is required", ex.ID, ph.Name)
			}
			if spec.MinAngle > spec.MaxAngle {
				return fmt.Errorf("%s/%s/%s: min_angle exceeds max_angle", ex.ID, ph.Name, spec.Joint)
			}
			if spec.Tolerance < 0 {
				return fmt.Errorf("%s/%s/%s: negative tolerance", ex.ID, ph.Name, spec.Joint)
			}
		}
	}
	if ex.Repetitions.Min > ex.Repetitions.Max {
		return fmt.Errorf("%s: repetitions.min exceeds repetitions.max", ex.ID)
	}
	return nil
}

// ByID returns the exercise with the given id.
func (c *Catalog) ByID(id string) (*models.ExerciseDefinition, error) {
	i, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownExercise, id)
	}
	return &c.exercises[i], nil
}

// Filter returns exercises matching both non-empty filters, in catalog order.
func (c *Catalog) Filter(category, difficulty string) []models.ExerciseDefinition {
	out := []models.ExerciseDefinition{}
	for _, ex := range c.exercises {
		if (category == "" || ex.Category == category) &&
			(difficulty == "" || ex.Difficulty == difficulty) {
			out = append(out, ex)
		}
	}
	return out
}

// Len returns the number of exercises.
func (c *Catalog) Len() int {
	return len(c.exercises)
}
