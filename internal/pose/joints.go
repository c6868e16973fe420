package pose

import (
	"math"

	"github.com/claude/kinetic/internal/models"
)

// Joint names produced by JointAngles.
const (
	ShoulderFlexion     = "shoulder_flexion"
	ShoulderAbduction   = "shoulder_abduction"
	ElbowFlexion        = "elbow_flexion"
	KneeFlexion         = "knee_flexion"
	KneeExtension       = "knee_extension"
	HipFlexion          = "hip_flexion"
	HipExtension        = "hip_extension"
	HipAbduction        = "hip_abduction"
	AnkleDorsiflexion   = "ankle_dorsiflexion"
	AnklePlantarflexion = "ankle_plantarflexion"
	TrunkAlignment      = "trunk_alignment"
	SpineAlignment      = "spine_alignment"
)

// triplet names the landmarks of a joint; the vertex is B.
type triplet struct {
	A, B, C string
}

// jointDef maps a joint to its left and right landmark triplets and an optional
// transform from the raw vertex angle.
type jointDef struct {
	name        string
	left, right triplet
	transform   func(float64) float64
	// horizontal replaces C with a point one unit along +X from B.
	horizontal bool
}

var jointDefs = []jointDef{
	{name: ShoulderFlexion,
		left:  triplet{"leftHip", "leftShoulder", "leftElbow"},
		right: triplet{"rightHip", "rightShoulder", "rightElbow"}},
	{name: ShoulderAbduction,
		left:  triplet{"leftHip", "leftShoulder", "leftElbow"},
		right: triplet{"rightHip", "rightShoulder", "rightElbow"}},
	{name: ElbowFlexion,
		left:  triplet{"leftShoulder", "leftElbow", "leftWrist"},
		right: triplet{"rightShoulder", "rightElbow", "rightWrist"}},
	{name: KneeFlexion,
		left:  triplet{"leftHip", "leftKnee", "leftAnkle"},
		right: triplet{"rightHip", "rightKnee", "rightAnkle"}},
	{name: KneeExtension,
		left:  triplet{"leftHip", "leftKnee", "leftAnkle"},
		right: triplet{"rightHip", "rightKnee", "rightAnkle"}},
	{name: HipFlexion,
		left:  triplet{"leftShoulder", "leftHip", "leftKnee"},
		right: triplet{"rightShoulder", "rightHip", "rightKnee"}},
	{name: HipExtension,
		left:  triplet{"leftShoulder", "leftHip", "leftKnee"},
		right: triplet{"rightShoulder", "rightHip", "rightKnee"}},
	{name: HipAbduction,
		left:      triplet{"rightHip", "leftHip", "leftKnee"},
		right:     triplet{"leftHip", "rightHip", "rightKnee"},
		transform: func(a float64) float64 { return math.Max(0, a-90) }},
	{name: AnkleDorsiflexion,
		left:  triplet{"leftKnee", "leftAnkle", "leftBigToe"},
		right: triplet{"rightKnee", "rightAnkle", "rightBigToe"}},
	{name: AnklePlantarflexion,
		left:      triplet{"leftKnee", "leftAnkle", "leftBigToe"},
		right:     triplet{"rightKnee", "rightAnkle", "rightBigToe"},
		transform: func(a float64) float64 { return math.Max(0, a-90) }},
	{name: TrunkAlignment,
		left:       triplet{"leftShoulder", "leftHip", ""},
		right:      triplet{"rightShoulder", "rightHip", ""},
		horizontal: true},
	{name: SpineAlignment,
		left:  triplet{"leftShoulder", "leftHip", "leftAnkle"},
		right: triplet{"rightShoulder", "rightHip", "rightAnkle"}},
}

// Joints lists the joint names JointAngles can produce.
func Joints() []string {
	names := make([]string, len(jointDefs))
	for i, d := range jointDefs {
		names[i] = d.name
	}
	return names
}

// JointAngles computes every joint whose landmarks are present in the frame.
// Each joint uses whichever body side has the higher minimum confidence, left
// on ties. Joints with no complete triplet are omitted.
func JointAngles(frame models.PoseFrame) map[string]models.AngleCalculation {
	parts := make(map[string]models.Landmark, len(frame.Landmarks))
	for _, l := range frame.Landmarks {
		if _, seen := parts[l.Part]; !seen {
			parts[l.Part] = l
		}
	}

	angles := make(map[string]models.AngleCalculation, len(jointDefs))
	for _, d := range jointDefs {
		left, lok := measure(parts, d, d.left)
		right, rok := measure(parts, d, d.right)

		var calc models.AngleCalculation
		switch {
		case lok && rok:
			calc = left
			if right.Confidence > left.Confidence {
				calc = right
			}
		case lok:
			calc = left
		case rok:
			calc = right
		default:
			continue
		}
		angles[d.name] = calc
	}
	return angles
}

func measure(parts map[string]models.Landmark, d jointDef, t triplet) (models.AngleCalculation, bool) {
	a, ok := parts[t.A]
	if !ok {
		return models.AngleCalculation{}, false
	}
	b, ok := parts[t.B]
	if !ok {
		return models.AngleCalculation{}, false
	}

	var c models.Landmark
	if d.horizontal {
		c = models.Landmark{
			Position:   models.Point{X: b.Position.X + 1, Y: b.Position.Y, Z: b.Position.Z},
			Confidence: 1,
		}
	} else if c, ok = parts[t.C]; !ok {
		return models.AngleCalculation{}, false
	}

	angle := AngleAt(a.Position, b.Position, c.Position)
	if d.transform != nil {
		angle = d.transform(angle)
	}
	return models.AngleCalculation{
		Joint:      d.name,
		Angle:      angle,
		Confidence: math.Min(a.Confidence, math.Min(b.Confidence, c.Confidence)),
		Status:     models.StatusUnknown,
	}, true
}
