package ingest

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/claude/kinetic/internal/models"
)

// mediaPipeParts names the 33 BlazePose landmarks by index. Empty entries are
// face and hand points the joint calculator does not use.
var mediaPipeParts = [33]string{
	0: "nose", 7: "leftEar", 8: "rightEar",
	11: "leftShoulder", 12: "rightShoulder",
	13: "leftElbow", 14: "rightElbow",
	15: "leftWrist", 16: "rightWrist",
	23: "leftHip", 24: "rightHip",
	25: "leftKnee", 26: "rightKnee",
	27: "leftAnkle", 28: "rightAnkle",
	29: "leftHeel", 30: "rightHeel",
	31: "leftBigToe", 32: "rightBigToe",
}

type mediaPipeLandmark struct {
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	Z          float64  `json:"z"`
	Visibility *float64 `json:"visibility"`
}

type mediaPipeFrame struct {
	Landmarks   []mediaPipeLandmark `json:"landmarks"`
	TimestampMs int64               `json:"timestamp_ms"`
}

func decodeMediaPipe(raw []byte) (models.PoseFrame, error) {
	var in mediaPipeFrame
	if err := json.Unmarshal(raw, &in); err != nil {
		return models.PoseFrame{}, err
	}
	if len(in.Landmarks) != len(mediaPipeParts) {
		return models.PoseFrame{}, fmt.Errorf("want %d landmarks, got %d", len(mediaPipeParts), len(in.Landmarks))
	}

	frame := models.PoseFrame{Engine: EngineMediaPipe}
	if in.TimestampMs > 0 {
		frame.Timestamp = time.UnixMilli(in.TimestampMs).UTC()
	}
	for i, lm := range in.Landmarks {
		part := mediaPipeParts[i]
		if part == "" {
			continue
		}
		// Landmarks without a visibility score are taken as fully visible.
		conf := 1.0
		if lm.Visibility != nil {
			conf = clamp01(*lm.Visibility)
		}
		frame.Landmarks = append(frame.Landmarks, models.Landmark{
			Part:       part,
			Position:   models.Point{X: lm.X, Y: lm.Y, Z: lm.Z},
			Confidence: conf,
		})
	}
	return frame, nil
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
