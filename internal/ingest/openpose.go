package ingest

import (
	"encoding/json"
	"fmt"

	"github.com/claude/kinetic/internal/models"
)

// body25Parts names the OpenPose BODY_25 keypoints by index.
var body25Parts = []string{
	"nose", "neck",
	"rightShoulder", "rightElbow", "rightWrist",
	"leftShoulder", "leftElbow", "leftWrist",
	"midHip",
	"rightHip", "rightKnee", "rightAnkle",
	"leftHip", "leftKnee", "leftAnkle",
	"rightEye", "leftEye", "rightEar", "leftEar",
	"leftBigToe", "leftSmallToe", "leftHeel",
	"rightBigToe", "rightSmallToe", "rightHeel",
}

// coco18Parts names the OpenPose COCO keypoints: BODY_25 without midHip and the feet.
var coco18Parts = []string{
	"nose", "neck",
	"rightShoulder", "rightElbow", "rightWrist",
	"leftShoulder", "leftElbow", "leftWrist",
	"rightHip", "rightKnee", "rightAnkle",
	"leftHip", "leftKnee", "leftAnkle",
	"rightEye", "leftEye", "rightEar", "leftEar",
}

type openPosePerson struct {
	Keypoints []float64 `json:"pose_keypoints_2d"`
}

type openPoseFrame struct {
	People []openPosePerson `json:"people"`
	openPosePerson
}

func decodeOpenPose(raw []byte) (models.PoseFrame, error) {
	var in openPoseFrame
	if err := json.Unmarshal(raw, &in); err != nil {
		return models.PoseFrame{}, err
	}

	kp := in.Keypoints
	if len(in.People) > 0 {
		// The first detection is the patient; OpenPose orders by score.
		kp = in.People[0].Keypoints
	}
	// Nobody in view yields a frame without landmarks, which scores zero.
	if len(kp) == 0 {
		return models.PoseFrame{Engine: EngineOpenPose}, nil
	}

	var parts []string
	switch len(kp) {
	case 3 * len(body25Parts):
		parts = body25Parts
	case 3 * len(coco18Parts):
		parts = coco18Parts
	default:
		return models.PoseFrame{}, fmt.Errorf("unsupported keypoint count %d", len(kp)/3)
	}

	frame := models.PoseFrame{Engine: EngineOpenPose}
	for i, part := range parts {
		x, y, c := kp[3*i], kp[3*i+1], kp[3*i+2]
		// OpenPose reports undetected keypoints as (0, 0, 0).
		if c == 0 {
			continue
		}
		frame.Landmarks = append(frame.Landmarks, models.Landmark{
			Part:       part,
			Position:   models.Point{X: x, Y: y},
			Confidence: clamp01(c),
		})
	}
	return frame, nil
}
