package ingest

import "encoding/json"

// DetectEngine examines a raw payload to decide which engine produced it.
//
//	{"people": [{"pose_keypoints_2d": [...]}]}        openpose
//	{"landmarks": [{"x": .., "y": .., "visibility"}]}  mediapipe
//	{"landmarks": [{"part": .., "position": ..}]}      native
func DetectEngine(raw []byte) string {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		return EngineNative // fallback; Decode reports the error
	}
	if _, ok := keys["people"]; ok {
		return EngineOpenPose
	}
	if _, ok := keys["pose_keypoints_2d"]; ok {
		return EngineOpenPose
	}

	var landmarks []map[string]json.RawMessage
	if err := json.Unmarshal(keys["landmarks"], &landmarks); err != nil || len(landmarks) == 0 {
		return EngineNative
	}
	if _, ok := landmarks[0]["part"]; ok {
		return EngineNative
	}
	return EngineMediaPipe
}
