// Package ingest turns engine-native pose output into models.PoseFrame.
package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/claude/kinetic/internal/models"
)

// Engine tags accepted by Decode.
const (
	EngineNative    = "native"
	EngineMediaPipe = "mediapipe"
	EngineOpenPose  = "openpose"
)

// ErrUnknownEngine is returned for an engine tag Decode cannot handle.
var ErrUnknownEngine = errors.New("unknown pose engine")

// Decode parses one pose reading produced by engine. An empty engine is
// detected from the payload shape. The returned frame carries the engine tag.
func Decode(engine string, raw []byte) (models.PoseFrame, error) {
	if engine == "" {
		engine = DetectEngine(raw)
	}

	var (
		frame models.PoseFrame
		err   error
	)
	switch engine {
	case EngineNative:
		if err = json.Unmarshal(raw, &frame); err == nil {
			for i := range frame.Landmarks {
				frame.Landmarks[i].Confidence = clamp01(frame.Landmarks[i].Confidence)
			}
		}
	case EngineMediaPipe:
		frame, err = decodeMediaPipe(raw)
	case EngineOpenPose:
		frame, err = decodeOpenPose(raw)
	default:
		return frame, fmt.Errorf("%w %q", ErrUnknownEngine, engine)
	}
	if err != nil {
		return frame, fmt.Errorf("decoding %s frame: %w", engine, err)
	}

	if frame.Engine == "" && engine != EngineNative {
		frame.Engine = engine
	}
	if frame.Timestamp.IsZero() {
		frame.Timestamp = time.Now().UTC()
	}
	return frame, nil
}
