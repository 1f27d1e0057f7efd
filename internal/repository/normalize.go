package repository

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"videoreview/internal/apperrors"
	"videoreview/models"
)

// NormalizeVideoTime turns a client supplied playback position into seconds.
// Anything that is not a finite, non-negative number becomes 0.
func NormalizeVideoTime(v interface{}) float64 {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}

// NormalizeDrawingData converts either accepted drawing shape into the object form.
// A bare data URI string is the legacy shape; the current shape is an object with
// imageData and an optional timestamp that defaults to videoTime. Empty input means
// no drawing. Normalizing an already normalized value returns the same value.
func NormalizeDrawingData(v interface{}, videoTime float64) (*models.DrawingData, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case *models.DrawingData:
		if t == nil {
			return nil, nil
		}
		return normalizeDrawingObject(t.ImageData, t.Timestamp)
	case models.DrawingData:
		return normalizeDrawingObject(t.ImageData, t.Timestamp)
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil, nil
		}
		if strings.HasPrefix(s, "{") {
			var obj map[string]interface{}
			if err := json.Unmarshal([]byte(s), &obj); err != nil {
				return nil, apperrors.Validation("drawing_data is not valid JSON")
			}
			return NormalizeDrawingData(obj, videoTime)
		}
		return &models.DrawingData{ImageData: s, Timestamp: NormalizeVideoTime(videoTime)}, nil
	case map[string]interface{}:
		image, _ := t["imageData"].(string)
		ts, ok := t["timestamp"]
		if !ok || ts == nil {
			ts = videoTime
		}
		return normalizeDrawingObject(image, NormalizeVideoTime(ts))
	default:
		return nil, apperrors.Validation("drawing_data must be a data URI string or an object with imageData")
	}
}

func normalizeDrawingObject(image string, ts float64) (*models.DrawingData, error) {
	image = strings.TrimSpace(image)
	if image == "" {
		return nil, apperrors.Validation("drawing_data.imageData is required")
	}
	return &models.DrawingData{ImageData: image, Timestamp: NormalizeVideoTime(ts)}, nil
}
