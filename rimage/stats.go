package rimage

import (
	"fmt"

	"github.com/montanaflynn/stats"
)

// FrameStats summarizes the usable depth of a frame.
type FrameStats struct {
	// ValidFraction is the share of pixels whose depth was inside the sensor range.
	ValidFraction float64 `json:"valid_fraction"`
	MedianDepthCM float64 `json:"median_depth_cm"`
	P90DepthCM    float64 `json:"p90_depth_cm"`
}

func (s FrameStats) String() string {
	return fmt.Sprintf("valid=%.2f median=%.1fcm p90=%.1fcm", s.ValidFraction, s.MedianDepthCM, s.P90DepthCM)
}

func computeStats(depthCM []float32, minCM, maxCM float64) FrameStats {
	if len(depthCM) == 0 {
		return FrameStats{}
	}
	valid := make(stats.Float64Data, 0, len(depthCM))
	for _, d := range depthCM {
		if v := float64(d); v >= minCM && v <= maxCM {
			valid = append(valid, v)
		}
	}
	out := FrameStats{ValidFraction: float64(len(valid)) / float64(len(depthCM))}
	if len(valid) == 0 {
		return out
	}
	// errors only occur for empty input
	out.MedianDepthCM, _ = valid.Median()
	out.P90DepthCM, _ = valid.Percentile(90)
	return out
}
