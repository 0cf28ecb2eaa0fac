package services

import (
	"fmt"
	"math"
	"strings"

	"landstede-printlab/internal/core/domain"
)

// Submission limits
const (
	MaxFileSizeBytes = 50 * 1024 * 1024 // 50 MB

	MinJobCost = 5
	MaxJobCost = 50

	MinJobDurationMin = 30
	MaxJobDurationMin = 480

	// DefaultJobDurationMin is assumed for wait estimates when a job carries
	// no duration of its own.
	DefaultJobDurationMin = 60
)

var allowedExtensions = []string{".stl", ".gcode"}

// EstimateJob derives credit cost and print duration (minutes) from the
// uploaded file size. Deterministic: the same size always prices the same.
func EstimateJob(fileSizeBytes int64) (cost int, durationMin int) {
	sizeKB := float64(fileSizeBytes) / 1024.0
	cost = clamp(int(math.Round(sizeKB/100)), MinJobCost, MaxJobCost)
	durationMin = clamp(int(math.Round(sizeKB/50)), MinJobDurationMin, MaxJobDurationMin)
	return cost, durationMin
}

// ValidateSubmission checks file name and size before a job is priced.
func ValidateSubmission(fileName string, fileSizeBytes int64) error {
	name := strings.ToLower(strings.TrimSpace(fileName))
	ok := false
	for _, ext := range allowedExtensions {
		if strings.HasSuffix(name, ext) && len(name) > len(ext) {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("%w: file must be .stl or .gcode", domain.ErrValidation)
	}
	if fileSizeBytes <= 0 {
		return fmt.Errorf("%w: file size must be positive", domain.ErrValidation)
	}
	if fileSizeBytes > MaxFileSizeBytes {
		return fmt.Errorf("%w: file exceeds 50 MB limit", domain.ErrValidation)
	}
	return nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
