// Package attendance derives percentages and qualitative statuses from raw
// class counters. Pure and deterministic; statuses inform display and
// alerting only, never access decisions.
package attendance

import (
	"fmt"

	appErrors "github.com/campuskit/arp-api/pkg/errors"
)

// Status classifications.
const (
	StatusExcellent    = "excellent"
	StatusSatisfactory = "satisfactory"
	StatusAtRisk       = "at risk"
)

// Percentage returns attended/total as a percentage. A subject with zero
// scheduled classes reports 0%, not an error.
func Percentage(attended, total int) (float64, error) {
	if attended < 0 || total < 0 || attended > total {
		return 0, appErrors.Clone(appErrors.ErrScoreOutOfRange,
			fmt.Sprintf("attendance counters %d/%d invalid", attended, total))
	}
	if total == 0 {
		return 0, nil
	}
	return float64(attended) / float64(total) * 100, nil
}

// Classify maps a percentage to its display status.
func Classify(percentage float64) string {
	switch {
	case percentage >= 90:
		return StatusExcellent
	case percentage >= 75:
		return StatusSatisfactory
	default:
		return StatusAtRisk
	}
}
