// Package grading converts raw component scores into totals, letter grades,
// grade points and CGPA. All functions are pure and deterministic; invalid
// numeric input is rejected with a domain error, never silently clamped.
package grading

import (
	"fmt"
	"sort"

	appErrors "github.com/campuskit/arp-api/pkg/errors"
)

// band is one row of the grade boundary table. Boundaries are half-open on
// the low end: a percentage maps to the first band whose minimum it meets,
// so ties at a boundary resolve to the higher grade.
type band struct {
	MinPercent float64
	Letter     string
	GradePoint float64
}

// bands is the single source of truth for both the display letter scale and
// the CGPA grade-point scale. Monotonic and exhaustive over [0,100].
var bands = []band{
	{90, "A+", 10},
	{80, "A", 9},
	{70, "B+", 8},
	{60, "B", 7},
	{50, "C+", 6},
	{40, "C", 5},
	{0, "F", 0},
}

// Result is the outcome of grading one component set.
type Result struct {
	Total      float64
	Percentage float64
	Letter     string
	GradePoint float64
}

// ComputeGrade validates every component against its declared maximum, sums
// the total and derives percentage, letter and grade point. Maxima are for
// validation only, not normalization of individual components.
func ComputeGrade(components, maxima map[string]float64) (*Result, error) {
	if len(maxima) == 0 {
		return nil, appErrors.Clone(appErrors.ErrScoreOutOfRange, "no component maxima declared")
	}

	var total, maxTotal float64
	// Deterministic iteration keeps error messages stable.
	names := make([]string, 0, len(components))
	for name := range components {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value := components[name]
		max, declared := maxima[name]
		if !declared {
			return nil, appErrors.Clone(appErrors.ErrScoreOutOfRange, fmt.Sprintf("undeclared component %q", name))
		}
		if value < 0 || value > max {
			return nil, appErrors.Clone(appErrors.ErrScoreOutOfRange,
				fmt.Sprintf("component %q value %v outside [0, %v]", name, value, max))
		}
		total += value
	}
	for _, max := range maxima {
		if max <= 0 {
			return nil, appErrors.Clone(appErrors.ErrScoreOutOfRange, "component maximum must be positive")
		}
		maxTotal += max
	}

	percentage := total / maxTotal * 100
	letter, point := lookup(percentage)
	return &Result{Total: total, Percentage: percentage, Letter: letter, GradePoint: point}, nil
}

// Letter maps a percentage to its display letter grade.
func Letter(percentage float64) string {
	letter, _ := lookup(percentage)
	return letter
}

// GradePoint maps a percentage to the 0-10 scale used for CGPA weighting.
func GradePoint(percentage float64) float64 {
	_, point := lookup(percentage)
	return point
}

func lookup(percentage float64) (string, float64) {
	for _, b := range bands {
		if percentage >= b.MinPercent {
			return b.Letter, b.GradePoint
		}
	}
	last := bands[len(bands)-1]
	return last.Letter, last.GradePoint
}

// GradedRecord is one finalized course outcome contributing to CGPA.
type GradedRecord struct {
	GradePoint float64
	Credits    int
}

// ComputeCGPA returns the credit-weighted mean grade point. A student with no
// graded courses has CGPA 0 by convention; this is a documented value, not a
// missing-data sentinel.
func ComputeCGPA(records []GradedRecord) float64 {
	var weighted float64
	var credits int
	for _, r := range records {
		weighted += r.GradePoint * float64(r.Credits)
		credits += r.Credits
	}
	if credits == 0 {
		return 0
	}
	return weighted / float64(credits)
}
