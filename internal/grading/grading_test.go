package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/campuskit/arp-api/pkg/errors"
)

var standardMaxima = map[string]float64{
	"test1":        20,
	"test2":        20,
	"presentation": 10,
	"assignment":   15,
	"attendance":   10,
}

func TestComputeGradeFullMarks(t *testing.T) {
	result, err := ComputeGrade(map[string]float64{
		"test1": 20, "test2": 20, "presentation": 10, "assignment": 15, "attendance": 10,
	}, standardMaxima)
	require.NoError(t, err)
	assert.Equal(t, 75.0, result.Total)
	assert.Equal(t, 100.0, result.Percentage)
	assert.Equal(t, "A+", result.Letter)
	assert.Equal(t, 10.0, result.GradePoint)
}

func TestComputeGradeBoundaryInclusive(t *testing.T) {
	result, err := ComputeGrade(map[string]float64{
		"test1": 10, "test2": 10, "presentation": 5, "assignment": 7.5, "attendance": 5,
	}, standardMaxima)
	require.NoError(t, err)
	assert.Equal(t, 37.5, result.Total)
	assert.Equal(t, 50.0, result.Percentage)
	assert.Equal(t, "C+", result.Letter)
	assert.Equal(t, 6.0, result.GradePoint)
}

func TestComputeGradeRejectsOverMaximum(t *testing.T) {
	_, err := ComputeGrade(map[string]float64{"test1": 21}, map[string]float64{"test1": 20})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrScoreOutOfRange.Code, appErrors.FromError(err).Code)
}

func TestComputeGradeRejectsNegative(t *testing.T) {
	_, err := ComputeGrade(map[string]float64{"test1": -1}, map[string]float64{"test1": 20})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrScoreOutOfRange.Code, appErrors.FromError(err).Code)
}

func TestComputeGradeRejectsUndeclaredComponent(t *testing.T) {
	_, err := ComputeGrade(map[string]float64{"viva": 5}, map[string]float64{"test1": 20})
	require.Error(t, err)
}

func TestLetterBands(t *testing.T) {
	cases := []struct {
		percentage float64
		letter     string
		point      float64
	}{
		{100, "A+", 10},
		{90, "A+", 10},
		{89.99, "A", 9},
		{80, "A", 9},
		{70, "B+", 8},
		{60, "B", 7},
		{50, "C+", 6},
		{40, "C", 5},
		{39.99, "F", 0},
		{0, "F", 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.letter, Letter(tc.percentage), "percentage %v", tc.percentage)
		assert.Equal(t, tc.point, GradePoint(tc.percentage), "percentage %v", tc.percentage)
	}
}

func TestComputeCGPAEmpty(t *testing.T) {
	assert.Equal(t, 0.0, ComputeCGPA(nil))
	assert.Equal(t, 0.0, ComputeCGPA([]GradedRecord{}))
}

func TestComputeCGPAWeighted(t *testing.T) {
	cgpa := ComputeCGPA([]GradedRecord{
		{GradePoint: 10, Credits: 4},
		{GradePoint: 8, Credits: 2},
	})
	assert.InDelta(t, 56.0/6.0, cgpa, 1e-9)
}

func TestComputeCGPAZeroCredits(t *testing.T) {
	assert.Equal(t, 0.0, ComputeCGPA([]GradedRecord{{GradePoint: 10, Credits: 0}}))
}
