package attendance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentageZeroClasses(t *testing.T) {
	pct, err := Percentage(0, 0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, pct)
}

func TestPercentage(t *testing.T) {
	pct, err := Percentage(27, 30)
	require.NoError(t, err)
	assert.InDelta(t, 90.0, pct, 1e-9)
}

func TestPercentageInvalidCounters(t *testing.T) {
	_, err := Percentage(5, 3)
	require.Error(t, err)

	_, err = Percentage(-1, 3)
	require.Error(t, err)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, StatusExcellent, Classify(90))
	assert.Equal(t, StatusSatisfactory, Classify(89.9))
	assert.Equal(t, StatusSatisfactory, Classify(75))
	assert.Equal(t, StatusAtRisk, Classify(74.9))
	assert.Equal(t, StatusAtRisk, Classify(0))
}
