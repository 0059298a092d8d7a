package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/model"
)

func seriesRecords(values ...float64) []model.CleanRecord {
	out := make([]model.CleanRecord, len(values))
	for i, v := range values {
		out[i] = model.CleanRecord{Province: string(rune('A' + i)), Year: 2020, Electricity: v}
	}
	return out
}

func TestOutliers_IQR(t *testing.T) {
	out, err := Outliers(seriesRecords(10, 11, 12, 13, 100), OutlierIQR, 1.5)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 100.0, out[0].Electricity)
}

func TestOutliers_ZScore(t *testing.T) {
	out, err := Outliers(seriesRecords(10, 11, 12, 13, 100), OutlierZScore, 1.5)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "E", out[0].Province)

	out, err = Outliers(seriesRecords(5, 5, 5), OutlierZScore, 1)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestOutliers_UnknownMethod(t *testing.T) {
	_, err := Outliers(seriesRecords(1, 2), OutlierMethod("mad"), 1)
	assert.Error(t, err)

	out, err := Outliers(nil, OutlierIQR, 1.5)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestNormalize(t *testing.T) {
	out, err := Normalize(seriesRecords(10, 20, 30), NormalizeMinMax)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0.5, 1}, out)

	out, err = Normalize(seriesRecords(10, 20, 30), NormalizeZScore)
	require.NoError(t, err)
	assert.InDelta(t, -1.0, out[0], 1e-9)
	assert.InDelta(t, 0.0, out[1], 1e-9)
	assert.InDelta(t, 1.0, out[2], 1e-9)

	out, err = Normalize(seriesRecords(4, 4), NormalizeMinMax)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, out)

	_, err = Normalize(seriesRecords(1), NormalizeMethod("robust"))
	assert.Error(t, err)
}
