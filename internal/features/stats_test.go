package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/model"
	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/province"
)

func TestAggregateByRegion(t *testing.T) {
	records := append(javaRecords(), model.CleanRecord{Province: "BALI", Year: 2020, Electricity: 5000})

	aggs := AggregateByRegion(records, province.Default())
	require.Len(t, aggs, 5)

	bali := aggs[0]
	assert.Equal(t, "Bali & Nusa Tenggara", bali.Region)
	assert.Nil(t, bali.Std)
	assert.Equal(t, 1, bali.DataPoints)

	jawa := aggs[1]
	assert.Equal(t, "Jawa", jawa.Region)
	assert.Equal(t, 2020, jawa.Year)
	assert.Equal(t, 119100.0, jawa.Total)
	assert.InDelta(t, 39700.0, jawa.Mean, 1e-9)
	assert.Equal(t, 37600.0, jawa.Median)
	require.NotNil(t, jawa.Std)
	assert.Equal(t, 3, jawa.DataPoints)
	assert.Equal(t, 3, jawa.ProvinceCount)

	assert.Equal(t, 2023, aggs[4].Year)
}

func TestAggregateByYear(t *testing.T) {
	aggs := AggregateByYear(javaRecords())
	require.Len(t, aggs, 4)
	assert.Equal(t, 2020, aggs[0].Year)
	assert.Equal(t, 32000.0, aggs[0].Min)
	assert.Equal(t, 49500.0, aggs[0].Max)
	assert.Equal(t, 3, aggs[0].Count)
	assert.Equal(t, 133000.0, aggs[3].Total)
}

func TestCAGR(t *testing.T) {
	rows, err := CAGR(javaRecords(), 2020, 2023)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "DKI JAKARTA", rows[0].Province)
	assert.InDelta(t, (math.Pow(36000.0/32000, 1.0/3)-1)*100, rows[0].Rate, 1e-9)

	_, err = CAGR(javaRecords(), 2023, 2020)
	assert.Error(t, err)
}

func TestCAGR_SkipsMissingAndZero(t *testing.T) {
	rows, err := CAGR([]model.CleanRecord{
		{Province: "A", Year: 2020, Electricity: 0},
		{Province: "A", Year: 2023, Electricity: 5},
		{Province: "B", Year: 2020, Electricity: 5},
	}, 2020, 2023)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestTrendSummary(t *testing.T) {
	records := append(javaRecords(),
		model.CleanRecord{Province: "MALUKU", Year: 2021, Electricity: 900},
		model.CleanRecord{Province: "MALUKU", Year: 2020, Electricity: 1000},
	)
	trends := TrendSummary(records)
	require.Len(t, trends, 4)

	dki := trends[0]
	assert.Equal(t, "DKI JAKARTA", dki.Province)
	assert.Equal(t, 32000.0, dki.Start)
	assert.Equal(t, 36000.0, dki.End)
	assert.Equal(t, 4000.0, dki.TotalChange)
	assert.InDelta(t, 12.5, *dki.PercentChange, 1e-9)
	assert.Equal(t, 33875.0, dki.Mean)
	assert.Equal(t, TrendIncreasing, dki.Direction)

	maluku := trends[3]
	assert.Equal(t, 2020, maluku.StartYear)
	assert.Equal(t, 1000.0, maluku.Start)
	assert.Equal(t, TrendDecreasing, maluku.Direction)
}

func TestComparison(t *testing.T) {
	records := append(javaRecords(), model.CleanRecord{Province: "BALI", Year: 2023, Electricity: 5})
	rows := Comparison(records, []int{2020, 2023})
	require.Len(t, rows, 3)

	dki := rows[0]
	assert.Equal(t, "DKI JAKARTA", dki.Province)
	assert.Equal(t, 32000.0, *dki.Values[2020])
	assert.Equal(t, 36000.0, *dki.Values[2023])
	assert.Equal(t, 4000.0, *dki.Change)
	assert.InDelta(t, 12.5, *dki.ChangePct, 1e-9)

	assert.Nil(t, Comparison(records, nil))
}

func TestPivotTable(t *testing.T) {
	records := append(javaRecords(), model.CleanRecord{Province: "BALI", Year: 2023, Electricity: 5})
	pv := PivotTable(records)

	assert.Equal(t, []string{"BALI", "DKI JAKARTA", "JAWA BARAT", "JAWA TIMUR"}, pv.Provinces)
	assert.Equal(t, []int{2020, 2021, 2022, 2023}, pv.Years)
	assert.Nil(t, pv.Values[0][0])
	assert.Equal(t, 5.0, *pv.Values[0][3])
	assert.Equal(t, 33000.0, *pv.Values[1][1])
}

func TestTopN(t *testing.T) {
	top := TopN(javaRecords(), 2023, 2, false)
	require.Len(t, top, 2)
	assert.Equal(t, "JAWA BARAT", top[0].Province)
	assert.Equal(t, "JAWA TIMUR", top[1].Province)

	bottom := TopN(javaRecords(), 2023, 1, true)
	assert.Equal(t, "DKI JAKARTA", bottom[0].Province)

	assert.Len(t, TopN(javaRecords(), 2023, 10, false), 3)
}

func TestQuantile(t *testing.T) {
	assert.Equal(t, 2.5, Quantile([]float64{4, 1, 3, 2}, 0.5))
	assert.Equal(t, 1.75, Quantile([]float64{1, 2, 3, 4}, 0.25))
	assert.Equal(t, 7.0, Quantile([]float64{7}, 0.9))
	assert.True(t, math.IsNaN(Quantile(nil, 0.5)))
}
