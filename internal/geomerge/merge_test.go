package geomerge

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/boundary"
	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/model"
	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/province"
)

func square(x, y float64) geom.T {
	return geom.NewPolygonFlat(geom.XY, []float64{x, y, x + 1, y, x + 1, y + 1, x, y + 1, x, y}, []int{10})
}

func testFeatures() []boundary.Feature {
	return []boundary.Feature{
		{Name: "DI.ACEH", Properties: map[string]any{"Propinsi": "DI.ACEH"}, Geometry: square(95, 2)},
		{Name: "BALI", Properties: map[string]any{"Propinsi": "BALI"}, Geometry: square(115, -9)},
		{Name: "PAPUA", Properties: map[string]any{"Propinsi": "PAPUA"}, Geometry: square(138, -4)},
	}
}

func annotated(t *testing.T, records []model.CleanRecord) []model.CleanRecord {
	t.Helper()
	out, _ := province.Default().Annotate(records)
	return out
}

func testRecords(t *testing.T) []model.CleanRecord {
	return annotated(t, []model.CleanRecord{
		{Province: "ACEH", Year: 2023, Electricity: 2500},
		{Province: "BALI", Year: 2023, Electricity: 5800},
		{Province: "JAMBI", Year: 2023, Electricity: 1400},
		{Province: "PAPUA TENGAH", Year: 2023, Electricity: 150},
		{Province: "ACEH", Year: 2022, Electricity: 2400},
		{Province: "PAPUA", Year: 2022, Electricity: 900},
	})
}

func TestMerge_LeftCompleteness(t *testing.T) {
	features := testFeatures()
	records := testRecords(t)

	for _, year := range []int{2021, 2022, 2023} {
		res := Merge(records, features, year)
		require.Len(t, res.Rows, len(features), "year %d", year)
		for i, row := range res.Rows {
			assert.Equal(t, features[i].Name, row.Feature.Name)
			assert.Equal(t, year, row.Year)
			assert.Equal(t, row.Matched, row.Record != nil)
		}
	}
}

func TestMerge_Stats(t *testing.T) {
	res := Merge(testRecords(t), testFeatures(), 2023)
	s := res.Stats

	assert.Equal(t, 2023, s.Year)
	assert.Equal(t, 3, s.Features)
	assert.Equal(t, 4, s.Records)
	assert.Equal(t, 2, s.Matched)
	assert.Equal(t, []string{"PAPUA"}, s.UnmatchedFeatures)
	assert.Equal(t, []string{"JAMBI"}, s.UnmatchedRecords)
	assert.Equal(t, []string{"PAPUA TENGAH"}, s.Unmapped)
	assert.InDelta(t, 2.0/3.0, s.MatchRate, 1e-9)
	assert.InDelta(t, 0.5, s.RecordMatchRate, 1e-9)

	rows := res.Rows
	require.True(t, rows[0].Matched)
	assert.Equal(t, "ACEH", rows[0].Record.Province)
	assert.Equal(t, 2500.0, rows[0].Record.Electricity)
	assert.False(t, rows[2].Matched)

	assert.Equal(t, []string{"ACEH", "BALI"}, []string{res.MatchedRecords()[0].Province, res.MatchedRecords()[1].Province})
}

func TestMerge_Idempotent(t *testing.T) {
	records := testRecords(t)
	features := testFeatures()

	first := Merge(records, features, 2023)
	second := Merge(records, features, 2023)
	assert.Equal(t, first, second)
}

func TestMerge_DoesNotAliasInput(t *testing.T) {
	records := testRecords(t)
	res := Merge(records, testFeatures(), 2023)

	res.Rows[0].Record.Electricity = -1
	*res.Rows[0].Record.ProvinceGeo = "CHANGED"

	assert.Equal(t, 2500.0, records[0].Electricity)
	assert.Equal(t, "DI.ACEH", records[0].GeoName())
}

func TestMerge_DuplicateRecords(t *testing.T) {
	geo := "BALI"
	records := []model.CleanRecord{
		{Province: "BALI", Year: 2023, Electricity: 1, ProvinceGeo: &geo},
		{Province: "BALI", Year: 2023, Electricity: 2, ProvinceGeo: &geo},
	}
	res := Merge(records, testFeatures(), 2023)
	assert.Equal(t, 1, res.Stats.Duplicates)
	assert.Equal(t, 1, res.Stats.Matched)
	assert.Equal(t, 1.0, res.Rows[1].Record.Electricity)
}

func TestMerge_Empty(t *testing.T) {
	res := Merge(nil, nil, 2023)
	assert.Empty(t, res.Rows)
	assert.Equal(t, 0.0, res.Stats.MatchRate)
	assert.Equal(t, 0.0, res.Stats.RecordMatchRate)

	res = Merge(nil, testFeatures(), 2023)
	assert.Len(t, res.Rows, 3)
	assert.Len(t, res.Stats.UnmatchedFeatures, 3)
}

func TestFeatureCollection(t *testing.T) {
	res := Merge(testRecords(t), testFeatures(), 2023)

	data, err := res.MarshalGeoJSON()
	require.NoError(t, err)

	var decoded struct {
		Type     string `json:"type"`
		Features []struct {
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "FeatureCollection", decoded.Type)
	require.Len(t, decoded.Features, 3)

	aceh := decoded.Features[0].Properties
	assert.Equal(t, "ACEH", aceh["Province"])
	assert.Equal(t, 2500.0, aceh["Electricity_GWh"])
	assert.Equal(t, "DI.ACEH", aceh["Province_GeoJSON"])
	assert.Equal(t, "DI.ACEH", aceh["Propinsi"])
	assert.Equal(t, true, aceh["Matched"])
	assert.Equal(t, 2023.0, aceh["Year"])

	papua := decoded.Features[2].Properties
	assert.Nil(t, papua["Province"])
	assert.Nil(t, papua["Electricity_GWh"])
	assert.Equal(t, false, papua["Matched"])
}

func TestComputeCoverage(t *testing.T) {
	features := append(testFeatures(), boundary.Feature{Name: "ATLANTIS"})
	records := testRecords(t)
	records = append(records, model.CleanRecord{Province: "NEGERI ANTAH", Year: 2023, Electricity: 1})

	c := ComputeCoverage(records, features, province.Default())
	assert.Equal(t, 6, c.Provinces)
	assert.Equal(t, 4, c.Features)
	assert.Equal(t, 4, c.Mapped)
	assert.Equal(t, []string{"NEGERI ANTAH", "PAPUA TENGAH"}, c.Unmapped)
	assert.Equal(t, []string{"PAPUA TENGAH"}, c.Pending)
	assert.Equal(t, []string{"ATLANTIS"}, c.UnmatchedFeatures)
	assert.Equal(t, []string{"JAMBI"}, c.MissingFeatures)
}
