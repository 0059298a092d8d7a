package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/boundary"
	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/features"
	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/geomerge"
	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/model"
	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/pipeline"
)

const testBoundaries = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"Propinsi": "DKIJAKARTA"}, "geometry": {"type": "Polygon", "coordinates": [[[106.6,-6.4],[107,-6.4],[107,-6],[106.6,-6],[106.6,-6.4]]]}},
    {"type": "Feature", "properties": {"Propinsi": "BALI"}, "geometry": {"type": "Polygon", "coordinates": [[[114,-9],[116,-9],[116,-8],[114,-8],[114,-9]]]}},
    {"type": "Feature", "properties": {"Propinsi": "PAPUA"}, "geometry": null}
  ]
}`

func testRecords() []model.CleanRecord {
	return []model.CleanRecord{
		{Province: "DKI JAKARTA", Year: 2020, Electricity: 32000},
		{Province: "DKI JAKARTA", Year: 2021, Electricity: 33000},
		{Province: "BALI", Year: 2020, Electricity: 5000},
		{Province: "BALI", Year: 2021, Electricity: 5200},
		{Province: "PAPUA SELATAN", Year: 2021, Electricity: 120},
	}
}

func newTestRouter(t *testing.T, origins ...string) http.Handler {
	t.Helper()
	fs, err := boundary.ParseGeoJSON([]byte(testBoundaries), boundary.DefaultNameProperty)
	require.NoError(t, err)
	ds := NewDataset(testRecords(), fs, nil, features.DefaultOptions())
	return NewRouter(ds, origins)
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	rr := get(t, newTestRouter(t), "/health")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")
	body := decode[map[string]any](t, rr)
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 5, body["records"])
	assert.EqualValues(t, 3, body["provinces"])
}

func TestYears(t *testing.T) {
	rr := get(t, newTestRouter(t), "/years")

	require.Equal(t, http.StatusOK, rr.Code)
	body := decode[map[string][]int](t, rr)
	assert.Equal(t, []int{2020, 2021}, body["years"])
	assert.Equal(t, []int{2020, 2021}, body["merged"])
}

func TestRecords_Filters(t *testing.T) {
	h := newTestRouter(t)

	tests := []struct {
		name   string
		target string
		want   int
	}{
		{"all", "/records", 5},
		{"year", "/records?year=2020", 2},
		{"province variant", "/records?province=jakarta", 2},
		{"region", "/records?region=papua", 1},
		{"year and province", "/records?year=2021&province=bali", 1},
		{"no match", "/records?year=1999", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := get(t, h, tt.target)
			require.Equal(t, http.StatusOK, rr.Code)
			assert.Len(t, decode[[]model.CleanRecord](t, rr), tt.want)
		})
	}
}

func TestRecords_AnnotatedWithBoundaryName(t *testing.T) {
	rr := get(t, newTestRouter(t), "/records?year=2021&province=DKI%20JAKARTA")

	recs := decode[[]model.CleanRecord](t, rr)
	require.Len(t, recs, 1)
	require.NotNil(t, recs[0].ProvinceGeo)
	assert.Equal(t, "DKIJAKARTA", *recs[0].ProvinceGeo)
}

func TestRecords_InvalidYear(t *testing.T) {
	rr := get(t, newTestRouter(t), "/records?year=abc")

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid year")
}

func TestFeatures(t *testing.T) {
	rr := get(t, newTestRouter(t), "/features?year=2021")

	require.Equal(t, http.StatusOK, rr.Code)
	rows := decode[[]features.Row](t, rr)
	require.Len(t, rows, 3)
	assert.Equal(t, "BALI", rows[0].Province)
	assert.Equal(t, "Bali & Nusa Tenggara", rows[0].Region)
	assert.Equal(t, 2, rows[0].Rank)
}

func TestRegions(t *testing.T) {
	rr := get(t, newTestRouter(t), "/regions?year=2020")

	require.Equal(t, http.StatusOK, rr.Code)
	aggs := decode[[]features.RegionAggregate](t, rr)
	require.Len(t, aggs, 2)
	assert.Equal(t, "Bali & Nusa Tenggara", aggs[0].Region)
	assert.InDelta(t, 5000, aggs[0].Total, 1e-9)
	assert.Equal(t, "Jawa", aggs[1].Region)
	assert.InDelta(t, 32000, aggs[1].Total, 1e-9)
}

func TestTop(t *testing.T) {
	h := newTestRouter(t)

	rr := get(t, h, "/top?year=2021&n=2")
	require.Equal(t, http.StatusOK, rr.Code)
	top := decode[[]model.CleanRecord](t, rr)
	require.Len(t, top, 2)
	assert.Equal(t, "DKI JAKARTA", top[0].Province)
	assert.Equal(t, "BALI", top[1].Province)

	rr = get(t, h, "/top?year=2021&n=1&order=asc")
	bottom := decode[[]model.CleanRecord](t, rr)
	require.Len(t, bottom, 1)
	assert.Equal(t, "PAPUA SELATAN", bottom[0].Province)

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/top").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/top?year=2021&n=0").Code)
}

func TestTrends(t *testing.T) {
	rr := get(t, newTestRouter(t), "/trends")

	require.Equal(t, http.StatusOK, rr.Code)
	trends := decode[[]features.Trend](t, rr)
	require.Len(t, trends, 3)
	assert.Equal(t, "BALI", trends[0].Province)
	assert.Equal(t, features.TrendIncreasing, trends[0].Direction)
}

func TestPivot(t *testing.T) {
	rr := get(t, newTestRouter(t), "/pivot")

	require.Equal(t, http.StatusOK, rr.Code)
	pv := decode[features.Pivot](t, rr)
	assert.Equal(t, []string{"BALI", "DKI JAKARTA", "PAPUA SELATAN"}, pv.Provinces)
	assert.Equal(t, []int{2020, 2021}, pv.Years)
	require.Len(t, pv.Values, 3)
	assert.Nil(t, pv.Values[2][0])
	require.NotNil(t, pv.Values[2][1])
	assert.InDelta(t, 120, *pv.Values[2][1], 1e-9)
}

func TestComparison(t *testing.T) {
	h := newTestRouter(t)

	rr := get(t, h, "/comparison")
	require.Equal(t, http.StatusOK, rr.Code)
	rows := decode[[]features.ComparisonRow](t, rr)
	require.Len(t, rows, 2)
	assert.Equal(t, "BALI", rows[0].Province)
	require.NotNil(t, rows[0].Change)
	assert.InDelta(t, 200, *rows[0].Change, 1e-9)
	require.NotNil(t, rows[0].ChangePct)
	assert.InDelta(t, 4, *rows[0].ChangePct, 1e-9)

	rr = get(t, h, "/comparison?years=2020")
	require.Equal(t, http.StatusOK, rr.Code)
	rows = decode[[]features.ComparisonRow](t, rr)
	require.Len(t, rows, 2)
	assert.Nil(t, rows[0].Change)

	rr = get(t, h, "/comparison?years=2020,abc")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestProvinceStatus(t *testing.T) {
	rr := get(t, newTestRouter(t), "/provinces/status")

	require.Equal(t, http.StatusOK, rr.Code)
	body := decode[[]map[string]string](t, rr)
	require.Len(t, body, 3)
	assert.Equal(t, "BALI", body[0]["name"])
	assert.Equal(t, "mapped", body[0]["status"])
	assert.Equal(t, "DKIJAKARTA", body[1]["boundary"])
	assert.Equal(t, "PAPUA SELATAN", body[2]["name"])
	assert.Equal(t, "pending", body[2]["status"])
	assert.Equal(t, "Papua", body[2]["region"])
}

func TestLocate(t *testing.T) {
	h := newTestRouter(t)

	rr := get(t, h, "/locate?lon=106.8&lat=-6.2")
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode[locateResponse](t, rr)
	assert.Equal(t, locateResponse{Boundary: "DKIJAKARTA", Province: "DKI JAKARTA", Region: "Jawa"}, body)

	assert.Equal(t, http.StatusNotFound, get(t, h, "/locate?lon=0&lat=0").Code)

	rr = get(t, h, "/locate?lat=-6.2")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "lon is required")

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/locate?lon=x&lat=1").Code)
}

func TestGeo(t *testing.T) {
	rr := get(t, newTestRouter(t), "/geo/2021")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, contentTypeGeoJSON, rr.Header().Get("Content-Type"))

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 3)

	jakarta := fc.Features[0].Properties
	assert.Equal(t, "DKI JAKARTA", jakarta[model.ColProvince])
	assert.Equal(t, true, jakarta[geomerge.PropMatched])
	assert.InDelta(t, 33000, jakarta[model.ColElectricity], 1e-9)

	papua := fc.Features[2].Properties
	assert.Equal(t, false, papua[geomerge.PropMatched])
	assert.Nil(t, papua[model.ColElectricity])
}

func TestGeo_Errors(t *testing.T) {
	h := newTestRouter(t)

	assert.Equal(t, http.StatusNotFound, get(t, h, "/geo/1999").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/geo/abc").Code)
}

func TestMergeStats(t *testing.T) {
	h := newTestRouter(t)

	rr := get(t, h, "/merge/2021/stats")
	require.Equal(t, http.StatusOK, rr.Code)
	stats := decode[geomerge.Stats](t, rr)
	assert.Equal(t, 3, stats.Features)
	assert.Equal(t, 3, stats.Records)
	assert.Equal(t, 2, stats.Matched)
	assert.Equal(t, []string{"PAPUA"}, stats.UnmatchedFeatures)
	assert.Equal(t, []string{"PAPUA SELATAN"}, stats.Unmapped)
	assert.InDelta(t, 2.0/3.0, stats.MatchRate, 1e-9)

	assert.Equal(t, http.StatusNotFound, get(t, h, "/merge/1999/stats").Code)
}

func TestNotFoundAndMethod(t *testing.T) {
	h := newTestRouter(t)

	rr := get(t, h, "/nope")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "not found")

	req := httptest.NewRequest(http.MethodPost, "/health", nil)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestCORS(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:8501")
	rr := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(rr, req)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://other.example")
	rr = httptest.NewRecorder()
	newTestRouter(t, "http://dashboard.example").ServeHTTP(rr, req)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestNewDataset_NoBoundaries(t *testing.T) {
	ds := NewDataset(testRecords(), nil, nil, features.DefaultOptions())

	assert.Empty(t, ds.Merges)
	assert.Equal(t, []int{2020, 2021}, ds.Years())
	assert.Empty(t, ds.MergedYears())
	assert.Len(t, ds.Features, 5)
	assert.Equal(t, http.StatusNotFound, get(t, NewRouter(ds, nil), "/geo/2020").Code)
}

func TestFromResult(t *testing.T) {
	fs, err := boundary.ParseGeoJSON([]byte(testBoundaries), boundary.DefaultNameProperty)
	require.NoError(t, err)
	base := NewDataset(testRecords(), fs, nil, features.DefaultOptions())

	res := &pipeline.Result{
		Records:    base.Records,
		Features:   base.Features,
		Boundaries: fs,
		Merges:     []*geomerge.Result{base.Merges[2020]},
	}
	ds := FromResult(res, nil)

	assert.Equal(t, []int{2020}, ds.MergedYears())
	assert.Len(t, ds.Records, 5)
	assert.Equal(t, []string{"BALI", "DKI JAKARTA", "PAPUA SELATAN"}, ds.Provinces())
}
