package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/boundary"
	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/clean"
	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/features"
	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/model"
)

const defaultTopN = 10

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"records":   len(s.ds.Records),
		"provinces": len(s.ds.Provinces()),
	})
}

func (s *Server) handleYears(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]int{
		"years":  s.ds.Years(),
		"merged": s.ds.MergedYears(),
	})
}

// handleRecords serves clean records, optionally filtered by year, province
// and region.
func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	year, hasYear, err := intQuery(r, "year")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	prov := canonicalQuery(r, "province")
	region := strings.TrimSpace(r.URL.Query().Get("region"))

	out := make([]model.CleanRecord, 0, len(s.ds.Records))
	for _, rec := range s.ds.Records {
		if hasYear && rec.Year != year {
			continue
		}
		if prov != "" && rec.Province != prov {
			continue
		}
		if region != "" && !strings.EqualFold(s.ds.Mapper.Region(rec.Province), region) {
			continue
		}
		out = append(out, rec)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleFeatures(w http.ResponseWriter, r *http.Request) {
	year, hasYear, err := intQuery(r, "year")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	prov := canonicalQuery(r, "province")

	out := make([]features.Row, 0, len(s.ds.Features))
	for _, row := range s.ds.Features {
		if hasYear && row.Year != year {
			continue
		}
		if prov != "" && row.Province != prov {
			continue
		}
		out = append(out, row)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRegions(w http.ResponseWriter, r *http.Request) {
	year, hasYear, err := intQuery(r, "year")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	records := s.ds.Records
	if hasYear {
		records = model.FilterYear(records, year)
	}
	writeJSON(w, http.StatusOK, features.AggregateByRegion(records, s.ds.Mapper))
}

// handleTop serves the n largest consumers of a year, or the smallest with
// order=asc.
func (s *Server) handleTop(w http.ResponseWriter, r *http.Request) {
	year, hasYear, err := intQuery(r, "year")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !hasYear {
		writeError(w, http.StatusBadRequest, "year is required")
		return
	}
	n, hasN, err := intQuery(r, "n")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !hasN {
		n = defaultTopN
	}
	if n < 1 {
		writeError(w, http.StatusBadRequest, "n must be positive")
		return
	}
	asc := strings.EqualFold(r.URL.Query().Get("order"), "asc")
	writeJSON(w, http.StatusOK, features.TopN(s.ds.Records, year, n, asc))
}

func (s *Server) handleTrends(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, features.TrendSummary(s.ds.Records))
}

func (s *Server) handlePivot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, features.PivotTable(s.ds.Records))
}

// handleComparison serves a side-by-side table of the listed years, by
// default the first and last year present.
func (s *Server) handleComparison(w http.ResponseWriter, r *http.Request) {
	years, err := yearsQuery(r, "years")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(years) == 0 {
		all := s.ds.Years()
		if len(all) > 0 {
			years = []int{all[0], all[len(all)-1]}
		}
	}
	writeJSON(w, http.StatusOK, features.Comparison(s.ds.Records, years))
}

func (s *Server) handleProvinceStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.ds.Mapper.ClassifyAll(s.ds.Provinces()))
}

type locateResponse struct {
	Boundary string `json:"boundary"`
	Province string `json:"province,omitempty"`
	Region   string `json:"region,omitempty"`
}

// handleLocate resolves a lon/lat point to the boundary containing it.
func (s *Server) handleLocate(w http.ResponseWriter, r *http.Request) {
	lon, err := floatQuery(r, "lon")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	lat, err := floatQuery(r, "lat")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	f, ok := boundary.Locate(s.ds.Boundaries, lon, lat)
	if !ok {
		writeError(w, http.StatusNotFound, "no boundary contains the point")
		return
	}
	resp := locateResponse{Boundary: f.Name}
	if name, ok := s.ds.Mapper.Reverse(f.Name); ok {
		resp.Province = name
		resp.Region = s.ds.Mapper.Region(name)
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleGeo serves the merged boundary layer of a year as GeoJSON.
func (s *Server) handleGeo(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid year")
		return
	}
	res, ok := s.ds.Merges[year]
	if !ok {
		writeError(w, http.StatusNotFound, "no merged layer for year")
		return
	}

	data, err := res.MarshalGeoJSON()
	if err != nil {
		s.log.Error("api: encode geojson", zap.Int("year", year), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "encode geojson")
		return
	}
	w.Header().Set("Content-Type", contentTypeGeoJSON)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleMergeStats(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid year")
		return
	}
	res, ok := s.ds.Merges[year]
	if !ok {
		writeError(w, http.StatusNotFound, "no merged layer for year")
		return
	}
	writeJSON(w, http.StatusOK, res.Stats)
}

// intQuery parses an optional integer query parameter.
func intQuery(r *http.Request, name string) (int, bool, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return 0, false, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false, eris.Errorf("invalid %s %q", name, v)
	}
	return n, true, nil
}

// yearsQuery parses an optional comma separated list of years.
func yearsQuery(r *http.Request, name string) ([]int, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return nil, nil
	}
	var out []int
	for _, part := range strings.Split(v, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, eris.Errorf("invalid %s %q", name, v)
		}
		out = append(out, n)
	}
	return out, nil
}

// floatQuery parses a required float query parameter.
func floatQuery(r *http.Request, name string) (float64, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return 0, eris.Errorf("%s is required", name)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, eris.Errorf("invalid %s %q", name, v)
	}
	return f, nil
}

// canonicalQuery returns a province query parameter in canonical spelling, so
// variants such as "d.i. yogyakarta" select the same rows.
func canonicalQuery(r *http.Request, name string) string {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return ""
	}
	return clean.Canonicalize(v)
}
