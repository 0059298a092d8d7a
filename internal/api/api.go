// Package api serves the cleaned electricity tables and merged boundary
// layers to the dashboard over HTTP.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

const contentTypeGeoJSON = "application/geo+json"

// Server holds the handlers of the data API.
type Server struct {
	ds  *Dataset
	log *zap.Logger
}

// NewServer creates a Server over ds.
func NewServer(ds *Dataset) *Server {
	return &Server{
		ds:  ds,
		log: zap.L().With(zap.String("component", "api")),
	}
}

// NewRouter returns the routed API handler. An empty corsOrigins allows any
// origin.
func NewRouter(ds *Dataset, corsOrigins []string) http.Handler {
	s := NewServer(ds)
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/health", s.handleHealth)
	r.Get("/years", s.handleYears)
	r.Get("/records", s.handleRecords)
	r.Get("/features", s.handleFeatures)
	r.Get("/regions", s.handleRegions)
	r.Get("/top", s.handleTop)
	r.Get("/trends", s.handleTrends)
	r.Get("/pivot", s.handlePivot)
	r.Get("/comparison", s.handleComparison)
	r.Get("/provinces/status", s.handleProvinceStatus)
	r.Get("/locate", s.handleLocate)
	r.Get("/geo/{year}", s.handleGeo)
	r.Get("/merge/{year}/stats", s.handleMergeStats)

	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("api: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
