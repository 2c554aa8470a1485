// Package server serves the results of one pipeline run over HTTP.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/ericdfournier/la100es/pkg/parcel"
	"github.com/ericdfournier/la100es/pkg/pipeline"
)

// Server exposes a completed run read-only.
type Server struct {
	result *pipeline.Result
	port   int
	log    zerolog.Logger
}

// New creates a server for the given run.
func New(result *pipeline.Result, port int, log zerolog.Logger) *Server {
	return &Server{
		result: result,
		port:   port,
		log:    log,
	}
}

// Routes builds the API router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Route("/api", func(r chi.Router) {
		r.Get("/run", s.handleRun)
		r.Get("/parcels", s.handleParcels)
		r.Get("/parcels/{id}", s.handleParcel)
		r.Get("/areas", s.handleAreas)
		r.Get("/cohorts", s.handleCohorts)
		r.Get("/distributions", s.handleDistributions)
		r.Get("/validation", s.handleValidation)
	})
	return r
}

// Start launches the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.log.Info().
		Str("addr", "http://localhost"+addr).
		Str("run_id", s.result.RunID).
		Msg("server starting")

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request")
	})
}

// runInfo is the run header without the bulky tables.
type runInfo struct {
	RunID         string               `json:"run_id"`
	Sector        parcel.Sector        `json:"sector"`
	TableVersion  string               `json:"table_version"`
	Seed          uint64               `json:"seed"`
	ReferenceYear int                  `json:"reference_year"`
	Parcels       int                  `json:"parcels"`
	Counts        pipeline.StageCounts `json:"counts"`
}

func (s *Server) handleRun(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, runInfo{
		RunID:         s.result.RunID,
		Sector:        s.result.Sector,
		TableVersion:  s.result.TableVersion,
		Seed:          s.result.Seed,
		ReferenceYear: s.result.ReferenceYear,
		Parcels:       len(s.result.Parcels),
		Counts:        s.result.Counts,
	})
}

// parcelPage is one page of the parcel table.
type parcelPage struct {
	Total   int              `json:"total"`
	Offset  int              `json:"offset"`
	Parcels []*parcel.Parcel `json:"parcels"`
}

// handleParcels lists enriched parcels. Filters: tract, cohort (DAC or
// Non-DAC), upgrade (permitted, inferred, any or none). Paging: offset and
// limit.
func (s *Server) handleParcels(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	match, err := parcelFilter(q.Get("tract"), q.Get("cohort"), q.Get("upgrade"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	offset, err := queryInt(q.Get("offset"), 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "offset: "+err.Error())
		return
	}
	limit, err := queryInt(q.Get("limit"), 100)
	if err != nil {
		writeError(w, http.StatusBadRequest, "limit: "+err.Error())
		return
	}

	var matched []*parcel.Parcel
	for _, p := range s.result.Parcels {
		if match(p) {
			matched = append(matched, p)
		}
	}
	page := parcelPage{Total: len(matched), Offset: offset, Parcels: []*parcel.Parcel{}}
	if offset < len(matched) {
		page.Parcels = matched[offset : offset+min(limit, len(matched)-offset)]
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleParcel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, ok := s.result.Parcel(id)
	if !ok {
		writeError(w, http.StatusNotFound, "parcel "+id+" not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleAreas(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.result.Areas)
}

func (s *Server) handleCohorts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.result.Cohorts)
}

func (s *Server) handleDistributions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.result.Distributions)
}

func (s *Server) handleValidation(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.result.Validation)
}

func parcelFilter(tract, cohort, upgrade string) (func(*parcel.Parcel) bool, error) {
	var c parcel.Cohort
	switch cohort {
	case "":
	case string(parcel.CohortDAC), string(parcel.CohortNonDAC):
		c = parcel.Cohort(cohort)
	default:
		return nil, fmt.Errorf("unknown cohort %q", cohort)
	}

	var up func(*parcel.Parcel) bool
	switch upgrade {
	case "":
		up = func(*parcel.Parcel) bool { return true }
	case "permitted":
		up = func(p *parcel.Parcel) bool { return p.PermittedUpgrade }
	case "inferred":
		up = func(p *parcel.Parcel) bool { return p.InferredUpgrade }
	case "any":
		up = func(p *parcel.Parcel) bool { return p.PanelUpgrade }
	case "none":
		up = func(p *parcel.Parcel) bool { return !p.PanelUpgrade }
	default:
		return nil, fmt.Errorf("unknown upgrade filter %q", upgrade)
	}

	return func(p *parcel.Parcel) bool {
		if tract != "" && p.CensusTract != tract {
			return false
		}
		if c != "" && p.Cohort() != c {
			return false
		}
		return up(p)
	}, nil
}

func queryInt(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("must be a non-negative integer, got %q", s)
	}
	return v, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
