package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"packhouse-temporal/internal/export"
	"packhouse-temporal/internal/packhouse"
	"packhouse-temporal/internal/reference"
	"packhouse-temporal/internal/rollup"
	"packhouse-temporal/internal/temporal"
)

const isoMillis = "2006-01-02T15:04:05.000Z07:00"

var errMissingClient = errors.New("Missing client parameter")

type temporalMeta struct {
	Client         string `json:"client"`
	RecordCount    int    `json:"recordCount"`
	SourceRowCount int    `json:"sourceRowCount"`
	GeneratedAt    string `json:"generatedAt"`
	CacheExpiresAt string `json:"cacheExpiresAt"`
	Cache          string `json:"cache"`
}

type temporalResponse struct {
	Records []packhouse.Record `json:"records"`
	Meta    temporalMeta       `json:"meta"`
}

type rollupResponse struct {
	Client      string          `json:"client"`
	Granularity string          `json:"granularity"`
	Periods     []rollup.Period `json:"periods"`
	Cache       string          `json:"cache"`
}

func clientSlug(r *http.Request) string {
	q := r.URL.Query()
	slug := strings.TrimSpace(q.Get("client"))
	if slug == "" {
		slug = strings.TrimSpace(q.Get("clientSlug"))
	}
	return slug
}

func cacheState(snap temporal.Snapshot) string {
	if snap.Refreshed {
		return "refreshed"
	}
	return "cached"
}

func statusFor(err error) int {
	if errors.Is(err, reference.ErrInvalidSlug) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// snapshot resolves the client parameter and loads its records. It writes
// the error response itself and reports false on failure.
func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) (string, temporal.Snapshot, bool) {
	slug := clientSlug(r)
	if slug == "" {
		writeError(w, r, http.StatusBadRequest, errMissingClient)
		return "", temporal.Snapshot{}, false
	}

	force := r.URL.Query().Get("refresh") == "1"
	snap, err := s.records.Get(r.Context(), slug, force)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return "", temporal.Snapshot{}, false
	}
	return slug, snap, true
}

func (s *Server) handleTemporal(w http.ResponseWriter, r *http.Request) {
	slug, snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}

	resp := temporalResponse{
		Records: snap.Records,
		Meta: temporalMeta{
			Client:         slug,
			RecordCount:    len(snap.Records),
			SourceRowCount: snap.SourceRowCount,
			GeneratedAt:    s.now().UTC().Format(isoMillis),
			CacheExpiresAt: snap.ExpiresAt.UTC().Format(isoMillis),
			Cache:          cacheState(snap),
		},
	}
	if resp.Records == nil {
		resp.Records = []packhouse.Record{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRollup(w http.ResponseWriter, r *http.Request) {
	g, err := rollup.ParseGranularity(r.URL.Query().Get("granularity"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	slug, snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, rollupResponse{
		Client:      slug,
		Granularity: string(g),
		Periods:     rollup.Rollup(snap.Records, g),
		Cache:       cacheState(snap),
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	slug, snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.WriteRecords(&buf, snap.Records); err != nil {
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}

	name := fmt.Sprintf("packhouse-%s-%s.xlsx", slug, s.now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleMasterConfig(w http.ResponseWriter, r *http.Request) {
	slug := clientSlug(r)
	if slug == "" {
		writeError(w, r, http.StatusBadRequest, errMissingClient)
		return
	}
	cfg, err := s.configs.Load(slug)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, reference.BuildMasterIndex(cfg.Master))
}

func (s *Server) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	slug := clientSlug(r)
	if slug == "" {
		writeError(w, r, http.StatusBadRequest, errMissingClient)
		return
	}
	if err := reference.ValidateSlug(slug); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	s.records.Invalidate(slug)
	writeJSON(w, http.StatusOK, map[string]any{
		"client":        slug,
		"invalidated":   true,
		"invalidatedAt": s.now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
