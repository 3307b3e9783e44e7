// Package api serves the pipeline over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/modonty1-rgb/modonty-sub005/export"
	"github.com/modonty1-rgb/modonty-sub005/extract"
	"github.com/modonty1-rgb/modonty-sub005/jsonld"
	"github.com/modonty1-rgb/modonty-sub005/metrics"
	"github.com/modonty1-rgb/modonty-sub005/pipeline"
	"github.com/modonty1-rgb/modonty-sub005/publish"
	"github.com/modonty1-rgb/modonty-sub005/storage"
	"github.com/modonty1-rgb/modonty-sub005/validation"
)

// maxRequestBodySize limits POST body sizes.
const maxRequestBodySize = 5 << 20 // 5 MB

// RequestIDHeader carries the per-request id.
const RequestIDHeader = "X-Request-ID"

// Server exposes the pipeline, the validator and the page auditor.
type Server struct {
	service  *pipeline.Service
	ensemble *validation.Ensemble
	auditor  *extract.Auditor
	exporter *export.Exporter
	metrics  *metrics.Collector
	logger   *slog.Logger
}

// NewServer creates a Server. metrics and logger may be nil.
func NewServer(
	service *pipeline.Service,
	ensemble *validation.Ensemble,
	auditor *extract.Auditor,
	exporter *export.Exporter,
	collector *metrics.Collector,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		service:  service,
		ensemble: ensemble,
		auditor:  auditor,
		exporter: exporter,
		metrics:  collector,
		logger:   logger,
	}
}

// RegisterHTTPHandlers registers the API handlers under the given prefix.
// Handlers are registered as:
//
//	POST   <prefix>/validate
//	POST   <prefix>/audit
//	POST   <prefix>/regenerate
//	GET    <prefix>/graphs
//	GET    <prefix>/graphs/{id}
//	GET    <prefix>/graphs/{id}/export?format=...
//	DELETE <prefix>/graphs/{id}
//	POST   <prefix>/graphs/{id}/rollback
//	POST   <prefix>/graphs/{id}/publish-check
func (s *Server) RegisterHTTPHandlers(prefix string, mux *http.ServeMux) {
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix = prefix + "/"
	}

	mux.Handle(prefix+"validate", s.instrument("validate", s.handleValidate))
	mux.Handle(prefix+"audit", s.instrument("audit", s.handleAudit))
	mux.Handle(prefix+"regenerate", s.instrument("regenerate", s.handleRegenerate))
	mux.Handle(prefix+"graphs", s.instrument("graphs", s.handleListGraphs))
	mux.Handle(prefix+"graphs/", s.instrument("graph", func(w http.ResponseWriter, r *http.Request) {
		s.handleGraph(w, r, strings.TrimPrefix(r.URL.Path, prefix+"graphs/"))
	}))
}

// Handler returns a mux with the API under /api and metrics under /metrics.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterHTTPHandlers("api", mux)
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics.Handler())
	}
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return mux
}

// instrument tags the request with an id and records its metrics.
func (s *Server) instrument(route string, h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)

		s.metrics.ObserveHTTP(r.Method, route, rec.status, time.Since(start))
		s.logger.Debug("http request",
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// ----------------------------------------------------------------------------
// POST /api/validate
// ----------------------------------------------------------------------------

// handleValidate validates the JSON-LD document in the body. Business-rule
// options may be overridden with query parameters named like the
// validation section of the config.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	opts, err := s.options(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBodySize))
	if err != nil {
		http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
		return
	}
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		http.Error(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	g, err := jsonld.Parse(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, s.ensemble.ValidateDocument(r.Context(), doc, g, opts))
}

// options applies query overrides to the service's validation options.
func (s *Server) options(r *http.Request) (validation.Options, error) {
	q := r.URL.Query()
	var ov validation.Overrides
	parseBool := func(key string, dst **bool) error {
		v := q.Get(key)
		if v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %q", key, v)
		}
		*dst = &b
		return nil
	}
	parseInt := func(key string, dst **int) error {
		v := q.Get(key)
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %q", key, v)
		}
		*dst = &n
		return nil
	}

	for _, err := range []error{
		parseBool("require_publisher_logo", &ov.RequirePublisherLogo),
		parseBool("require_hero_image", &ov.RequireHeroImage),
		parseBool("require_author_bio", &ov.RequireAuthorBio),
		parseInt("min_headline_length", &ov.MinHeadlineLength),
		parseInt("max_headline_length", &ov.MaxHeadlineLength),
	} {
		if err != nil {
			return validation.Options{}, err
		}
	}

	opts := s.service.Options().Apply(ov)
	if err := opts.Validate(); err != nil {
		return validation.Options{}, err
	}
	return opts, nil
}

// ----------------------------------------------------------------------------
// POST /api/audit
// ----------------------------------------------------------------------------

// AuditRequest is the request body for POST /api/audit. When HTML is empty
// the page is fetched from URL.
type AuditRequest struct {
	URL  string `json:"url,omitempty"`
	HTML string `json:"html,omitempty"`
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	opts, err := s.options(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req AuditRequest
	if !decodeBody(w, r, &req) {
		return
	}

	switch {
	case req.HTML != "":
		writeJSON(w, http.StatusOK, s.auditor.Audit(r.Context(), req.HTML, req.URL, opts))
	case req.URL != "":
		report, err := s.auditor.AuditURL(r.Context(), req.URL, opts)
		if err != nil {
			s.logger.Warn("page audit failed", "url", req.URL, "error", err)
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, report)
	default:
		http.Error(w, "html or url is required", http.StatusBadRequest)
	}
}

// ----------------------------------------------------------------------------
// POST /api/regenerate
// ----------------------------------------------------------------------------

// RegenerateRequest is the request body for POST /api/regenerate.
type RegenerateRequest struct {
	IDs []string `json:"ids"`
}

func (s *Server) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req RegenerateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.IDs) == 0 {
		http.Error(w, "ids is required", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, s.service.RegenerateBatch(r.Context(), req.IDs, pipeline.Callbacks{}))
}

// ----------------------------------------------------------------------------
// /api/graphs
// ----------------------------------------------------------------------------

func (s *Server) handleListGraphs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ids, err := s.service.Store().List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"ids": ids})
}

// handleGraph dispatches /api/graphs/{id}[/action].
func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request, rest string) {
	id, action, _ := strings.Cut(strings.Trim(rest, "/"), "/")
	if id == "" {
		http.Error(w, "content id is required", http.StatusBadRequest)
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		rec, err := s.service.Store().Get(r.Context(), id)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)

	case action == "" && r.Method == http.MethodDelete:
		if err := s.service.Delete(r.Context(), id); err != nil {
			s.writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case action == "export" && r.Method == http.MethodGet:
		s.handleExport(w, r, id)

	case action == "rollback" && r.Method == http.MethodPost:
		var req struct {
			Version int `json:"version"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		res := s.service.Rollback(r.Context(), id, req.Version)
		status := http.StatusOK
		if !res.Success {
			status = http.StatusUnprocessableEntity
		}
		writeJSON(w, status, res)

	case action == "publish-check" && r.Method == http.MethodPost:
		var req publish.RequiredFields
		if !decodeOptionalBody(w, r, &req) {
			return
		}
		d, err := s.service.CanPublish(r.Context(), id, req)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, d)

	case action == "" || action == "export" || action == "rollback" || action == "publish-check":
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)

	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request, id string) {
	format := export.Format(r.URL.Query().Get("format"))
	if format == "" {
		format = export.FormatJSONLD
	}
	info, ok := export.GetFormatInfo(format)
	if !ok {
		http.Error(w, fmt.Sprintf("unsupported format %q", format), http.StatusBadRequest)
		return
	}

	rec, err := s.service.Store().Get(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	g, err := jsonld.Parse([]byte(rec.Graph))
	if err != nil {
		s.writeError(w, err)
		return
	}
	out, err := s.exporter.Export(g, format)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", info.MIMEType+"; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, out)
}

// writeError maps storage errors to status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, storage.ErrInvalidKey):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		s.logger.Error("request failed", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// decodeOptionalBody is decodeBody for endpoints whose body may be absent.
// An empty body, chunked or not, leaves dst untouched.
func decodeOptionalBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
