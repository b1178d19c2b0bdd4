// Package httpapi exposes the safety engine over HTTP.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/relaycrm/sendguard/internal/observability"
	"github.com/relaycrm/sendguard/pkg/attest"
	"github.com/relaycrm/sendguard/pkg/config"
	"github.com/relaycrm/sendguard/pkg/pii"
	"github.com/relaycrm/sendguard/pkg/pipeline"
)

var errEmptyBody = errors.New("request body is empty")

type Server struct {
	cfg      *config.Config
	gate     pipeline.Gate
	detector *pii.Detector
	redactor *pii.Redactor
	metrics  *observability.Metrics
	logger   *slog.Logger
}

func New(cfg *config.Config, gate pipeline.Gate, detector *pii.Detector, redactor *pii.Redactor, metrics *observability.Metrics, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:      cfg,
		gate:     gate,
		detector: detector,
		redactor: redactor,
		metrics:  metrics,
		logger:   logger,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/api/safety/detect-pii", s.handleDetectPII)
	r.Post("/api/safety/validate-safety", s.handleValidateSafety)
	r.Post("/api/safety/redact", s.handleRedact)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": s.cfg.Service.ID,
	})
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}

// readBody decodes the request body into out, enforcing the configured
// content size cap. It writes the error response itself and reports whether
// the caller may proceed.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request, out any, route string) bool {
	maxBytes := s.cfg.Server.MaxContentBytes
	if maxBytes > 0 {
		// Request bodies carry JSON overhead on top of the content itself.
		r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes)+4096)
	}

	if err := decodeJSON(r, out); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.countRequest(route, http.StatusRequestEntityTooLarge)
			respondError(w, http.StatusRequestEntityTooLarge, "content_too_large", "request body exceeds the configured limit")
			return false
		}
		s.countRequest(route, http.StatusBadRequest)
		respondError(w, http.StatusBadRequest, "invalid_json", "request body is not valid JSON")
		return false
	}
	return true
}

// checkContentSize enforces the content cap on the decoded content field and
// writes the 413 response when exceeded.
func (s *Server) checkContentSize(w http.ResponseWriter, content, route string) bool {
	if max := s.cfg.Server.MaxContentBytes; max > 0 && len(content) > max {
		s.countRequest(route, http.StatusRequestEntityTooLarge)
		respondError(w, http.StatusRequestEntityTooLarge, "content_too_large", "content exceeds the configured limit")
		return false
	}
	return true
}

func (s *Server) countRequest(route string, code int) {
	if s.metrics == nil {
		return
	}
	s.metrics.RequestsTotal.WithLabelValues(route, httpStatusLabel(code)).Inc()
}

func httpStatusLabel(code int) string {
	switch code {
	case http.StatusOK:
		return "200"
	case http.StatusBadRequest:
		return "400"
	case http.StatusRequestEntityTooLarge:
		return "413"
	case http.StatusInternalServerError:
		return "500"
	default:
		return "other"
	}
}

// setAttestationHeaders attaches the signed verdict to the response for
// downstream services.
func setAttestationHeaders(w http.ResponseWriter, result *pipeline.CheckResult) {
	if result.Attestation == nil {
		return
	}
	encoded, err := attest.EncodeAttestation(result.Attestation)
	if err != nil {
		return
	}
	w.Header().Set(attest.HeaderAttestation, encoded)
	w.Header().Set(attest.HeaderReportID, result.ReportID)
	status := attest.StatusSafe
	if result.Blocked {
		status = attest.StatusUnsafe
	}
	if result.Skipped {
		status = attest.StatusSkipped
	}
	w.Header().Set(attest.HeaderStatus, status)
}
