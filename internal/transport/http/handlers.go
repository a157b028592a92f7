package httpserver

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/milad/co2info/internal/service"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	client service.Queries
	mux    *http.ServeMux
}

// New returns the HTTP gateway. client is normally the gRPC client, but any
// service.Queries implementation works.
func New(client service.Queries) *Server {
	s := &Server{
		client: client,
		mux:    http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	reqID := newRequestID()

	w.Header().Set("X-Request-Id", reqID)
	rr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	defer func() {
		if rec := recover(); rec != nil {
			rr.status = http.StatusInternalServerError

			// Best-effort response. If headers/body were already written, we can
			// only log.
			if !rr.wroteHeader {
				if strings.HasPrefix(r.URL.Path, "/api") {
					writeAPIError(rr, http.StatusInternalServerError, "internal_error", "internal error")
				} else {
					http.Error(rr, "internal error", http.StatusInternalServerError)
				}
			}

			log.Printf("panic handling %s %s req_id=%s: %v\n%s",
				r.Method, r.URL.Path, reqID, rec, debug.Stack(),
			)
		}

		dur := time.Since(start)
		observeHTTPRequest(r, rr.status, dur)

		// Keep health checks + metrics endpoint quiet.
		if r.URL.Path != "/healthz" && r.URL.Path != "/metrics" {
			log.Printf("%s %s -> %d (%s) req_id=%s",
				r.Method, r.URL.Path, rr.status, dur.Truncate(time.Millisecond), reqID,
			)
		}
	}()

	s.mux.ServeHTTP(rr, r)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/averages", s.handleAverages)
	s.mux.HandleFunc("/api/unhealthy", s.handleUnhealthy)
	s.mux.HandleFunc("/api/broken", s.handleBroken)
	s.mux.HandleFunc("/api/meters", s.handleFindMeters)
	s.mux.HandleFunc("/api/meters/{name}", s.handleMeterReadings)
	s.mux.HandleFunc("/healthz", s.handleHealthz)
	s.mux.Handle("/metrics", promhttp.Handler())
	s.mux.HandleFunc("/", s.handleIndex)
}

// handleAverages returns one summary per meter, in file order.
func (s *Server) handleAverages(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	ctx, cancel := upstreamContext(r)
	defer cancel()

	start := time.Now()
	res, err := s.client.Averages(ctx)
	if !checkUpstream(w, "ListAverages", start, err) {
		return
	}
	_ = writeJSON(w, http.StatusOK, metersResponseJSON{Meters: toSummariesJSON(res)})
}

// handleUnhealthy returns unhealthy readings. The optional `meter` query
// parameter is a meter name or 1-based position.
func (s *Server) handleUnhealthy(w http.ResponseWriter, r *http.Request) {
	s.serveReadings(w, r, "ListUnhealthy", r.URL.Query().Get("meter"), s.client.Unhealthy)
}

// handleBroken returns broken readings, filtered like handleUnhealthy.
func (s *Server) handleBroken(w http.ResponseWriter, r *http.Request) {
	s.serveReadings(w, r, "ListBroken", r.URL.Query().Get("meter"), s.client.Broken)
}

// handleMeterReadings returns every reading of one meter.
func (s *Server) handleMeterReadings(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" {
		writeAPIError(w, http.StatusBadRequest, "invalid_argument", "meter name is required")
		return
	}
	s.serveReadings(w, r, "ListReadings", name, s.client.Readings)
}

// handleFindMeters returns the meters whose name contains `q`, ignoring case.
func (s *Server) handleFindMeters(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	ctx, cancel := upstreamContext(r)
	defer cancel()

	start := time.Now()
	res, err := s.client.Find(ctx, r.URL.Query().Get("q"))
	if !checkUpstream(w, "FindMeters", start, err) {
		return
	}
	_ = writeJSON(w, http.StatusOK, metersResponseJSON{Meters: toSummariesJSON(res)})
}

func (s *Server) serveReadings(w http.ResponseWriter, r *http.Request, method, selector string, list readingsFunc) {
	if !allowGet(w, r) {
		return
	}
	ctx, cancel := upstreamContext(r)
	defer cancel()

	start := time.Now()
	res, err := list(ctx, selector)
	if !checkUpstream(w, method, start, err) {
		return
	}
	_ = writeJSON(w, http.StatusOK, readingsResponseJSON{Readings: toReadingsJSON(res)})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		// Keep API errors JSON.
		if strings.HasPrefix(r.URL.Path, "/api") {
			writeAPIError(w, http.StatusNotFound, "not_found", "not found")
			return
		}
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(indexHTML))
}

func allowGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodGet {
		return true
	}
	w.Header().Set("Allow", http.MethodGet)
	writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	return false
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.wroteHeader = true
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	return r.ResponseWriter.Write(p)
}

func newRequestID() string {
	var b [6]byte // 12 hex chars
	if _, err := rand.Read(b[:]); err != nil {
		return "000000000000"
	}
	return hex.EncodeToString(b[:])
}

func writeAPIError(w http.ResponseWriter, status int, code, message string) {
	reqID := w.Header().Get("X-Request-Id")
	_ = writeJSON(w, status, apiErrorJSON{
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}
