// Package api serves the vault's HTTP status and control endpoints.
package api

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/gesture.vault/internal/gesture"
	"github.com/banshee-data/gesture.vault/internal/httputil"
	"github.com/banshee-data/gesture.vault/internal/monitoring"
	"github.com/banshee-data/gesture.vault/internal/serialmux"
	"github.com/banshee-data/gesture.vault/internal/vault"
	"github.com/banshee-data/gesture.vault/internal/version"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// Controller is the part of vault.Controller the API drives.
type Controller interface {
	State() vault.State
	LastOutcome() (vault.Outcome, bool)
	Params() gesture.Params
	Reset() error
}

// Toggle is the record switch.
type Toggle interface {
	Press() bool
	Set(on bool)
	Requested() bool
}

// AttemptSource lists recorded verification attempts, newest first, and
// counts them by outcome.
type AttemptSource interface {
	Attempts(limit int) ([]vault.Attempt, error)
	SummarizeAttempts() (vault.AttemptSummary, error)
}

type Server struct {
	ctrl     Controller
	vault    *vault.Vault
	toggle   Toggle
	attempts AttemptSource
	m        serialmux.SerialMuxInterface
	device   *serialmux.DeviceState
}

// Options carries the optional collaborators of a Server.
type Options struct {
	Attempts AttemptSource
	Serial   serialmux.SerialMuxInterface
	Device   *serialmux.DeviceState
}

func NewServer(ctrl Controller, v *vault.Vault, toggle Toggle, o Options) *Server {
	return &Server{
		ctrl:     ctrl,
		vault:    v,
		toggle:   toggle,
		attempts: o.Attempts,
		m:        o.Serial,
		device:   o.Device,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", s.showStatus)
	mux.HandleFunc("/api/config", s.showConfig)
	mux.HandleFunc("/api/record", s.recordHandler)
	mux.HandleFunc("/api/attempts", s.listAttempts)
	mux.HandleFunc("/command", s.sendCommandHandler)
	return mux
}

// Status is the body of GET /api/status. It never carries signatures;
// the enrolled key and full outcomes are on the /debug/ routes.
type Status struct {
	State     vault.State    `json:"state"`
	Recording bool           `json:"recording_requested"`
	Enrolled  bool           `json:"enrolled"`
	WeakKey   bool           `json:"weak_key,omitempty"`
	Last      *OutcomeView   `json:"last_outcome,omitempty"`
	Device    map[string]any `json:"device,omitempty"`
	Version   string         `json:"version"`
}

// OutcomeView is the public part of a vault.Outcome.
type OutcomeView struct {
	State       vault.State `json:"state"`
	RecordingID string      `json:"recording_id"`
	Samples     int         `json:"samples"`
	Timeouts    int         `json:"timeouts"`
	StopReason  string      `json:"stop_reason"`
	Matched     bool        `json:"matched"`
	Error       string      `json:"error,omitempty"`
	At          time.Time   `json:"at"`
}

func outcomeView(o vault.Outcome) *OutcomeView {
	return &OutcomeView{
		State:       o.State,
		RecordingID: o.RecordingID,
		Samples:     o.Samples,
		Timeouts:    o.Timeouts,
		StopReason:  o.StopReason,
		Matched:     o.Matched,
		Error:       o.Error,
		At:          o.At,
	}
}

func (s *Server) status() Status {
	st := Status{
		State:     s.ctrl.State(),
		Recording: s.toggle.Requested(),
		Version:   version.String(),
	}
	if k, ok := s.vault.Key(); ok {
		st.Enrolled, st.WeakKey = true, k.Weak()
	}
	if o, ok := s.ctrl.LastOutcome(); ok {
		st.Last = outcomeView(o)
	}
	if s.device != nil {
		st.Device = s.device.Snapshot()
	}
	return st
}

func (s *Server) showStatus(w http.ResponseWriter, r *http.Request) {
	if !httputil.RequireMethod(w, r, http.MethodGet) {
		return
	}
	httputil.WriteJSONOK(w, s.status())
}

type configResponse struct {
	MagnitudeCutoff float64 `json:"magnitude_cutoff"`
	MinRunLength    int     `json:"min_run_length"`
	GapThreshold    int     `json:"gap_threshold"`
	CanonicalOrder  string  `json:"canonical_order"`
}

func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	if !httputil.RequireMethod(w, r, http.MethodGet) {
		return
	}
	p := s.ctrl.Params()
	httputil.WriteJSONOK(w, configResponse{
		MagnitudeCutoff: p.MagnitudeCutoff,
		MinRunLength:    p.MinRunLength,
		GapThreshold:    p.GapThreshold,
		CanonicalOrder:  p.Ordering.String(),
	})
}

// recordHandler flips the record toggle like a button press. ?on=true or
// ?on=false sets it explicitly.
func (s *Server) recordHandler(w http.ResponseWriter, r *http.Request) {
	if !httputil.RequireMethod(w, r, http.MethodPost) {
		return
	}
	if v := r.URL.Query().Get("on"); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			httputil.BadRequest(w, "invalid 'on' parameter")
			return
		}
		s.toggle.Set(on)
	} else {
		s.toggle.Press()
	}
	httputil.WriteJSONOK(w, map[string]any{
		"recording_requested": s.toggle.Requested(),
		"state":               s.ctrl.State(),
	})
}

// AttemptView is an attempt without the signature that was tried.
type AttemptView struct {
	RecordingID string    `json:"recording_id"`
	Matched     bool      `json:"matched"`
	Samples     int       `json:"samples"`
	Timeouts    int       `json:"timeouts"`
	Note        string    `json:"note,omitempty"`
	At          time.Time `json:"at"`
}

type attemptsResponse struct {
	Summary  vault.AttemptSummary `json:"summary"`
	Attempts []AttemptView        `json:"attempts"`
}

// loadAttempts reads the attempt log honouring ?limit=. It writes the
// error response itself and reports whether the caller should continue.
func (s *Server) loadAttempts(w http.ResponseWriter, r *http.Request) ([]vault.Attempt, bool) {
	if s.attempts == nil {
		httputil.NotFound(w, "attempt log disabled")
		return nil, false
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			httputil.BadRequest(w, "invalid 'limit' parameter")
			return nil, false
		}
		limit = n
	}
	list, err := s.attempts.Attempts(limit)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return nil, false
	}
	if list == nil {
		list = []vault.Attempt{}
	}
	return list, true
}

func (s *Server) listAttempts(w http.ResponseWriter, r *http.Request) {
	if !httputil.RequireMethod(w, r, http.MethodGet) {
		return
	}
	list, ok := s.loadAttempts(w, r)
	if !ok {
		return
	}
	sum, err := s.attempts.SummarizeAttempts()
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	resp := attemptsResponse{Summary: sum, Attempts: make([]AttemptView, len(list))}
	for i, a := range list {
		resp.Attempts[i] = AttemptView{
			RecordingID: a.RecordingID,
			Matched:     a.Matched,
			Samples:     a.Samples,
			Timeouts:    a.Timeouts,
			Note:        a.Note,
			At:          a.At,
		}
	}
	httputil.WriteJSONOK(w, resp)
}

func (s *Server) sendCommandHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.m == nil {
		http.Error(w, "Serial port disabled", http.StatusServiceUnavailable)
		return
	}

	command := r.FormValue("command")
	if err := s.m.SendCommand(command); err != nil {
		http.Error(w, "Failed to send command", http.StatusInternalServerError)
		return
	}
	io.WriteString(w, "Command sent successfully")
}
