// Package api exposes the coaching runner over HTTP: session lifecycle,
// frame ingest, live status, stored calibrations, and session reports.
package api

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/reachwell/reachwell/internal/calibration"
	"github.com/reachwell/reachwell/internal/coach"
	"github.com/reachwell/reachwell/internal/db"
	"github.com/reachwell/reachwell/internal/feedback"
	"github.com/reachwell/reachwell/internal/httputil"
	"github.com/reachwell/reachwell/internal/pose"
	"github.com/reachwell/reachwell/internal/report"
	"github.com/reachwell/reachwell/internal/timeutil"
	"github.com/reachwell/reachwell/internal/version"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// maxFrameBody bounds a single landmark frame payload.
const maxFrameBody = 64 << 10

type Server struct {
	runner *coach.Runner
	store  *db.CalibrationStore
	clock  timeutil.Clock
}

func NewServer(runner *coach.Runner, store *db.CalibrationStore, clock timeutil.Clock) *Server {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Server{
		runner: runner,
		store:  store,
		clock:  clock,
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
	case statusCode >= 400 && statusCode < 500:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 500:
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
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/session/start", s.startSession)
	mux.HandleFunc("/api/session/stop", s.stopSession)
	mux.HandleFunc("/api/frame", s.ingestFrame)
	mux.HandleFunc("/api/phase", s.setPhase)
	mux.HandleFunc("/api/level", s.setLevel)
	mux.HandleFunc("/api/status", s.showStatus)
	mux.HandleFunc("/api/version", s.showVersion)
	mux.HandleFunc("/api/calibration", s.showCalibration)
	mux.HandleFunc("/api/sessions", s.listSessions)
	mux.HandleFunc("/api/report", s.showReport)
	mux.HandleFunc("/api/report/trail.png", s.showTrailPlot)
	mux.HandleFunc("/ws", s.serveFrameSocket)
	return mux
}

type startSessionRequest struct {
	UserID   string `json:"userId"`
	Kind     string `json:"kind"` // "calibration" or "exercise"
	Exercise string `json:"exercise,omitempty"`
	Level    int    `json:"level,omitempty"`
	Mirror   bool   `json:"mirror,omitempty"`
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	var req startSessionRequest
	if err := httputil.ReadJSON(w, r, &req, maxFrameBody); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if req.UserID == "" {
		httputil.BadRequest(w, "userId is required")
		return
	}

	var (
		sessionID string
		err       error
	)
	switch req.Kind {
	case "calibration":
		sessionID, err = s.runner.StartCalibration(req.UserID, req.Mirror)
	case "exercise":
		exercise := feedback.Exercise(req.Exercise)
		switch exercise {
		case feedback.ShoulderAbduction, feedback.KneeRaise, feedback.ForwardReach, feedback.Squat:
		default:
			httputil.BadRequest(w, fmt.Sprintf("unknown exercise %q", req.Exercise))
			return
		}
		sessionID, err = s.runner.StartExercise(req.UserID, exercise, req.Level, req.Mirror)
	default:
		httputil.BadRequest(w, "kind must be \"calibration\" or \"exercise\"")
		return
	}
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to start session: %v", err))
		return
	}

	httputil.WriteJSONOK(w, map[string]string{"sessionId": sessionID})
}

func (s *Server) stopSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	s.runner.Stop()
	httputil.WriteJSONOK(w, map[string]string{"status": "stopped"})
}

func (s *Server) ingestFrame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	var frame pose.Frame
	if err := httputil.ReadJSON(w, r, &frame, maxFrameBody); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if len(frame.Landmarks) == 0 {
		httputil.BadRequest(w, "frame has no landmarks")
		return
	}

	s.runner.Submit(&frame)
	st := s.runner.Tick(s.clock.Now())
	httputil.WriteJSONOK(w, st)
}

type setPhaseRequest struct {
	Phase string `json:"phase"`
}

func (s *Server) setPhase(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	var req setPhaseRequest
	if err := httputil.ReadJSON(w, r, &req, maxFrameBody); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	phase := feedback.Phase(req.Phase)
	if phase != feedback.PhaseUp && phase != feedback.PhaseWaitDown {
		httputil.BadRequest(w, fmt.Sprintf("unknown phase %q", req.Phase))
		return
	}
	if err := s.runner.SetPhase(phase); err != nil {
		httputil.WriteJSONError(w, http.StatusConflict, err.Error())
		return
	}
	httputil.WriteJSONOK(w, s.runner.Status())
}

type setLevelRequest struct {
	Level int `json:"level"`
}

func (s *Server) setLevel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	var req setLevelRequest
	if err := httputil.ReadJSON(w, r, &req, maxFrameBody); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if req.Level < 1 {
		httputil.BadRequest(w, "level must be >= 1")
		return
	}
	if err := s.runner.SetLevel(req.Level); err != nil {
		httputil.WriteJSONError(w, http.StatusConflict, err.Error())
		return
	}
	httputil.WriteJSONOK(w, s.runner.Status())
}

func (s *Server) showStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, s.runner.Status())
}

func (s *Server) showVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, map[string]string{
		"version":   version.Version,
		"gitSha":    version.GitSHA,
		"buildTime": version.BuildTime,
	})
}

// showCalibration returns the active session's record when one exists,
// otherwise the stored record for the user query parameter, falling back
// to the legacy scope.
func (s *Server) showCalibration(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	if rec, ok := s.runner.Calibration(); ok {
		httputil.WriteJSONOK(w, rec)
		return
	}

	var (
		rec calibration.Record
		err error
	)
	if userID := r.URL.Query().Get("user"); userID != "" {
		rec, err = s.store.Load(db.UserScope(userID))
		if errors.Is(err, db.ErrNotFound) {
			rec, err = s.store.Load(db.LegacyScope)
		}
	} else {
		rec, err = s.store.Load(db.LegacyScope)
	}
	if errors.Is(err, db.ErrNotFound) {
		httputil.NotFound(w, "no calibration record stored")
		return
	}
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to load calibration: %v", err))
		return
	}
	httputil.WriteJSONOK(w, rec)
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 || parsed > 1000 {
			httputil.BadRequest(w, "invalid 'limit' parameter")
			return
		}
		limit = parsed
	}

	sessions, err := s.store.Sessions(limit)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to list sessions: %v", err))
		return
	}
	if sessions == nil {
		sessions = []db.SessionSummary{}
	}
	httputil.WriteJSONOK(w, sessions)
}

func (s *Server) showReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	st := s.runner.Status()
	samples := s.runner.Samples()
	if len(samples) == 0 {
		httputil.NotFound(w, "no active session with recorded samples")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := report.RenderHTML(w, st, samples); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render report: %v", err))
		return
	}
}

func (s *Server) showTrailPlot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	samples := s.runner.Samples()
	if len(samples) == 0 {
		httputil.NotFound(w, "no active session with recorded samples")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if err := report.RenderTrailPNG(w, samples); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render trail plot: %v", err))
		return
	}
}
