// Package server exposes the placement pipeline over HTTP.
//
// Routes:
//
//	POST   /v1/place       place a netlist onto a device
//	GET    /v1/runs        list archived runs, newest first
//	GET    /v1/runs/{id}   fetch one archived run
//	DELETE /v1/runs/{id}   delete an archived run
//	GET    /healthz        liveness probe
//
// Errors are JSON objects {"code": ..., "error": ...} carrying the error
// code from pkg/errors.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/xbpar/pkg/buildinfo"
	"github.com/matzehuels/xbpar/pkg/io"
	"github.com/matzehuels/xbpar/pkg/observability"
	"github.com/matzehuels/xbpar/pkg/pipeline"
	"github.com/matzehuels/xbpar/pkg/store"

	perrors "github.com/matzehuels/xbpar/pkg/errors"
)

// MaxBodyBytes limits the size of a placement request.
const MaxBodyBytes = 8 << 20

var errArchiveDisabled = perrors.New(perrors.ErrCodeUnsupported, "run archive is disabled")

// Server handles placement requests with a shared runner.
type Server struct {
	runner *pipeline.Runner
	logger *log.Logger
	router chi.Router

	// Timeout bounds one placement request. Zero means the request
	// context alone decides.
	Timeout time.Duration
}

// New creates a server. Runs are archived when runner has a store.
func New(runner *pipeline.Runner, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{runner: runner, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/place", s.handlePlace)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
		r.Delete("/runs/{id}", s.handleDeleteRun)
	})
	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr, "version", buildinfo.Version)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// observe fires the HTTP hooks and logs each request.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		dur := time.Since(start)
		hooks.OnResponse(r.Context(), r.Method, r.URL.Path, status, dur)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"duration", dur,
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// PlaceRequest is the body of POST /v1/place. A device of the form
// {"part": "SLG46620V"} selects a built-in part.
type PlaceRequest struct {
	Netlist *io.Document     `json:"netlist"`
	Device  *io.Document     `json:"device"`
	Options pipeline.Options `json:"options"`
	// Format selects a rendered diagram instead of the JSON response:
	// dot, svg, png or pdf.
	Format string `json:"format,omitempty"`
}

// PlaceResponse is the JSON answer to a placement request.
type PlaceResponse struct {
	RunID    string     `json:"run_id,omitempty"`
	CacheHit bool       `json:"cache_hit"`
	Report   *io.Report `json:"report"`
}

var contentTypes = map[string]string{
	pipeline.FormatDOT: "text/vnd.graphviz",
	pipeline.FormatSVG: "image/svg+xml",
	pipeline.FormatPNG: "image/png",
	pipeline.FormatPDF: "application/pdf",
}

func (s *Server) handlePlace(w http.ResponseWriter, r *http.Request) {
	var req PlaceRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, perrors.Wrap(perrors.ErrCodeInvalidInput, err, "decode request"))
		return
	}
	if req.Netlist == nil || req.Device == nil {
		s.writeError(w, perrors.New(perrors.ErrCodeInvalidInput, "netlist and device are required"))
		return
	}
	if req.Format != "" {
		if _, ok := contentTypes[req.Format]; !ok {
			s.writeError(w, perrors.New(perrors.ErrCodeInvalidFormat, "unsupported format %q (must be one of: dot, svg, png, pdf)", req.Format))
			return
		}
	}
	if _, err := pipeline.ParseFabric(req.Options.Fabric); err != nil {
		s.writeError(w, err)
		return
	}

	ctx := r.Context()
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	req.Options.Logger = s.logger.With("request_id", middleware.GetReqID(ctx))

	res, err := s.runner.ExecuteDocuments(ctx, req.Netlist, req.Device, req.Options)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if req.Format != "" {
		out, err := pipeline.Render(res, []string{req.Format}, pipeline.RenderOptions{HideFree: true})
		if err != nil {
			s.writeError(w, perrors.Wrap(perrors.ErrCodeInternal, err, "render"))
			return
		}
		w.Header().Set("Content-Type", contentTypes[req.Format])
		if res.RunID != "" {
			w.Header().Set("X-Run-ID", res.RunID)
		}
		_, _ = w.Write(out[req.Format])
		return
	}

	s.writeJSON(w, http.StatusOK, PlaceResponse{
		RunID:    res.RunID,
		CacheHit: res.CacheInfo.PlaceHit,
		Report:   res.Report,
	})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	st, ok := s.store(w)
	if !ok {
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, perrors.New(perrors.ErrCodeInvalidInput, "invalid limit %q", v))
			return
		}
		limit = n
	}
	recs, err := st.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if recs == nil {
		recs = []*store.Record{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"runs": recs})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	st, ok := s.store(w)
	if !ok {
		return
	}
	rec, err := st.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	st, ok := s.store(w)
	if !ok {
		return
	}
	if err := st.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, struct {
		Status string `json:"status"`
		buildinfo.Info
	}{"ok", buildinfo.Get()})
}

func (s *Server) store(w http.ResponseWriter) (store.Store, bool) {
	if s.runner.Store == nil {
		s.writeError(w, errArchiveDisabled)
		return nil, false
	}
	return s.runner.Store, true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("write response", "error", err)
	}
}

// errorBody is the JSON error response.
type errorBody struct {
	Code  perrors.Code `json:"code,omitempty"`
	Error string       `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := perrors.GetCode(err)
	status := StatusFor(err)
	if status >= 500 {
		s.logger.Error("request failed", "error", err)
	}
	s.writeJSON(w, status, errorBody{Code: code, Error: err.Error()})
}

// StatusFor maps an error to an HTTP status by its code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return 499 // client closed request
	case errors.Is(err, errArchiveDisabled):
		return http.StatusNotImplemented
	}
	switch perrors.GetCode(err) {
	case perrors.ErrCodeInfeasibleCapacity, perrors.ErrCodeNoLegalSeed, perrors.ErrCodeExhausted:
		return http.StatusUnprocessableEntity
	case perrors.ErrCodeInvalidInput, perrors.ErrCodeInvalidConfig, perrors.ErrCodeInvalidConstraint,
		perrors.ErrCodeInvalidFormat, perrors.ErrCodeInvalidName,
		perrors.ErrCodeUnknownNode, perrors.ErrCodeUnknownPort,
		perrors.ErrCodeDuplicatePort, perrors.ErrCodeDuplicateNodeName, perrors.ErrCodePortDirection:
		return http.StatusBadRequest
	case perrors.ErrCodeNotFound, perrors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case perrors.ErrCodeUnsupported:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
