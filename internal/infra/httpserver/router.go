package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	appanalysis "github.com/bryanwahyu/sparklens/internal/application/analysis"
	domai "github.com/bryanwahyu/sparklens/internal/domain/ai"
	domain "github.com/bryanwahyu/sparklens/internal/domain/analysis"
	"github.com/bryanwahyu/sparklens/internal/middleware"
)

const defaultMaxBodyBytes = 64 << 10

// Options tunes the HTTP surface. Zero values fall back to defaults.
type Options struct {
	Logger         *zerolog.Logger
	HealthCheckers map[string]middleware.HealthChecker
	RateCapacity   int
	RateRefill     int
	AllowedOrigins []string
	MaxBodyBytes   int64
}

type Router struct {
	analysisSvc  *appanalysis.Service
	maxBodyBytes int64
}

func NewRouter(analysisSvc *appanalysis.Service, opts Options) http.Handler {
	r := &Router{analysisSvc: analysisSvc, maxBodyBytes: opts.MaxBodyBytes}
	if r.maxBodyBytes <= 0 {
		r.maxBodyBytes = defaultMaxBodyBytes
	}
	logger := opts.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if opts.RateCapacity <= 0 {
		opts.RateCapacity = 30
	}
	if opts.RateRefill <= 0 {
		opts.RateRefill = 1
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	mux := chi.NewRouter()
	mux.Use(chimw.RequestID)
	mux.Use(chimw.RealIP)
	mux.Use(middleware.LoggingMiddleware(logger))
	mux.Use(chimw.Recoverer)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Run-Id", "X-Cache", "X-Schema-Version"},
		MaxAge:         300,
	}))

	probe := middleware.NewProbe(opts.HealthCheckers)
	mux.Get("/health", probe.Health)
	mux.Get("/ready", probe.Ready)
	mux.Get("/live", middleware.Live)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/v1", func(rt chi.Router) {
		rt.Use(middleware.RateLimitMiddleware(opts.RateCapacity, opts.RateRefill))
		rt.Use(middleware.UserIdentity)
		rt.Post("/analyze", r.wrap(r.handleAnalyze))
		rt.Get("/analyses", r.wrap(r.handleList))
		rt.Get("/analyses/{runId}", r.wrap(r.handleGet))
		rt.Get("/failures", r.wrap(r.handleFailures))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// badRequest marks request decoding failures.
type badRequest struct{ err error }

func (b *badRequest) Error() string { return "invalid request body: " + b.err.Error() }

func (b *badRequest) Unwrap() error { return b.err }

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		status, detail := classify(err)
		if status == http.StatusServiceUnavailable && errors.Is(err, domai.ErrQuotaExceeded) {
			w.Header().Set("Retry-After", "60")
		}
		if status >= http.StatusInternalServerError {
			zerolog.Ctx(req.Context()).Error().Err(err).Int("status", status).Msg("request failed")
		}
		middleware.WriteError(w, status, detail)
	}
}

func classify(err error) (int, string) {
	var br *badRequest
	switch {
	case errors.As(err, &br),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrSchema):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrRunNotFound):
		return http.StatusNotFound, err.Error()
	case domai.KindName(err) != "":
		return http.StatusServiceUnavailable, "upstream analysis service unavailable (" + domai.KindName(err) + "): " + err.Error()
	case errors.Is(err, domain.ErrMalformedResponse),
		errors.Is(err, domain.ErrIncompleteResponse):
		return http.StatusInternalServerError, err.Error()
	case errors.Is(err, appanalysis.ErrPersist):
		return http.StatusInternalServerError, "analysis completed but could not be stored"
	case errors.Is(err, appanalysis.ErrRunIndexDisabled):
		return http.StatusNotImplemented, err.Error()
	}
	return http.StatusInternalServerError, "internal error"
}

// POST /v1/analyze?userId=
// Body: AnalysisRequest. Responds with the analysis result sections.
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	userID := middleware.GetUserFromContext(req.Context())

	var body domain.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, req.Body, r.maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("body is empty")
		}
		return &badRequest{err: err}
	}

	middleware.IncrementAnalyses()
	middleware.IncrementAnalysesRunning()
	start := time.Now()
	out, err := r.analysisSvc.Analyze(req.Context(), userID, body)
	middleware.DecrementAnalysesRunning()
	if err != nil {
		middleware.IncrementAnalysesFailed()
		if domai.KindName(err) != "" {
			middleware.IncrementUpstreamFailures()
		}
		return err
	}
	if out.Cached {
		middleware.IncrementCacheHits()
	}
	zerolog.Ctx(req.Context()).Info().
		Str("user_id", userID).
		Str("run_id", out.RunID).
		Bool("cached", out.Cached).
		Dur("elapsed", time.Since(start)).
		Msg("analysis completed")

	cache := "MISS"
	if out.Cached {
		cache = "HIT"
	}
	w.Header().Set("X-Run-Id", out.RunID)
	w.Header().Set("X-Cache", cache)
	w.Header().Set("X-Schema-Version", out.SchemaVersion)
	return writeJSON(w, http.StatusOK, out.Result)
}

// GET /v1/analyses?userId=&page=&page_size=
func (r *Router) handleList(w http.ResponseWriter, req *http.Request) error {
	userID := middleware.GetUserFromContext(req.Context())
	q := req.URL.Query()
	page := middleware.ValidatePage(middleware.QueryInt(q.Get("page"), 1))
	size := middleware.ValidateLimit(middleware.QueryInt(q.Get("page_size"), 20))

	runs, err := r.analysisSvc.ListRuns(req.Context(), userID, page, size)
	if err != nil {
		return err
	}
	if runs == nil {
		runs = []*domain.Run{}
	}
	return writeJSON(w, http.StatusOK, map[string]any{
		"data":      runs,
		"page":      page,
		"page_size": size,
	})
}

// GET /v1/analyses/{runId}?userId=
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
	userID := middleware.GetUserFromContext(req.Context())
	run, err := r.analysisSvc.GetRun(req.Context(), userID, chi.URLParam(req, "runId"))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, run)
}

// GET /v1/failures?userId=&limit=
func (r *Router) handleFailures(w http.ResponseWriter, req *http.Request) error {
	userID := middleware.GetUserFromContext(req.Context())
	limit := middleware.ValidateLimit(middleware.QueryInt(req.URL.Query().Get("limit"), 20))

	failures, err := r.analysisSvc.ListFailures(req.Context(), userID, limit)
	if err != nil {
		return err
	}
	if failures == nil {
		failures = []*domain.Failure{}
	}
	return writeJSON(w, http.StatusOK, map[string]any{"data": failures, "limit": limit})
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
	return nil
}
