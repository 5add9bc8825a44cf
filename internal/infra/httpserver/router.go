package httpserver

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	appai "github.com/bryanwahyu/footprint-shield/internal/application/ai"
	appassess "github.com/bryanwahyu/footprint-shield/internal/application/assessment"
	appincidents "github.com/bryanwahyu/footprint-shield/internal/application/incidents"
	domai "github.com/bryanwahyu/footprint-shield/internal/domain/ai"
	"github.com/bryanwahyu/footprint-shield/internal/domain/evidence"
	"github.com/bryanwahyu/footprint-shield/internal/domain/incidents"
	"github.com/bryanwahyu/footprint-shield/internal/domain/safety"
	"github.com/bryanwahyu/footprint-shield/internal/middleware"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// Version is reported by the index endpoint.
const Version = "1.0.0"

type Router struct {
	assessSvc   *appassess.Service
	incidentSvc *appincidents.Service
	aiSvc       *appai.Service
	logger      *zap.Logger
}

// Options carries the outer-layer wiring that is not a service.
type Options struct {
	CORSOrigins  []string
	APIKeys      map[string]string
	Limiter      *middleware.RateLimiter
	HealthChecks []middleware.Check
	Logger       *zap.Logger

	// TrustProxy takes the client address from X-Forwarded-For / X-Real-IP.
	// Only enable it behind a proxy that overwrites those headers.
	TrustProxy bool
}

var endpoints = []string{
	"GET /api/questions",
	"POST /api/calculate-score",
	"POST /api/generate-responses",
	"POST /api/analyze-evidence",
	"POST /api/save-incident",
	"GET /api/incidents",
	"DELETE /api/incidents/{id}",
	"POST /api/chat",
}

func NewRouter(assessSvc *appassess.Service, incidentSvc *appincidents.Service, aiSvc *appai.Service, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Router{assessSvc: assessSvc, incidentSvc: incidentSvc, aiSvc: aiSvc, logger: logger}

	mux := chi.NewRouter()
	mux.Use(chimw.RequestID)
	if opts.TrustProxy {
		mux.Use(chimw.RealIP)
	}
	mux.Use(middleware.Logging(logger))
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         300,
	}))

	mux.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Endpoint not found"})
	})
	mux.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
	})

	mux.Get("/", r.wrap(r.handleIndex))
	mux.Get("/health", middleware.HealthHandler(opts.HealthChecks))
	mux.Get("/health/live", middleware.LivenessHandler)
	mux.Get("/health/ready", middleware.ReadinessHandler(opts.HealthChecks))
	mux.Get("/metrics", middleware.MetricsHandler)

	limit := func(g chi.Router) {
		if opts.Limiter != nil {
			g.Use(middleware.RateLimitMiddleware(opts.Limiter))
		}
	}
	mux.Route("/api", func(rt chi.Router) {
		rt.Group(func(g chi.Router) {
			limit(g)
			g.Get("/questions", r.wrap(r.handleQuestions))
			g.Post("/calculate-score", r.wrap(r.handleCalculateScore))
			g.Post("/generate-responses", r.wrap(r.handleGenerateResponses))
			g.Post("/analyze-evidence", r.wrap(r.handleAnalyzeEvidence))
			g.Post("/chat", r.wrap(r.handleChat))
		})

		rt.Group(func(g chi.Router) {
			g.Use(middleware.APIKeyAuth(opts.APIKeys))
			limit(g)
			g.Post("/save-incident", r.wrap(r.handleSaveIncident))
			g.Get("/incidents", r.wrap(r.handleListIncidents))
			g.Delete("/incidents/{id}", r.wrap(r.handleDeleteIncident))
		})
	})

	return mux
}

// requestError is an InvalidInput failure: the caller sent something the
// core must not be invoked with.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// wrap maps handler errors onto status codes. Unexpected failures and
// panics produce a generic 500 with no partial result.
func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				r.logger.Error("handler panic",
					zap.Any("panic", rec),
					zap.String("path", req.URL.Path),
					zap.String("request_id", chimw.GetReqID(req.Context())),
				)
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
			}
		}()

		err := h(w, req)
		if err == nil {
			return
		}
		var reqErr *requestError
		switch {
		case errors.As(err, &reqErr):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": reqErr.msg})
		case errors.Is(err, domai.ErrQuotaExceeded):
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "ai quota exceeded"})
		case errors.Is(err, domai.ErrDisabled):
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "AI companion is not configured"})
		default:
			r.logger.Error("request failed",
				zap.Error(err),
				zap.String("path", req.URL.Path),
				zap.String("request_id", chimw.GetReqID(req.Context())),
			)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// decodeBody reads a JSON object body into v. Any decode failure, including
// wrong field types, is a client error.
func decodeBody(w http.ResponseWriter, req *http.Request, v any) error {
	body := http.MaxBytesReader(w, req.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest("Missing request body")
		}
		return badRequest("Invalid JSON body: %s", err.Error())
	}
	return nil
}

// GET /
func (r *Router) handleIndex(w http.ResponseWriter, _ *http.Request) error {
	return writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"app":       "Footprint Shield API",
		"version":   Version,
		"endpoints": endpoints,
	})
}

// GET /api/questions
func (r *Router) handleQuestions(w http.ResponseWriter, _ *http.Request) error {
	rubric := r.assessSvc.Questions()
	return writeJSON(w, http.StatusOK, map[string]any{
		"questions":  rubric.Questions,
		"categories": rubric.Categories(),
	})
}

// POST /api/calculate-score
// Body: {"answers": {"social_public": true, "two_factor": false}}
func (r *Router) handleCalculateScore(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Answers map[string]*bool `json:"answers"`
	}
	if err := decodeBody(w, req, &body); err != nil {
		return err
	}
	if body.Answers == nil {
		return badRequest("Missing answers in request body")
	}

	answers := make(safety.Answers, len(body.Answers))
	for id, v := range body.Answers {
		if v != nil {
			answers[id] = *v
		}
	}

	result := r.assessSvc.CalculateScore(answers)
	middleware.IncrementScores()
	return writeJSON(w, http.StatusOK, result)
}

// POST /api/generate-responses
// Body: {"message": "..."}
func (r *Router) handleGenerateResponses(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Message *string `json:"message"`
	}
	if err := decodeBody(w, req, &body); err != nil {
		return err
	}
	if body.Message == nil {
		return badRequest("Missing message in request body")
	}
	if err := middleware.ValidateMessage(*body.Message); err != nil {
		return badRequest("%s", err.Error())
	}

	analysis, err := r.assessSvc.AnalyzeMessage(req.Context(), *body.Message)
	if err != nil {
		return err
	}
	middleware.IncrementClassifications()
	return writeJSON(w, http.StatusOK, analysis)
}

// POST /api/analyze-evidence
// Body: {"evidence": [{"source": "twitter", "count": 3, "timestamp": "07:47:24"}]}
func (r *Router) handleAnalyzeEvidence(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Evidence *[]evidence.Entry `json:"evidence"`
	}
	if err := decodeBody(w, req, &body); err != nil {
		return err
	}
	if body.Evidence == nil {
		return badRequest("Missing evidence in request body")
	}
	for i, e := range *body.Evidence {
		if err := middleware.ValidateEvidenceCount(i, e.Count); err != nil {
			return badRequest("%s", err.Error())
		}
	}

	analysis := r.assessSvc.AnalyzeEvidence(*body.Evidence)
	middleware.IncrementEvidence()
	return writeJSON(w, http.StatusOK, analysis)
}

// POST /api/save-incident
func (r *Router) handleSaveIncident(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Type     string `json:"type"`
		Platform string `json:"platform"`
		Message  string `json:"message"`
		Severity string `json:"severity"`
		Notes    string `json:"notes"`
	}
	if err := decodeBody(w, req, &body); err != nil {
		return err
	}
	if err := middleware.ValidateMessage(body.Message); err != nil {
		return badRequest("%s", err.Error())
	}
	if err := middleware.ValidateMessage(body.Notes); err != nil {
		return badRequest("notes: %s", err.Error())
	}

	in, err := r.incidentSvc.Save(req.Context(), appincidents.SaveIncidentCommand{
		Type:     middleware.SanitizeString(body.Type),
		Platform: middleware.SanitizeString(body.Platform),
		Message:  middleware.SanitizeString(body.Message),
		Severity: strings.ToLower(middleware.SanitizeString(body.Severity)),
		Notes:    middleware.SanitizeString(body.Notes),
	})
	if err != nil {
		return err
	}
	middleware.IncrementIncidentsSaved()
	return writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"incident_id": in.ID,
		"message":     "Incident saved successfully",
	})
}

// GET /api/incidents
func (r *Router) handleListIncidents(w http.ResponseWriter, req *http.Request) error {
	list, err := r.incidentSvc.List(req.Context())
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{
		"incidents": list,
		"count":     len(list),
	})
}

// DELETE /api/incidents/{id}
func (r *Router) handleDeleteIncident(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateIncidentID(id); err != nil {
		return badRequest("%s", err.Error())
	}
	if err := r.incidentSvc.Delete(req.Context(), incidents.IncidentID(id)); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("Incident %s deleted", id),
	})
}

// POST /api/chat
// Body: {"message": "...", "history": [{"role": "user", "content": "..."}]}
func (r *Router) handleChat(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Message *string          `json:"message"`
		History []domai.ChatTurn `json:"history"`
	}
	if err := decodeBody(w, req, &body); err != nil {
		return err
	}
	if body.Message == nil || strings.TrimSpace(*body.Message) == "" {
		return badRequest("Missing message in request body")
	}
	if err := middleware.ValidateMessage(*body.Message); err != nil {
		return badRequest("%s", err.Error())
	}

	text, err := r.aiSvc.Chat(req.Context(), body.History, *body.Message)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]string{"text": text})
}
