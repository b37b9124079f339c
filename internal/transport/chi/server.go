package chi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/selfadvocacy/discovery/internal/domain"
	"github.com/selfadvocacy/discovery/internal/domain/criteria"
	"github.com/selfadvocacy/discovery/internal/domain/outcome"
	"github.com/selfadvocacy/discovery/internal/domain/search/mode"
	logpkg "github.com/selfadvocacy/discovery/internal/logger"
	discoveryuc "github.com/selfadvocacy/discovery/internal/usecase/discovery"
	healthuc "github.com/selfadvocacy/discovery/internal/usecase/health"
)

// DefaultSearchTimeout bounds how long a request waits for a terminal outcome.
const DefaultSearchTimeout = 8 * time.Second

// Sessions opens and finds discovery sessions.
type Sessions interface {
	Open(ctx context.Context, userID string, m mode.Mode, s mode.Surface) (*discoveryuc.Controller, error)
	Get(userID string, m mode.Mode) (*discoveryuc.Controller, bool)
	Close(userID string, m mode.Mode) bool
}

// TierInvalidator drops a cached subscription tier.
type TierInvalidator interface {
	Invalidate(ctx context.Context, userID string) error
}

// Reindexer refreshes one profile in the search index.
type Reindexer interface {
	Reindex(ctx context.Context, id string) error
}

// Options configures optional Server collaborators.
type Options struct {
	Surface       mode.Surface  // default surface when the request names none
	SearchTimeout time.Duration // zero means DefaultSearchTimeout
	Tiers         TierInvalidator
	Indexer       Reindexer
}

// Server serves the discovery API.
type Server struct {
	sessions      Sessions
	health        *healthuc.Service
	opts          Options
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(sessions Sessions, health *healthuc.Service, opts Options, logger *zap.Logger) *Server {
	if opts.Surface == "" {
		opts.Surface = mode.Mobile
	}
	if opts.SearchTimeout <= 0 {
		opts.SearchTimeout = DefaultSearchTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		sessions:      sessions,
		health:        health,
		opts:          opts,
		logger:        logger,
		errorHandlers: defaultErrorHandlers(),
	}
}

// Search handles POST /v1/users/{userID}/discovery/{mode}/search.
// It issues the search immediately and waits for a terminal outcome.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	cr, ok := decodeCriteria(w, r)
	if !ok {
		return
	}
	ctrl, ok := s.openSession(w, r)
	if !ok {
		return
	}

	ctrl.IssueSearch(cr)
	s.respondAfterWait(w, r, ctrl)
}

// UpdateCriteria handles PUT /v1/users/{userID}/discovery/{mode}/criteria.
// The search starts after the debounce window; the current state is returned at once.
func (s *Server) UpdateCriteria(w http.ResponseWriter, r *http.Request) {
	cr, ok := decodeCriteria(w, r)
	if !ok {
		return
	}
	ctrl, ok := s.openSession(w, r)
	if !ok {
		return
	}

	ctrl.ScheduleSearch(cr)
	writeJSON(w, http.StatusAccepted, outcomeToResponse(string(ctrl.Mode()), ctrl.Outcome(), ctrl.Criteria()))
}

// LoadMore handles POST /v1/users/{userID}/discovery/{mode}/more.
func (s *Server) LoadMore(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.existingSession(w, r)
	if !ok {
		return
	}

	if !ctrl.LoadMore() {
		writeError(w, http.StatusConflict, CodeNothingToLoad, "no further results to load")
		return
	}
	s.respondAfterWait(w, r, ctrl)
}

// GetOutcome handles GET /v1/users/{userID}/discovery/{mode}.
// With ?wait=true it blocks until pending work settles.
func (s *Server) GetOutcome(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.existingSession(w, r)
	if !ok {
		return
	}

	if r.URL.Query().Get("wait") == "true" {
		s.respondAfterWait(w, r, ctrl)
		return
	}
	writeJSON(w, http.StatusOK, outcomeToResponse(string(ctrl.Mode()), ctrl.Outcome(), ctrl.Criteria()))
}

// Reset handles POST /v1/users/{userID}/discovery/{mode}/reset.
func (s *Server) Reset(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.existingSession(w, r)
	if !ok {
		return
	}

	ctrl.Reset()
	writeJSON(w, http.StatusOK, outcomeToResponse(string(ctrl.Mode()), ctrl.Outcome(), ctrl.Criteria()))
}

// CloseSession handles DELETE /v1/users/{userID}/discovery/{mode}.
func (s *Server) CloseSession(w http.ResponseWriter, r *http.Request) {
	m, ok := modeParam(w, r)
	if !ok {
		return
	}

	s.sessions.Close(chi.URLParam(r, "userID"), m)
	w.WriteHeader(http.StatusNoContent)
}

// RefreshEntitlement handles POST /v1/users/{userID}/entitlement/refresh.
// It drops the cached tier, closes the user's sessions so the next open
// re-applies the entry gate, and refreshes the indexed subscription type.
func (s *Server) RefreshEntitlement(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	if s.opts.Tiers != nil {
		if err := s.opts.Tiers.Invalidate(r.Context(), userID); err != nil {
			s.handleDomainError(w, r, err)
			return
		}
	}

	s.sessions.Close(userID, mode.Friend)
	s.sessions.Close(userID, mode.Dating)

	if s.opts.Indexer != nil {
		if err := s.opts.Indexer.Reindex(r.Context(), userID); err != nil {
			s.handleDomainError(w, r, err)
			return
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

// HealthCheckResponse is one component in the health body.
type HealthCheckResponse struct {
	Status    string  `json:"status"`
	LatencyMS float64 `json:"latency_ms"`
	Error     string  `json:"error,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string                         `json:"status"`
	Checks map[string]HealthCheckResponse `json:"checks"`
}

// HealthCheck handles GET /health. Anything short of fully healthy answers 503
// so load balancers stop routing searches here.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]HealthCheckResponse, len(report.Checks))
	for name, c := range report.Checks {
		checks[name] = HealthCheckResponse{
			Status:    string(c.Result),
			LatencyMS: float64(c.Latency.Microseconds()) / 1000,
			Error:     c.Error,
		}
		if c.Result != healthuc.CheckOK {
			logpkg.FromContext(r.Context()).Warn("health check failed",
				zap.String("component", name), zap.String("error", c.Error))
		}
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) openSession(w http.ResponseWriter, r *http.Request) (*discoveryuc.Controller, bool) {
	m, ok := modeParam(w, r)
	if !ok {
		return nil, false
	}
	surface, ok := s.surfaceParam(w, r)
	if !ok {
		return nil, false
	}

	ctrl, err := s.sessions.Open(r.Context(), chi.URLParam(r, "userID"), m, surface)
	if err != nil {
		s.handleDomainError(w, r, err)
		return nil, false
	}
	return ctrl, true
}

func (s *Server) existingSession(w http.ResponseWriter, r *http.Request) (*discoveryuc.Controller, bool) {
	m, ok := modeParam(w, r)
	if !ok {
		return nil, false
	}

	ctrl, found := s.sessions.Get(chi.URLParam(r, "userID"), m)
	if !found {
		writeError(w, http.StatusNotFound, CodeSessionNotFound, "no open discovery session")
		return nil, false
	}
	return ctrl, true
}

// respondAfterWait waits up to the search timeout. A search still running at
// the deadline is reported with 202 and the Loading state.
func (s *Server) respondAfterWait(w http.ResponseWriter, r *http.Request, ctrl *discoveryuc.Controller) {
	ctx, cancel := context.WithTimeout(r.Context(), s.opts.SearchTimeout)
	defer cancel()

	o, err := ctrl.Wait(ctx)
	resp := outcomeToResponse(string(ctrl.Mode()), o, ctrl.Criteria())
	if err != nil {
		writeJSON(w, http.StatusAccepted, resp)
		return
	}

	if o.State() == outcome.StateFailed {
		logpkg.FromContext(r.Context()).Info("discovery search failed",
			zap.String("kind", domain.FailureKind(o.Err())),
			zap.Error(o.Err()),
		)
	}
	writeJSON(w, outcomeStatus(o), resp)
}

// outcomeStatus maps a settled outcome to an HTTP status.
func outcomeStatus(o outcome.Outcome) int {
	if o.State() != outcome.StateFailed {
		return http.StatusOK
	}
	switch {
	case errors.Is(o.Err(), domain.ErrIncompleteProfile):
		return http.StatusUnprocessableEntity
	case domain.IsSearchFailure(o.Err()):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) surfaceParam(w http.ResponseWriter, r *http.Request) (mode.Surface, bool) {
	switch v := mode.Surface(r.URL.Query().Get("surface")); v {
	case "":
		return s.opts.Surface, true
	case mode.Mobile, mode.Web:
		return v, true
	default:
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "surface must be mobile or web")
		return "", false
	}
}

func modeParam(w http.ResponseWriter, r *http.Request) (mode.Mode, bool) {
	m, ok := mode.Parse(chi.URLParam(r, "mode"))
	if !ok {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "mode must be friend or dating")
		return "", false
	}
	return m, true
}

// decodeCriteria reads the request body. An empty body means default criteria.
func decodeCriteria(w http.ResponseWriter, r *http.Request) (criteria.Criteria, bool) {
	var req CriteriaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return criteria.Criteria{}, false
	}
	return req.toCriteria(), true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logpkg.FromContext(r.Context())
	logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
