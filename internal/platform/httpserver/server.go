package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	workshopservice "ideaforge/contexts/ideation/workshop-service"
	"ideaforge/contexts/ideation/workshop-service/adapters/export"
	workshoperrors "ideaforge/contexts/ideation/workshop-service/domain/errors"
	workshophttp "ideaforge/contexts/ideation/workshop-service/transport/http"
	"ideaforge/internal/platform/metrics"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "ideaforge/internal/platform/httpserver/docs"
)

type Options struct {
	Addr          string
	Metrics       *metrics.Workshop
	EnableSwagger bool
	Logger        *slog.Logger
}

type Server struct {
	mux      *http.ServeMux
	logger   *slog.Logger
	addr     string
	metrics  *metrics.Workshop
	workshop workshopservice.Module
	swagger  bool
}

func New(workshop workshopservice.Module, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	addr := opts.Addr
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:      http.NewServeMux(),
		logger:   logger,
		addr:     addr,
		metrics:  opts.Metrics,
		workshop: workshop,
		swagger:  opts.EnableSwagger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("http server stopping",
			"event", "http_server_stopping",
			"module", "internal/platform/httpserver",
			"layer", "platform",
		)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func (s *Server) registerRoutes() {
	if s.swagger {
		s.mux.Handle("/swagger/", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics.Handler())
	}
	s.handle("GET /healthz", s.handleHealth)

	s.handle("POST /v1/sessions", s.handleCreateSession)
	s.handle("GET /v1/sessions/{session_id}", s.handleGetSession)
	s.handle("DELETE /v1/sessions/{session_id}", s.handleDeleteSession)
	s.handle("POST /v1/sessions/{session_id}/state", s.handleSetState)

	s.handle("POST /v1/sessions/{session_id}/topics", s.handleAddTopic)
	s.handle("GET /v1/sessions/{session_id}/topics", s.handleListTopics)
	s.handle("PATCH /v1/sessions/{session_id}/topics/{topic_id}", s.handleUpdateTopic)
	s.handle("POST /v1/sessions/{session_id}/topics/{topic_id}/lock", s.handleLockTopic)

	s.handle("POST /v1/sessions/{session_id}/participants", s.handleJoin)
	s.handle("GET /v1/sessions/{session_id}/status", s.handleStatus)

	s.handle("POST /v1/sessions/{session_id}/contributions", s.handleSubmitContributions)
	s.handle("GET /v1/sessions/{session_id}/contributions", s.handleListContributions)
	s.handle("POST /v1/sessions/{session_id}/contributions/{contribution_id}/votes", s.handleCastVote)
	s.handle("GET /v1/sessions/{session_id}/contributions/{contribution_id}/votes", s.handleCountVotes)

	s.handle("GET /v1/sessions/{session_id}/report", s.handleReport)
}

func (s *Server) handle(pattern string, fn http.HandlerFunc) {
	var handler http.Handler = fn
	if s.metrics != nil {
		handler = s.metrics.Instrument(pattern, handler)
	}
	s.mux.Handle(pattern, handler)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req workshophttp.CreateSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.workshop.Handler.CreateSessionHandler(r.Context(), userID, req)
	if err != nil {
		s.writeWorkshopDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	resp, err := s.workshop.Handler.GetSessionHandler(r.Context(), r.PathValue("session_id"))
	if err != nil {
		s.writeWorkshopDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := s.workshop.Handler.DeleteSessionHandler(r.Context(), userID, r.PathValue("session_id")); err != nil {
		s.writeWorkshopDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetState(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req workshophttp.SetStateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.workshop.Handler.SetStateHandler(r.Context(), userID, r.PathValue("session_id"), req)
	if err != nil {
		s.writeWorkshopDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAddTopic(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req workshophttp.AddTopicRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.workshop.Handler.AddTopicHandler(r.Context(), userID, r.PathValue("session_id"), req)
	if err != nil {
		s.writeWorkshopDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListTopics(w http.ResponseWriter, r *http.Request) {
	resp, err := s.workshop.Handler.ListTopicsHandler(r.Context(), r.PathValue("session_id"))
	if err != nil {
		s.writeWorkshopDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateTopic(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req workshophttp.UpdateTopicRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.workshop.Handler.UpdateTopicHandler(
		r.Context(),
		userID,
		r.PathValue("session_id"),
		r.PathValue("topic_id"),
		req,
	)
	if err != nil {
		s.writeWorkshopDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLockTopic(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	resp, err := s.workshop.Handler.LockTopicHandler(r.Context(), userID, r.PathValue("session_id"), r.PathValue("topic_id"))
	if err != nil {
		s.writeWorkshopDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req workshophttp.JoinRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.workshop.Handler.JoinHandler(r.Context(), userID, r.PathValue("session_id"), req)
	if err != nil {
		s.writeWorkshopDomainError(w, r, err)
		return
	}
	status := http.StatusOK
	if resp.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp, err := s.workshop.Handler.StatusHandler(r.Context(), r.PathValue("session_id"))
	if err != nil {
		s.writeWorkshopDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSubmitContributions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req workshophttp.SubmitContributionsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.workshop.Handler.SubmitContributionsHandler(r.Context(), userID, r.PathValue("session_id"), req)
	if err != nil {
		s.writeWorkshopDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListContributions(w http.ResponseWriter, r *http.Request) {
	requireVoting := false
	if raw := r.URL.Query().Get("voting"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			writeWorkshopError(w, http.StatusBadRequest, "invalid_query", "voting must be a boolean")
			return
		}
		requireVoting = parsed
	}
	resp, err := s.workshop.Handler.ListContributionsHandler(
		r.Context(),
		strings.TrimSpace(r.Header.Get("X-User-Id")),
		r.PathValue("session_id"),
		requireVoting,
	)
	if err != nil {
		s.writeWorkshopDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	resp, err := s.workshop.Handler.CastVoteHandler(
		r.Context(),
		userID,
		r.PathValue("session_id"),
		r.PathValue("contribution_id"),
	)
	if err != nil {
		s.writeWorkshopDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCountVotes(w http.ResponseWriter, r *http.Request) {
	resp, err := s.workshop.Handler.CountVotesHandler(r.Context(), r.PathValue("session_id"), r.PathValue("contribution_id"))
	if err != nil {
		s.writeWorkshopDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeWorkshopError(w, http.StatusBadRequest, "invalid_format", err.Error())
		return
	}
	sessionID := r.PathValue("session_id")
	body, err := s.workshop.Handler.ReportHandler(r.Context(), sessionID, format)
	if err != nil {
		s.writeWorkshopDomainError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	if format != export.FormatJSON {
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", "workshop-"+sessionID+"."+format.FileExtension()))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (s *Server) writeWorkshopDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, workshoperrors.ErrSessionNotFound):
		writeWorkshopError(w, http.StatusNotFound, "session_not_found", err.Error())
	case errors.Is(err, workshoperrors.ErrTopicNotFound):
		writeWorkshopError(w, http.StatusNotFound, "topic_not_found", err.Error())
	case errors.Is(err, workshoperrors.ErrContributionNotFound):
		writeWorkshopError(w, http.StatusNotFound, "contribution_not_found", err.Error())
	case errors.Is(err, workshoperrors.ErrParticipantNotFound):
		writeWorkshopError(w, http.StatusForbidden, "not_a_participant", err.Error())
	case errors.Is(err, workshoperrors.ErrTopicAlreadyLocked),
		errors.Is(err, workshoperrors.ErrTopicLocked):
		writeWorkshopError(w, http.StatusConflict, "topic_locked", err.Error())
	case errors.Is(err, workshoperrors.ErrDuplicateVote):
		writeWorkshopError(w, http.StatusConflict, "duplicate_vote", err.Error())
	case errors.Is(err, workshoperrors.ErrSessionFinalized):
		writeWorkshopError(w, http.StatusConflict, "session_finalized", err.Error())
	case errors.Is(err, workshoperrors.ErrSelfVoteForbidden):
		writeWorkshopError(w, http.StatusForbidden, "self_vote_forbidden", err.Error())
	case errors.Is(err, workshoperrors.ErrNotAuthorized):
		writeWorkshopError(w, http.StatusForbidden, "not_authorized", err.Error())
	case errors.Is(err, workshoperrors.ErrVotingNotEnabled):
		writeWorkshopError(w, http.StatusBadRequest, "voting_not_enabled", err.Error())
	case errors.Is(err, workshoperrors.ErrTopicsNotLocked):
		writeWorkshopError(w, http.StatusBadRequest, "topics_not_locked", err.Error())
	case errors.Is(err, workshoperrors.ErrInvalidSessionState):
		writeWorkshopError(w, http.StatusBadRequest, "invalid_session_state", err.Error())
	case errors.Is(err, workshoperrors.ErrUnknownState):
		writeWorkshopError(w, http.StatusBadRequest, "unknown_state", err.Error())
	case errors.Is(err, workshoperrors.ErrInvalidTransition):
		writeWorkshopError(w, http.StatusBadRequest, "invalid_transition", err.Error())
	case errors.Is(err, workshoperrors.ErrEmptySubmission):
		writeWorkshopError(w, http.StatusBadRequest, "empty_submission", err.Error())
	case errors.Is(err, workshoperrors.ErrInvalidInput):
		writeWorkshopError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, export.ErrUnsupportedFormat):
		writeWorkshopError(w, http.StatusBadRequest, "invalid_format", err.Error())
	default:
		s.logger.Error("workshop request failed",
			"event", "http_workshop_request_failed",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err.Error(),
		)
		writeWorkshopError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if userID == "" {
		writeWorkshopError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return "", false
	}
	return userID, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		writeWorkshopError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return false
	}
	return true
}

func writeWorkshopError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, workshophttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
