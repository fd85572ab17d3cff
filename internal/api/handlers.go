package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/aristath/careercrew/internal/orchestrator"
)

// Response messages for each report status.
const (
	MessageComplete  = "Career report generated successfully!"
	MessageDegraded  = "Career report generated with limited service: some sections contain fallback content."
	MessageEmergency = "Career report service is temporarily unavailable: basic guidance was returned instead."
)

// CareerRequest is the body of POST /api/generate-career-report.
type CareerRequest struct {
	UserInfo string `json:"user_info" validate:"required"`
}

// CareerResponse is returned for every generation request that was
// accepted, including degraded ones.
type CareerResponse struct {
	Report  string `json:"report"`
	Success bool   `json:"success"`
	Message string `json:"message"`
	RunID   string `json:"run_id,omitempty"`
	Status  string `json:"status,omitempty"`
}

// GenerateReport handles POST /api/generate-career-report.
func (s *Server) GenerateReport(w http.ResponseWriter, r *http.Request) {
	var req CareerRequest
	if err := s.decode(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	s.logger.Debug("starting career analysis",
		"request_id", middleware.GetReqID(r.Context()),
		"input_chars", len([]rune(req.UserInfo)))

	report := s.engine.ExecuteAll(r.Context(), req.UserInfo)

	resp := CareerResponse{
		Report:  report.Text,
		Success: report.Status == orchestrator.StatusComplete,
		RunID:   report.RunID,
		Status:  string(report.Status),
	}
	switch report.Status {
	case orchestrator.StatusComplete:
		resp.Message = MessageComplete
	case orchestrator.StatusDegraded:
		resp.Message = MessageDegraded
	default:
		resp.Message = MessageEmergency
	}

	s.logger.Info("career report generated",
		"run", report.RunID,
		"status", report.Status,
		"path", report.Path,
		"placeholders", report.Placeholders(),
		"report_chars", len(report.Text))
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, req *CareerRequest) error {
	// Bound the body well above the longest acceptable input.
	body := http.MaxBytesReader(w, r.Body, int64(s.maxInputLen)*4+1024)
	if err := json.NewDecoder(body).Decode(req); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedRequest, err)
	}

	req.UserInfo = strings.TrimSpace(req.UserInfo)
	if err := s.validate.Struct(req); err != nil {
		return ErrEmptyInput
	}
	if err := s.validate.Var(req.UserInfo, fmt.Sprintf("max=%d", s.maxInputLen)); err != nil {
		return ErrInputTooLong
	}
	return nil
}

// Health handles GET /api/health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":          "healthy",
		"message":         "AI Career Advisor API is running",
		"agents":          len(s.engine.Tasks()),
		"apis_configured": s.configuredProviders(),
	})
}

// ProviderStatus describes one provider in GET /api/status.
type ProviderStatus struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Model      string `json:"model,omitempty"`
	Configured bool   `json:"configured"`
}

// StatusResponse is the body of GET /api/status.
type StatusResponse struct {
	System       string              `json:"system"`
	Version      string              `json:"version"`
	Agents       []string            `json:"agents"`
	LLMProviders []ProviderStatus    `json:"llm_providers"`
	Chains       map[string][]string `json:"chains"`
	Status       string              `json:"status"`
}

// Status handles GET /api/status.
func (s *Server) Status(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		System:  "AI Career Advisor",
		Version: s.version,
		Chains:  map[string][]string{},
		Status:  "operational",
	}
	for _, t := range s.engine.Tasks() {
		resp.Agents = append(resp.Agents, t.Agent.Role)
		var names []string
		for _, h := range s.engine.Chain(t.Kind) {
			names = append(names, h.Name)
		}
		resp.Chains[string(t.Kind)] = names
	}
	for _, h := range s.providers {
		resp.LLMProviders = append(resp.LLMProviders, ProviderStatus{
			Name:       h.Name,
			Type:       h.Type,
			Model:      h.Model,
			Configured: s.hasCredential(h.CredentialEnv),
		})
	}
	if s.configuredProviders() == 0 {
		resp.Status = "degraded"
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) hasCredential(env string) bool {
	return env == "" || s.lookupEnv(env) != ""
}

func (s *Server) configuredProviders() int {
	n := 0
	for _, h := range s.providers {
		if s.hasCredential(h.CredentialEnv) {
			n++
		}
	}
	return n
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	reqID := middleware.GetReqID(r.Context())
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err, "request_id", reqID)
	} else {
		s.logger.Debug("rejecting request", "error", err, "status", status, "request_id", reqID)
	}
	respondJSON(w, status, ErrorResponse{Error: safeMessage(err), RequestID: reqID})
}
