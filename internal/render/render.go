package render

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aescanero/dago-node-template/internal/catalog"
	"github.com/aescanero/dago-node-template/internal/eval/template"
)

// Mode selects how failed directives are handled for one request
type Mode string

const (
	// ModeStrict fails the request on the first failed directive
	ModeStrict Mode = "strict"

	// ModeLenient leaves failed directives in the output
	ModeLenient Mode = "lenient"
)

var (
	// ErrInvalidRequest is returned for requests that cannot be rendered
	ErrInvalidRequest = errors.New("invalid render request")

	// ErrInvalidTemplate is returned when pre-render validation finds errors
	ErrInvalidTemplate = errors.New("template failed validation")
)

// Request asks for one template expansion. Exactly one of TemplateID and
// Content must be set.
type Request struct {
	ID         string                 `json:"id,omitempty"`
	TemplateID string                 `json:"template_id,omitempty"`
	Content    string                 `json:"content,omitempty"`
	Variables  map[string]interface{} `json:"variables,omitempty"`
	Mode       Mode                   `json:"mode,omitempty"`
	// Validate runs template validation before expansion
	Validate bool `json:"validate,omitempty"`
}

// Response is the outcome of a successful render
type Response struct {
	ID            string           `json:"id"`
	TemplateID    string           `json:"template_id,omitempty"`
	Content       string           `json:"content"`
	Mode          Mode             `json:"mode"`
	Iterations    int              `json:"iterations"`
	Inclusions    int              `json:"inclusions"`
	HasUnresolved bool             `json:"has_unresolved"`
	Warnings      []template.Issue `json:"warnings,omitempty"`
	DurationMS    int64            `json:"duration_ms"`
}

// Service renders requests with a configured engine
type Service struct {
	engine  *template.Engine
	catalog catalog.Reader
	logger  *zap.Logger
}

// NewService creates a render service. cat may be nil when every request
// carries inline content; it should be the catalog the engine includes from.
func NewService(engine *template.Engine, cat catalog.Reader, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		engine:  engine,
		catalog: cat,
		logger:  logger,
	}
}

// Render expands a request
func (s *Service) Render(ctx context.Context, req *Request) (*Response, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Mode == "" {
		req.Mode = s.detectMode()
	}

	s.logger.Info("render request",
		zap.String("request_id", req.ID),
		zap.String("template_id", req.TemplateID),
		zap.String("mode", string(req.Mode)),
	)

	start := time.Now()
	resp, err := s.render(ctx, req)
	if err != nil {
		s.logger.Error("render failed",
			zap.String("request_id", req.ID),
			zap.String("template_id", req.TemplateID),
			zap.String("kind", ErrorKind(err)),
			zap.Error(err),
		)
		return nil, err
	}
	resp.DurationMS = time.Since(start).Milliseconds()

	s.logger.Info("render complete",
		zap.String("request_id", req.ID),
		zap.Int("iterations", resp.Iterations),
		zap.Int("inclusions", resp.Inclusions),
		zap.Bool("has_unresolved", resp.HasUnresolved),
		zap.Int64("duration_ms", resp.DurationMS),
	)
	return resp, nil
}

func (s *Service) render(ctx context.Context, req *Request) (*Response, error) {
	engine := s.engine.Strict()
	if req.Mode == ModeLenient {
		engine = s.engine.Lenient()
	}

	resp := &Response{ID: req.ID, TemplateID: req.TemplateID, Mode: req.Mode}

	if req.Validate {
		content, err := s.content(ctx, req)
		if err != nil {
			return nil, err
		}
		result := engine.Validate(content)
		if !result.Valid {
			return nil, fmt.Errorf("%w: %s", ErrInvalidTemplate, joinIssues(result.Errors))
		}
		resp.Warnings = result.Warnings
	}

	var (
		result *template.Result
		err    error
	)
	if req.TemplateID != "" {
		result, err = engine.ProcessTemplate(ctx, req.TemplateID, req.Variables)
	} else {
		result, err = engine.Process(ctx, req.Content, req.Variables)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", req.target(), err)
	}

	resp.Content = result.Content
	resp.Iterations = result.Iterations
	resp.Inclusions = result.Inclusions
	resp.HasUnresolved = result.HasUnresolved
	return resp, nil
}

// Validate checks a request's template without expanding it
func (s *Service) Validate(ctx context.Context, req *Request) (*template.ValidationResult, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	content, err := s.content(ctx, req)
	if err != nil {
		return nil, err
	}
	result := s.engine.Validate(content)
	return &result, nil
}

// content returns the template text of a request
func (s *Service) content(ctx context.Context, req *Request) (string, error) {
	if req.TemplateID == "" {
		return req.Content, nil
	}
	if s.catalog == nil {
		return "", fmt.Errorf("failed to read template %q: no catalog configured", req.TemplateID)
	}
	tpl, err := s.catalog.Read(ctx, req.TemplateID)
	if err != nil {
		return "", fmt.Errorf("failed to read template %q: %w", req.TemplateID, err)
	}
	return tpl.Content, nil
}

// detectMode returns the engine's configured mode
func (s *Service) detectMode() Mode {
	if s.engine.Options().StrictMode {
		return ModeStrict
	}
	return ModeLenient
}

// validateRequest validates the request shape
func (s *Service) validateRequest(req *Request) error {
	if req == nil {
		return fmt.Errorf("request is nil")
	}

	if req.TemplateID == "" && req.Content == "" {
		return fmt.Errorf("template_id or content is required")
	}

	if req.TemplateID != "" && req.Content != "" {
		return fmt.Errorf("template_id and content are mutually exclusive")
	}

	switch req.Mode {
	case "", ModeStrict, ModeLenient:
	default:
		return fmt.Errorf("unknown mode: %s", req.Mode)
	}

	return nil
}

func (r *Request) target() string {
	if r.TemplateID != "" {
		return fmt.Sprintf("template %q", r.TemplateID)
	}
	return "inline template"
}

func joinIssues(issues []template.Issue) string {
	parts := make([]string, len(issues))
	for i, issue := range issues {
		parts[i] = issue.String()
	}
	return strings.Join(parts, "; ")
}

// ErrorKind returns a stable snake_case name for a render error, for error events
func ErrorKind(err error) string {
	kinds := []struct {
		target error
		name   string
	}{
		{ErrInvalidRequest, "invalid_request"},
		{ErrInvalidTemplate, "invalid_template"},
		{template.ErrCycleDetected, "cycle_detected"},
		{template.ErrDepthExceeded, "depth_exceeded"},
		{template.ErrInclusionBudgetExceeded, "inclusion_budget_exceeded"},
		{template.ErrIterationBudgetExceeded, "iteration_budget_exceeded"},
		{template.ErrTemplateNotFound, "template_not_found"},
		{template.ErrUnresolvedVariable, "unresolved_variable"},
		{template.ErrUnknownFilter, "unknown_filter"},
		{template.ErrFilterExecutionFailed, "filter_execution_failed"},
		{template.ErrScriptExecutionFailed, "script_execution_failed"},
		{template.ErrMalformedInput, "malformed_input"},
		{catalog.ErrNotFound, "template_not_found"},
		{context.DeadlineExceeded, "timeout"},
		{context.Canceled, "cancelled"},
	}
	for _, k := range kinds {
		if errors.Is(err, k.target) {
			return k.name
		}
	}
	return "internal"
}
