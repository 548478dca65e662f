package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/elormyevu/nku-gateway/pkg/audit"
	"github.com/elormyevu/nku-gateway/pkg/clientid"
	"github.com/elormyevu/nku-gateway/pkg/prompt"
	"github.com/elormyevu/nku-gateway/pkg/quota"
	"github.com/elormyevu/nku-gateway/pkg/sanitize"
	"github.com/elormyevu/nku-gateway/pkg/telemetry/metrics"
)

// genericGenerationMessage is the single message for model failures and
// output-guard rejections; the underlying model response is never returned,
// even partially.
const genericGenerationMessage = "Generation failed, please try again"

// Config wires the gateway's collaborators. Everything is constructed once
// at startup and passed in; the gateway performs no ambient lookups.
type Config struct {
	// Validator performs input validation. Required.
	Validator *sanitize.Validator

	// Guard validates model output. Required.
	Guard *prompt.Guard

	// Resolver extracts client identifiers. Required.
	Resolver *clientid.Resolver

	// Quota is the dual-backend quota store. Required.
	Quota *quota.Store

	// Model performs the out-of-scope inference call. Required.
	Model ModelCaller

	// Limits are echoed in quota denial messages.
	Limits quota.Limits

	// Audit records rejections server-side. Optional.
	Audit *audit.Recorder

	// Metrics receives counters and stage timings. Optional.
	Metrics *metrics.Metrics

	// Logger receives structured logs. Nil falls back to slog.Default.
	Logger *slog.Logger
}

// Gateway runs the security pipeline around a model call. It starts no
// goroutines and holds no per-request state; one instance serves all
// requests concurrently.
type Gateway struct {
	validator *sanitize.Validator
	guard     *prompt.Guard
	resolver  *clientid.Resolver
	quota     *quota.Store
	model     ModelCaller
	limits    quota.Limits
	audit     *audit.Recorder
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// New creates a Gateway from cfg.
func New(cfg Config) (*Gateway, error) {
	if cfg.Validator == nil {
		return nil, fmt.Errorf("validator is required")
	}
	if cfg.Guard == nil {
		return nil, fmt.Errorf("output guard is required")
	}
	if cfg.Resolver == nil {
		return nil, fmt.Errorf("client resolver is required")
	}
	if cfg.Quota == nil {
		return nil, fmt.Errorf("quota store is required")
	}
	if cfg.Model == nil {
		return nil, fmt.Errorf("model caller is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	limits := cfg.Limits
	if limits.RequestsPerMinute <= 0 || limits.RequestsPerHour <= 0 {
		limits = quota.DefaultLimits()
	}

	return &Gateway{
		validator: cfg.Validator,
		guard:     cfg.Guard,
		resolver:  cfg.Resolver,
		quota:     cfg.Quota,
		model:     cfg.Model,
		limits:    limits,
		audit:     cfg.Audit,
		metrics:   cfg.Metrics,
		logger:    logger.With("component", "gateway"),
	}, nil
}

// Handle runs one request through the full pipeline. The returned error, if
// any, is a *Rejection carrying a stable kind and a safe message; internal
// causes are logged and recorded server-side only.
func (g *Gateway) Handle(ctx context.Context, req *Request) (*Result, error) {
	st := &pipelineState{req: req}

	if err := g.runPipeline(ctx, st); err != nil {
		return nil, err
	}

	return &Result{
		Output:   st.output,
		ClientID: st.clientID,
		Warnings: st.warnings,
	}, nil
}

// ----------------------------------------------------------------------------
// Stages
// ----------------------------------------------------------------------------

func (g *Gateway) resolveClient(_ context.Context, st *pipelineState) error {
	st.clientID = g.resolver.Resolve(st.req.Metadata)
	return nil
}

func (g *Gateway) checkQuota(ctx context.Context, st *pipelineState) error {
	decision := g.quota.CheckAndRecord(ctx, st.clientID)
	if decision.Allowed {
		return nil
	}

	limit := g.limits.RequestsPerMinute
	if decision.Window == quota.WindowHour {
		limit = g.limits.RequestsPerHour
	}

	g.logger.Warn("rate limit exceeded",
		"client_id", st.clientID,
		"window", string(decision.Window))
	g.recordRejection(KindRateLimitExceeded, string(decision.Window), "", st.clientID)

	return &Rejection{
		Kind: KindRateLimitExceeded,
		Message: fmt.Sprintf("Rate limit exceeded: %d requests per %s",
			limit, decision.Window),
		RetryAfter: decision.RetryAfter,
	}
}

func (g *Gateway) validateInput(_ context.Context, st *pipelineState) error {
	switch st.req.Task {
	case TaskTranslate:
		return g.validateTranslate(st)
	case TaskTriage:
		return g.validateTriage(st)
	default:
		return &Rejection{
			Kind:    KindValidationError,
			Message: fmt.Sprintf("Unknown task %q", st.req.Task),
		}
	}
}

func (g *Gateway) validateTranslate(st *pipelineState) error {
	source := g.validator.ValidateLanguage(st.req.SourceLanguage)
	if !source.Valid {
		return g.validationRejection(source, st)
	}
	target := g.validator.ValidateLanguage(st.req.TargetLanguage)
	if !target.Valid {
		return g.validationRejection(target, st)
	}
	if source.Sanitized != "en" && target.Sanitized != "en" {
		return &Rejection{
			Kind:    KindValidationError,
			Message: "One side of the translation must be English",
		}
	}

	text := g.validator.ValidateText(st.req.Text, 0)
	if g.metrics != nil {
		g.metrics.RecordValidation(text.Valid)
	}
	if !text.Valid {
		return g.validationRejection(text, st)
	}

	st.sourceLang = source.Sanitized
	st.targetLang = target.Sanitized
	st.sanitized = text.Sanitized
	st.warnings = append(st.warnings, text.Warnings...)
	return nil
}

func (g *Gateway) validateTriage(st *pipelineState) error {
	result := g.validator.ValidateSymptoms(st.req.Text)
	if g.metrics != nil {
		g.metrics.RecordValidation(result.Valid)
	}
	if !result.Valid {
		return g.validationRejection(result, st)
	}

	st.sanitized = result.Sanitized
	st.warnings = append(st.warnings, result.Warnings...)
	return nil
}

func (g *Gateway) buildPrompt(_ context.Context, st *pipelineState) error {
	var (
		kind prompt.Kind
		opts prompt.Options
	)

	switch st.req.Task {
	case TaskTranslate:
		opts = prompt.Options{
			SourceLanguage: st.sourceLang,
			TargetLanguage: st.targetLang,
			Glossary:       st.req.Glossary,
		}
		if st.targetLang == "en" {
			kind = prompt.KindTranslateToEnglish
		} else {
			kind = prompt.KindTranslateFromEnglish
		}
	case TaskTriage:
		kind = prompt.KindTriage
	}

	p, err := prompt.Build(kind, st.sanitized, opts)
	if err != nil {
		// Unreachable with a validated task; treat as a generation failure
		// rather than exposing internals.
		g.logger.Error("prompt build failed", "error", err)
		return &Rejection{Kind: KindGenerationFailed, Message: genericGenerationMessage}
	}

	st.promptText = p.String()
	return nil
}

func (g *Gateway) callModel(ctx context.Context, st *pipelineState) error {
	output, err := g.model.Call(ctx, st.promptText)
	if err != nil {
		g.logger.Error("model call failed",
			"error", err,
			"client_id", st.clientID)
		return &Rejection{Kind: KindGenerationFailed, Message: genericGenerationMessage}
	}

	st.rawOutput = output
	return nil
}

func (g *Gateway) validateOutput(_ context.Context, st *pipelineState) error {
	verdict := g.guard.Validate(st.rawOutput)
	if !verdict.Accepted {
		if g.metrics != nil {
			g.metrics.RecordOutputRejection("guard")
		}
		g.recordRejection(KindGenerationFailed, "output_guard", st.rawOutput, st.clientID)
		return &Rejection{Kind: KindGenerationFailed, Message: genericGenerationMessage}
	}

	st.output = verdict.CleanedText
	return nil
}

// ----------------------------------------------------------------------------
// Rejection plumbing
// ----------------------------------------------------------------------------

// validationRejection converts an invalid ValidationResult into a Rejection.
// Security rejections (Reason set) are recorded server-side with the rule
// category and input hash, but their outward shape is identical to ordinary
// input errors.
func (g *Gateway) validationRejection(result sanitize.ValidationResult, st *pipelineState) error {
	if result.Reason != "" {
		if g.metrics != nil {
			g.metrics.RecordSecurityRejection(string(result.Reason))
		}
		var inputText string
		if st.req.Text != nil {
			inputText = *st.req.Text
		}
		g.recordRejection(KindValidationError, string(result.Reason), inputText, st.clientID)
	}

	return &Rejection{
		Kind:    KindValidationError,
		Message: strings.Join(result.Errors, "; "),
	}
}

func (g *Gateway) recordRejection(kind, category, inputText, clientID string) {
	if g.audit == nil {
		return
	}
	g.audit.Record(kind, category, inputText, clientID)
}
