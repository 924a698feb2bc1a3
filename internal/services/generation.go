package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	types "github.com/yungbote/studynotes-backend/internal/domain"
	"github.com/yungbote/studynotes-backend/internal/modules/studycoach/prompts"
	"github.com/yungbote/studynotes-backend/internal/observability"
	"github.com/yungbote/studynotes-backend/internal/platform/ctxutil"
	"github.com/yungbote/studynotes-backend/internal/platform/logger"
	"github.com/yungbote/studynotes-backend/internal/platform/openai"
)

const (
	OpNotes    = "notes"
	OpMCQs     = "mcqs"
	OpFeedback = "feedback"

	minQuestions = 3
	maxQuestions = 5
)

// GenerationService is the AI gateway. Every method either returns a usable value or a
// *domain.ValidationError (no network call made) or a *domain.GenerationError.
type GenerationService interface {
	GenerateNotes(ctx context.Context, topic string) (string, error)
	GenerateMCQs(ctx context.Context, notes string) ([]types.MCQ, error)
	GenerateFeedback(ctx context.Context, notes string) (string, error)
}

type generationService struct {
	log    *logger.Logger
	ai     openai.Client
	tracer trace.Tracer
}

func NewGenerationService(log *logger.Logger, ai openai.Client) GenerationService {
	return &generationService{
		log:    log.With("service", "GenerationService"),
		ai:     ai,
		tracer: observability.Tracer(),
	}
}

func (s *generationService) GenerateNotes(ctx context.Context, topic string) (string, error) {
	if strings.TrimSpace(topic) == "" {
		return "", types.ErrTopicRequired
	}
	ctx, span := s.start(ctx, OpNotes)
	defer span.End()
	start := time.Now()

	p, err := prompts.Build(prompts.PromptLessonNotes, prompts.Input{Topic: topic})
	if err != nil {
		return "", s.fail(ctx, span, OpNotes, types.MsgNotesFailed, start, err)
	}
	s.prompted(ctx, span, OpNotes, p)
	text, err := s.ai.GenerateText(ctx, p.System, p.User)
	if err != nil {
		return "", s.fail(ctx, span, OpNotes, types.MsgNotesFailed, start, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", s.fail(ctx, span, OpNotes, types.MsgNotesFailed, start, fmt.Errorf("empty notes"))
	}
	s.ok(ctx, span, OpNotes, start, "chars", len(text))
	return text, nil
}

type mcqEnvelope struct {
	MCQs []types.MCQ `json:"mcqs"`
}

func (s *generationService) GenerateMCQs(ctx context.Context, notes string) ([]types.MCQ, error) {
	if strings.TrimSpace(notes) == "" {
		return nil, types.ErrNotesRequiredForMCQs
	}
	ctx, span := s.start(ctx, OpMCQs)
	defer span.End()
	start := time.Now()

	p, err := prompts.Build(prompts.PromptMCQSet, prompts.Input{
		Notes:        notes,
		MinQuestions: minQuestions,
		MaxQuestions: maxQuestions,
		OptionCount:  types.MCQOptionCount,
	})
	if err != nil {
		return nil, s.fail(ctx, span, OpMCQs, types.MsgMCQsFailed, start, err)
	}
	if !p.IsJSON() {
		return nil, s.fail(ctx, span, OpMCQs, types.MsgMCQsFailed, start, fmt.Errorf("prompt %s has no output schema", p.Name))
	}
	s.prompted(ctx, span, OpMCQs, p)
	obj, err := s.ai.GenerateJSON(ctx, p.System, p.User, p.SchemaName, p.Schema)
	if err != nil {
		return nil, s.fail(ctx, span, OpMCQs, types.MsgMCQsFailed, start, err)
	}
	qs, err := parseMCQs(obj)
	if err != nil {
		s.invalid(ctx, span, OpMCQs, start)
		return nil, &types.GenerationError{Op: OpMCQs, Message: types.MsgMCQsFailed, Err: err}
	}
	s.ok(ctx, span, OpMCQs, start, "questions", len(qs))
	return qs, nil
}

// parseMCQs decodes and validates a {mcqs: [...]} object. One bad question rejects
// the whole set.
func parseMCQs(obj map[string]any) ([]types.MCQ, error) {
	if obj == nil {
		return nil, fmt.Errorf("empty response")
	}
	raw, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("re-encode: %w", err)
	}
	var env mcqEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode mcqs: %w", err)
	}
	if len(env.MCQs) == 0 {
		return nil, fmt.Errorf("no questions returned")
	}
	out := make([]types.MCQ, 0, len(env.MCQs))
	for i, q := range env.MCQs {
		q = q.Normalized()
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("question %d: %w", i, err)
		}
		out = append(out, q)
	}
	return out, nil
}

func (s *generationService) GenerateFeedback(ctx context.Context, notes string) (string, error) {
	if strings.TrimSpace(notes) == "" {
		return "", types.ErrNotesRequiredForFeedback
	}
	ctx, span := s.start(ctx, OpFeedback)
	defer span.End()
	start := time.Now()

	p, err := prompts.Build(prompts.PromptNotesFeedback, prompts.Input{Notes: notes})
	if err != nil {
		return "", s.fail(ctx, span, OpFeedback, types.MsgFeedbackFailed, start, err)
	}
	s.prompted(ctx, span, OpFeedback, p)
	text, err := s.ai.GenerateText(ctx, p.System, p.User)
	if err != nil {
		return "", s.fail(ctx, span, OpFeedback, types.MsgFeedbackFailed, start, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", s.fail(ctx, span, OpFeedback, types.MsgFeedbackFailed, start, fmt.Errorf("empty feedback"))
	}
	s.ok(ctx, span, OpFeedback, start, "chars", len(text))
	return text, nil
}

func (s *generationService) start(ctx context.Context, op string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{attribute.String("generation.op", op)}
	if req := ctxutil.RequestFrom(ctx); req != nil && req.LessonID != "" {
		attrs = append(attrs, attribute.String("lesson.id", req.LessonID))
	}
	return s.tracer.Start(ctx, "generation."+op, trace.WithAttributes(attrs...))
}

// prompted tags the span and the debug log with the rendered prompt's identity.
func (s *generationService) prompted(ctx context.Context, span trace.Span, op string, p prompts.Prompt) {
	fp := p.Fingerprint()
	span.SetAttributes(
		attribute.String("prompt.name", p.Name),
		attribute.Int("prompt.version", p.Version),
		attribute.String("prompt.fingerprint", fp),
	)
	s.log.Debug("Prompt rendered", append([]any{"op", op, "prompt", p.Name, "prompt_version", p.Version, "prompt_fingerprint", fp}, ctxutil.LogFields(ctx)...)...)
}

// ok closes a successful call. key/n is one result measure, e.g. ("questions", 4).
func (s *generationService) ok(ctx context.Context, span trace.Span, op string, start time.Time, key string, n int) {
	dur := time.Since(start)
	span.SetAttributes(attribute.Int("generation."+key, n))
	span.SetStatus(codes.Ok, "")
	observability.Current().ObserveGeneration(op, "ok", dur)
	s.log.Info("Generation succeeded", append([]any{"op", op, "duration_ms", dur.Milliseconds(), key, n}, ctxutil.LogFields(ctx)...)...)
}

func (s *generationService) invalid(ctx context.Context, span trace.Span, op string, start time.Time) {
	span.SetStatus(codes.Error, "invalid model output")
	observability.Current().ObserveGeneration(op, "invalid", time.Since(start))
	s.log.Warn("Generation returned invalid output", append([]any{"op", op}, ctxutil.LogFields(ctx)...)...)
}

func (s *generationService) fail(ctx context.Context, span trace.Span, op, msg string, start time.Time, cause error) error {
	span.RecordError(cause)
	span.SetStatus(codes.Error, msg)
	observability.Current().ObserveGeneration(op, "error", time.Since(start))
	s.log.Error("Generation failed", append([]any{"op", op, "error", cause}, ctxutil.LogFields(ctx)...)...)
	return &types.GenerationError{Op: op, Message: msg, Err: cause}
}
