package generation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/kailas-cloud/inquirydesk/internal/domain"
	domret "github.com/kailas-cloud/inquirydesk/internal/domain/retrieval"
	"github.com/kailas-cloud/inquirydesk/internal/domain/triage"
	"github.com/kailas-cloud/inquirydesk/internal/logger"
	"github.com/kailas-cloud/inquirydesk/internal/metrics"
)

// Fallback reasons reported in metrics and logs.
const (
	ReasonModelError      = "model_error"
	ReasonMalformedOutput = "malformed_output"
)

// Service drafts a structured triage result for an inquiry.
// It never fails: model and parse errors yield triage.GenerationFallback.
type Service struct {
	model  LanguageModel
	logger *zap.Logger
	tracer trace.Tracer
}

// New creates a generation service.
func New(model LanguageModel, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		model:  model,
		logger: log,
		tracer: otel.Tracer("inquirydesk.generation"),
	}
}

// Generate prompts the model with the inquiry and its context documents and parses the reply.
func (s *Service) Generate(ctx context.Context, query string, docs []domret.Document) triage.Result {
	log := logger.OrDefault(ctx, s.logger)

	ctx, span := s.tracer.Start(ctx, "inquirydesk.generation.generate", trace.WithAttributes(
		attribute.Int("context_documents", len(docs)),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		metrics.PipelineStageDuration.WithLabelValues("generate").Observe(time.Since(start).Seconds())
	}()

	raw, err := s.model.Complete(ctx, BuildMessages(query, docs), CompletionOptions{JSON: true})
	if err != nil {
		if !errors.Is(err, domain.ErrLanguageModelError) {
			err = fmt.Errorf("%w: %w", domain.ErrLanguageModelError, err)
		}
		return s.fallback(span, log, ReasonModelError, err)
	}

	res, err := ParseResult(raw)
	if err != nil {
		return s.fallback(span, log, ReasonMalformedOutput, err)
	}

	span.SetAttributes(
		attribute.String("category", res.Category),
		attribute.String("urgency", res.Urgency),
	)
	if !triage.KnownCategory(res.Category) || !triage.KnownUrgency(res.Urgency) {
		log.Info("Model returned a value outside the known vocabulary",
			zap.String("category", res.Category),
			zap.String("urgency", res.Urgency),
		)
	}
	return res
}

func (s *Service) fallback(span trace.Span, log *zap.Logger, reason string, err error) triage.Result {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	metrics.GenerationFallbacksTotal.WithLabelValues(reason).Inc()
	log.Warn("Generation failed, using fallback result",
		zap.String("reason", reason),
		zap.Error(err),
	)
	return triage.GenerationFallback()
}
