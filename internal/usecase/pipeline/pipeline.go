package pipeline

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	domret "github.com/kailas-cloud/inquirydesk/internal/domain/retrieval"
	"github.com/kailas-cloud/inquirydesk/internal/domain/triage"
	"github.com/kailas-cloud/inquirydesk/internal/logger"
	"github.com/kailas-cloud/inquirydesk/internal/metrics"
)

type stage struct {
	name string
	run  func(ctx context.Context, st *State) error
}

// Pipeline runs retrieve then generate for one inquiry and always returns a result.
// It holds no per-run state and is safe for concurrent use.
type Pipeline struct {
	retriever Retriever
	generator Generator
	topK      int
	logger    *zap.Logger
	tracer    trace.Tracer
	stages    []stage
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithTopK sets how many documents the retrieve stage asks for.
func WithTopK(k int) Option {
	return func(p *Pipeline) {
		if k > 0 {
			p.topK = k
		}
	}
}

// WithLogger sets the fallback logger used when the context carries none.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// New wires the two stages.
func New(retriever Retriever, generator Generator, opts ...Option) *Pipeline {
	p := &Pipeline{
		retriever: retriever,
		generator: generator,
		topK:      domret.DefaultK,
		logger:    zap.NewNop(),
		tracer:    otel.Tracer("inquirydesk.pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.stages = []stage{
		{name: "retrieve", run: p.retrieve},
		{name: "generate", run: p.generate},
	}
	return p
}

// Process classifies the inquiry and drafts a reply.
// Stage failures, cancellation and panics all yield triage.ProcessingFallback.
func (p *Pipeline) Process(ctx context.Context, userMessage string) (res triage.Result) {
	log := logger.OrDefault(ctx, p.logger)
	start := time.Now()

	ctx, span := p.tracer.Start(ctx, "inquirydesk.pipeline.process", trace.WithAttributes(
		attribute.Int("message_length", len(userMessage)),
		attribute.Int("top_k", p.topK),
	))
	defer span.End()

	log.Info("Inquiry processing started", zap.Int("message_length", len(userMessage)))

	outcome := metrics.OutcomeOK
	defer func() {
		if r := recover(); r != nil {
			log.Error("Inquiry processing panicked",
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
			res, outcome = p.fail(span, fmt.Errorf("panic: %v", r)), metrics.OutcomeProcessingFallback
		}
		metrics.PipelineRunsTotal.WithLabelValues(outcome).Inc()
		span.SetAttributes(attribute.String("outcome", outcome))
		log.Info("Inquiry processing finished",
			zap.String("outcome", outcome),
			zap.String("category", res.Category),
			zap.String("urgency", res.Urgency),
			zap.Duration("duration", time.Since(start)),
		)
	}()

	res, err := p.run(ctx, NewState(userMessage))
	if err != nil {
		log.Error("Inquiry processing failed", zap.Error(err))
		outcome = metrics.OutcomeProcessingFallback
		return p.fail(span, err)
	}
	// Labelled by value: a model answer identical to the fallback payload also counts as a fallback.
	// The generator's own fallback counter carries the exact reason.
	if res == triage.GenerationFallback() {
		outcome = metrics.OutcomeGenerationFallback
	}
	return res
}

func (p *Pipeline) run(ctx context.Context, st *State) (triage.Result, error) {
	for _, s := range p.stages {
		if err := ctx.Err(); err != nil {
			return triage.Result{}, fmt.Errorf("before %s: %w", s.name, err)
		}
		if err := s.run(ctx, st); err != nil {
			return triage.Result{}, fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return st.Response() //nolint:wrapcheck // sentinel
}

func (p *Pipeline) retrieve(ctx context.Context, st *State) error {
	return st.SetContext(p.retriever.Retrieve(ctx, st.UserMessage(), p.topK))
}

func (p *Pipeline) generate(ctx context.Context, st *State) error {
	return st.SetResponse(p.generator.Generate(ctx, st.UserMessage(), st.Context()))
}

func (p *Pipeline) fail(span trace.Span, err error) triage.Result {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return triage.ProcessingFallback(err.Error())
}
