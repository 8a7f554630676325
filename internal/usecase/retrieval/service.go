package retrieval

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	domret "github.com/kailas-cloud/inquirydesk/internal/domain/retrieval"
	"github.com/kailas-cloud/inquirydesk/internal/logger"
	"github.com/kailas-cloud/inquirydesk/internal/metrics"
)

// Service turns a query into the k most similar reference documents.
// It never fails: embedding and index errors degrade to an empty result.
type Service struct {
	embedder Embedder
	index    Index
	logger   *zap.Logger
	tracer   trace.Tracer
}

// New creates a retrieval service.
func New(embedder Embedder, index Index, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		embedder: embedder,
		index:    index,
		logger:   log,
		tracer:   otel.Tracer("inquirydesk.retrieval"),
	}
}

// Retrieve returns at most k documents in descending similarity. k <= 0 uses domret.DefaultK.
func (s *Service) Retrieve(ctx context.Context, query string, k int) []domret.Document {
	if k <= 0 {
		k = domret.DefaultK
	}
	log := logger.OrDefault(ctx, s.logger)

	ctx, span := s.tracer.Start(ctx, "inquirydesk.retrieval.retrieve", trace.WithAttributes(
		attribute.Int("top_k", k),
		attribute.Int("query_length", len(query)),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		metrics.PipelineStageDuration.WithLabelValues("retrieve").Observe(time.Since(start).Seconds())
	}()

	res, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return s.degrade(span, log, "embed", err)
	}

	matches, err := s.index.Search(ctx, res.Embedding, k)
	if err != nil {
		return s.degrade(span, log, "search", err)
	}

	docs := domret.Rank(matches, k)
	span.SetAttributes(attribute.Int("documents", len(docs)))
	metrics.RetrievedDocuments.Observe(float64(len(docs)))

	log.Debug("Retrieval completed",
		zap.Int("top_k", k),
		zap.Int("matches", len(matches)),
		zap.Int("documents", len(docs)),
		zap.Duration("duration", time.Since(start)),
	)
	return docs
}

func (s *Service) degrade(span trace.Span, log *zap.Logger, step string, err error) []domret.Document {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	metrics.RetrievalFailuresTotal.WithLabelValues(step).Inc()
	metrics.RetrievedDocuments.Observe(0)
	log.Warn("Retrieval failed, continuing without context",
		zap.String("step", step),
		zap.Error(err),
	)
	return []domret.Document{}
}
