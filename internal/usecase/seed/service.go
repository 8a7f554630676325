package seed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/kailas-cloud/inquirydesk/internal/domain"
	"github.com/kailas-cloud/inquirydesk/internal/repository/knowledge"
)

// Options tunes batching, concurrency and retries.
type Options struct {
	BatchSize  int
	Workers    int
	MaxRetries uint64
	RetryDelay time.Duration
}

// Stats summarizes a seeding run.
type Stats struct {
	Documents int
	Skipped   int // duplicates by text
	Batches   int
	Failed    int // batches that exhausted their retries
}

// Service embeds reference documents and writes them to the knowledge index.
type Service struct {
	embedder Embedder
	index    Index
	opts     Options
	logger   *zap.Logger
}

// New creates a seeding service.
func New(embedder Embedder, index Index, opts Options, logger *zap.Logger) *Service {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 32
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{embedder: embedder, index: index, opts: opts, logger: logger}
}

// Run ensures the index exists, then embeds and upserts docs in parallel batches.
// Documents are keyed by text, so running twice overwrites instead of duplicating.
func (s *Service) Run(ctx context.Context, docs []Document) (Stats, error) {
	if err := s.index.EnsureIndex(ctx); err != nil {
		return Stats{}, fmt.Errorf("ensure index: %w", err)
	}

	entries, skipped := toEntries(docs)
	batches := split(entries, s.opts.BatchSize)
	stats := Stats{Documents: len(entries), Skipped: skipped, Batches: len(batches)}
	if len(batches) == 0 {
		return stats, nil
	}

	pool, err := ants.NewPool(s.opts.Workers)
	if err != nil {
		return stats, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for i, batch := range batches {
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if err := s.seedBatch(ctx, batch); err != nil {
				s.logger.Error("Seed batch failed", zap.Int("batch", i), zap.Int("size", len(batch)), zap.Error(err))
				mu.Lock()
				errs = append(errs, fmt.Errorf("batch %d: %w", i, err))
				mu.Unlock()
				return
			}
			s.logger.Debug("Seed batch written", zap.Int("batch", i), zap.Int("size", len(batch)))
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			errs = append(errs, fmt.Errorf("submit batch %d: %w", i, submitErr))
			mu.Unlock()
		}
	}
	wg.Wait()

	stats.Failed = len(errs)
	if len(errs) > 0 {
		return stats, errors.Join(errs...)
	}
	return stats, nil
}

func (s *Service) seedBatch(ctx context.Context, batch []knowledge.Entry) error {
	texts := make([]string, len(batch))
	for i, e := range batch {
		texts[i] = e.Text
	}

	var res domain.BatchEmbeddingResult
	err := retry.Do(ctx, s.backoff(), func(ctx context.Context) error {
		var embedErr error
		res, embedErr = s.embedder.BatchEmbed(ctx, texts)
		if embedErr != nil {
			if retryable(embedErr) {
				return retry.RetryableError(embedErr)
			}
			return embedErr
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}
	if len(res.Embeddings) != len(batch) {
		return fmt.Errorf("embed: got %d vectors for %d documents: %w",
			len(res.Embeddings), len(batch), domain.ErrEmbeddingProviderError)
	}

	for i := range batch {
		batch[i].Vector = res.Embeddings[i]
	}

	err = retry.Do(ctx, s.backoff(), func(ctx context.Context) error {
		if upsertErr := s.index.Upsert(ctx, batch); upsertErr != nil {
			return retry.RetryableError(upsertErr)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("upsert: %w", err)
	}
	return nil
}

func (s *Service) backoff() retry.Backoff {
	return retry.WithMaxRetries(s.opts.MaxRetries,
		retry.WithJitter(s.opts.RetryDelay/4, retry.NewExponential(s.opts.RetryDelay)))
}

// retryable reports whether an embedding failure may succeed on a later attempt.
// Dimension mismatches and cancellation never do.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, domain.ErrVectorDimMismatch) {
		return false
	}
	return errors.Is(err, domain.ErrEmbeddingProviderError)
}

func toEntries(docs []Document) ([]knowledge.Entry, int) {
	seen := make(map[string]struct{}, len(docs))
	entries := make([]knowledge.Entry, 0, len(docs))
	for _, d := range docs {
		id := knowledge.EntryID(d.Text)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		entries = append(entries, knowledge.Entry{ID: id, Text: d.Text, Metadata: d.Metadata})
	}
	return entries, len(docs) - len(entries)
}

func split(entries []knowledge.Entry, size int) [][]knowledge.Entry {
	var batches [][]knowledge.Entry
	for start := 0; start < len(entries); start += size {
		end := min(start+size, len(entries))
		batches = append(batches, entries[start:end])
	}
	return batches
}
