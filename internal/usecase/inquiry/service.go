package inquiry

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/inquirydesk/internal/domain"
	dominq "github.com/kailas-cloud/inquirydesk/internal/domain/inquiry"
)

// Service processes and manages customer inquiries.
type Service struct {
	repo            Repository
	processor       Processor
	timeout         time.Duration
	defaultPageSize int
	maxPageSize     int
	now             func() time.Time
}

// New creates an inquiry service.
func New(repo Repository, processor Processor) *Service {
	return &Service{
		repo:            repo,
		processor:       processor,
		defaultPageSize: 100,
		maxPageSize:     1000,
		now:             time.Now,
	}
}

// WithTimeout bounds each pipeline run. Zero disables the bound.
func (s *Service) WithTimeout(d time.Duration) *Service {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// WithPagination configures page size limits.
func (s *Service) WithPagination(defaultPageSize, maxPageSize int) *Service {
	if defaultPageSize > 0 {
		s.defaultPageSize = defaultPageSize
	}
	if maxPageSize > 0 {
		s.maxPageSize = maxPageSize
	}
	return s
}

// Process runs the pipeline for the message and stores the result.
// Pipeline failures are already folded into the result; only storage errors are returned.
func (s *Service) Process(ctx context.Context, userMessage string) (dominq.Inquiry, error) {
	runCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	res := s.processor.Process(runCtx, userMessage)

	created, err := s.repo.Create(ctx, dominq.NewProcessed(userMessage, res, s.now()))
	if err != nil {
		return dominq.Inquiry{}, fmt.Errorf("store processed inquiry: %w", err)
	}
	return created, nil
}

// Create stores an inquiry without processing it.
func (s *Service) Create(ctx context.Context, userMessage string) (dominq.Inquiry, error) {
	created, err := s.repo.Create(ctx, dominq.New(userMessage, s.now()))
	if err != nil {
		return dominq.Inquiry{}, fmt.Errorf("store inquiry: %w", err)
	}
	return created, nil
}

// Get returns one inquiry.
func (s *Service) Get(ctx context.Context, id int64) (dominq.Inquiry, error) {
	inq, err := s.repo.Get(ctx, id)
	if err != nil {
		return dominq.Inquiry{}, fmt.Errorf("get inquiry %d: %w", id, err)
	}
	return inq, nil
}

// List returns a page of inquiries, newest first.
// limit <= 0 uses the default page size; larger than the maximum is clamped.
func (s *Service) List(ctx context.Context, skip, limit int) ([]dominq.Inquiry, error) {
	if skip < 0 {
		return nil, fmt.Errorf("skip must not be negative: %w", domain.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = s.defaultPageSize
	}
	if limit > s.maxPageSize {
		limit = s.maxPageSize
	}

	items, err := s.repo.List(ctx, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("list inquiries: %w", err)
	}
	return items, nil
}

// Delete removes one inquiry.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete inquiry %d: %w", id, err)
	}
	return nil
}

// Reset removes all inquiries and returns how many were deleted.
func (s *Service) Reset(ctx context.Context) (int, error) {
	n, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("reset inquiries: %w", err)
	}
	return n, nil
}
