package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates inquiries are still answered, possibly without grounding context.
	Degraded Status = "degraded"
	// Unhealthy indicates results cannot be stored.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckMissing indicates the knowledge index has not been seeded.
	CheckMissing CheckResult = "missing"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	db        DBPinger
	index     IndexChecker
	embedding EmbeddingChecker
}

// New creates a Service. index and embedding can be nil.
func New(db DBPinger, index IndexChecker, embedding EmbeddingChecker) *Service {
	return &Service{db: db, index: index, embedding: embedding}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if err := s.db.Ping(ctx); err != nil {
		checks["database"] = CheckError
	} else {
		checks["database"] = CheckOK
	}

	if s.index != nil {
		exists, err := s.index.Exists(ctx)
		switch {
		case err != nil:
			checks["vector_index"] = CheckError
		case !exists:
			checks["vector_index"] = CheckMissing
		default:
			checks["vector_index"] = CheckOK
		}
	}

	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks["embedding"] = CheckError
		} else {
			checks["embedding"] = CheckOK
		}
	}

	if checks["database"] == CheckError {
		return Report{Status: Unhealthy, Checks: checks}
	}

	status := Healthy
	for _, v := range checks {
		if v != CheckOK {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}
