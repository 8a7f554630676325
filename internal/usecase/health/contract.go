package health

import "context"

// DBPinger checks record store availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// IndexChecker reports whether the knowledge index has been created.
type IndexChecker interface {
	Exists(ctx context.Context) (bool, error)
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}
