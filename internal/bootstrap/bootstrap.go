// Package bootstrap builds the storage and embedding components shared by the API server and the seeder.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/kailas-cloud/inquirydesk/internal/config"
	"github.com/kailas-cloud/inquirydesk/internal/db/postgres"
	dbValkey "github.com/kailas-cloud/inquirydesk/internal/db/valkey"
	"github.com/kailas-cloud/inquirydesk/internal/domain"
	domret "github.com/kailas-cloud/inquirydesk/internal/domain/retrieval"
	"github.com/kailas-cloud/inquirydesk/internal/metrics"
	"github.com/kailas-cloud/inquirydesk/internal/repository/embcache"
	inquiryrepo "github.com/kailas-cloud/inquirydesk/internal/repository/inquiry"
	"github.com/kailas-cloud/inquirydesk/internal/repository/knowledge"
	openaiEmb "github.com/kailas-cloud/inquirydesk/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/inquirydesk/internal/usecase/embedding"
	inquiryuc "github.com/kailas-cloud/inquirydesk/internal/usecase/inquiry"
)

// Resources holds the open database connections. Either may be nil when no component needs it.
type Resources struct {
	Valkey   *dbValkey.Store
	Postgres *pgxpool.Pool
	cfg      config.Config
}

// KnowledgeIndex is the reference-material index used by retrieval, health and the seeder.
type KnowledgeIndex interface {
	domret.Index
	Exists(ctx context.Context) (bool, error)
	EnsureIndex(ctx context.Context) error
	Upsert(ctx context.Context, entries []knowledge.Entry) error
	Drop(ctx context.Context) (int, error)
}

// Embedder is the assembled embedding chain.
type Embedder interface {
	domain.Embedder
	domain.BatchEmbedder
	domain.HealthChecker
}

// Pinger reports record store availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Open connects to every database the configured drivers need and waits until they respond.
func Open(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Resources, error) {
	res := &Resources{cfg: cfg}
	timeout := time.Duration(cfg.Database.ReadinessTimeout) * time.Second

	if needsValkey(cfg) {
		store, err := dbValkey.NewStore(dbValkey.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("create valkey store: %w", err)
		}
		res.Valkey = store
		if err := store.WaitForReady(ctx, timeout); err != nil {
			res.Close()
			return nil, fmt.Errorf("valkey not ready: %w", err)
		}
		logger.Info("Connected to Valkey", zap.Strings("addrs", cfg.Database.Addrs))
	}

	if needsPostgres(cfg) {
		pool, err := postgres.Open(ctx, postgres.Config{DSN: cfg.Database.DSN})
		if err != nil {
			res.Close()
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		res.Postgres = pool
		if err := postgres.WaitForReady(ctx, pool, timeout); err != nil {
			res.Close()
			return nil, fmt.Errorf("postgres not ready: %w", err)
		}
		logger.Info("Connected to Postgres")
	}

	return res, nil
}

// Close releases every open connection.
func (r *Resources) Close() {
	if r.Valkey != nil {
		r.Valkey.Close()
	}
	if r.Postgres != nil {
		r.Postgres.Close()
	}
}

// EnsureRecordSchema creates the inquiries table when records live in Postgres.
func (r *Resources) EnsureRecordSchema(ctx context.Context) error {
	if r.cfg.Database.Driver != config.DriverPostgres {
		return nil
	}
	if err := postgres.EnsureSchema(ctx, r.Postgres, postgres.SchemaConfig{WithInquiryRecord: true}); err != nil {
		return fmt.Errorf("inquiry schema: %w", err)
	}
	return nil
}

// RecordPinger returns the store holding inquiry records.
func (r *Resources) RecordPinger() Pinger {
	if r.cfg.Database.Driver == config.DriverPostgres {
		return r.Postgres
	}
	return r.Valkey
}

// InquiryRepository returns the record store for the configured database driver.
func (r *Resources) InquiryRepository() inquiryuc.Repository {
	if r.cfg.Database.Driver == config.DriverPostgres {
		return inquiryrepo.NewPostgres(r.Postgres)
	}
	return inquiryrepo.NewValkey(r.Valkey, r.cfg.Database.KeyPrefix)
}

// KnowledgeIndex returns the reference-material index for the configured vector index driver.
func (r *Resources) KnowledgeIndex() (KnowledgeIndex, error) {
	vi := r.cfg.VectorIndex
	hnsw := knowledge.HNSWConfig{M: vi.HNSWM, EFConstruct: vi.HNSWEFConstruct}

	switch vi.Driver {
	case config.DriverValkey:
		if r.Valkey == nil {
			return nil, errors.New("valkey index requested without a valkey connection")
		}
		return knowledge.NewValkeyIndex(r.Valkey, knowledge.ValkeyConfig{
			IndexName:  vi.Name,
			KeyPrefix:  r.cfg.Database.KeyPrefix,
			Dimensions: vi.Dimensions,
			HNSW:       hnsw,
		}), nil
	case config.DriverPGVector:
		if r.Postgres == nil {
			return nil, errors.New("pgvector index requested without a postgres connection")
		}
		return knowledge.NewPGVectorIndex(r.Postgres, knowledge.PGVectorConfig{
			Table:      vi.Table,
			Dimensions: vi.Dimensions,
			HNSW:       hnsw,
		}), nil
	default:
		return nil, fmt.Errorf("unknown vector index driver %q", vi.Driver)
	}
}

// Embedder assembles the decorator chain: OpenAI -> Cached -> Instrumented -> Instruction.
// The cache is skipped when disabled or when no Valkey connection is open.
func (r *Resources) Embedder(instruction string, logger *zap.Logger) Embedder {
	ec := r.cfg.Embedding

	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:            ec.APIKey,
		BaseURL:           ec.BaseURL,
		Model:             ec.Model,
		Dimensions:        ec.Dimensions,
		RequestDimensions: ec.RequestDimensions,
		Provider:          ec.Provider,
		Logger:            logger,
	})

	var embedder domain.Embedder = base
	if ec.CacheEnabled() && r.Valkey != nil {
		embedder = embcache.New(base, r.Valkey, embcache.Options{
			KeyPrefix: r.cfg.Database.KeyPrefix,
			Model:     ec.Model,
			TTL:       time.Duration(ec.CacheTTLSec) * time.Second,
		}, metrics.EmbeddingCacheTotal, logger)
	}

	instrumented := embeddinguc.NewInstrumentedEmbedder(embedder, ec.Provider, ec.Model, logger)

	// outermost, so the cache key includes the instruction
	if instruction != "" {
		return domain.NewInstructionEmbedder(instrumented, instruction)
	}
	return instrumented
}

func needsValkey(cfg config.Config) bool {
	return cfg.Database.Driver == config.DriverValkey ||
		cfg.VectorIndex.Driver == config.DriverValkey ||
		(cfg.Embedding.CacheEnabled() && len(cfg.Database.Addrs) > 0)
}

func needsPostgres(cfg config.Config) bool {
	return cfg.Database.Driver == config.DriverPostgres || cfg.VectorIndex.Driver == config.DriverPGVector
}
