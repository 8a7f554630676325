package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/inquirydesk/internal/bootstrap"
	"github.com/kailas-cloud/inquirydesk/internal/config"
	logpkg "github.com/kailas-cloud/inquirydesk/internal/logger"
	"github.com/kailas-cloud/inquirydesk/internal/metrics"
	"github.com/kailas-cloud/inquirydesk/internal/usecase/seed"
	"github.com/kailas-cloud/inquirydesk/internal/version"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "seeder",
		Usage:   "Load reference documents into the inquirydesk knowledge index",
		Version: version.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env",
				Aliases: []string{"e"},
				Usage:   "Config environment (config/<env>.yaml)",
				Value:   config.GetEnv(),
				EnvVars: []string{"ENV"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "seed",
				Usage:  "Embed documents from a YAML file and upsert them into the index",
				Action: seedCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "YAML file with a top-level documents list",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Documents per embedding request",
						Value: 32,
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent batches",
						Value: 4,
					},
					&cli.Uint64Flag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts per batch",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: time.Second,
					},
				},
			},
			{
				Name:   "drop",
				Usage:  "Remove the knowledge index and its documents",
				Action: dropCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "yes",
						Usage: "Confirm the deletion",
					},
				},
			},
			{
				Name:   "status",
				Usage:  "Report whether the knowledge index exists",
				Action: statusCommand,
			},
		},
	}
}

type session struct {
	cfg    config.Config
	logger *zap.Logger
	res    *bootstrap.Resources
	index  bootstrap.KnowledgeIndex
}

func openSession(c *cli.Context) (*session, error) {
	env := c.String("env")
	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	res, err := bootstrap.Open(c.Context, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open databases: %w", err)
	}

	index, err := res.KnowledgeIndex()
	if err != nil {
		res.Close()
		return nil, fmt.Errorf("knowledge index: %w", err)
	}

	return &session{cfg: cfg, logger: logger, res: res, index: index}, nil
}

func (s *session) close() {
	s.res.Close()
	_ = s.logger.Sync()
}

func seedCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	c.Context = ctx

	docs, err := seed.LoadFile(c.String("file"))
	if err != nil {
		return err
	}

	s, err := openSession(c)
	if err != nil {
		return err
	}
	defer s.close()

	metrics.RegisterEmbeddingMetrics()

	embedder := s.res.Embedder(s.cfg.Embedding.DocumentInstruction, s.logger)
	svc := seed.New(embedder, s.index, seed.Options{
		BatchSize:  c.Int("batch-size"),
		Workers:    c.Int("workers"),
		MaxRetries: c.Uint64("max-retries"),
		RetryDelay: c.Duration("retry-delay"),
	}, s.logger)

	s.logger.Info("Seeding knowledge index",
		zap.String("driver", s.cfg.VectorIndex.Driver),
		zap.String("index", s.cfg.VectorIndex.Name),
		zap.Int("documents", len(docs)),
	)

	start := time.Now()
	stats, err := svc.Run(ctx, docs)
	s.logger.Info("Seeding finished",
		zap.Int("documents", stats.Documents),
		zap.Int("skipped", stats.Skipped),
		zap.Int("batches", stats.Batches),
		zap.Int("failed_batches", stats.Failed),
		zap.Duration("duration", time.Since(start)),
	)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	return nil
}

func dropCommand(c *cli.Context) error {
	if !c.Bool("yes") {
		return errors.New("refusing to drop the index without --yes")
	}

	s, err := openSession(c)
	if err != nil {
		return err
	}
	defer s.close()

	n, err := s.index.Drop(c.Context)
	if err != nil {
		return fmt.Errorf("drop index: %w", err)
	}
	s.logger.Info("Knowledge index dropped",
		zap.String("driver", s.cfg.VectorIndex.Driver),
		zap.String("index", s.cfg.VectorIndex.Name),
		zap.Int("documents", n),
	)
	return nil
}

func statusCommand(c *cli.Context) error {
	s, err := openSession(c)
	if err != nil {
		return err
	}
	defer s.close()

	ctx, cancel := context.WithTimeout(c.Context, 10*time.Second)
	defer cancel()

	ok, err := s.index.Exists(ctx)
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}

	state := "missing"
	if ok {
		state = "ok"
	}
	fmt.Fprintf(c.App.Writer, "%s index %q: %s\n", s.cfg.VectorIndex.Driver, s.cfg.VectorIndex.Name, state)
	return nil
}
