package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/Static-Index-Compiler/internal/compiler"
	"github.com/Adithya-Monish-Kumar-K/Static-Index-Compiler/internal/compiler/emit"
	"github.com/Adithya-Monish-Kumar-K/Static-Index-Compiler/internal/compiler/input"
	"github.com/Adithya-Monish-Kumar-K/Static-Index-Compiler/pkg/config"
	errs "github.com/Adithya-Monish-Kumar-K/Static-Index-Compiler/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Static-Index-Compiler/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Static-Index-Compiler/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Static-Index-Compiler/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Static-Index-Compiler/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/Static-Index-Compiler/pkg/redis"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	termsPath := flag.String("terms", "", "document-term stream file (overrides config)")
	documentsPath := flag.String("documents", "", "document content file (overrides config)")
	outputDir := flag.String("output", "", "artifact output directory (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(errs.ExitConfig)
	}
	if *termsPath != "" {
		cfg.Input.TermsPath = *termsPath
	}
	if *documentsPath != "" {
		cfg.Input.DocumentsPath = *documentsPath
	}
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting index build",
		"terms", cfg.Input.TermsPath,
		"document_source", cfg.Input.DocumentSource,
		"output", cfg.Output.Dir,
	)

	m := metrics.New()
	if cfg.Metrics.Enabled {
		shutdown := metrics.StartServer(cfg.Metrics.Port)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(ctx)
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	if err := run(ctx, cfg, m); err != nil {
		m.BuildsTotal.WithLabelValues("error").Inc()
		slog.Error("build failed", "error", err, "elapsed", time.Since(start))
		os.Exit(errs.ExitCode(err))
	}
	m.BuildsTotal.WithLabelValues("success").Inc()
	slog.Info("build complete", "elapsed", time.Since(start))
}

func run(ctx context.Context, cfg *config.Config, m *metrics.Metrics) error {
	termsFile, err := os.Open(cfg.Input.TermsPath)
	if err != nil {
		return errs.Newf(errs.ErrConfig, "input", "opening term stream: %v", err)
	}
	defer termsFile.Close()
	terms := input.NewTermsReader(termsFile)

	var docs input.DocumentSource
	switch cfg.Input.DocumentSource {
	case "postgres":
		pg, err := postgres.New(cfg.Postgres)
		if err != nil {
			return errs.Newf(errs.ErrConfig, "input", "connecting to postgres: %v", err)
		}
		defer pg.Close()
		src, err := input.NewPostgresDocuments(ctx, pg, cfg.Input.DocumentQuery, cfg.Build.DocumentEncoding)
		if err != nil {
			return errs.Newf(errs.ErrConfig, "input", "opening document query: %v", err)
		}
		defer src.Close()
		docs = src
	default:
		docsFile, err := os.Open(cfg.Input.DocumentsPath)
		if err != nil {
			return errs.Newf(errs.ErrConfig, "input", "opening document stream: %v", err)
		}
		defer docsFile.Close()
		docs = input.NewDocumentsReader(docsFile, cfg.Build.DocumentEncoding)
	}

	artifacts, err := compiler.New(cfg.Build, m).Run(ctx, terms, docs)
	if err != nil {
		return err
	}

	manifest, err := emit.NewDirWriter(cfg.Output.Dir).Write(
		artifacts.Sets, artifacts.Params, artifacts.DocumentCount, artifacts.TermCount)
	if err != nil {
		return err
	}

	// The directory is committed; the remaining publishers are independent
	// of each other but each failure still fails the build.
	g, gctx := errgroup.WithContext(ctx)
	if cfg.Output.PublishKV {
		g.Go(func() error {
			client, err := redis.NewClient(cfg.Redis)
			if err != nil {
				m.PublishesTotal.WithLabelValues("kv", "error").Inc()
				return errs.Newf(errs.ErrPublishFailed, "publish-kv", "connecting to redis: %v", err)
			}
			defer client.Close()
			if err := emit.NewKVPublisher(client, cfg.Redis.KeyPrefix).Publish(gctx, artifacts.Sets); err != nil {
				m.PublishesTotal.WithLabelValues("kv", "error").Inc()
				return err
			}
			m.PublishesTotal.WithLabelValues("kv", "success").Inc()
			return nil
		})
	}
	if cfg.Output.AnnounceBuild {
		g.Go(func() error {
			producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.BuildComplete)
			defer producer.Close()
			event := kafka.Event{
				Key: emit.Documents,
				Value: emit.BuildComplete{
					Manifest: manifest,
					Dir:      cfg.Output.Dir,
					KVPrefix: cfg.Redis.KeyPrefix,
				},
			}
			if err := producer.Publish(gctx, event); err != nil {
				m.PublishesTotal.WithLabelValues("kafka", "error").Inc()
				return errs.Newf(errs.ErrPublishFailed, "announce", "publishing completion event: %v", err)
			}
			m.PublishesTotal.WithLabelValues("kafka", "success").Inc()
			return nil
		})
	}
	return g.Wait()
}
