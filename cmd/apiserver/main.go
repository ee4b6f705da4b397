// Command apiserver runs the §6 HTTP JSON API: preference management,
// conversational discovery, and on-demand pipeline steps. Wiring mirrors
// mcpserver.New/Start (internal/mcpserver/server.go) — AWS config load,
// otelaws instrumentation, async secrets load so the listener comes up
// immediately, then ListenAndServe — generalized from the MCP tool-call
// server to the plain chi router in internal/httpapi.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"

	"github.com/brightfeed/newsbrief/internal/config"
	"github.com/brightfeed/newsbrief/internal/discovery"
	"github.com/brightfeed/newsbrief/internal/fetch"
	"github.com/brightfeed/newsbrief/internal/httpapi"
	"github.com/brightfeed/newsbrief/internal/notify"
	"github.com/brightfeed/newsbrief/internal/objectstore"
	"github.com/brightfeed/newsbrief/internal/observability"
	"github.com/brightfeed/newsbrief/internal/orchestrator"
	"github.com/brightfeed/newsbrief/internal/podcast"
	"github.com/brightfeed/newsbrief/internal/prefs"
	"github.com/brightfeed/newsbrief/internal/providers/community"
	"github.com/brightfeed/newsbrief/internal/providers/llm"
	"github.com/brightfeed/newsbrief/internal/providers/news"
	"github.com/brightfeed/newsbrief/internal/providers/push"
	"github.com/brightfeed/newsbrief/internal/providers/quota"
	"github.com/brightfeed/newsbrief/internal/providers/tts"
	"github.com/brightfeed/newsbrief/internal/report"
	"github.com/brightfeed/newsbrief/internal/store"
)

const serviceVersion = "dev"

func main() {
	logger := observability.InitLogger()
	cfg := config.FromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("apiserver exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	tp, err := observability.InitTracer(ctx, "newsbrief-apiserver", serviceVersion)
	if err != nil {
		logger.Warn("tracing disabled: failed to init tracer", "error", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = tp.Shutdown(shutdownCtx)
		}()
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return fmt.Errorf("load aws config: %w", err)
	}
	otelaws.AppendMiddlewares(&awsCfg.APIOptions)

	if cfg.SecretPrefix != "" {
		go func() {
			if err := config.LoadSecrets(ctx, awsCfg, cfg.SecretPrefix, logger); err != nil {
				logger.Warn("failed to load secrets from secrets manager, falling back to env vars", "error", err)
			}
		}()
	}
	if cfg.S3Bucket == "" {
		return fmt.Errorf("S3_BUCKET environment variable is required")
	}

	ddbClient := dynamodb.NewFromConfig(awsCfg)
	s3Client := s3.NewFromConfig(awsCfg)
	pollyClient := polly.NewFromConfig(awsCfg)
	snsClient := sns.NewFromConfig(awsCfg)

	docStore := store.New(ddbClient, cfg.DynamoTable)
	objects := objectstore.New(s3Client, cfg.S3Bucket, cfg.CDNBaseURL)

	llmClient := llm.NewAnthropicClient(cfg.AnthropicAPIKey)
	ttsProvider, err := tts.New(ctx, cfg.TTSProvider, pollyClient)
	if err != nil {
		return fmt.Errorf("build tts provider: %w", err)
	}
	newsClient := news.NewClient(cfg.GNewsAPIKey)
	communityClient := community.NewClient(cfg.CommunityAPIBase)
	pushClient := push.NewClient(snsClient, os.Getenv("SNS_PLATFORM_APPLICATION_ARN"))

	quotaTracker := quota.NewTracker()

	prefsStore := prefs.New(docStore)
	fetcher := fetch.New(newsClient, communityClient)
	fetcher.Quota = quotaTracker
	reportBuilder := report.New(llmClient)
	composer := podcast.NewComposer(llmClient, objects)
	synthesizer := podcast.NewSynthesizer(ttsProvider, objects)
	synthesizer.Quota = quotaTracker
	notifier := notify.New(pushClient)
	discoverySvc := discovery.New(llmClient, prefsStore)

	orch := orchestrator.New(prefsStore, docStore, fetcher, reportBuilder, composer, synthesizer, notifier)

	srv := httpapi.NewServer(fmt.Sprintf(":%d", cfg.HTTPPort), httpapi.Deps{
		Prefs:         prefsStore,
		Discovery:     discoverySvc,
		Fetcher:       fetcher,
		ReportBuilder: reportBuilder,
		Composer:      composer,
		Synthesizer:   synthesizer,
		Orchestrator:  orch,
		Store:         docStore,
		Log:           logger,
		Quota:         quotaTracker,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutting down apiserver")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
