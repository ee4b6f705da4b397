// Command scheduler-lambda is the Lambda entrypoint for the §4.9 scheduler
// tick, invoked by the EventBridge `*/15 * * * *` rule defined in
// deploy/cdk instead of running scheduler's standalone ticker loop. Each
// invocation scans due users and runs them synchronously (see handleTick),
// waiting for completion before returning, since the execution environment
// is not guaranteed to survive past the handler return the way
// internal/scheduler's background goroutines assume. AWS deps not
// exercised by the pack's fetched slice (`aws-lambda-go`) are wired here
// per SPEC_FULL's domain stack.
package main

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"

	"github.com/brightfeed/newsbrief/internal/config"
	"github.com/brightfeed/newsbrief/internal/fetch"
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
	"github.com/brightfeed/newsbrief/internal/providers/tts"
	"github.com/brightfeed/newsbrief/internal/report"
	"github.com/brightfeed/newsbrief/internal/scheduler"
	"github.com/brightfeed/newsbrief/internal/store"
)

const serviceVersion = "dev"

// tickEvent is the EventBridge scheduled-event payload. Only Time is read:
// when it parses as RFC3339 it is used as the tick time instead of
// time.Now().
type tickEvent struct {
	Time string `json:"time"`
}

func main() {
	lambda.Start(handleTick)
}

func handleTick(ctx context.Context, event tickEvent) error {
	logger := observability.InitLogger()
	cfg := config.FromEnv()

	tp, err := observability.InitTracer(ctx, "newsbrief-scheduler-lambda", serviceVersion)
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
		if err := config.LoadSecrets(ctx, awsCfg, cfg.SecretPrefix, logger); err != nil {
			logger.Warn("failed to load secrets from secrets manager, falling back to env vars", "error", err)
		}
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

	prefsStore := prefs.New(docStore)
	fetcher := fetch.New(newsClient, communityClient)
	reportBuilder := report.New(llmClient)
	composer := podcast.NewComposer(llmClient, objects)
	synthesizer := podcast.NewSynthesizer(ttsProvider, objects)
	notifier := notify.New(pushClient)

	orch := orchestrator.New(prefsStore, docStore, fetcher, reportBuilder, composer, synthesizer, notifier)

	// Scheduler.Tick fans work out to background goroutines and returns
	// immediately, which suits a long-lived ticker process but not a Lambda
	// invocation — the execution environment can freeze or be reclaimed the
	// instant the handler returns, killing any still-running goroutine. So
	// the lambda entrypoint re-implements the same due-scan/claim/run
	// sequence synchronously, waiting for every submitted run to finish
	// before returning.
	now := time.Now()
	if event.Time != "" {
		if parsed, err := time.Parse(time.RFC3339, event.Time); err == nil {
			now = parsed
		}
	}
	windowStart := scheduler.WindowStart(now).Format(time.RFC3339)

	prefsList, err := docStore.AllScheduling(ctx)
	if err != nil {
		return fmt.Errorf("list scheduling preferences: %w", err)
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, 10)
	for _, pref := range prefsList {
		if !scheduler.IsDue(pref, now) {
			continue
		}
		claimed, err := docStore.ClaimScheduleWindow(ctx, pref.UserID, windowStart)
		if err != nil {
			logger.Error("claim schedule window failed", "user_id", pref.UserID, "error", err)
			continue
		}
		if !claimed {
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(userID string) {
			defer wg.Done()
			defer func() { <-sem }()
			result := orch.RunUpdate(ctx, userID, "Alex", "en", "Joanna")
			logger.Info("scheduled run complete", "user_id", userID,
				"fetch_ok", result.Fetch.Success, "report_ok", result.Report.Success, "podcast_ok", result.Podcast.Success)
		}(pref.UserID)
	}
	wg.Wait()
	return nil
}
