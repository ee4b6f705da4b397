// Command digestctl is an operator CLI for running pipeline steps against a
// single user without going through the HTTP surface — useful for
// replaying a failed scheduled run or inspecting a user's persisted state.
// Grounded on the teacher's cobra root command (internal/cli/root.go),
// generalized from podcast-generation flags to user_id + pipeline-step
// subcommands.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/spf13/cobra"
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
	"github.com/brightfeed/newsbrief/internal/store"
)

var Version = "dev"

var (
	flagPresenterName string
	flagLanguage      string
	flagVoiceID       string
)

type app struct {
	prefsStore *prefs.Store
	fetcher    *fetch.Fetcher
	orch       *orchestrator.Orchestrator
	docStore   *store.Adapter

	// shutdownTracing flushes the OTEL tracer provider; a no-op if tracing
	// failed to initialize. Callers should defer it before exiting.
	shutdownTracing func()
}

func buildApp(ctx context.Context) (*app, error) {
	logger := observability.InitLogger()
	cfg := config.FromEnv()

	shutdownTracing := func() {}
	if tp, err := observability.InitTracer(ctx, "newsbrief-digestctl", Version); err != nil {
		logger.Warn("tracing disabled: failed to init tracer", "error", err)
	} else {
		shutdownTracing = func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = tp.Shutdown(shutdownCtx)
		}
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	otelaws.AppendMiddlewares(&awsCfg.APIOptions)

	if cfg.SecretPrefix != "" {
		if err := config.LoadSecrets(ctx, awsCfg, cfg.SecretPrefix, logger); err != nil {
			logger.Warn("failed to load secrets from secrets manager, falling back to env vars", "error", err)
		}
	}
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET environment variable is required")
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
		return nil, fmt.Errorf("build tts provider: %w", err)
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
	return &app{
		prefsStore:      prefsStore,
		fetcher:         fetcher,
		orch:            orch,
		docStore:        docStore,
		shutdownTracing: shutdownTracing,
	}, nil
}

var rootCmd = &cobra.Command{
	Use:   "digestctl",
	Short: "Operate the news digest & podcast pipeline for one user at a time",
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("digestctl %s\n", Version)
	},
}

var runUpdateCmd = &cobra.Command{
	Use:   "run-update <user_id>",
	Short: "Run the full §4.8 pipeline (fetch, report, podcast, notify) for one user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.shutdownTracing()
		result := a.orch.RunUpdate(cmd.Context(), args[0], flagPresenterName, flagLanguage, flagVoiceID)
		fmt.Printf("fetch=%v report=%v podcast=%v notify=%v audio_url=%s\n",
			result.Fetch.Success, result.Report.Success, result.Podcast.Success, result.Notify.Success, result.AudioURL)
		if !result.Fetch.Success || !result.Report.Success || !result.Podcast.Success {
			return fmt.Errorf("run failed: fetch=%s report=%s podcast=%s",
				result.Fetch.Error, result.Report.Error, result.Podcast.Error)
		}
		return nil
	},
}

var showPrefsCmd = &cobra.Command{
	Use:   "show-prefs <user_id>",
	Short: "Print a user's current (migrated) preferences document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.shutdownTracing()
		p, err := a.prefsStore.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%+v\n", p)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runUpdateCmd)
	rootCmd.AddCommand(showPrefsCmd)

	runUpdateCmd.Flags().StringVar(&flagPresenterName, "presenter-name", "Alex", "Podcast presenter name")
	runUpdateCmd.Flags().StringVar(&flagLanguage, "language", "en", "Report/script language")
	runUpdateCmd.Flags().StringVar(&flagVoiceID, "voice-id", "Joanna", "TTS voice ID")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
