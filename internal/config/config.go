// Package config centralizes environment-variable driven configuration and
// the Secrets Manager bootstrap, generalizing mcpserver.DefaultConfig's
// envOr/loadSecrets pattern to the full set of provider credentials this
// pipeline needs.
package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// Dev fallbacks. These exist so a fresh checkout runs against sandbox
// accounts without any env setup; REQUIRE_PROD_SECRETS disables them.
const (
	devAnthropicKey = "sk-ant-dev-placeholder"
	devGNewsKey     = "gnews-dev-placeholder"
)

// Config is the process-wide configuration, read once at startup and passed
// explicitly to every component's constructor — there are no package-level
// globals beyond credential bootstrap.
type Config struct {
	HTTPPort int

	DynamoTable string
	S3Bucket    string
	CDNBaseURL  string
	AWSRegion   string

	SecretPrefix      string
	RequireProdSecrets bool

	AnthropicAPIKey string
	GNewsAPIKey     string
	CommunityAPIBase string

	TTSProvider string // "polly" or "google"
	DefaultVoiceID string

	SchedulerTickInterval string // cron-equivalent, informational only: "*/15 * * * *"
	MaxConcurrentRuns     int
}

// FromEnv builds a Config from the process environment.
func FromEnv() Config {
	prod := os.Getenv("REQUIRE_PROD_SECRETS") == "1"

	cfg := Config{
		HTTPPort:    envInt("HTTP_PORT", 8080),
		DynamoTable: envOr("DYNAMODB_TABLE", "newsbrief-prod"),
		S3Bucket:    envOr("S3_BUCKET", ""),
		CDNBaseURL:  envOr("CDN_BASE_URL", "https://cdn.newsbrief.example"),
		AWSRegion:   envOr("AWS_REGION", "us-east-1"),

		SecretPrefix:       envOr("SECRET_PREFIX", "/newsbrief/"),
		RequireProdSecrets: prod,

		AnthropicAPIKey:  envOr("ANTHROPIC_API_KEY", devFallback(prod, devAnthropicKey)),
		GNewsAPIKey:      envOr("GNEWS_API_KEY", devFallback(prod, devGNewsKey)),
		CommunityAPIBase: envOr("COMMUNITY_API_BASE", "https://www.reddit.com"),

		TTSProvider:    envOr("TTS_PROVIDER", "polly"),
		DefaultVoiceID: envOr("DEFAULT_VOICE_ID", "Joanna"),

		SchedulerTickInterval: "*/15 * * * *",
		MaxConcurrentRuns:     envInt("MAX_CONCURRENT_RUNS", 10),
	}
	return cfg
}

func devFallback(prod bool, value string) string {
	if prod {
		return ""
	}
	return value
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
		return fallback
	}
	return n
}

// LoadSecrets fetches provider credentials from Secrets Manager into the
// process environment, skipping any var already set. cmd/apiserver calls it
// on a background goroutine so its HTTP listener does not block on it; the
// scheduler Lambda calls it inline before building its clients.
func LoadSecrets(ctx context.Context, awsCfg aws.Config, prefix string, logger *slog.Logger) error {
	client := secretsmanager.NewFromConfig(awsCfg)

	names := map[string]string{
		"ANTHROPIC_API_KEY": prefix + "ANTHROPIC_API_KEY",
		"GNEWS_API_KEY":     prefix + "GNEWS_API_KEY",
	}

	for envVar, secretID := range names {
		if os.Getenv(envVar) != "" {
			continue
		}
		id := secretID
		result, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: &id})
		if err != nil {
			logger.Info("secret not found", "secret_id", secretID, "error", err)
			continue
		}
		if result.SecretString != nil {
			os.Setenv(envVar, *result.SecretString)
			logger.Info("loaded secret", "secret_id", secretID)
		}
	}
	return nil
}
