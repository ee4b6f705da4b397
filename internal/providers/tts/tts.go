// Package tts is the cloud text-to-speech client: a single synchronous
// synthesize call per §4.2, generalized from the teacher's multi-provider,
// multi-host VoiceMap machinery (tts/provider.go) down to the spec's single
// `synthesize(text, voice_id, model_id, format) → bytes` contract, while
// keeping its retry/classification shape.
package tts

import (
	"context"
	"errors"
	"os"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/brightfeed/newsbrief/internal/errs"
)

var tracer = otel.Tracer("newsbrief-tts")

// AudioFormat is the encoding the provider returns.
type AudioFormat string

const (
	FormatMP3 AudioFormat = "mp3"
)

// Provider synthesizes speech from text. Each implementation passes its
// HTTP/SDK errors through its own classifier (classifyPollyError,
// classifyGoogleError) so callers see the shared error taxonomy, not a
// provider-specific error type.
type Provider interface {
	Name() string
	Synthesize(ctx context.Context, text, voiceID, modelID string, format AudioFormat) ([]byte, error)
}

const (
	maxAttempts    = 3
	initialBackoff = 1 * time.Second
	backoffMulti   = 2
	maxBackoff     = 10 * time.Second
)

// WithRetry runs fn with exponential backoff, retrying only on
// ProviderRateLimit/ProviderTransient classifications or a timeout error
// while ctx is still live — ProviderQuota and ProviderAuth are never worth
// retrying within one call.
func WithRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	backoff := initialBackoff

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !shouldRetry(ctx, err) {
			return err
		}
		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= backoffMulti
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
	return lastErr
}

func shouldRetry(ctx context.Context, err error) bool {
	if errs.Is(err, errs.ProviderRateLimit) || errs.Is(err, errs.ProviderTransient) {
		return true
	}
	if ctx.Err() == nil && (os.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded)) {
		return true
	}
	return false
}
