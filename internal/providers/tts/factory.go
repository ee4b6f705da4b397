package tts

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/polly"
)

// New builds the configured provider. name is "polly" (default) or "google".
func New(ctx context.Context, name string, pollyClient *polly.Client) (Provider, error) {
	switch name {
	case "", "polly":
		return NewPollyProvider(pollyClient), nil
	case "google":
		return NewGoogleProvider(ctx, 0, 0)
	default:
		return nil, fmt.Errorf("unknown tts provider %q", name)
	}
}
