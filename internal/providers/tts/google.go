package tts

import (
	"context"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	texttospeechpb "cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/brightfeed/newsbrief/internal/errs"
)

// GoogleProvider is the alternate TTS provider, used when TTS_PROVIDER=google
// (Chirp3 HD voices).
type GoogleProvider struct {
	client *texttospeech.Client
	speed  float64
	pitch  float64
}

func NewGoogleProvider(ctx context.Context, speed, pitch float64) (*GoogleProvider, error) {
	client, err := texttospeech.NewClient(ctx)
	if err != nil {
		return nil, errs.New(errs.ProviderTransient, "create google tts client", err)
	}
	return &GoogleProvider{client: client, speed: speed, pitch: pitch}, nil
}

func (p *GoogleProvider) Name() string { return "google" }

func (p *GoogleProvider) Synthesize(ctx context.Context, text, voiceID, modelID string, format AudioFormat) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "tts.google.Synthesize")
	span.SetAttributes(attribute.String("voice_id", voiceID))
	defer span.End()

	if voiceID == "" {
		voiceID = "en-US-Chirp3-HD-Leda"
	}
	req := &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: "en-US",
			Name:         voiceID,
		},
		AudioConfig: p.audioConfig(),
	}

	resp, err := p.client.SynthesizeSpeech(ctx, req)
	if err != nil {
		err = classifyGoogleError(err)
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, "google tts synthesize failed")
		return nil, err
	}
	return resp.AudioContent, nil
}

func (p *GoogleProvider) audioConfig() *texttospeechpb.AudioConfig {
	cfg := &texttospeechpb.AudioConfig{AudioEncoding: texttospeechpb.AudioEncoding_MP3}
	if p.speed != 0 {
		cfg.SpeakingRate = p.speed
	}
	if p.pitch != 0 {
		cfg.Pitch = p.pitch
	}
	return cfg
}

func (p *GoogleProvider) Close() error { return p.client.Close() }

func classifyGoogleError(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return errs.New(errs.ProviderTransient, "google tts synthesize failed", err)
	}
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return errs.New(errs.ProviderAuth, "google tts auth error", err)
	case codes.ResourceExhausted:
		return errs.New(errs.ProviderQuota, "google tts quota exceeded", err)
	case codes.DeadlineExceeded, codes.Unavailable:
		return errs.New(errs.ProviderTransient, "google tts transient error", err)
	default:
		return errs.New(errs.ProviderTransient, "google tts synthesize failed", err)
	}
}
