package tts

import (
	"context"
	"errors"
	"io"

	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/aws/aws-sdk-go-v2/service/polly/types"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	newsbrieferrs "github.com/brightfeed/newsbrief/internal/errs"
)

// pollyVoiceLang maps voice IDs to their language codes; unknown voices fall
// back to en-US.
var pollyVoiceLang = map[string]types.LanguageCode{
	"Matthew":  types.LanguageCodeEnUs,
	"Joanna":   types.LanguageCodeEnUs,
	"Ruth":     types.LanguageCodeEnUs,
	"Stephen":  types.LanguageCodeEnUs,
	"Danielle": types.LanguageCodeEnUs,
	"Amy":      types.LanguageCodeEnGb,
	"Olivia":   types.LanguageCodeEnAu,
	"Kajal":    types.LanguageCodeEnIn,
}

type PollyProvider struct {
	client *polly.Client
}

func NewPollyProvider(client *polly.Client) *PollyProvider {
	return &PollyProvider{client: client}
}

func (p *PollyProvider) Name() string { return "polly" }

func (p *PollyProvider) Synthesize(ctx context.Context, text, voiceID, modelID string, format AudioFormat) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "tts.polly.Synthesize")
	span.SetAttributes(attribute.String("voice_id", voiceID))
	defer span.End()

	lang, ok := pollyVoiceLang[voiceID]
	if !ok {
		lang = types.LanguageCodeEnUs
	}
	if voiceID == "" {
		voiceID = "Joanna"
	}

	input := &polly.SynthesizeSpeechInput{
		Engine:       types.EngineGenerative,
		OutputFormat: types.OutputFormatMp3,
		SampleRate:   strPtr("24000"),
		Text:         &text,
		TextType:     types.TextTypeText,
		VoiceId:      types.VoiceId(voiceID),
		LanguageCode: lang,
	}

	resp, err := p.client.SynthesizeSpeech(ctx, input)
	if err != nil {
		err = classifyPollyError(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "polly synthesize failed")
		return nil, err
	}
	defer resp.AudioStream.Close()

	data, err := io.ReadAll(resp.AudioStream)
	if err != nil {
		err = newsbrieferrs.New(newsbrieferrs.ProviderTransient, "read polly audio stream", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "read polly audio stream failed")
		return nil, err
	}
	return data, nil
}

func strPtr(s string) *string { return &s }

func classifyPollyError(err error) error {
	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.HTTPStatusCode() {
		case 400, 401, 403:
			return newsbrieferrs.New(newsbrieferrs.ProviderAuth, "polly auth/permission error", err)
		case 429:
			return newsbrieferrs.New(newsbrieferrs.ProviderRateLimit, "polly throttled", err)
		}
	}
	return newsbrieferrs.New(newsbrieferrs.ProviderTransient, "polly synthesize failed", err)
}
