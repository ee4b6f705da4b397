package podcast

import (
	"context"
	"time"

	"github.com/brightfeed/newsbrief/internal/errs"
	"github.com/brightfeed/newsbrief/internal/model"
	"github.com/brightfeed/newsbrief/internal/objectstore"
	"github.com/brightfeed/newsbrief/internal/providers/quota"
	"github.com/brightfeed/newsbrief/internal/providers/tts"
)

const (
	ttsModelID = "standard"
)

type Synthesizer struct {
	tts     tts.Provider
	objects ObjectPutter

	// Quota records the TTS provider's last-known quota state for the
	// health diagnostics endpoint. Nil is safe (no tracking).
	Quota *quota.Tracker
}

func NewSynthesizer(provider tts.Provider, objects ObjectPutter) *Synthesizer {
	return &Synthesizer{tts: provider, objects: objects}
}

// Synthesize implements §4.6: reads the just-written script, calls TTS once
// with the full text, writes the audio to object store, and returns the
// artifact updated to status=complete_podcast_generated. The caller (the
// orchestrator) is responsible for persisting both the new run record and
// the per-user latest-audio pointer, per store.PutPodcastRun's split.
func (s *Synthesizer) Synthesize(ctx context.Context, artifact model.PodcastArtifact, now time.Time) (model.PodcastArtifact, error) {
	var audio []byte
	err := tts.WithRetry(ctx, func() error {
		var synthErr error
		audio, synthErr = s.tts.Synthesize(ctx, artifact.ScriptText, artifact.VoiceID, ttsModelID, tts.FormatMP3)
		return synthErr
	})
	s.Quota.Mark("tts", errs.Is(err, errs.ProviderQuota))
	if err != nil {
		return artifact, err
	}

	timestamp := now.UTC().Format(timestampLayout)
	key := objectstore.AudioPath(artifact.UserID, timestamp)
	url, err := s.objects.Put(ctx, key, audio, "audio/mpeg")
	if err != nil {
		return artifact, err
	}

	generatedAt := now.UTC()
	artifact.AudioURL = url
	artifact.AudioFilename = key
	artifact.AudioGeneratedAt = &generatedAt
	artifact.Status = model.StatusCompletePodcast
	return artifact, nil
}
