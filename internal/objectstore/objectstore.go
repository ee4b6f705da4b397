// Package objectstore is the put-object adapter returning a publicly
// readable URL, generalizing mcpserver.Storage.Upload from "one mp3 from
// disk" to "arbitrary bytes at a path," since the script composer writes
// text and the synthesizer writes audio to two different path shapes.
package objectstore

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/brightfeed/newsbrief/internal/errs"
)

type Store struct {
	client     *s3.Client
	bucket     string
	cdnBaseURL string
}

func New(client *s3.Client, bucket, cdnBaseURL string) *Store {
	return &Store{client: client, bucket: bucket, cdnBaseURL: cdnBaseURL}
}

// Put writes body to key under contentType and returns the public URL.
func (s *Store) Put(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        &s.bucket,
		Key:           &key,
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return "", errs.New(errs.ProviderTransient, "put object", err)
	}
	return fmt.Sprintf("%s/%s", s.cdnBaseURL, key), nil
}

// ScriptPath builds the object key for a script per §6's layout:
// podcast_scripts/{user_id}/script_{yyyymmdd_HHMMSS}.txt
func ScriptPath(userID, timestamp string) string {
	return fmt.Sprintf("podcast_scripts/%s/script_%s.txt", userID, timestamp)
}

// AudioPath builds the object key for audio per §6's layout:
// podcast_audio/{user_id}/podcast_{yyyymmdd_HHMMSS}.mp3
func AudioPath(userID, timestamp string) string {
	return fmt.Sprintf("podcast_audio/%s/podcast_%s.mp3", userID, timestamp)
}
