// Package push is the push-notification client from §4.2:
// send(device_token, title, body, platform_opts) → {message_id}. Grounded on
// SNS's CreatePlatformEndpoint/Publish pair, wired in place of the original
// backend's Firebase client because the teacher's stack is AWS-native and SNS
// is an unwired real dependency in its go.mod.
package push

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	smithy "github.com/aws/smithy-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/brightfeed/newsbrief/internal/errs"
)

var tracer = otel.Tracer("newsbrief-push")

// PlatformOpts carries provider-specific delivery hints from §4.2 — the sound
// name and a badge count, the two fields the notifier actually sets.
type PlatformOpts struct {
	Sound string
	Badge int
}

// SendResult is the normalized response shape from §4.2.
type SendResult struct {
	MessageID string
}

type Client struct {
	sns                *sns.Client
	platformApplicationARN string
}

func NewClient(snsClient *sns.Client, platformApplicationARN string) *Client {
	return &Client{sns: snsClient, platformApplicationARN: platformApplicationARN}
}

// Send creates (or reuses) a platform endpoint for deviceToken and publishes
// one notification to it.
func (c *Client) Send(ctx context.Context, deviceToken, title, body string, opts PlatformOpts) (SendResult, error) {
	ctx, span := tracer.Start(ctx, "push.Send")
	defer span.End()

	endpointARN, err := c.resolveEndpoint(ctx, deviceToken)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "resolve endpoint failed")
		return SendResult{}, err
	}

	payload, err := buildMessagePayload(title, body, opts)
	if err != nil {
		err = errs.New(errs.InvalidInput, "build push payload", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "build push payload failed")
		return SendResult{}, err
	}

	out, err := c.sns.Publish(ctx, &sns.PublishInput{
		Message:          aws.String(payload),
		MessageStructure: aws.String("json"),
		TargetArn:        aws.String(endpointARN),
	})
	if err != nil {
		err = classifyPushError(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "publish failed")
		return SendResult{}, err
	}

	return SendResult{MessageID: aws.ToString(out.MessageId)}, nil
}

func (c *Client) resolveEndpoint(ctx context.Context, deviceToken string) (string, error) {
	out, err := c.sns.CreatePlatformEndpoint(ctx, &sns.CreatePlatformEndpointInput{
		PlatformApplicationArn: aws.String(c.platformApplicationARN),
		Token:                  aws.String(deviceToken),
	})
	if err != nil {
		return "", classifyPushError(err)
	}
	return aws.ToString(out.EndpointArn), nil
}

type apnsPayload struct {
	Aps struct {
		Alert struct {
			Title string `json:"title"`
			Body  string `json:"body"`
		} `json:"alert"`
		Sound string `json:"sound,omitempty"`
		Badge int    `json:"badge,omitempty"`
	} `json:"aps"`
}

func buildMessagePayload(title, body string, opts PlatformOpts) (string, error) {
	var p apnsPayload
	p.Aps.Alert.Title = title
	p.Aps.Alert.Body = body
	p.Aps.Sound = opts.Sound
	p.Aps.Badge = opts.Badge

	apnsJSON, err := json.Marshal(p)
	if err != nil {
		return "", err
	}

	envelope := map[string]string{
		"default":          body,
		"APNS":             string(apnsJSON),
		"APNS_SANDBOX":     string(apnsJSON),
		"GCM":              string(apnsJSON),
	}
	out, err := json.Marshal(envelope)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// classifyPushError maps SNS errors onto §4.2's push-specific error kinds:
// a disabled/invalid endpoint becomes PushUnknownToken so the caller can
// invalidate the stored device binding without treating it as fatal.
func classifyPushError(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		switch {
		case code == "EndpointDisabledException" || code == "InvalidParameter" && strings.Contains(apiErr.ErrorMessage(), "Token"):
			return errs.New(errs.PushUnknownToken, "push token invalid or endpoint disabled", err)
		case code == "AuthorizationErrorException" || code == "NotFoundException":
			return errs.New(errs.PushUnauthorized, "push authorization error", err)
		case code == "ThrottledException":
			return errs.New(errs.ProviderRateLimit, "push rate limited", err)
		}
	}
	return errs.New(errs.ProviderTransient, "push send failed", err)
}
