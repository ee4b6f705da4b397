// Package notify is the Notifier from §4.7: reads a user's DeviceBinding and
// sends a fixed-text push, continuing (not failing) the pipeline on
// UnknownToken/Unauthorized. Grounded on mcpserver's non-fatal degrade
// pattern for best-effort side calls, generalized to the push provider.
package notify

import (
	"context"

	"github.com/brightfeed/newsbrief/internal/errs"
	"github.com/brightfeed/newsbrief/internal/providers/push"
)

const (
	title = "Your updates are available"
	body  = "Fresh news articles and podcast are ready!"
)

type PushClient interface {
	Send(ctx context.Context, deviceToken, title, body string, opts push.PlatformOpts) (push.SendResult, error)
}

// Result is the Notifier's per-run outcome, folded into the orchestrator's
// structured result per §4.8 ("its outcome is recorded in the result").
type Result struct {
	Sent            bool
	Skipped         bool
	SkippedReason   string
	InvalidateToken bool
	MessageID       string
}

type Notifier struct {
	push PushClient
}

func New(pushClient PushClient) *Notifier {
	return &Notifier{push: pushClient}
}

// Send implements §4.7: sends the fixed title/body with platform opts
// default sound and badge 1. No delivery priority is set, so the push goes
// out at the platform's default priority. UnknownToken/Unauthorized are
// non-fatal — the caller should invalidate the stored binding and continue.
func (n *Notifier) Send(ctx context.Context, deviceToken string) Result {
	if deviceToken == "" {
		return Result{Skipped: true, SkippedReason: "no device token registered"}
	}

	out, err := n.push.Send(ctx, deviceToken, title, body, push.PlatformOpts{Sound: "default", Badge: 1})
	if err != nil {
		invalidate := errs.Is(err, errs.PushUnknownToken) || errs.Is(err, errs.PushUnauthorized)
		return Result{Skipped: true, SkippedReason: err.Error(), InvalidateToken: invalidate}
	}
	return Result{Sent: true, MessageID: out.MessageID}
}
