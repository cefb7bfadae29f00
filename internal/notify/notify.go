package notify

import (
	"context"

	"go.uber.org/multierr"
)

// Notifier delivers a short alert about a failed probe.
type Notifier interface {
	Send(ctx context.Context, title, text string) error
}

type Multi []Notifier

// Send tries every notifier and returns all of their errors combined.
func (m Multi) Send(ctx context.Context, title, text string) error {
	var err error
	for _, n := range m {
		if n == nil {
			continue
		}
		err = multierr.Append(err, n.Send(ctx, title, text))
	}
	return err
}

// New returns every configured notifier combined into one Multi, or nil when
// nothing is configured.
func New(slackWebhook string) Notifier {
	var m Multi
	if s := NewSlack(slackWebhook); s != nil {
		m = append(m, s)
	}
	if len(m) == 0 {
		return nil
	}
	return m
}
