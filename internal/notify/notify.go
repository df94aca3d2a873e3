// Package notify delivers escalation alerts to the support-ops channel.
// Best-effort: alert failures are logged and never block escalation.
package notify

import (
	"context"
	"fmt"
	"time"

	slackapi "github.com/slack-go/slack"
	"go.uber.org/zap"
)

// Alert describes one escalated conversation.
type Alert struct {
	TenantID       string
	ConversationID string
	AgentID        string
	Waited         time.Duration
}

// Notifier delivers escalation alerts.
type Notifier interface {
	EscalationAlert(ctx context.Context, a Alert) error
}

// slackClient abstracts the Slack API methods we use, enabling test mocks.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
}

// SlackNotifier posts escalation alerts to a Slack channel.
type SlackNotifier struct {
	client  slackClient
	channel string
	log     *zap.Logger
}

var _ Notifier = (*SlackNotifier)(nil)

// SlackOpts holds parameters for creating a SlackNotifier.
type SlackOpts struct {
	Token   string // xoxb-... bot token
	Channel string // channel to post alerts to
	Logger  *zap.Logger

	// Client injects a mock instead of the real Slack API, for tests.
	Client slackClient
}

// NewSlack creates a Slack notifier.
func NewSlack(opts SlackOpts) (*SlackNotifier, error) {
	if opts.Client == nil && opts.Token == "" {
		return nil, fmt.Errorf("notify: slack token is required")
	}
	if opts.Channel == "" {
		return nil, fmt.Errorf("notify: slack channel is required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	n := &SlackNotifier{channel: opts.Channel, log: opts.Logger}
	if opts.Client != nil {
		n.client = opts.Client
	} else {
		n.client = slackapi.New(opts.Token)
	}
	return n, nil
}

// EscalationAlert posts one alert message.
func (n *SlackNotifier) EscalationAlert(ctx context.Context, a Alert) error {
	text := fmt.Sprintf("Conversation %s (tenant %s) waited %s and was escalated to %s",
		a.ConversationID, a.TenantID, a.Waited.Round(time.Minute), a.AgentID)
	attachment := slackapi.Attachment{
		Color: "#e01e5a",
		Fields: []slackapi.AttachmentField{
			{Title: "Tenant", Value: a.TenantID, Short: true},
			{Title: "Conversation", Value: a.ConversationID, Short: true},
			{Title: "Escalated to", Value: a.AgentID, Short: true},
			{Title: "Waited", Value: a.Waited.Round(time.Second).String(), Short: true},
		},
	}
	_, _, err := n.client.PostMessageContext(ctx, n.channel,
		slackapi.MsgOptionText(text, false),
		slackapi.MsgOptionAttachments(attachment))
	if err != nil {
		return fmt.Errorf("notify: post escalation alert: %w", err)
	}
	n.log.Debug("escalation alert posted", zap.String("conversation", a.ConversationID))
	return nil
}
