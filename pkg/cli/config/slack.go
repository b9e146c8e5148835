package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mergeminder/pkg/service/slack"
	"github.com/urfave/cli/v3"
)

// Slack holds CLI flags for the Slack integration
type Slack struct {
	botToken      string
	signingSecret string
	channel       string
	notifyUsers   bool
}

// Flags returns CLI flags for Slack configuration
func (x *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-bot-token",
			Usage:       "Slack Bot User OAuth Token",
			Category:    "Slack",
			Sources:     cli.EnvVars("MERGEMINDER_SLACK_BOT_TOKEN"),
			Destination: &x.botToken,
		},
		&cli.StringFlag{
			Name:        "slack-signing-secret",
			Usage:       "Slack Signing Secret (for webhook verification)",
			Category:    "Slack",
			Sources:     cli.EnvVars("MERGEMINDER_SLACK_SIGNING_SECRET"),
			Destination: &x.signingSecret,
		},
		&cli.StringFlag{
			Name:        "slack-channel",
			Usage:       "Channel name for public reminder announcements (empty disables them)",
			Category:    "Slack",
			Sources:     cli.EnvVars("MERGEMINDER_SLACK_CHANNEL"),
			Destination: &x.channel,
		},
		&cli.BoolFlag{
			Name:        "notify-users",
			Usage:       "Send reminder direct messages to assignees",
			Category:    "Slack",
			Value:       true,
			Sources:     cli.EnvVars("MERGEMINDER_NOTIFY_USERS"),
			Destination: &x.notifyUsers,
		},
	}
}

// LogValue returns the loggable representation with the token redacted
func (x Slack) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("bot-token.len", len(x.botToken)),
		slog.Int("signing-secret.len", len(x.signingSecret)),
		slog.String("channel", x.channel),
		slog.Bool("notify-users", x.notifyUsers),
	)
}

// Configure creates the Slack service
func (x *Slack) Configure() (slack.Service, error) {
	svc, err := slack.New(x.botToken)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize Slack service")
	}
	return svc, nil
}

// Channel returns the announcement channel name
func (x *Slack) Channel() string {
	return x.channel
}

// NotifyUsers reports whether direct messages to assignees are enabled
func (x *Slack) NotifyUsers() bool {
	return x.notifyUsers
}

// SigningSecret returns the Slack signing secret
func (x *Slack) SigningSecret() string {
	return x.signingSecret
}

// IsWebhookConfigured checks if the Slack webhook can be enabled
func (x *Slack) IsWebhookConfigured() bool {
	return x.signingSecret != ""
}
