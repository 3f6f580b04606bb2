package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/slack-go/slack"
)

type slackPoster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// Slack posts a one-line summary of each notification to an operations channel.
type Slack struct {
	api       slackPoster
	channelID string
	logger    *slog.Logger
}

func NewSlack(botToken, channelID string, logger *slog.Logger) *Slack {
	return &Slack{api: slack.New(botToken), channelID: channelID, logger: logger}
}

func (s *Slack) Send(ctx context.Context, msg Message) bool {
	text := fmt.Sprintf(":envelope: *%s* sent to %s", msg.Subject, strings.Join(msg.Recipients, ", "))
	if _, _, err := s.api.PostMessageContext(ctx, s.channelID, slack.MsgOptionText(text, false)); err != nil {
		s.logger.WarnContext(ctx, "slack post failed",
			"channel", s.channelID,
			"error", err,
		)
		return false
	}
	return true
}
