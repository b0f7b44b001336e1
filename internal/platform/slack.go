package platform

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"

	"github.com/spec-kit/support-bridge/internal/config"
)

// SlackAPI is the subset of the slack-go client the adapter needs. Tests
// substitute a slacktest-backed client through the same interface.
type SlackAPI interface {
	AuthTest() (*slack.AuthTestResponse, error)
	CreateConversationContext(ctx context.Context, params slack.CreateConversationParams) (*slack.Channel, error)
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
	RenameConversationContext(ctx context.Context, channelID, channelName string) (*slack.Channel, error)
	ArchiveConversationContext(ctx context.Context, channelID string) error
	GetUserInfoContext(ctx context.Context, user string) (*slack.User, error)
}

// Slack adapts the slack-go client to the ChatPlatform interface. Rooms are
// private channels; "delete" maps to archive because the Slack API offers no
// channel deletion to regular bots.
type Slack struct {
	api    SlackAPI
	selfID string
}

// NewSlack builds the adapter and resolves the bot's own identity.
func NewSlack(cfg config.SlackConfig) (*Slack, error) {
	api := slack.New(cfg.BotToken, slack.OptionAppLevelToken(cfg.AppToken))
	auth, err := api.AuthTest()
	if err != nil {
		return nil, fmt.Errorf("slack auth test: %w", err)
	}
	return &Slack{api: api, selfID: auth.UserID}, nil
}

// NewSlackWithAPI wires a pre-built client, used by tests.
func NewSlackWithAPI(api SlackAPI) (*Slack, error) {
	auth, err := api.AuthTest()
	if err != nil {
		return nil, fmt.Errorf("slack auth test: %w", err)
	}
	return &Slack{api: api, selfID: auth.UserID}, nil
}

// SelfID returns the bot user id.
func (s *Slack) SelfID() string {
	return s.selfID
}

// CreateRoom creates a private channel for a ticket.
func (s *Slack) CreateRoom(ctx context.Context, name string) (string, error) {
	channel, err := s.api.CreateConversationContext(ctx, slack.CreateConversationParams{
		ChannelName: name,
		IsPrivate:   true,
	})
	if err != nil {
		return "", err
	}
	return channel.ID, nil
}

// PostMessage renders an Outbound as Block Kit and posts it.
func (s *Slack) PostMessage(ctx context.Context, roomID string, msg Outbound) error {
	_, _, err := s.api.PostMessageContext(ctx, roomID, slack.MsgOptionBlocks(buildBlocks(msg)...))
	return err
}

// RenameRoom relabels a channel.
func (s *Slack) RenameRoom(ctx context.Context, roomID, name string) error {
	_, err := s.api.RenameConversationContext(ctx, roomID, name)
	return err
}

// ArchiveRoom archives a channel.
func (s *Slack) ArchiveRoom(ctx context.Context, roomID string) error {
	return s.api.ArchiveConversationContext(ctx, roomID)
}

// AuthorName resolves a user id to a display name.
func (s *Slack) AuthorName(ctx context.Context, authorID string) (string, error) {
	user, err := s.api.GetUserInfoContext(ctx, authorID)
	if err != nil {
		return "", err
	}
	return preferredName(user), nil
}

func preferredName(user *slack.User) string {
	if user.Profile.DisplayName != "" {
		return user.Profile.DisplayName
	}
	if user.RealName != "" {
		return user.RealName
	}
	return user.Name
}

func buildBlocks(msg Outbound) []slack.Block {
	blocks := []slack.Block{}
	if msg.Title != "" {
		blocks = append(blocks, slack.NewHeaderBlock(
			slack.NewTextBlockObject("plain_text", msg.Title, false, false),
		))
	}
	if msg.Body != "" {
		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject("mrkdwn", msg.Body, false, false),
			nil, nil,
		))
	}
	if len(msg.Fields) > 0 {
		fields := make([]*slack.TextBlockObject, 0, len(msg.Fields))
		for _, f := range msg.Fields {
			fields = append(fields, slack.NewTextBlockObject("mrkdwn",
				fmt.Sprintf("*%s:* %s", f.Label, f.Value), false, false))
		}
		blocks = append(blocks, slack.NewSectionBlock(nil, fields, nil))
	}
	if len(msg.Buttons) > 0 {
		elements := make([]slack.BlockElement, 0, len(msg.Buttons))
		for _, b := range msg.Buttons {
			btn := slack.NewButtonBlockElement(b.ActionID, b.Value,
				slack.NewTextBlockObject("plain_text", b.Label, false, false))
			if b.Danger {
				btn = btn.WithStyle(slack.StyleDanger)
			}
			elements = append(elements, btn)
		}
		blocks = append(blocks, slack.NewActionBlock("ticket_controls", elements...))
	}
	return blocks
}
