package platform

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
	"go.uber.org/zap"

	"github.com/spec-kit/support-bridge/internal/config"
)

// MessageSink consumes message-posted events from the platform.
type MessageSink func(ctx context.Context, msg InboundMessage)

// CommandSink consumes control-button presses from the platform.
type CommandSink func(ctx context.Context, cmd RoomCommand)

// SlackListener receives asynchronous callbacks over Socket Mode and
// translates them into platform-neutral events. Delivery is best-effort;
// a failed sink never interrupts the event loop.
type SlackListener struct {
	socket    *socketmode.Client
	logger    *zap.Logger
	onMessage MessageSink
	onCommand CommandSink
}

// NewSlackListener builds the Socket Mode listener.
func NewSlackListener(cfg config.SlackConfig, logger *zap.Logger, onMessage MessageSink, onCommand CommandSink) *SlackListener {
	api := slack.New(cfg.BotToken, slack.OptionAppLevelToken(cfg.AppToken))
	return &SlackListener{
		socket:    socketmode.New(api),
		logger:    logger,
		onMessage: onMessage,
		onCommand: onCommand,
	}
}

// Run pumps the socket until the context is cancelled.
func (l *SlackListener) Run(ctx context.Context) error {
	go func() {
		for envelope := range l.socket.Events {
			switch envelope.Type {
			case socketmode.EventTypeEventsAPI:
				l.socket.Ack(*envelope.Request)
				payload, ok := envelope.Data.(slackevents.EventsAPIEvent)
				if !ok {
					l.logger.Error("unexpected events api payload")
					continue
				}
				l.handleCallback(ctx, &payload)
			case socketmode.EventTypeInteractive:
				l.socket.Ack(*envelope.Request)
				callback, ok := envelope.Data.(slack.InteractionCallback)
				if !ok {
					l.logger.Error("unexpected interactive payload")
					continue
				}
				l.handleInteraction(ctx, &callback)
			default:
				l.socket.Debugf("skipped: %v", envelope.Type)
			}
		}
	}()

	return l.socket.RunContext(ctx)
}

func (l *SlackListener) handleCallback(ctx context.Context, event *slackevents.EventsAPIEvent) {
	if event.Type != slackevents.CallbackEvent {
		l.logger.Warn("unsupported events api type", zap.String("type", event.Type))
		return
	}
	switch ev := event.InnerEvent.Data.(type) {
	case *slackevents.MessageEvent:
		if ev.SubType != "" && ev.SubType != "bot_message" {
			// edits, joins and other subtypes are not correspondence
			return
		}
		l.onMessage(ctx, InboundMessage{
			RoomID:    ev.Channel,
			AuthorID:  ev.User,
			Text:      ev.Text,
			Automated: ev.BotID != "" || ev.SubType == "bot_message",
			Timestamp: parseSlackTimestamp(ev.TimeStamp),
		})
	}
}

func (l *SlackListener) handleInteraction(ctx context.Context, callback *slack.InteractionCallback) {
	if callback.Type != slack.InteractionTypeBlockActions {
		return
	}
	if len(callback.ActionCallback.BlockActions) < 1 {
		return
	}
	action := callback.ActionCallback.BlockActions[0]
	if !strings.HasPrefix(action.ActionID, "ticket_") && action.ActionID != ActionCreateTicket {
		return
	}
	l.onCommand(ctx, RoomCommand{
		ActionID: action.ActionID,
		Value:    action.Value,
		RoomID:   callback.Channel.ID,
		ActorID:  callback.User.ID,
	})
}

func parseSlackTimestamp(ts string) time.Time {
	seconds, err := strconv.ParseFloat(ts, 64)
	if err != nil {
		return time.Now().UTC()
	}
	sec := int64(seconds)
	nsec := int64((seconds - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec).UTC()
}
