// Package notify broadcasts milestone messages outside the game, to logs and optionally Discord.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"monopoly/internal/game"

	"github.com/bwmarrin/discordgo"
)

type Sink interface {
	Notify(ctx context.Context, msg string) error
}

type LogSink struct {
	Log *slog.Logger
}

func (s LogSink) Notify(_ context.Context, msg string) error {
	logger := s.Log
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("milestone", "message", msg)
	return nil
}

// Multi sends to every sink and joins their errors.
type Multi []Sink

func (m Multi) Notify(ctx context.Context, msg string) error {
	var errs []error
	for _, s := range m {
		if err := s.Notify(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discord posts to one channel through the bot REST API. No gateway connection is opened.
type Discord struct {
	session   *discordgo.Session
	channelID string
}

func NewDiscord(token, channelID string) (*Discord, error) {
	if token == "" || channelID == "" {
		return nil, errors.New("discord token and channel are required")
	}
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	return &Discord{session: s, channelID: channelID}, nil
}

func (d *Discord) Notify(ctx context.Context, msg string) error {
	if _, err := d.session.ChannelMessageSend(d.channelID, msg, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord send: %w", err)
	}
	return nil
}

// Milestones forwards a session's milestone events to a sink. Sends run in their own goroutine
// with a timeout so a slow sink never holds up the session.
type Milestones struct {
	Sink    Sink
	Player  string
	Timeout time.Duration
	Log     *slog.Logger
}

func (m Milestones) Observe(ev game.Event) {
	if ev.Kind != game.EventMilestone {
		return
	}
	msg := ev.Message
	if m.Player != "" {
		msg = m.Player + ": " + msg
	}
	timeout := m.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := m.Sink.Notify(ctx, msg); err != nil {
			logger := m.Log
			if logger == nil {
				logger = slog.Default()
			}
			logger.Warn("milestone notify failed", "err", err)
		}
	}()
}
