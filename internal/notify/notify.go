package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"

	"bankceo/internal/game"
)

// discordLimit is the maximum message length Discord accepts.
const discordLimit = 2000

type Notifier interface {
	Notify(ctx context.Context, bank string, items []game.News) error
}

type Noop struct{}

func (Noop) Notify(context.Context, string, []game.News) error { return nil }

// Filter keeps the items the player opted into: system alerts cover warnings
// and dangers, player alerts cover info and success items.
func Filter(prefs game.Notifications, items []game.News) []game.News {
	out := make([]game.News, 0, len(items))
	for _, n := range items {
		switch n.Type {
		case game.NewsWarning, game.NewsDanger:
			if prefs.SystemAlerts {
				out = append(out, n)
			}
		default:
			if prefs.PlayerAlerts {
				out = append(out, n)
			}
		}
	}
	return out
}

func Format(bank string, items []game.News) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s**", bank)
	for _, n := range items {
		line := fmt.Sprintf("\n%s %s", badge(n.Type), n.Message)
		if b.Len()+len(line) > discordLimit {
			break
		}
		b.WriteString(line)
	}
	return b.String()
}

func badge(t game.NewsType) string {
	switch t {
	case game.NewsDanger:
		return "[DANGER]"
	case game.NewsWarning:
		return "[WARN]"
	case game.NewsSuccess:
		return "[OK]"
	default:
		return "[INFO]"
	}
}

type messageSender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type Discord struct {
	sender    messageSender
	channelID string
	log       *slog.Logger
}

func NewDiscord(token, channelID string, logger *slog.Logger) (*Discord, error) {
	if strings.TrimSpace(token) == "" || strings.TrimSpace(channelID) == "" {
		return nil, errors.New("discord notifier requires a bot token and channel id")
	}
	if logger == nil {
		logger = slog.Default()
	}
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	return &Discord{sender: dg, channelID: channelID, log: logger}, nil
}

func (d *Discord) Notify(ctx context.Context, bank string, items []game.News) error {
	if len(items) == 0 {
		return nil
	}
	if _, err := d.sender.ChannelMessageSend(d.channelID, Format(bank, items), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send discord alert: %w", err)
	}
	d.log.Debug("discord alert sent", "bank", bank, "items", len(items))
	return nil
}

// New returns a Discord notifier when credentials are configured and a Noop otherwise.
func New(token, channelID string, logger *slog.Logger) (Notifier, error) {
	if token == "" && channelID == "" {
		return Noop{}, nil
	}
	return NewDiscord(token, channelID, logger)
}
