package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"

	"bankceo/internal/game"
)

type fakeSender struct {
	channel string
	content string
	err     error
}

func (f *fakeSender) ChannelMessageSend(channelID string, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.channel = channelID
	f.content = content
	if f.err != nil {
		return nil, f.err
	}
	return &discordgo.Message{ChannelID: channelID, Content: content}, nil
}

var sample = []game.News{
	{Message: "Weekly report", Type: game.NewsInfo},
	{Message: "Project done", Type: game.NewsSuccess},
	{Message: "Security breach", Type: game.NewsDanger},
	{Message: "Servers overloaded", Type: game.NewsWarning},
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name  string
		prefs game.Notifications
		want  int
	}{
		{"all", game.Notifications{SystemAlerts: true, PlayerAlerts: true}, 4},
		{"system only", game.Notifications{SystemAlerts: true}, 2},
		{"player only", game.Notifications{PlayerAlerts: true}, 2},
		{"none", game.Notifications{}, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Filter(tc.prefs, sample)
			if len(got) != tc.want {
				t.Fatalf("expected %d items, got %d", tc.want, len(got))
			}
		})
	}
	if got := Filter(game.Notifications{SystemAlerts: true}, sample); got[0].Type != game.NewsDanger {
		t.Fatalf("expected order preserved, got %+v", got)
	}
}

func TestDiscordNotify(t *testing.T) {
	fs := &fakeSender{}
	d := &Discord{sender: fs, channelID: "123", log: discardLogger()}

	if err := d.Notify(context.Background(), "Harbor Trust", nil); err != nil {
		t.Fatalf("empty notify: %v", err)
	}
	if fs.content != "" {
		t.Fatalf("expected no message for empty batch")
	}

	if err := d.Notify(context.Background(), "Harbor Trust", sample[2:]); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if fs.channel != "123" {
		t.Fatalf("unexpected channel %q", fs.channel)
	}
	if !strings.HasPrefix(fs.content, "**Harbor Trust**") || !strings.Contains(fs.content, "[DANGER] Security breach") {
		t.Fatalf("unexpected content %q", fs.content)
	}

	fs.err = errors.New("rate limited")
	if err := d.Notify(context.Background(), "Harbor Trust", sample); err == nil {
		t.Fatal("expected send error")
	}
}

func TestFormatTruncates(t *testing.T) {
	items := make([]game.News, 200)
	for i := range items {
		items[i] = game.News{Message: strings.Repeat("x", 40), Type: game.NewsInfo}
	}
	if got := Format("Bank", items); len(got) > discordLimit {
		t.Fatalf("message too long: %d", len(got))
	}
}

func TestNewWithoutCredentials(t *testing.T) {
	n, err := New("", "", nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, ok := n.(Noop); !ok {
		t.Fatalf("expected Noop, got %T", n)
	}
	if _, err := New("token", "", nil); err == nil {
		t.Fatal("expected error for missing channel")
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
