package notifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/gender"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/models"
)

// Notifier publishes ledger and promotion events to the organisers' channel.
type Notifier interface {
	NotifyPromotion(ctx context.Context, ev models.Event, entry models.RosterEntry) error
	NotifyCapacityReached(ctx context.Context, ev models.Event, g gender.Gender, userID string) error
}

// sender is the slice of *discordgo.Session the notifier uses.
type sender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type DiscordNotifier struct {
	session   sender
	channelID string
}

func NewDiscordNotifier(session *discordgo.Session, channelID string) *DiscordNotifier {
	n := &DiscordNotifier{channelID: channelID}
	if session != nil {
		n.session = session
	}
	return n
}

// NewFromToken opens a bot session for token. Messages are sent over REST so
// no gateway connection is kept.
func NewFromToken(token, channelID string) (*DiscordNotifier, error) {
	if token == "" {
		return nil, errors.New("discord bot token is empty")
	}
	if channelID == "" {
		return nil, errors.New("discord channel ID is empty")
	}
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	return NewDiscordNotifier(session, channelID), nil
}

func (n *DiscordNotifier) NotifyPromotion(ctx context.Context, ev models.Event, entry models.RosterEntry) error {
	message := fmt.Sprintf("🎉 **Waitlist Promotion**\n**Event:** %s (%s)\n**User:** %s\n**Gender:** %s\n**Starts:** %s",
		ev.Title,
		ev.ID,
		displayName(entry.DisplayName, entry.UserID),
		entry.Gender,
		ev.StartsAt.Format("2006-01-02 15:04"),
	)
	return n.send(ctx, message)
}

func (n *DiscordNotifier) NotifyCapacityReached(ctx context.Context, ev models.Event, g gender.Gender, userID string) error {
	spots, _ := ev.Spots(g)
	message := fmt.Sprintf("🚫 **Capacity Reached**\n**Event:** %s (%s)\n**Partition:** %s %d/%d\n**Turned away:** %s",
		ev.Title,
		ev.ID,
		g,
		ev.Count(g),
		spots,
		userID,
	)
	return n.send(ctx, message)
}

func (n *DiscordNotifier) send(ctx context.Context, message string) error {
	if n.session == nil {
		return fmt.Errorf("discord session is nil")
	}
	if n.channelID == "" {
		return fmt.Errorf("discord channel ID is empty")
	}
	if _, err := n.session.ChannelMessageSend(n.channelID, message, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send discord message: %w", err)
	}
	return nil
}

func displayName(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}

// Nop drops every notification.
type Nop struct{}

func (Nop) NotifyPromotion(context.Context, models.Event, models.RosterEntry) error { return nil }

func (Nop) NotifyCapacityReached(context.Context, models.Event, gender.Gender, string) error {
	return nil
}
