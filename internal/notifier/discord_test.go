package notifier

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/gender"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/models"
)

type fakeSession struct {
	channel  string
	messages []string
	err      error
}

func (f *fakeSession) ChannelMessageSend(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.channel = channelID
	f.messages = append(f.messages, content)
	return &discordgo.Message{Content: content}, nil
}

func testEvent() models.Event {
	return models.Event{
		ID:             "ev-1",
		Title:          "Friday mixer",
		StartsAt:       time.Date(2026, 5, 1, 19, 0, 0, 0, time.UTC),
		MenSpots:       4,
		MenSignupCount: 4,
	}
}

func TestNotifyPromotion(t *testing.T) {
	fs := &fakeSession{}
	n := &DiscordNotifier{session: fs, channelID: "chan"}

	entry := models.RosterEntry{UserID: "u1", Attendee: models.Attendee{Gender: gender.Male}}
	if err := n.NotifyPromotion(context.Background(), testEvent(), entry); err != nil {
		t.Fatalf("NotifyPromotion returned error: %v", err)
	}
	if fs.channel != "chan" || len(fs.messages) != 1 {
		t.Fatalf("expected one message on chan, got %v on %q", fs.messages, fs.channel)
	}
	for _, want := range []string{"Friday mixer", "u1", "male", "2026-05-01 19:00"} {
		if !strings.Contains(fs.messages[0], want) {
			t.Errorf("message missing %q: %s", want, fs.messages[0])
		}
	}
}

func TestNotifyCapacityReached(t *testing.T) {
	fs := &fakeSession{}
	n := &DiscordNotifier{session: fs, channelID: "chan"}

	if err := n.NotifyCapacityReached(context.Background(), testEvent(), gender.Male, "u9"); err != nil {
		t.Fatalf("NotifyCapacityReached returned error: %v", err)
	}
	if !strings.Contains(fs.messages[0], "4/4") || !strings.Contains(fs.messages[0], "u9") {
		t.Errorf("unexpected message: %s", fs.messages[0])
	}
}

func TestSendErrors(t *testing.T) {
	n := &DiscordNotifier{channelID: "chan"}
	if err := n.NotifyPromotion(context.Background(), testEvent(), models.RosterEntry{}); err == nil {
		t.Error("expected error for nil session")
	}

	boom := errors.New("rate limited")
	n = &DiscordNotifier{session: &fakeSession{err: boom}, channelID: "chan"}
	if err := n.NotifyPromotion(context.Background(), testEvent(), models.RosterEntry{}); !errors.Is(err, boom) {
		t.Errorf("expected wrapped send error, got %v", err)
	}

	if _, err := NewFromToken("", "chan"); err == nil {
		t.Error("expected error for empty token")
	}
}
