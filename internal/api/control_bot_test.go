package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/martlaht/ferrywatch/internal/entities"
	"github.com/martlaht/ferrywatch/internal/integration"
)

func TestParseWatchArgs(t *testing.T) {
	wa, err := parseWatchArgs("HR 2026-07-01 14:30 5")
	if err != nil {
		t.Fatalf("parseWatchArgs failed: %v", err)
	}
	if wa.direction != "HR" || wa.date != "2026-07-01" || wa.departureTime != "14:30" || wa.threshold != 5 {
		t.Errorf("Unexpected parse result: %+v", wa)
	}
	if wa.channel != entities.ChannelTelegram {
		t.Errorf("Channel must default to telegram, got %q", wa.channel)
	}
}

func TestParseWatchArgsDesktopChannel(t *testing.T) {
	wa, err := parseWatchArgs("HR 2026-07-01 14:30 5 desktop")
	if err != nil {
		t.Fatalf("parseWatchArgs failed: %v", err)
	}
	if wa.channel != entities.ChannelDesktop {
		t.Errorf("Expected desktop channel, got %q", wa.channel)
	}

	wa, err = parseWatchArgs("HR 2026-07-01 14:30 5 telegram")
	if err != nil {
		t.Fatalf("parseWatchArgs failed: %v", err)
	}
	if wa.channel != entities.ChannelTelegram {
		t.Errorf("Expected telegram channel, got %q", wa.channel)
	}
}

func TestParseWatchArgsInvalid(t *testing.T) {
	for _, args := range []string{
		"",
		"HR 2026-07-01 14:30",
		"HR 2026-07-01 14:30 5 desktop extra",
		"HR 2026-07-01 14:30 zero",
		"HR 2026-07-01 14:30 0",
		"HR 2026-07-01 14:30 -3",
		"HR 2026-07-01 14:30 5 pager",
	} {
		if _, err := parseWatchArgs(args); err == nil {
			t.Errorf("Expected error for %q", args)
		}
	}

	if _, err := parseWatchArgs("HR 2026-07-01 14:30 5 pager"); err == nil || !strings.Contains(err.Error(), "pager") {
		t.Errorf("Unknown channel error should name the channel, got: %v", err)
	}
}

func TestSessionChatID(t *testing.T) {
	b := &ControlBot{defaultChatID: "555666"}
	if got := b.sessionChatID(42); got != "555666" {
		t.Errorf("Configured default chat must win, got %q", got)
	}

	b = &ControlBot{}
	if got := b.sessionChatID(42); got != "42" {
		t.Errorf("Without a default the sender's chat is used, got %q", got)
	}
}

// newTestControlBot builds a control bot backed by a mock schedule API; the
// Telegram connection itself is not needed for session configuration
func newTestControlBot(t *testing.T) *ControlBot {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/events":
			json.NewEncoder(w).Encode(entities.EventsResponse{
				TotalCount: 1,
				Items: []entities.Departure{{
					UID:        "uid-1",
					Start:      "2026-07-01T14:30:00+03:00",
					Capacities: entities.Capacities{SmallVehicles: 42},
				}},
			})
		case "/directions":
			json.NewEncoder(w).Encode(entities.DirectionsResponse{
				TotalCount: 1,
				Items:      []entities.Direction{{Code: "HR", Name: "Heltermaa-Rohuküla"}},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	return &ControlBot{
		ferry: integration.NewFerryClient(server.URL, "http://127.0.0.1:0/get?url=", 300),
		token: "123456:token",
	}
}

func TestBuildSessionConfigTelegram(t *testing.T) {
	b := newTestControlBot(t)

	cfg, err := b.buildSessionConfig(42, "HR 2026-07-01 14:30 5")
	if err != nil {
		t.Fatalf("buildSessionConfig failed: %v", err)
	}
	if cfg.DepartureUID != "uid-1" {
		t.Errorf("Expected departure uid-1, got %q", cfg.DepartureUID)
	}
	if cfg.Route != "Heltermaa-Rohuküla" {
		t.Errorf("Expected resolved route label, got %q", cfg.Route)
	}
	if cfg.Channel != entities.ChannelTelegram {
		t.Errorf("Expected telegram channel, got %q", cfg.Channel)
	}
	if cfg.TelegramBotToken != "123456:token" || cfg.TelegramChatID != "42" {
		t.Errorf("Telegram sessions must carry the bot credentials: %+v", cfg)
	}
}

func TestBuildSessionConfigDesktop(t *testing.T) {
	b := newTestControlBot(t)

	cfg, err := b.buildSessionConfig(42, "HR 2026-07-01 14:30 5 desktop")
	if err != nil {
		t.Fatalf("buildSessionConfig failed: %v", err)
	}
	if cfg.Channel != entities.ChannelDesktop {
		t.Fatalf("Expected desktop channel, got %q", cfg.Channel)
	}
	if cfg.TelegramBotToken != "" || cfg.TelegramChatID != "" {
		t.Errorf("Desktop sessions must not carry telegram credentials: %+v", cfg)
	}
}

func TestBuildSessionConfigUnknownDeparture(t *testing.T) {
	b := newTestControlBot(t)

	if _, err := b.buildSessionConfig(42, "HR 2026-07-01 09:00 5"); err == nil {
		t.Error("Expected error for a departure time not in the schedule")
	}
}
