// Package api provides handlers for external APIs and interfaces
package api

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/martlaht/ferrywatch/internal/entities"
	"github.com/martlaht/ferrywatch/internal/integration"
	"github.com/martlaht/ferrywatch/internal/notify"
	"github.com/martlaht/ferrywatch/internal/usecases"
)

// ControlBot is the Telegram command surface for managing watch sessions
type ControlBot struct {
	bot           *tgbotapi.BotAPI
	manager       *usecases.SessionManager
	ferry         *integration.FerryClient
	channels      notify.Factory
	token         string
	defaultChatID string // configured session-default chat; empty means "reply to the sender"
}

// NewControlBot creates a new Telegram control bot. defaultChatID, when not
// empty, is the chat that session notifications go to; otherwise they go to
// the chat the /watch command came from.
func NewControlBot(botToken, defaultChatID string, manager *usecases.SessionManager, ferry *integration.FerryClient, channels notify.Factory) (*ControlBot, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %v", err)
	}

	return &ControlBot{
		bot:           bot,
		manager:       manager,
		ferry:         ferry,
		channels:      channels,
		token:         botToken,
		defaultChatID: defaultChatID,
	}, nil
}

// Start begins listening for and handling Telegram commands
func (b *ControlBot) Start() {
	log.Printf("Authorized on Telegram account %s", b.bot.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.bot.GetUpdatesChan(u)
	log.Println("Control bot is now listening for commands...")

	for update := range updates {
		if update.Message == nil {
			continue
		}

		log.Printf("Received message from %s (ID: %d): %s",
			update.Message.From.UserName,
			update.Message.From.ID,
			update.Message.Text)

		b.handleMessage(update)
	}
}

// handleMessage processes a Telegram message update
func (b *ControlBot) handleMessage(update tgbotapi.Update) {
	msg := tgbotapi.NewMessage(update.Message.Chat.ID, "")

	if update.Message.IsCommand() {
		b.handleCommand(update.Message, &msg)
	} else {
		msg.Text = "I don't understand. Use /help to see available commands."
	}

	log.Printf("Sending response to user %s", update.Message.From.UserName)
	if _, err := b.bot.Send(msg); err != nil {
		log.Printf("Error sending message: %v", err)
	}
}

// handleCommand processes commands like /routes, /watch, etc.
func (b *ControlBot) handleCommand(message *tgbotapi.Message, msg *tgbotapi.MessageConfig) {
	args := message.CommandArguments()

	switch message.Command() {
	case "start":
		msg.Text = "Welcome to the ferry capacity watcher! Use /routes to see the available routes or /help for more information."

	case "help":
		msg.Text = "Available commands:\n" +
			"/routes - Show the available ferry routes\n" +
			"/departures [route] [date] - Show departures with capacity counts\n" +
			"/watch [route] [date] [time] [threshold] [channel] - Watch a departure's small vehicle capacity (channel: telegram or desktop, default telegram)\n" +
			"/list - Show active watch sessions\n" +
			"/stop [id] - Stop one watch session\n" +
			"/stopall - Stop all watch sessions\n" +
			"/help - Show this help message"

	case "routes":
		b.handleRoutesCommand(msg)

	case "departures":
		b.handleDeparturesCommand(args, msg)

	case "watch":
		b.handleWatchCommand(message.Chat.ID, args, msg)

	case "list":
		b.handleListCommand(msg)

	case "stop":
		b.handleStopCommand(args, msg)

	case "stopall":
		b.manager.StopAllSessions()
		msg.Text = "Stopped all watch sessions."

	default:
		log.Printf("Received unknown command /%s from user %s", message.Command(), message.From.UserName)
		msg.Text = "Unknown command. Use /help to see available commands."
	}
}

// handleRoutesCommand processes the /routes command
func (b *ControlBot) handleRoutesCommand(msg *tgbotapi.MessageConfig) {
	directions, err := b.ferry.Directions(context.Background())
	if err != nil {
		msg.Text = "Error fetching ferry routes. Please try again later."
		log.Printf("Error fetching directions: %v", err)
		return
	}
	msg.Text = FormatDirections(directions.Items)
}

// handleDeparturesCommand processes /departures [route] [date]
func (b *ControlBot) handleDeparturesCommand(args string, msg *tgbotapi.MessageConfig) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		msg.Text = "Usage: /departures [route] [date]. Example: /departures HR 2026-07-01"
		return
	}
	direction, date := fields[0], fields[1]

	events, err := b.ferry.Events(context.Background(), direction, date)
	if err != nil {
		msg.Text = "Error fetching departures. Please try again later."
		log.Printf("Error fetching events: %v", err)
		return
	}
	msg.Text = FormatDepartures(direction, date, events.Items)
}

// handleWatchCommand processes /watch [route] [date] [time] [threshold]
func (b *ControlBot) handleWatchCommand(chatID int64, args string, msg *tgbotapi.MessageConfig) {
	cfg, err := b.buildSessionConfig(chatID, args)
	if err != nil {
		msg.Text = err.Error()
		return
	}

	// An untested channel cannot be armed
	channel, err := b.channels.ChannelFor(cfg)
	if err != nil {
		msg.Text = fmt.Sprintf("Cannot set up notification channel: %v", err)
		return
	}
	if err := channel.Test(); err != nil {
		msg.Text = fmt.Sprintf("Notification test failed, not starting monitoring: %v", err)
		log.Printf("Notification test failed: %v", err)
		return
	}

	if err := b.manager.StartSession(*cfg); err != nil {
		msg.Text = fmt.Sprintf("Failed to start monitoring: %v", err)
		log.Printf("Failed to start session: %v", err)
		return
	}

	msg.Text = fmt.Sprintf("Watching %s at %s. You'll be alerted when small vehicle capacity drops below %d.",
		cfg.Route, cfg.DepartureTime, cfg.Threshold)
}

// watchArgs holds the parsed arguments of a /watch command
type watchArgs struct {
	direction     string
	date          string
	departureTime string
	threshold     int
	channel       entities.ChannelType
}

// parseWatchArgs parses "/watch [route] [date] [time] [threshold] [channel]";
// the channel argument is optional and defaults to telegram
func parseWatchArgs(args string) (*watchArgs, error) {
	fields := strings.Fields(args)
	if len(fields) < 4 || len(fields) > 5 {
		return nil, fmt.Errorf("Usage: /watch [route] [date] [time] [threshold] [channel]. Example: /watch HR 2026-07-01 14:30 5 desktop")
	}

	threshold, err := strconv.Atoi(fields[3])
	if err != nil || threshold <= 0 {
		return nil, fmt.Errorf("Threshold must be a positive number, got %q.", fields[3])
	}

	channel := entities.ChannelTelegram
	if len(fields) == 5 {
		switch entities.ChannelType(fields[4]) {
		case entities.ChannelTelegram, entities.ChannelDesktop:
			channel = entities.ChannelType(fields[4])
		default:
			return nil, fmt.Errorf("Unknown channel %q. Use telegram or desktop.", fields[4])
		}
	}

	return &watchArgs{
		direction:     fields[0],
		date:          fields[1],
		departureTime: fields[2],
		threshold:     threshold,
		channel:       channel,
	}, nil
}

// buildSessionConfig resolves /watch arguments into a session configuration
func (b *ControlBot) buildSessionConfig(chatID int64, args string) (*entities.WatchSession, error) {
	wa, err := parseWatchArgs(args)
	if err != nil {
		return nil, err
	}

	events, err := b.ferry.Events(context.Background(), wa.direction, wa.date)
	if err != nil {
		log.Printf("Error fetching events: %v", err)
		return nil, fmt.Errorf("Error fetching departures. Please try again later.")
	}

	var target *entities.Departure
	for i := range events.Items {
		if integration.FormatTime(events.Items[i].Start) == wa.departureTime {
			target = &events.Items[i]
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("No departure at %s on %s for route %s. Use /departures to list them.", wa.departureTime, wa.date, wa.direction)
	}

	cfg := &entities.WatchSession{
		DepartureUID:  target.UID,
		Direction:     wa.direction,
		DepartureDate: wa.date,
		DepartureTime: wa.departureTime,
		Route:         b.routeLabel(wa.direction),
		Threshold:     wa.threshold,
		Channel:       wa.channel,
	}
	if wa.channel == entities.ChannelTelegram {
		cfg.TelegramBotToken = b.token
		cfg.TelegramChatID = b.sessionChatID(chatID)
	}
	return cfg, nil
}

// sessionChatID picks the chat that session notifications go to: the
// configured default chat when set, otherwise the command's sender
func (b *ControlBot) sessionChatID(sender int64) string {
	if b.defaultChatID != "" {
		return b.defaultChatID
	}
	return strconv.FormatInt(sender, 10)
}

// handleListCommand processes the /list command
func (b *ControlBot) handleListCommand(msg *tgbotapi.MessageConfig) {
	msg.Text = FormatSessions(b.manager.ListActiveSessions())
}

// handleStopCommand processes /stop [id]
func (b *ControlBot) handleStopCommand(args string, msg *tgbotapi.MessageConfig) {
	id := strings.TrimSpace(args)
	if id == "" {
		msg.Text = "Please specify a session id. Use /list to see active sessions."
		return
	}
	b.manager.StopSession(id)
	msg.Text = fmt.Sprintf("Stopped watch session %s.", id)
}

// routeLabel resolves a direction code to its display name, falling back to
// the code when the lookup fails
func (b *ControlBot) routeLabel(direction string) string {
	directions, err := b.ferry.Directions(context.Background())
	if err != nil {
		log.Printf("Error resolving route label for %s: %v", direction, err)
		return direction
	}
	for _, d := range directions.Items {
		if d.Code == direction {
			return d.Name
		}
	}
	return direction
}
