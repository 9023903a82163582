package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/martlaht/ferrywatch/internal/api"
	"github.com/martlaht/ferrywatch/internal/config"
	"github.com/martlaht/ferrywatch/internal/integration"
	"github.com/martlaht/ferrywatch/internal/notify"
	"github.com/martlaht/ferrywatch/internal/repository"
	"github.com/martlaht/ferrywatch/internal/usecases"
)

func main() {
	// Configure logging
	log.SetOutput(os.Stdout)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("Starting ferry capacity watcher...")

	// Load .env if present, then the config file
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	cfgPath := os.Getenv("FERRYWATCH_CONFIG")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize the session store
	repo, err := repository.NewSQLiteSessionRepository(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize session store: %v", err)
	}
	defer repo.Close()

	// Initialize the schedule client and notification channels
	ferry := integration.NewFerryClient(cfg.API.BaseURL, cfg.API.RelayURL, cfg.API.TimeShift)
	channels := notify.NewChannelFactory()

	// Initialize the session manager and resume persisted sessions
	manager := usecases.NewSessionManager(repo, ferry, channels, cfg.Poll.Interval())
	if err := manager.RestoreSessions(); err != nil {
		log.Printf("Restart recovery failed: %v", err)
	}

	if cfg.Telegram.BotToken == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN is not set")
	}

	// Initialize the Telegram control bot
	controlBot, err := api.NewControlBot(cfg.Telegram.BotToken, cfg.Telegram.ChatID, manager, ferry, channels)
	if err != nil {
		log.Fatalf("Failed to initialize control bot: %v", err)
	}
	go controlBot.Start()

	// Wait for shutdown; active sessions stay persisted for the next start
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	manager.Close()
}
