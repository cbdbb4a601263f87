package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/hydronet/lindas-bot/internal/api"
	"github.com/hydronet/lindas-bot/internal/config"
	"github.com/hydronet/lindas-bot/internal/integration/lindas"
	"github.com/hydronet/lindas-bot/internal/integration/openai"
	"github.com/hydronet/lindas-bot/internal/repository"
	"github.com/hydronet/lindas-bot/internal/usecases"
)

func main() {
	// Configure logging
	log.SetOutput(os.Stdout)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("Starting Hydro Bot...")

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	settings, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if err := settings.EnsureDirectories(); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	// Initialize OpenAI service; the bot still works without it, natural
	// language queries just get the default reply.
	openAIService, err := openai.NewOpenAIService()
	if err != nil {
		log.Printf("OpenAI service unavailable: %v", err)
		openAIService = nil
	}

	// Initialize repository
	repo, err := repository.NewSQLiteMeasurementRepository(settings.DBPath())
	if err != nil {
		log.Fatalf("Failed to initialize repository: %v", err)
	}
	defer repo.Close()

	// Initialize CSV store
	store, err := repository.NewCSVStore(settings.OutputPath())
	if err != nil {
		log.Fatalf("Failed to initialize CSV store: %v", err)
	}

	client := lindas.NewClient(settings.SparqlEndpoint, settings.RetryMaxAttempts, settings.RetryDelay)
	builder := lindas.NewQueryBuilder(settings.SparqlBaseURL)

	useCase := usecases.NewHydroUseCase(client, builder, store, repo, openAIService,
		settings.SiteCodes, settings.Parameters)

	// Get the bot token from environment variable
	botToken := os.Getenv("TELEGRAM_BOT_TOKEN")
	if botToken == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN environment variable is not set")
	}

	// Initialize Telegram bot
	telegramBot, err := api.NewTelegramBot(botToken, useCase)
	if err != nil {
		log.Fatalf("Failed to initialize Telegram bot: %v", err)
	}

	// Start the bot
	telegramBot.Start()
}
