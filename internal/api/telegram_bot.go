// Package api provides handlers for external APIs and interfaces
package api

import (
	"context"
	"fmt"
	"log"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hydronet/lindas-bot/internal/entities"
	"github.com/hydronet/lindas-bot/internal/usecases"
)

// TelegramBot handles interactions with the Telegram API
type TelegramBot struct {
	bot     *tgbotapi.BotAPI
	useCase *usecases.HydroUseCase
}

// NewTelegramBot creates a new Telegram bot handler
func NewTelegramBot(botToken string, useCase *usecases.HydroUseCase) (*TelegramBot, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %v", err)
	}

	return &TelegramBot{
		bot:     bot,
		useCase: useCase,
	}, nil
}

// Start begins listening for and handling Telegram messages
func (t *TelegramBot) Start() {
	log.Printf("Authorized on Telegram account %s", t.bot.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := t.bot.GetUpdatesChan(u)
	log.Println("Bot is now listening for messages...")

	for update := range updates {
		if update.Message == nil {
			continue
		}

		// Log incoming messages
		log.Printf("Received message from %s (ID: %d): %s",
			update.Message.From.UserName,
			update.Message.From.ID,
			update.Message.Text)

		t.handleMessage(update)
	}
}

// handleMessage processes a Telegram message update
func (t *TelegramBot) handleMessage(update tgbotapi.Update) {
	msg := tgbotapi.NewMessage(update.Message.Chat.ID, "")

	switch {
	case update.Message.IsCommand():
		t.handleCommand(update.Message, &msg)
	default:
		t.handleNonCommand(update.Message, &msg)
	}

	log.Printf("Sending response to user %s", update.Message.From.UserName)
	if _, err := t.bot.Send(msg); err != nil {
		log.Printf("Error sending message: %v", err)
	}
}

// handleCommand processes commands like /start, /help, etc.
func (t *TelegramBot) handleCommand(message *tgbotapi.Message, msg *tgbotapi.MessageConfig) {
	switch message.Command() {
	case "start":
		log.Printf("Handling /start command for user %s", message.From.UserName)
		msg.Text = "Welcome to the Hydro Bot! Use /stations to see the list of monitored stations or /help for more information."

	case "help":
		log.Printf("Handling /help command for user %s", message.From.UserName)
		msg.Text = "Available commands:\n" +
			"/start - Start the bot\n" +
			"/stations - Show the monitored stations\n" +
			"/station [code] - Show the latest readings for a station\n" +
			"/latest - Show the latest readings for all stations\n" +
			"/help - Show this help message"

	case "stations":
		log.Printf("Handling /stations command for user %s", message.From.UserName)
		t.handleStationsCommand(msg)

	case "station":
		args := message.CommandArguments()
		log.Printf("Handling /station command with args '%s' for user %s", args, message.From.UserName)
		t.handleStationCommand(args, msg)

	case "latest":
		log.Printf("Handling /latest command for user %s", message.From.UserName)
		t.handleLatestCommand(msg)

	default:
		log.Printf("Received unknown command /%s from user %s", message.Command(), message.From.UserName)
		msg.Text = "Unknown command. Use /help to see available commands."
	}
}

// handleStationsCommand processes the /stations command
func (t *TelegramBot) handleStationsCommand(msg *tgbotapi.MessageConfig) {
	stations, err := t.useCase.GetAvailableStations()
	if err != nil {
		msg.Text = "Error fetching station data. Please try again later."
		log.Printf("Error fetching station data: %v", err)
		return
	}

	if len(stations) == 0 {
		msg.Text = "No stations have data yet. The scraper may not have run."
		return
	}

	lastUpdate, _ := t.useCase.GetLastUpdateTime()

	msg.Text = "Monitored stations:\n\n"
	for _, station := range stations {
		msg.Text += "• " + station + "\n"
	}
	msg.Text += "\nUse /station [code] to get detailed readings."
	if !lastUpdate.IsZero() {
		msg.Text += fmt.Sprintf("\n\n🕒 Last update: %s", lastUpdate.Format("2006-01-02 15:04:05"))
	}
}

// handleStationCommand processes the /station [code] command
func (t *TelegramBot) handleStationCommand(args string, msg *tgbotapi.MessageConfig) {
	if args == "" {
		msg.Text = "Please specify a station code. Example: /station 2044"
		return
	}

	measurement, err := t.useCase.GetStationMeasurement(args)
	if err != nil {
		msg.Text = "Error fetching station data. Please try again later."
		log.Printf("Error fetching station data: %v", err)
		return
	}

	if measurement == nil {
		msg.Text = fmt.Sprintf("No readings found for station '%s'. Use /stations to see the available stations.", args)
		return
	}

	msg.Text = t.useCase.FormatMeasurementInfo([]entities.Measurement{*measurement})
}

// handleLatestCommand processes the /latest command
func (t *TelegramBot) handleLatestCommand(msg *tgbotapi.MessageConfig) {
	measurements, err := t.useCase.GetLatestMeasurements()
	if err != nil {
		msg.Text = "Error fetching station data. Please try again later."
		log.Printf("Error fetching latest measurements: %v", err)
		return
	}

	if len(measurements) == 0 {
		msg.Text = "No readings available yet. The scraper may not have run."
		return
	}

	msg.Text = t.useCase.FormatMeasurementInfo(measurements)
}

// handleNonCommand processes regular messages by letting the AI agent
// interpret them
func (t *TelegramBot) handleNonCommand(message *tgbotapi.Message, msg *tgbotapi.MessageConfig) {
	log.Printf("Received non-command message from user %s: %s", message.From.UserName, message.Text)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	response, err := t.useCase.HandleNaturalLanguageQuery(ctx, message.Text)
	if err != nil {
		log.Printf("Error handling natural language query: %v", err)
		msg.Text = "I don't understand. Use /help to see available commands."
		return
	}

	msg.Text = response
}
