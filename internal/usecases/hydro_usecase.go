// Package usecases contains the application's business logic
package usecases

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/hydronet/lindas-bot/internal/entities"
	"github.com/hydronet/lindas-bot/internal/integration/lindas"
	"github.com/hydronet/lindas-bot/internal/integration/openai"
	"github.com/hydronet/lindas-bot/internal/repository"
)

// HydroUseCase orchestrates the scrape cycle and serves measurement queries
// for the bot. The SQLite repository and the OpenAI service are optional;
// a scraper-only deployment passes nil for both.
type HydroUseCase struct {
	client        *lindas.Client
	builder       *lindas.QueryBuilder
	store         *repository.CSVStore
	repo          repository.MeasurementRepository
	openAIService openai.OpenAIService

	siteCodes  []string
	parameters []lindas.Parameter
}

// NewHydroUseCase creates a new hydro use case
func NewHydroUseCase(
	client *lindas.Client,
	builder *lindas.QueryBuilder,
	store *repository.CSVStore,
	repo repository.MeasurementRepository,
	openAIService openai.OpenAIService,
	siteCodes []string,
	parameters []lindas.Parameter,
) *HydroUseCase {
	return &HydroUseCase{
		client:        client,
		builder:       builder,
		store:         store,
		repo:          repo,
		openAIService: openAIService,
		siteCodes:     siteCodes,
		parameters:    parameters,
	}
}

// RefreshMeasurements runs one full scrape cycle: a connection test, then a
// strictly sequential query/map/save pass over all configured stations. No
// single station aborts the run; per-station failures are logged and counted.
func (uc *HydroUseCase) RefreshMeasurements() error {
	log.Printf("Starting data collection for %d sites", len(uc.siteCodes))

	if !uc.client.TestConnection() {
		return errors.New("failed to connect to SPARQL endpoint")
	}

	var measurements []*entities.Measurement
	errorCount := 0

	for _, siteCode := range uc.siteCodes {
		measurement, err := uc.scrapeSite(siteCode)
		if err != nil {
			log.Printf("No data retrieved for site %s: %v", siteCode, err)
			errorCount++
			continue
		}
		measurements = append(measurements, measurement)
	}

	if len(measurements) == 0 {
		log.Printf("No measurements collected from any site")
		return nil
	}

	newCount := uc.store.Save(measurements)
	log.Printf("Completed: %d sites processed, %d new records saved, %d errors",
		len(measurements), newCount, errorCount)

	if uc.repo != nil {
		if err := uc.repo.SaveMeasurements(measurements); err != nil {
			log.Printf("Warning: failed to mirror measurements to repository: %v", err)
		}
	}

	return nil
}

// CleanDuplicates removes duplicate rows from the CSV archive.
func (uc *HydroUseCase) CleanDuplicates() int {
	removed := uc.store.RemoveDuplicates()
	if removed > 0 {
		log.Printf("Removed %d duplicate records", removed)
	} else {
		log.Printf("No duplicates found")
	}
	return removed
}

// RecordCount reports the number of rows in the CSV archive.
func (uc *HydroUseCase) RecordCount() int {
	return uc.store.RecordCount()
}

func (uc *HydroUseCase) scrapeSite(siteCode string) (*entities.Measurement, error) {
	log.Printf("Processing site %s", siteCode)

	query, err := uc.builder.BuildQuery(lindas.QueryRequest{
		SiteCode:   siteCode,
		Parameters: uc.parameters,
	})
	if err != nil {
		return nil, fmt.Errorf("invalid query parameters: %v", err)
	}

	result, err := uc.client.ExecuteQuery(query)
	if err != nil {
		return nil, err
	}

	measurement, err := lindas.MapResult(result, siteCode)
	if err != nil {
		return nil, err
	}

	log.Printf("Retrieved measurement for site %s: %s",
		siteCode, measurement.Timestamp.Format(entities.TimestampLayout))
	return measurement, nil
}

// GetAvailableStations returns the station ids known to the repository.
func (uc *HydroUseCase) GetAvailableStations() ([]string, error) {
	if uc.repo == nil {
		return nil, errors.New("no measurement repository configured")
	}
	log.Println("Retrieving list of available stations")
	return uc.repo.GetStationIDs()
}

// GetLatestMeasurements returns the newest measurement of every station.
func (uc *HydroUseCase) GetLatestMeasurements() ([]entities.Measurement, error) {
	if uc.repo == nil {
		return nil, errors.New("no measurement repository configured")
	}
	log.Println("Retrieving latest measurements")
	return uc.repo.GetLatestMeasurements()
}

// GetStationMeasurement returns the newest measurement of one station, or
// nil when the station has no data.
func (uc *HydroUseCase) GetStationMeasurement(stationID string) (*entities.Measurement, error) {
	if uc.repo == nil {
		return nil, errors.New("no measurement repository configured")
	}
	log.Printf("Retrieving data for station: %s", stationID)
	return uc.repo.GetLatestByStation(stationID)
}

// GetLastUpdateTime returns the newest measurement timestamp in the repository.
func (uc *HydroUseCase) GetLastUpdateTime() (time.Time, error) {
	if uc.repo == nil {
		return time.Time{}, errors.New("no measurement repository configured")
	}
	return uc.repo.GetLastUpdateTime()
}

// HandleNaturalLanguageQuery interprets a user's free-text query using the AI
// service and returns an appropriate response string.
func (uc *HydroUseCase) HandleNaturalLanguageQuery(ctx context.Context, query string) (string, error) {
	if uc.openAIService == nil {
		return "I don't understand. Use /help to see available commands.", nil
	}

	log.Printf("Interpreting natural language query: %s", query)

	stations, err := uc.GetAvailableStations()
	if err != nil {
		log.Printf("Error fetching available stations: %v", err)
		return "Sorry, I couldn't fetch the list of stations right now.", nil
	}

	agentResp, err := uc.openAIService.InterpretUserQuery(ctx, query, stations)
	if err != nil {
		log.Printf("Error interpreting user query via OpenAI: %v", err)
		return "Sorry, I'm having trouble understanding right now. Please try again later or use /help.", nil
	}

	log.Printf("Agent response: Command='%s', Station='%s', Message='%s'",
		agentResp.CommandName, agentResp.StationCode, agentResp.UserMessage)

	switch agentResp.CommandName {
	case "GetStationReadings":
		if agentResp.StationCode == "" {
			// Agent identified the intent but not a concrete station
			return agentResp.UserMessage, nil
		}

		measurement, err := uc.GetStationMeasurement(agentResp.StationCode)
		if err != nil {
			log.Printf("Error fetching station data after agent interpretation: %v", err)
			return "Sorry, I couldn't fetch the data for that station right now.", nil
		}

		msg := agentResp.UserMessage
		if msg != "" {
			msg += "\n\n"
		}
		if measurement == nil {
			msg += fmt.Sprintf("However, I couldn't find any data for station '%s'. Use /stations to see available ones.", agentResp.StationCode)
			return msg, nil
		}
		msg += uc.FormatMeasurementInfo([]entities.Measurement{*measurement})
		return msg, nil

	case "GeneralQuery":
		return agentResp.UserMessage, nil

	default:
		log.Printf("Agent returned unexpected command: %s", agentResp.CommandName)
		return "I'm not sure how to respond to that. You can use /help for commands.", nil
	}
}

// FormatMeasurementInfo formats measurements for display
func (uc *HydroUseCase) FormatMeasurementInfo(measurements []entities.Measurement) string {
	if len(measurements) == 0 {
		return "No measurements available."
	}

	var result strings.Builder
	for _, m := range measurements {
		result.WriteString(fmt.Sprintf("📍 Station: %s\n", m.StationID))

		// Only include fields that have values
		if m.Discharge != nil {
			result.WriteString(fmt.Sprintf("🌊 Discharge: %s m³/s\n", formatReading(*m.Discharge)))
		}
		if m.WaterLevel != nil {
			result.WriteString(fmt.Sprintf("💧 Water Level: %s m\n", formatReading(*m.WaterLevel)))
		}
		if m.WaterTemperature != nil {
			result.WriteString(fmt.Sprintf("🌡️ Water Temperature: %s °C\n", formatReading(*m.WaterTemperature)))
		}
		if m.DangerLevel != nil {
			result.WriteString(fmt.Sprintf("⚠️ Danger Level: %d\n", *m.DangerLevel))
		}

		result.WriteString(fmt.Sprintf("🕒 Measured at: %s", m.Timestamp.Format("2006-01-02 15:04:05 MST")))
		result.WriteString("\n\n")
	}

	return result.String()
}

func formatReading(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
