package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/hydronet/lindas-bot/internal/config"
	"github.com/hydronet/lindas-bot/internal/integration"
	"github.com/hydronet/lindas-bot/internal/integration/lindas"
	"github.com/hydronet/lindas-bot/internal/repository"
	"github.com/hydronet/lindas-bot/internal/usecases"
)

func main() {
	// Configure logging
	log.SetOutput(os.Stdout)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("Starting LINDAS Hydro Scraper...")

	daemon := flag.Bool("daemon", false, "keep running and scrape hourly")
	stationList := flag.String("station-list", "", "station metadata CSV to derive site codes from")
	flag.Parse()

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

	if *stationList != "" {
		codes, err := integration.RiverStationCodes(*stationList)
		if err != nil {
			log.Fatalf("Failed to load station list: %v", err)
		}
		settings.SiteCodes = codes
	}

	// Initialize CSV store
	store, err := repository.NewCSVStore(settings.OutputPath())
	if err != nil {
		log.Fatalf("Failed to initialize CSV store: %v", err)
	}

	// Initialize SQLite mirror repository
	repo, err := repository.NewSQLiteMeasurementRepository(settings.DBPath())
	if err != nil {
		log.Fatalf("Failed to initialize repository: %v", err)
	}
	defer repo.Close()

	// Initialize SPARQL client and query builder
	client := lindas.NewClient(settings.SparqlEndpoint, settings.RetryMaxAttempts, settings.RetryDelay)
	builder := lindas.NewQueryBuilder(settings.SparqlBaseURL)

	useCase := usecases.NewHydroUseCase(client, builder, store, repo, nil,
		settings.SiteCodes, settings.Parameters)

	runCycle := func() {
		if err := useCase.RefreshMeasurements(); err != nil {
			log.Printf("Data refresh failed: %v", err)
		}
		useCase.CleanDuplicates()
		log.Printf("CSV archive now holds %d records", useCase.RecordCount())
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	if !*daemon {
		done := make(chan struct{})
		go func() {
			runCycle()
			close(done)
		}()
		select {
		case <-done:
		case s := <-sig:
			log.Printf("Received signal %v, aborting", s)
			os.Exit(1)
		}
		return
	}

	// Run immediately on startup, then hourly
	runCycle()

	c := cron.New()
	if _, err := c.AddFunc("0 * * * *", runCycle); err != nil {
		log.Fatalf("Failed to set up cron job: %v", err)
	}

	log.Println("Scraper has been scheduled to run hourly")
	c.Start()

	s := <-sig
	log.Printf("Received signal %v, shutting down", s)
}
