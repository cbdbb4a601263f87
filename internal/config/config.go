// Package config loads application settings from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hydronet/lindas-bot/internal/integration/lindas"
)

const (
	// DefaultOutputFilename is the CSV archive written by the scraper.
	DefaultOutputFilename = "lindas_hydro_data.csv"

	defaultDataDir     = "data"
	defaultDBFilename  = "measurements.db"
	defaultMaxAttempts = 3
	defaultRetryDelay  = 2.0 // seconds
)

// DefaultSiteCodes are the stations scraped when SITE_CODES is not set.
var DefaultSiteCodes = []string{"2044", "2112", "2491", "2355"}

// Settings holds the validated runtime configuration. The scraping core
// treats these values as already checked.
type Settings struct {
	SparqlEndpoint string
	SparqlBaseURL  string

	SiteCodes  []string
	Parameters []lindas.Parameter

	DataDir        string
	OutputFilename string
	DBFilename     string

	RetryMaxAttempts int
	RetryDelay       time.Duration
}

// Load reads settings from environment variables, applying defaults and
// validating ranges. Call godotenv.Load first when a .env file should be
// honored.
func Load() (*Settings, error) {
	s := &Settings{
		SparqlEndpoint:   getenv("SPARQL_ENDPOINT", lindas.DefaultEndpointURL),
		SparqlBaseURL:    getenv("SPARQL_BASE_URL", lindas.DefaultBaseURL),
		DataDir:          getenv("HYDRO_DATA_DIR", defaultDataDir),
		OutputFilename:   getenv("OUTPUT_FILENAME", DefaultOutputFilename),
		DBFilename:       getenv("DB_FILENAME", defaultDBFilename),
		RetryMaxAttempts: getenvInt("RETRY_MAX_ATTEMPTS", defaultMaxAttempts),
	}

	s.SiteCodes = splitList(os.Getenv("SITE_CODES"))
	if len(s.SiteCodes) == 0 {
		s.SiteCodes = append([]string(nil), DefaultSiteCodes...)
	}

	names := splitList(os.Getenv("PARAMETERS"))
	if len(names) == 0 {
		s.Parameters = lindas.AllParameters()
	} else {
		for _, name := range names {
			p, err := lindas.ParseParameter(name)
			if err != nil {
				return nil, fmt.Errorf("invalid PARAMETERS entry: %v", err)
			}
			s.Parameters = append(s.Parameters, p)
		}
	}

	if s.RetryMaxAttempts < 1 || s.RetryMaxAttempts > 10 {
		return nil, fmt.Errorf("RETRY_MAX_ATTEMPTS must be between 1 and 10, got %d", s.RetryMaxAttempts)
	}

	delaySeconds := getenvFloat("RETRY_DELAY", defaultRetryDelay)
	if delaySeconds < 0.1 || delaySeconds > 60.0 {
		return nil, fmt.Errorf("RETRY_DELAY must be between 0.1 and 60.0 seconds, got %g", delaySeconds)
	}
	s.RetryDelay = time.Duration(delaySeconds * float64(time.Second))

	return s, nil
}

// OutputPath is the full path of the CSV archive.
func (s *Settings) OutputPath() string {
	return filepath.Join(s.DataDir, s.OutputFilename)
}

// DBPath is the full path of the SQLite mirror.
func (s *Settings) DBPath() string {
	return filepath.Join(s.DataDir, s.DBFilename)
}

// EnsureDirectories creates the data directory when missing.
func (s *Settings) EnsureDirectories() error {
	return os.MkdirAll(s.DataDir, 0755)
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvFloat(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func splitList(v string) []string {
	var items []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
