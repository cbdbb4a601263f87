package integration

import (
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/hydronet/lindas-bot/internal/entities"
)

// StationScraper discovers hydrological stations from the hydrodaten
// website. It is an alternative to the CSV station list for building the
// set of codes to scrape.
type StationScraper struct {
	sourceURL string
}

// NewStationScraper creates a new station directory scraper
func NewStationScraper(url string) *StationScraper {
	if url == "" {
		// Default source URL
		url = "https://www.hydrodaten.admin.ch/en/stations-and-data.html"
	}
	return &StationScraper{sourceURL: url}
}

// station links end in the numeric code, optionally with an .htm(l) suffix
var stationHrefPattern = regexp.MustCompile(`(?:^|[^0-9])(\d{1,4})(?:\.html?)?$`)

// FetchStations retrieves the station table and extracts codes and names
func (ss *StationScraper) FetchStations() ([]entities.Station, error) {
	log.Printf("Sending HTTP request to station directory")
	res, err := http.Get(ss.sourceURL)
	if err != nil {
		log.Printf("Error fetching station directory: %v", err)
		return nil, fmt.Errorf("failed to fetch the station directory: %v", err)
	}
	defer res.Body.Close()

	// Check for successful response
	if res.StatusCode != 200 {
		log.Printf("Received unexpected status code: %d %s", res.StatusCode, res.Status)
		return nil, fmt.Errorf("unexpected status code: %d %s", res.StatusCode, res.Status)
	}
	log.Printf("Successfully received HTTP response with status: %s", res.Status)

	// Parse the HTML document
	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		log.Printf("Error parsing HTML: %v", err)
		return nil, fmt.Errorf("failed to parse the station directory: %v", err)
	}

	var stations []entities.Station
	rowCount := 0

	// Iterate over each table row in the document
	doc.Find("table tbody tr").Each(func(index int, row *goquery.Selection) {
		rowCount++

		link := row.Find("a").First()
		href, ok := link.Attr("href")
		if !ok {
			return
		}

		code := stationCodeFromHref(href)
		if code == "" {
			return
		}

		stations = append(stations, entities.Station{
			Code: code,
			Name: strings.TrimSpace(link.Text()),
		})
	})

	log.Printf("Parsed %d rows, extracted %d stations", rowCount, len(stations))
	return stations, nil
}

func stationCodeFromHref(href string) string {
	href = strings.TrimSuffix(strings.TrimSpace(href), "/")
	m := stationHrefPattern.FindStringSubmatch(href)
	if m == nil {
		return ""
	}
	return m[1]
}
