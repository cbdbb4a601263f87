// Package integration handles external service interactions
package integration

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
)

const riverCategoryCode = "lhg_fluss"

// RiverStationCodes extracts numeric river-station codes from a station
// metadata CSV. Rows are kept when their lhg_code column equals "lhg_fluss";
// the station code is the lhg_url value with its ".htm" suffix stripped.
// Non-numeric codes are skipped with a logged warning.
func RiverStationCodes(csvPath string) ([]string, error) {
	f, err := os.Open(csvPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open station CSV: %v", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read station CSV header: %v", err)
	}

	codeCol, urlCol := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case "lhg_code":
			codeCol = i
		case "lhg_url":
			urlCol = i
		}
	}
	if codeCol < 0 || urlCol < 0 {
		return nil, fmt.Errorf("station CSV %s is missing required columns lhg_code/lhg_url", csvPath)
	}

	var codes []string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read station CSV: %v", err)
		}
		if len(row) <= codeCol || len(row) <= urlCol {
			continue
		}
		if strings.TrimSpace(row[codeCol]) != riverCategoryCode {
			continue
		}

		code := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(row[urlCol]), ".htm"))
		if code == "" {
			continue
		}
		if _, err := strconv.Atoi(code); err != nil {
			log.Printf("Skipping invalid station code: %s", code)
			continue
		}
		codes = append(codes, code)
	}

	log.Printf("Extracted %d river station codes from %s", len(codes), csvPath)
	return codes, nil
}
