// Package repository provides data access implementations
package repository

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/hydronet/lindas-bot/internal/entities"
)

// CSVStore is an append-only CSV table of measurements with in-memory
// duplicate detection. The key set mirrors the on-disk rows; construction is
// the only refresh point, so external edits to the file between runs require
// a new store instance.
type CSVStore struct {
	path          string
	processedKeys map[string]struct{}
}

// NewCSVStore opens the store at path, creating the file with its header row
// if absent, and loads the dedup keys of all existing rows.
func NewCSVStore(path string) (*CSVStore, error) {
	store := &CSVStore{
		path:          path,
		processedKeys: make(map[string]struct{}),
	}
	if err := store.ensureFile(); err != nil {
		return nil, err
	}
	store.loadProcessedKeys()
	return store, nil
}

// Save appends measurements whose dedup key has not been seen before and
// returns the number of rows written. The first occurrence wins when a batch
// repeats a key; a write failure is logged and reported as zero rows.
func (s *CSVStore) Save(measurements []*entities.Measurement) int {
	if len(measurements) == 0 {
		return 0
	}

	var newRows [][]string
	for _, m := range measurements {
		key := m.UniqueKey()
		if _, seen := s.processedKeys[key]; seen {
			continue
		}
		s.processedKeys[key] = struct{}{}
		newRows = append(newRows, m.CSVRow())
	}
	if len(newRows) == 0 {
		return 0
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("Error writing to CSV: %v", err)
		return 0
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if err := writer.WriteAll(newRows); err != nil {
		log.Printf("Error writing to CSV: %v", err)
		return 0
	}

	log.Printf("Saved %d new records to %s", len(newRows), s.path)
	return len(newRows)
}

// RemoveDuplicates drops rows sharing a (timestamp, station_id) pair keeping
// the first occurrence, rewrites the file only when something was dropped,
// and resynchronizes the in-memory key set.
func (s *CSVStore) RemoveDuplicates() int {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		log.Printf("CSV file does not exist: %s", s.path)
		return 0
	}

	header, rows, err := s.readAll()
	if err != nil {
		log.Printf("Error removing duplicates: %v", err)
		return 0
	}

	seen := make(map[string]struct{}, len(rows))
	kept := make([][]string, 0, len(rows))
	for _, row := range rows {
		key := rowKey(row)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, row)
	}

	removed := len(rows) - len(kept)
	if removed == 0 {
		return 0
	}

	if err := s.writeAll(header, kept); err != nil {
		log.Printf("Error removing duplicates: %v", err)
		return 0
	}

	s.processedKeys = make(map[string]struct{}, len(kept))
	for _, row := range kept {
		if len(row) >= 2 && row[0] != "" && row[1] != "" {
			s.processedKeys[rowKey(row)] = struct{}{}
		}
	}

	log.Printf("Removed %d duplicate records", removed)
	return removed
}

// RecordCount returns the number of data rows in the file, or zero when the
// file is missing or unreadable.
func (s *CSVStore) RecordCount() int {
	_, rows, err := s.readAll()
	if err != nil {
		return 0
	}
	return len(rows)
}

func (s *CSVStore) ensureFile() error {
	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat CSV file: %v", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create data directory: %v", err)
		}
	}

	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if err := writer.Write(entities.CSVColumns); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	log.Printf("Created new CSV file: %s", s.path)
	return nil
}

func (s *CSVStore) loadProcessedKeys() {
	_, rows, err := s.readAll()
	if err != nil {
		log.Printf("Error loading existing records: %v", err)
		s.processedKeys = make(map[string]struct{})
		return
	}
	for _, row := range rows {
		if len(row) >= 2 && row[0] != "" && row[1] != "" {
			s.processedKeys[rowKey(row)] = struct{}{}
		}
	}
	log.Printf("Loaded %d existing records from %s", len(s.processedKeys), s.path)
}

func (s *CSVStore) readAll() ([]string, [][]string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open CSV file: %v", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV file: %v", err)
	}
	if len(records) == 0 {
		return entities.CSVColumns, nil, nil
	}
	return records[0], records[1:], nil
}

func (s *CSVStore) writeAll(header []string, rows [][]string) error {
	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("failed to rewrite CSV file: %v", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to rewrite CSV header: %v", err)
	}
	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to rewrite CSV rows: %v", err)
	}
	return nil
}

func rowKey(row []string) string {
	if len(row) < 2 {
		return ""
	}
	return row[0] + "_" + row[1]
}
