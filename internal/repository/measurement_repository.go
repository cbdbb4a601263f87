package repository

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/hydronet/lindas-bot/internal/entities"
	_ "github.com/mattn/go-sqlite3"
)

// MeasurementRepository defines the interface for measurement persistence
// operations used by the bot-facing queries. The CSV store remains the
// canonical archive; this repository is a queryable mirror.
type MeasurementRepository interface {
	SaveMeasurements(measurements []*entities.Measurement) error
	GetLatestByStation(stationID string) (*entities.Measurement, error)
	GetLatestMeasurements() ([]entities.Measurement, error)
	GetStationIDs() ([]string, error)
	GetLastUpdateTime() (time.Time, error)
	Close() error
}

// SQLiteMeasurementRepository implements MeasurementRepository using SQLite
type SQLiteMeasurementRepository struct {
	db     *sql.DB
	DBPath string
}

// NewSQLiteMeasurementRepository creates and initializes a new SQLite repository
func NewSQLiteMeasurementRepository(dbPath string) (*SQLiteMeasurementRepository, error) {
	if dbPath == "" {
		// Set default path if not specified
		dbDir := "data"
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %v", err)
		}
		dbPath = filepath.Join(dbDir, "measurements.db")
	}

	log.Printf("Opening database at %s", dbPath)
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS measurements (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		station_id TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		discharge REAL,
		water_level REAL,
		danger_level INTEGER,
		water_temperature REAL,
		is_liter BOOLEAN,
		UNIQUE(station_id, timestamp)
	);
	CREATE INDEX IF NOT EXISTS idx_station ON measurements(station_id);
	CREATE INDEX IF NOT EXISTS idx_timestamp ON measurements(timestamp);`

	_, err = db.Exec(createTableSQL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %v", err)
	}

	return &SQLiteMeasurementRepository{
		db:     db,
		DBPath: dbPath,
	}, nil
}

// Close closes the database connection
func (r *SQLiteMeasurementRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SaveMeasurements stores measurements in the database, updating the
// non-key fields when a (station, timestamp) pair already exists.
func (r *SQLiteMeasurementRepository) SaveMeasurements(measurements []*entities.Measurement) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO measurements(station_id, timestamp, discharge, water_level, danger_level, water_temperature, is_liter)
		VALUES(?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(station_id, timestamp) DO UPDATE SET
		discharge=excluded.discharge,
		water_level=excluded.water_level,
		danger_level=excluded.danger_level,
		water_temperature=excluded.water_temperature,
		is_liter=excluded.is_liter
	`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare statement: %v", err)
	}
	defer stmt.Close()

	for _, m := range measurements {
		_, err := stmt.Exec(
			m.StationID,
			m.Timestamp.Format(entities.TimestampLayout),
			m.Discharge,
			m.WaterLevel,
			m.DangerLevel,
			m.WaterTemperature,
			m.IsLiter,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert measurement for station %s: %v", m.StationID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}

	log.Printf("Successfully saved %d measurements", len(measurements))
	return nil
}

// GetLatestByStation retrieves the most recent measurement for one station.
// It returns nil when the station has no data.
func (r *SQLiteMeasurementRepository) GetLatestByStation(stationID string) (*entities.Measurement, error) {
	query := `
		SELECT station_id, timestamp, discharge, water_level, danger_level, water_temperature, is_liter
		FROM measurements
		WHERE station_id = ?
		ORDER BY timestamp DESC
		LIMIT 1`

	row := r.db.QueryRow(query, stationID)
	m, err := scanMeasurement(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query measurement for station %s: %v", stationID, err)
	}
	return m, nil
}

// GetLatestMeasurements retrieves the most recent measurement of every
// station known to the repository.
func (r *SQLiteMeasurementRepository) GetLatestMeasurements() ([]entities.Measurement, error) {
	// Subquery keeps only the most recent row per station
	query := `
		SELECT station_id, timestamp, discharge, water_level, danger_level, water_temperature, is_liter
		FROM measurements
		WHERE (station_id, timestamp) IN (
			SELECT station_id, MAX(timestamp)
			FROM measurements
			GROUP BY station_id
		)
		ORDER BY station_id`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest measurements: %v", err)
	}
	defer rows.Close()

	var result []entities.Measurement
	for rows.Next() {
		m, err := scanMeasurement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %v", err)
		}
		result = append(result, *m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %v", err)
	}

	return result, nil
}

// GetStationIDs returns all station ids present in the database
func (r *SQLiteMeasurementRepository) GetStationIDs() ([]string, error) {
	rows, err := r.db.Query("SELECT DISTINCT station_id FROM measurements ORDER BY station_id")
	if err != nil {
		return nil, fmt.Errorf("failed to query station ids: %v", err)
	}
	defer rows.Close()

	var stations []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan row: %v", err)
		}
		stations = append(stations, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %v", err)
	}

	return stations, nil
}

// GetLastUpdateTime returns the most recent measurement timestamp in the database
func (r *SQLiteMeasurementRepository) GetLastUpdateTime() (time.Time, error) {
	var timestampStr sql.NullString
	err := r.db.QueryRow("SELECT MAX(timestamp) FROM measurements").Scan(&timestampStr)
	if err != nil {
		if err == sql.ErrNoRows {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("failed to get last update time: %v", err)
	}

	if !timestampStr.Valid || timestampStr.String == "" {
		return time.Time{}, nil
	}

	timestamp, err := entities.ParseTimestamp(timestampStr.String)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp '%s': %v", timestampStr.String, err)
	}
	return timestamp, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMeasurement(row rowScanner) (*entities.Measurement, error) {
	var (
		stationID    string
		timestampStr string
		discharge    sql.NullFloat64
		waterLevel   sql.NullFloat64
		dangerLevel  sql.NullInt64
		waterTemp    sql.NullFloat64
		isLiter      sql.NullBool
	)

	if err := row.Scan(&stationID, &timestampStr, &discharge, &waterLevel, &dangerLevel, &waterTemp, &isLiter); err != nil {
		return nil, err
	}

	timestamp, err := entities.ParseTimestamp(timestampStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse timestamp '%s': %v", timestampStr, err)
	}

	m := &entities.Measurement{
		StationID: stationID,
		Timestamp: timestamp,
	}
	if discharge.Valid {
		m.Discharge = &discharge.Float64
	}
	if waterLevel.Valid {
		m.WaterLevel = &waterLevel.Float64
	}
	if dangerLevel.Valid {
		v := int(dangerLevel.Int64)
		m.DangerLevel = &v
	}
	if waterTemp.Valid {
		m.WaterTemperature = &waterTemp.Float64
	}
	if isLiter.Valid {
		m.IsLiter = &isLiter.Bool
	}
	return m, nil
}
