// Package entities contains the core domain objects for the hydro-bot application
package entities

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout renders timestamps with an explicit numeric offset so that
// UTC serializes as "+00:00" rather than "Z". Dedup keys and CSV rows both
// depend on this exact form.
const TimestampLayout = "2006-01-02T15:04:05-07:00"

// Field names of the measurement table, shared by the result mapper and the
// CSV store.
const (
	FieldTimestamp        = "timestamp"
	FieldStationID        = "station_id"
	FieldDischarge        = "discharge"
	FieldWaterLevel       = "water_level"
	FieldDangerLevel      = "danger_level"
	FieldWaterTemperature = "water_temperature"
	FieldIsLiter          = "is_liter"
)

// CSVColumns is the fixed column order of the measurement table.
var CSVColumns = []string{
	FieldTimestamp,
	FieldStationID,
	FieldDischarge,
	FieldWaterLevel,
	FieldDangerLevel,
	FieldWaterTemperature,
	FieldIsLiter,
}

// Measurement represents a single hydrological reading at a station.
// Instances are never mutated after construction.
type Measurement struct {
	StationID        string
	Timestamp        time.Time
	Discharge        *float64 // m³/s
	WaterLevel       *float64 // m
	WaterTemperature *float64 // °C
	DangerLevel      *int     // 0-5
	IsLiter          *bool
}

// NewMeasurement builds a Measurement from raw string values keyed by field
// name. Decimal and boolean fields coerce softly (bad input becomes nil); a
// missing or unparseable timestamp and an invalid danger level fail
// construction.
func NewMeasurement(stationID string, raw map[string]string) (*Measurement, error) {
	ts := strings.TrimSpace(raw[FieldTimestamp])
	if ts == "" {
		return nil, fmt.Errorf("measurement for station %s has no timestamp", stationID)
	}
	timestamp, err := ParseTimestamp(ts)
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp %q for station %s: %v", ts, stationID, err)
	}

	dangerLevel, err := ParseDangerLevel(raw[FieldDangerLevel])
	if err != nil {
		return nil, fmt.Errorf("invalid danger level for station %s: %v", stationID, err)
	}

	return &Measurement{
		StationID:        stationID,
		Timestamp:        timestamp,
		Discharge:        ParseDecimal(raw[FieldDischarge]),
		WaterLevel:       ParseDecimal(raw[FieldWaterLevel]),
		WaterTemperature: ParseDecimal(raw[FieldWaterTemperature]),
		DangerLevel:      dangerLevel,
		IsLiter:          ParseBool(raw[FieldIsLiter]),
	}, nil
}

// HasMeasurements reports whether the record carries at least one actual
// reading. Danger level and the liter flag alone do not count.
func (m *Measurement) HasMeasurements() bool {
	return m.Discharge != nil || m.WaterLevel != nil || m.WaterTemperature != nil
}

// UniqueKey identifies an observation for duplicate detection. Two records
// sharing a key are the same observation regardless of other fields.
func (m *Measurement) UniqueKey() string {
	return m.Timestamp.Format(TimestampLayout) + "_" + m.StationID
}

// CSVRow serializes the measurement in CSVColumns order, leaving nil fields
// empty.
func (m *Measurement) CSVRow() []string {
	return []string{
		m.Timestamp.Format(TimestampLayout),
		m.StationID,
		formatDecimal(m.Discharge),
		formatDecimal(m.WaterLevel),
		formatInt(m.DangerLevel),
		formatDecimal(m.WaterTemperature),
		formatBool(m.IsLiter),
	}
}

// ParseTimestamp parses an ISO-8601 timestamp. A trailing "Z" is equivalent
// to the "+00:00" offset; a timestamp without any offset is taken as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)

	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}

	// Some sources omit the offset entirely
	t, plainErr := time.Parse("2006-01-02T15:04:05", s)
	if plainErr == nil {
		return t.UTC(), nil
	}

	return time.Time{}, err
}

// ParseDecimal coerces a raw value into a nullable decimal. Empty and
// unparseable values become nil rather than errors.
func ParseDecimal(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// ParseDangerLevel coerces a raw value into a nullable danger level. An
// empty value is nil; a non-integer or a value outside 0-5 is an error that
// voids the whole record.
func ParseDangerLevel(s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("danger level must be an integer: %q", s)
	}
	if v < 0 || v > 5 {
		return nil, fmt.Errorf("danger level out of range 0-5: %d", v)
	}
	return &v, nil
}

// ParseBool coerces a raw value into a nullable boolean. Recognized true
// values are "true", "1" and "yes"; false values "false", "0" and "no";
// anything else is nil.
func ParseBool(s string) *bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes":
		v := true
		return &v
	case "false", "0", "no":
		v := false
		return &v
	}
	return nil
}

func formatDecimal(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatBool(v *bool) string {
	if v == nil {
		return ""
	}
	return strconv.FormatBool(*v)
}
