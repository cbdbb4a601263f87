package entities

import (
	"strings"
	"testing"
	"time"
)

func TestNewMeasurementFullRecord(t *testing.T) {
	raw := map[string]string{
		FieldTimestamp:        "2024-01-15T10:30:00+00:00",
		FieldDischarge:        "123.45",
		FieldWaterLevel:       "1.5",
		FieldDangerLevel:      "2",
		FieldWaterTemperature: "8.2",
		FieldIsLiter:          "true",
	}

	m, err := NewMeasurement("2044", raw)
	if err != nil {
		t.Fatalf("NewMeasurement returned error: %v", err)
	}

	if m.StationID != "2044" {
		t.Errorf("Expected station id 2044, got %s", m.StationID)
	}
	if m.Discharge == nil || *m.Discharge != 123.45 {
		t.Errorf("Expected discharge 123.45, got %v", m.Discharge)
	}
	if m.WaterLevel == nil || *m.WaterLevel != 1.5 {
		t.Errorf("Expected water level 1.5, got %v", m.WaterLevel)
	}
	if m.DangerLevel == nil || *m.DangerLevel != 2 {
		t.Errorf("Expected danger level 2, got %v", m.DangerLevel)
	}
	if m.WaterTemperature == nil || *m.WaterTemperature != 8.2 {
		t.Errorf("Expected water temperature 8.2, got %v", m.WaterTemperature)
	}
	if m.IsLiter == nil || *m.IsLiter != true {
		t.Errorf("Expected is_liter true, got %v", m.IsLiter)
	}
}

func TestNewMeasurementMissingTimestamp(t *testing.T) {
	raw := map[string]string{
		FieldDischarge: "12.3",
	}
	if _, err := NewMeasurement("2044", raw); err == nil {
		t.Error("Expected error for missing timestamp, got nil")
	}
}

func TestNewMeasurementBadTimestamp(t *testing.T) {
	raw := map[string]string{
		FieldTimestamp: "not-a-date",
		FieldDischarge: "12.3",
	}
	if _, err := NewMeasurement("2044", raw); err == nil {
		t.Error("Expected error for unparseable timestamp, got nil")
	}
}

func TestNewMeasurementSoftCoercion(t *testing.T) {
	// Unparseable decimals and booleans become nil instead of failing
	raw := map[string]string{
		FieldTimestamp:        "2024-01-15T10:30:00+00:00",
		FieldDischarge:        "garbage",
		FieldWaterLevel:       "",
		FieldWaterTemperature: "7.5",
		FieldIsLiter:          "maybe",
	}

	m, err := NewMeasurement("2044", raw)
	if err != nil {
		t.Fatalf("NewMeasurement returned error: %v", err)
	}

	if m.Discharge != nil {
		t.Errorf("Expected nil discharge for garbage input, got %v", *m.Discharge)
	}
	if m.WaterLevel != nil {
		t.Errorf("Expected nil water level for empty input, got %v", *m.WaterLevel)
	}
	if m.WaterTemperature == nil || *m.WaterTemperature != 7.5 {
		t.Errorf("Expected water temperature 7.5, got %v", m.WaterTemperature)
	}
	if m.IsLiter != nil {
		t.Errorf("Expected nil is_liter for unrecognized input, got %v", *m.IsLiter)
	}
}

func TestNewMeasurementDangerLevelHardFail(t *testing.T) {
	cases := []string{"6", "-1", "2.5", "high"}
	for _, dl := range cases {
		raw := map[string]string{
			FieldTimestamp:   "2024-01-15T10:30:00+00:00",
			FieldDischarge:   "1.0",
			FieldDangerLevel: dl,
		}
		if _, err := NewMeasurement("2044", raw); err == nil {
			t.Errorf("Expected error for danger level %q, got nil", dl)
		}
	}
}

func TestParseDangerLevelEmpty(t *testing.T) {
	v, err := ParseDangerLevel("")
	if err != nil {
		t.Fatalf("Expected no error for empty danger level, got %v", err)
	}
	if v != nil {
		t.Errorf("Expected nil danger level for empty input, got %d", *v)
	}
}

func TestParseTimestampVariants(t *testing.T) {
	want := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

	for _, input := range []string{
		"2024-01-15T10:30:00+00:00",
		"2024-01-15T10:30:00Z",
		"2024-01-15T10:30:00",
	} {
		got, err := ParseTimestamp(input)
		if err != nil {
			t.Errorf("ParseTimestamp(%q) returned error: %v", input, err)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("ParseTimestamp(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestHasMeasurements(t *testing.T) {
	dl := 2
	m := &Measurement{StationID: "2044", Timestamp: time.Now(), DangerLevel: &dl}
	if m.HasMeasurements() {
		t.Error("Danger level alone should not count as a measurement")
	}

	level := 1.5
	m.WaterLevel = &level
	if !m.HasMeasurements() {
		t.Error("Water level should count as a measurement")
	}
}

func TestUniqueKeyFormat(t *testing.T) {
	m := &Measurement{
		StationID: "2044",
		Timestamp: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
	}

	want := "2024-01-15T10:30:00+00:00_2044"
	if got := m.UniqueKey(); got != want {
		t.Errorf("UniqueKey() = %q, want %q", got, want)
	}
}

func TestCSVRowSparseFields(t *testing.T) {
	discharge := 123.45
	m := &Measurement{
		StationID: "2044",
		Timestamp: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		Discharge: &discharge,
	}

	row := m.CSVRow()
	want := []string{"2024-01-15T10:30:00+00:00", "2044", "123.45", "", "", "", ""}

	if len(row) != len(want) {
		t.Fatalf("Expected %d columns, got %d", len(want), len(row))
	}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("Column %d (%s): got %q, want %q", i, CSVColumns[i], row[i], want[i])
		}
	}
}

func TestCSVRowUTCOffsetNeverZ(t *testing.T) {
	m := &Measurement{
		StationID: "2044",
		Timestamp: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
	}
	if strings.Contains(m.CSVRow()[0], "Z") {
		t.Errorf("UTC timestamp must serialize with +00:00, got %q", m.CSVRow()[0])
	}
}
