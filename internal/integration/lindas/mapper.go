package lindas

import (
	"fmt"

	"github.com/hydronet/lindas-bot/internal/entities"
)

// MapResult converts a SPARQL query result into a Measurement for one
// station. The result must carry at least one binding, a parseable
// measurement time, and at least one actual reading; anything less is an
// error the caller degrades to "no data for this station".
func MapResult(result *QueryResult, stationID string) (*entities.Measurement, error) {
	if result == nil || len(result.Bindings) == 0 {
		return nil, fmt.Errorf("invalid results structure for station %s", stationID)
	}

	raw := make(map[string]string)
	for _, binding := range result.Bindings {
		predicate := binding["predicate"].Value
		object, ok := binding["object"]
		if predicate == "" || !ok {
			continue
		}

		param, ok := parameterFromURI(predicate)
		if !ok {
			continue
		}
		field, ok := param.FieldName()
		if !ok {
			continue
		}
		raw[field] = object.Value
	}

	if raw[entities.FieldTimestamp] == "" {
		return nil, fmt.Errorf("no timestamp found for station %s", stationID)
	}

	measurement, err := entities.NewMeasurement(stationID, raw)
	if err != nil {
		return nil, err
	}
	if !measurement.HasMeasurements() {
		return nil, fmt.Errorf("no valid measurements found for station %s", stationID)
	}
	return measurement, nil
}
