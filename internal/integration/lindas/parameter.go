// Package lindas implements the SPARQL integration with the LINDAS
// linked-data platform: query construction, a retrying client, and the
// mapping of query results into measurements.
package lindas

import (
	"fmt"
	"strings"

	"github.com/hydronet/lindas-bot/internal/entities"
)

const (
	// DefaultEndpointURL is the public LINDAS SPARQL endpoint.
	DefaultEndpointURL = "https://ld.admin.ch/query"
	// DefaultBaseURL is the base resource URL for FOEN hydro data.
	DefaultBaseURL = "https://environment.ld.admin.ch/foen/hydro"
	// GraphURL is the named graph holding the hydro observations.
	GraphURL = "https://lindas.admin.ch/foen/hydro"

	dimensionMarker = "/dimension/"
	alternateMarker = "example.com/"
	isLiterURI      = "http://example.com/isLiter"
)

// Parameter enumerates the observation fields that can be requested from
// LINDAS. It is the single source of truth for both the query builder (via
// URI) and the result mapper (via FieldName); the two mappings must stay in
// lockstep.
type Parameter string

const (
	ParameterStation          Parameter = "station"
	ParameterDischarge        Parameter = "discharge"
	ParameterMeasurementTime  Parameter = "measurementTime"
	ParameterWaterLevel       Parameter = "waterLevel"
	ParameterDangerLevel      Parameter = "dangerLevel"
	ParameterWaterTemperature Parameter = "waterTemperature"
	ParameterIsLiter          Parameter = "isLiter"
)

// AllParameters returns every known parameter in a stable order.
func AllParameters() []Parameter {
	return []Parameter{
		ParameterStation,
		ParameterDischarge,
		ParameterMeasurementTime,
		ParameterWaterLevel,
		ParameterDangerLevel,
		ParameterWaterTemperature,
		ParameterIsLiter,
	}
}

// ParseParameter converts a configuration string into a known Parameter.
func ParseParameter(s string) (Parameter, error) {
	candidate := Parameter(strings.TrimSpace(s))
	for _, known := range AllParameters() {
		if candidate == known {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("unknown parameter: %q", s)
}

// URI returns the resource URI used for this parameter in SPARQL queries.
// The liter flag lives outside the FOEN dimension namespace.
func (p Parameter) URI() string {
	if p == ParameterIsLiter {
		return isLiterURI
	}
	return DefaultBaseURL + "/dimension/" + string(p)
}

// FieldName maps a parameter to its measurement field. The station parameter
// has no field of its own; the station id is carried separately.
func (p Parameter) FieldName() (string, bool) {
	switch p {
	case ParameterMeasurementTime:
		return entities.FieldTimestamp, true
	case ParameterDischarge:
		return entities.FieldDischarge, true
	case ParameterWaterLevel:
		return entities.FieldWaterLevel, true
	case ParameterWaterTemperature:
		return entities.FieldWaterTemperature, true
	case ParameterDangerLevel:
		return entities.FieldDangerLevel, true
	case ParameterIsLiter:
		return entities.FieldIsLiter, true
	}
	return "", false
}

// parameterFromURI recovers the parameter name from a predicate URI. A URI
// containing the dimension marker yields the suffix after it; otherwise the
// alternate marker is tried; anything else is unrecognized.
func parameterFromURI(uri string) (Parameter, bool) {
	if i := strings.Index(uri, dimensionMarker); i >= 0 {
		return Parameter(uri[i+len(dimensionMarker):]), true
	}
	if i := strings.Index(uri, alternateMarker); i >= 0 {
		return Parameter(uri[i+len(alternateMarker):]), true
	}
	return "", false
}
