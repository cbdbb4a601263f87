package lindas

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrBatchNotImplemented is returned by BuildBatchQuery; querying several
// stations in one request is a future optimization.
var ErrBatchNotImplemented = errors.New("batch queries not yet implemented")

// QueryRequest describes a single-station observation query.
type QueryRequest struct {
	SiteCode   string
	Parameters []Parameter
}

// QueryBuilder constructs SPARQL queries for hydrological observations.
// It performs no network I/O.
type QueryBuilder struct {
	baseURL string
}

// NewQueryBuilder creates a query builder. An empty base URL falls back to
// the public FOEN hydro namespace.
func NewQueryBuilder(baseURL string) *QueryBuilder {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &QueryBuilder{baseURL: baseURL}
}

// BuildQuery emits the SELECT query for one station, scoped to the LINDAS
// hydro graph and filtered to the requested parameter predicates.
func (qb *QueryBuilder) BuildQuery(req QueryRequest) (string, error) {
	if err := qb.validateRequest(req); err != nil {
		return "", err
	}

	uris := make([]string, len(req.Parameters))
	for i, p := range req.Parameters {
		uris[i] = "<" + p.URI() + ">"
	}

	query := fmt.Sprintf(`PREFIX schema: <http://schema.org/>
PREFIX rdf: <http://www.w3.org/1999/02/22-rdf-syntax-ns#>
PREFIX rdfs: <http://www.w3.org/2000/01/rdf-schema#>

SELECT ?predicate ?object
FROM <%s>
WHERE {
  BIND(<%s/river/observation/%s> AS ?subject)
  ?subject ?predicate ?object .
  FILTER (?predicate IN (
    %s
  ))
}`, GraphURL, qb.baseURL, req.SiteCode, strings.Join(uris, ",\n    "))

	return query, nil
}

// BuildBatchQuery is a placeholder for querying several stations at once.
func (qb *QueryBuilder) BuildBatchQuery(siteCodes []string, parameters []Parameter) (string, error) {
	return "", ErrBatchNotImplemented
}

func (qb *QueryBuilder) validateRequest(req QueryRequest) error {
	if req.SiteCode == "" {
		return errors.New("site code is required")
	}
	code, err := strconv.Atoi(req.SiteCode)
	if err != nil {
		return fmt.Errorf("site code must be numeric: %q", req.SiteCode)
	}
	if code < 1 || code > 9999 {
		return fmt.Errorf("site code must be a 1-4 digit integer: %q", req.SiteCode)
	}
	if len(req.Parameters) == 0 {
		return errors.New("at least one parameter is required")
	}
	return nil
}
