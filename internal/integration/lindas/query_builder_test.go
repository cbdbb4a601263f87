package lindas

import (
	"strings"
	"testing"
)

func TestBuildQueryContainsSubjectAndGraph(t *testing.T) {
	qb := NewQueryBuilder("")

	query, err := qb.BuildQuery(QueryRequest{
		SiteCode:   "2044",
		Parameters: AllParameters(),
	})
	if err != nil {
		t.Fatalf("BuildQuery returned error: %v", err)
	}

	if !strings.Contains(query, "FROM <"+GraphURL+">") {
		t.Error("Query should be scoped to the hydro graph")
	}
	if !strings.Contains(query, DefaultBaseURL+"/river/observation/2044") {
		t.Error("Query should bind the observation resource for station 2044")
	}
	if !strings.Contains(query, DefaultBaseURL+"/dimension/measurementTime") {
		t.Error("Query should filter on the measurementTime predicate")
	}
	if !strings.Contains(query, isLiterURI) {
		t.Error("Query should use the alternate URI for the isLiter parameter")
	}
}

func TestBuildQueryCustomBaseURL(t *testing.T) {
	qb := NewQueryBuilder("https://example.org/hydro")

	query, err := qb.BuildQuery(QueryRequest{
		SiteCode:   "123",
		Parameters: []Parameter{ParameterDischarge},
	})
	if err != nil {
		t.Fatalf("BuildQuery returned error: %v", err)
	}

	if !strings.Contains(query, "https://example.org/hydro/river/observation/123") {
		t.Error("Query should use the configured base URL for the observation resource")
	}
}

func TestBuildQueryValidation(t *testing.T) {
	qb := NewQueryBuilder("")

	cases := []struct {
		name string
		req  QueryRequest
	}{
		{"empty site code", QueryRequest{SiteCode: "", Parameters: AllParameters()}},
		{"non-numeric site code", QueryRequest{SiteCode: "abc", Parameters: AllParameters()}},
		{"five digit site code", QueryRequest{SiteCode: "99999", Parameters: AllParameters()}},
		{"zero site code", QueryRequest{SiteCode: "0", Parameters: AllParameters()}},
		{"no parameters", QueryRequest{SiteCode: "2044"}},
	}

	for _, tc := range cases {
		if _, err := qb.BuildQuery(tc.req); err == nil {
			t.Errorf("%s: expected validation error, got nil", tc.name)
		}
	}
}

func TestBuildBatchQueryNotImplemented(t *testing.T) {
	qb := NewQueryBuilder("")

	_, err := qb.BuildBatchQuery([]string{"2044", "2112"}, AllParameters())
	if err != ErrBatchNotImplemented {
		t.Errorf("Expected ErrBatchNotImplemented, got %v", err)
	}
}

func TestParseParameter(t *testing.T) {
	p, err := ParseParameter("discharge")
	if err != nil {
		t.Fatalf("ParseParameter returned error: %v", err)
	}
	if p != ParameterDischarge {
		t.Errorf("Expected ParameterDischarge, got %s", p)
	}

	if _, err := ParseParameter("bogus"); err == nil {
		t.Error("Expected error for unknown parameter, got nil")
	}
}
