package lindas

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// newTestClient builds a client that records backoff waits instead of
// sleeping.
func newTestClient(endpoint string, maxRetries int, initialDelay time.Duration) (*Client, *[]time.Duration) {
	c := NewClient(endpoint, maxRetries, initialDelay)
	var sleeps []time.Duration
	c.sleep = func(d time.Duration) { sleeps = append(sleeps, d) }
	return c, &sleeps
}

func sparqlResponse(bindings string) string {
	return `{"head":{"vars":["predicate","object"]},"results":{"bindings":[` + bindings + `]}}`
}

func TestExecuteQuerySuccess(t *testing.T) {
	var gotQuery, gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("Failed to parse form: %v", err)
		}
		gotQuery = r.FormValue("query")
		gotAccept = r.Header.Get("Accept")
		w.Write([]byte(sparqlResponse(`{"predicate":{"type":"uri","value":"p"},"object":{"type":"literal","value":"o"}}`)))
	}))
	defer server.Close()

	c, sleeps := newTestClient(server.URL, 3, time.Second)
	result, err := c.ExecuteQuery("SELECT ?s WHERE { ?s ?p ?o }")
	if err != nil {
		t.Fatalf("ExecuteQuery returned error: %v", err)
	}

	if len(result.Bindings) != 1 {
		t.Errorf("Expected 1 binding, got %d", len(result.Bindings))
	}
	if gotQuery != "SELECT ?s WHERE { ?s ?p ?o }" {
		t.Errorf("Endpoint received wrong query: %q", gotQuery)
	}
	if gotAccept != "application/sparql-results+json" {
		t.Errorf("Expected SPARQL JSON accept header, got %q", gotAccept)
	}
	if len(*sleeps) != 0 {
		t.Errorf("Successful query should not back off, slept %v", *sleeps)
	}
}

func TestExecuteQueryEmptyBindingsIsValid(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte(sparqlResponse("")))
	}))
	defer server.Close()

	c, _ := newTestClient(server.URL, 3, time.Second)
	result, err := c.ExecuteQuery("q")
	if err != nil {
		t.Fatalf("ExecuteQuery returned error: %v", err)
	}
	if len(result.Bindings) != 0 {
		t.Errorf("Expected 0 bindings, got %d", len(result.Bindings))
	}
	if requests != 1 {
		t.Errorf("Empty bindings should not be retried, got %d requests", requests)
	}
}

func TestExecuteQueryMalformedResponseNotRetried(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte(`{"head":{"vars":[]}}`))
	}))
	defer server.Close()

	c, sleeps := newTestClient(server.URL, 4, time.Second)
	if _, err := c.ExecuteQuery("q"); err == nil {
		t.Fatal("Expected error for response without results section, got nil")
	}

	if requests != 1 {
		t.Errorf("Malformed response should not be retried, got %d requests", requests)
	}
	if len(*sleeps) != 0 {
		t.Errorf("Malformed response should not back off, slept %v", *sleeps)
	}
}

func TestExecuteQueryRetriesWithExponentialBackoff(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c, sleeps := newTestClient(server.URL, 4, time.Second)
	if _, err := c.ExecuteQuery("q"); err == nil {
		t.Fatal("Expected error after exhausting retries, got nil")
	}

	if requests != 4 {
		t.Errorf("Expected 4 attempts, got %d", requests)
	}
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	if len(*sleeps) != len(want) {
		t.Fatalf("Expected %d backoff waits, got %v", len(want), *sleeps)
	}
	for i, d := range want {
		if (*sleeps)[i] != d {
			t.Errorf("Backoff %d: got %v, want %v", i, (*sleeps)[i], d)
		}
	}
}

func TestExecuteQueryRecoversAfterTransientFailure(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(sparqlResponse(`{"predicate":{"value":"p"},"object":{"value":"o"}}`)))
	}))
	defer server.Close()

	c, sleeps := newTestClient(server.URL, 5, time.Second)
	result, err := c.ExecuteQuery("q")
	if err != nil {
		t.Fatalf("ExecuteQuery returned error: %v", err)
	}
	if len(result.Bindings) != 1 {
		t.Errorf("Expected 1 binding, got %d", len(result.Bindings))
	}
	if requests != 3 {
		t.Errorf("Expected 3 attempts, got %d", requests)
	}
	if len(*sleeps) != 2 {
		t.Errorf("Expected 2 backoff waits, got %v", *sleeps)
	}
}

func TestExecuteQuerySingleAttemptClamp(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	// maxRetries below one is clamped to a single attempt
	c, _ := newTestClient(server.URL, 0, time.Second)
	if _, err := c.ExecuteQuery("q"); err == nil {
		t.Fatal("Expected error, got nil")
	}
	if requests != 1 {
		t.Errorf("Expected exactly 1 attempt, got %d", requests)
	}
}

func TestTestConnection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sparqlResponse(`{"s":{"type":"uri","value":"urn:x"}}`)))
	}))
	defer server.Close()

	c, _ := newTestClient(server.URL, 1, time.Second)
	if !c.TestConnection() {
		t.Error("Expected TestConnection to succeed against a healthy endpoint")
	}

	server.Close()
	if c.TestConnection() {
		t.Error("Expected TestConnection to fail against a closed endpoint")
	}
}
