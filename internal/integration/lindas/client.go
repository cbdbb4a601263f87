package lindas

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const connectionTestQuery = "SELECT ?s WHERE { ?s ?p ?o } LIMIT 1"

// BindingValue is a single cell of a SPARQL result binding.
type BindingValue struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Binding maps result variable names to their values.
type Binding map[string]BindingValue

// QueryResult holds the bindings of a successful SPARQL query. An empty
// binding list is still a valid result.
type QueryResult struct {
	Bindings []Binding
}

// Client executes SPARQL queries against a LINDAS endpoint, retrying
// transient failures with exponential backoff. The backoff wait blocks the
// calling goroutine; station processing is strictly sequential.
type Client struct {
	endpointURL  string
	maxRetries   int
	initialDelay time.Duration
	httpClient   *http.Client
	sleep        func(time.Duration)
}

// NewClient creates a client for the given endpoint. Attempts below one are
// clamped to one and a non-positive delay falls back to two seconds.
func NewClient(endpointURL string, maxRetries int, initialDelay time.Duration) *Client {
	if endpointURL == "" {
		endpointURL = DefaultEndpointURL
	}
	if maxRetries < 1 {
		maxRetries = 1
	}
	if initialDelay <= 0 {
		initialDelay = 2 * time.Second
	}
	return &Client{
		endpointURL:  endpointURL,
		maxRetries:   maxRetries,
		initialDelay: initialDelay,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		sleep:        time.Sleep,
	}
}

// ExecuteQuery runs a SPARQL query with retry. Transport and endpoint errors
// are retried with the delay doubling after each attempt; a well-formed
// response returns immediately even with zero bindings; a malformed response
// body is a different failure class and is not retried.
func (c *Client) ExecuteQuery(query string) (*QueryResult, error) {
	delay := c.initialDelay
	var lastErr error

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		log.Printf("Executing SPARQL query (attempt %d/%d)", attempt, c.maxRetries)

		result, err := c.doQuery(query)
		if err == nil {
			log.Printf("Query successful, retrieved %d bindings", len(result.Bindings))
			return result, nil
		}
		if !isTransient(err) {
			log.Printf("Query returned a malformed or unexpected response: %v", err)
			return nil, err
		}

		lastErr = err
		log.Printf("SPARQL query failed (attempt %d/%d): %v", attempt, c.maxRetries, err)
		if attempt < c.maxRetries {
			log.Printf("Retrying in %s...", delay)
			c.sleep(delay)
			delay *= 2
		}
	}

	log.Printf("Query failed after %d attempts. Last error: %v", c.maxRetries, lastErr)
	return nil, fmt.Errorf("query failed after %d attempts: %v", c.maxRetries, lastErr)
}

// TestConnection checks that the endpoint answers a trivial existence query.
func (c *Client) TestConnection() bool {
	if _, err := c.ExecuteQuery(connectionTestQuery); err != nil {
		log.Printf("Connection test failed: %v", err)
		return false
	}
	return true
}

func (c *Client) doQuery(query string) (*QueryResult, error) {
	form := url.Values{}
	form.Set("query", query)

	req, err := http.NewRequest(http.MethodPost, c.endpointURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/sparql-results+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &transientError{fmt.Errorf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &transientError{fmt.Errorf("reading response failed: %v", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &transientError{fmt.Errorf("unexpected status code: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))}
	}

	// The results/bindings sections must be present; an empty binding list
	// is fine, a missing one is a malformed response.
	var envelope struct {
		Results *struct {
			Bindings *[]Binding `json:"bindings"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("invalid JSON response: %v", err)
	}
	if envelope.Results == nil || envelope.Results.Bindings == nil {
		return nil, errors.New("response is missing the results/bindings section")
	}

	return &QueryResult{Bindings: *envelope.Results.Bindings}, nil
}

// transientError marks failures worth retrying: transport errors and
// endpoint-side HTTP errors.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }

func (e *transientError) Unwrap() error { return e.err }

func isTransient(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}
