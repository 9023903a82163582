// Package integration handles external service interactions
package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/martlaht/ferrywatch/internal/entities"
)

// FerryClient queries the public ferry schedule API for route metadata and
// departure lists. Requests go direct first; on failure the same request is
// retried through a CORS relay that wraps the body in a JSON envelope.
type FerryClient struct {
	baseURL   string
	relayURL  string
	timeShift int
	client    *http.Client
}

// relayEnvelope is the wrapper the CORS relay puts around the upstream body
type relayEnvelope struct {
	Contents string `json:"contents"`
}

// NewFerryClient creates a new schedule API client
func NewFerryClient(baseURL, relayURL string, timeShift int) *FerryClient {
	if baseURL == "" {
		// Default source URL
		baseURL = "https://www.praamid.ee/online"
	}
	if relayURL == "" {
		relayURL = "https://api.allorigins.win/get?url="
	}
	if timeShift == 0 {
		timeShift = 300
	}
	return &FerryClient{
		baseURL:   baseURL,
		relayURL:  relayURL,
		timeShift: timeShift,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Directions retrieves the list of ferry routes
func (c *FerryClient) Directions(ctx context.Context) (*entities.DirectionsResponse, error) {
	var resp entities.DirectionsResponse
	if err := c.fetchJSON(ctx, c.baseURL+"/directions", &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch ferry directions: %v", err)
	}
	log.Printf("Fetched %d ferry directions", len(resp.Items))
	return &resp, nil
}

// Events retrieves the departure list for a direction and date
func (c *FerryClient) Events(ctx context.Context, direction, departureDate string) (*entities.EventsResponse, error) {
	params := url.Values{}
	params.Set("direction", direction)
	params.Set("departure-date", departureDate)
	params.Set("time-shift", strconv.Itoa(c.timeShift))

	var resp entities.EventsResponse
	if err := c.fetchJSON(ctx, c.baseURL+"/events?"+params.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch ferry events for %s on %s: %v", direction, departureDate, err)
	}
	log.Printf("Fetched %d departures for %s on %s", len(resp.Items), direction, departureDate)
	return &resp, nil
}

// fetchJSON gets target and decodes the JSON body into out. A failed direct
// request falls back to the CORS relay; if both fail a single unified error
// describing both attempts is returned.
func (c *FerryClient) fetchJSON(ctx context.Context, target string, out interface{}) error {
	directErr := c.fetchDirect(ctx, target, out)
	if directErr == nil {
		return nil
	}
	log.Printf("Direct request to %s failed, trying CORS relay: %v", target, directErr)

	relayErr := c.fetchViaRelay(ctx, target, out)
	if relayErr == nil {
		return nil
	}
	return fmt.Errorf("direct request failed: %v; relay request failed: %v", directErr, relayErr)
}

// fetchDirect issues the plain upstream request
func (c *FerryClient) fetchDirect(ctx context.Context, target string, out interface{}) error {
	body, err := c.get(ctx, target)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response body: %v", err)
	}
	return nil
}

// fetchViaRelay routes the request through the CORS relay and unwraps the
// {contents: "<json>"} envelope before parsing.
func (c *FerryClient) fetchViaRelay(ctx context.Context, target string, out interface{}) error {
	body, err := c.get(ctx, c.relayURL+url.QueryEscape(target))
	if err != nil {
		return err
	}
	var envelope relayEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("failed to parse relay envelope: %v", err)
	}
	if err := json.Unmarshal([]byte(envelope.Contents), out); err != nil {
		return fmt.Errorf("failed to parse relay contents: %v", err)
	}
	return nil
}

// get performs an HTTP GET and returns the response body for 200 responses
func (c *FerryClient) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %v", err)
	}
	res, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %v", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d %s", res.StatusCode, res.Status)
	}
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %v", err)
	}
	return body, nil
}

// FormatTime renders an ISO-8601 timestamp as HH:MM in its own timezone
func FormatTime(iso string) string {
	t, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		return iso
	}
	return t.Format("15:04")
}

// FormatDate renders an ISO-8601 timestamp as YYYY-MM-DD in its own timezone
func FormatDate(iso string) string {
	t, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		return iso
	}
	return t.Format("2006-01-02")
}
