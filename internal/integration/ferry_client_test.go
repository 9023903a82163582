package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/martlaht/ferrywatch/internal/entities"
)

var sampleEvents = entities.EventsResponse{
	TotalCount: 1,
	Items: []entities.Departure{{
		UID:    "uid-1",
		Start:  "2026-07-01T14:30:00+03:00",
		End:    "2026-07-01T15:45:00+03:00",
		Status: "SCHEDULED",
		Capacities: entities.Capacities{
			Passengers:    150,
			Bicycles:      10,
			SmallVehicles: 42,
			LargeVehicles: 8,
			Motorcycles:   6,
			Spare:         2,
		},
	}},
}

func TestEventsDirect(t *testing.T) {
	var gotQuery url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/events" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		gotQuery = r.URL.Query()
		json.NewEncoder(w).Encode(sampleEvents)
	}))
	defer server.Close()

	client := NewFerryClient(server.URL, "http://127.0.0.1:0/get?url=", 300)
	resp, err := client.Events(context.Background(), "HR", "2026-07-01")
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}

	if len(resp.Items) != 1 || resp.Items[0].UID != "uid-1" {
		t.Fatalf("Unexpected response: %+v", resp)
	}
	if resp.Items[0].Capacities.SmallVehicles != 42 {
		t.Errorf("Expected 42 small vehicle spaces, got %d", resp.Items[0].Capacities.SmallVehicles)
	}
	if gotQuery.Get("direction") != "HR" {
		t.Errorf("Expected direction=HR, got %q", gotQuery.Get("direction"))
	}
	if gotQuery.Get("departure-date") != "2026-07-01" {
		t.Errorf("Expected departure-date=2026-07-01, got %q", gotQuery.Get("departure-date"))
	}
	if gotQuery.Get("time-shift") != "300" {
		t.Errorf("Expected time-shift=300, got %q", gotQuery.Get("time-shift"))
	}
}

func TestEventsFallsBackToRelay(t *testing.T) {
	direct := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer direct.Close()

	contents, err := json.Marshal(sampleEvents)
	if err != nil {
		t.Fatalf("Failed to marshal sample: %v", err)
	}

	var relayedTarget string
	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		relayedTarget = r.URL.Query().Get("url")
		json.NewEncoder(w).Encode(map[string]string{"contents": string(contents)})
	}))
	defer relay.Close()

	client := NewFerryClient(direct.URL, relay.URL+"/get?url=", 300)
	resp, err := client.Events(context.Background(), "HR", "2026-07-01")
	if err != nil {
		t.Fatalf("Events failed despite working relay: %v", err)
	}

	if len(resp.Items) != 1 || resp.Items[0].Capacities.SmallVehicles != 42 {
		t.Fatalf("Unexpected relayed response: %+v", resp)
	}
	if !strings.HasPrefix(relayedTarget, direct.URL) {
		t.Errorf("Relay must receive the original target URL, got %q", relayedTarget)
	}
}

func TestEventsUnifiedErrorWhenBothFail(t *testing.T) {
	direct := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer direct.Close()

	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer relay.Close()

	client := NewFerryClient(direct.URL, relay.URL+"/get?url=", 300)
	_, err := client.Events(context.Background(), "HR", "2026-07-01")
	if err == nil {
		t.Fatal("Expected error when direct and relay both fail")
	}
	if !strings.Contains(err.Error(), "direct request failed") || !strings.Contains(err.Error(), "relay request failed") {
		t.Errorf("Error must describe both attempts, got: %v", err)
	}
}

func TestDirections(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/directions" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(entities.DirectionsResponse{
			TotalCount: 1,
			Items: []entities.Direction{{
				Code:     "HR",
				Name:     "Heltermaa-Rohuküla",
				FromPort: entities.Port{Code: "H", Name: "Heltermaa"},
				ToPort:   entities.Port{Code: "R", Name: "Rohuküla"},
			}},
		})
	}))
	defer server.Close()

	client := NewFerryClient(server.URL, "http://127.0.0.1:0/get?url=", 300)
	resp, err := client.Directions(context.Background())
	if err != nil {
		t.Fatalf("Directions failed: %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].Code != "HR" {
		t.Fatalf("Unexpected response: %+v", resp)
	}
	if resp.Items[0].FromPort.Name != "Heltermaa" {
		t.Errorf("Expected origin port Heltermaa, got %q", resp.Items[0].FromPort.Name)
	}
}

func TestRelayEnvelopeWithMalformedContents(t *testing.T) {
	direct := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer direct.Close()

	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"contents": "not json"})
	}))
	defer relay.Close()

	client := NewFerryClient(direct.URL, relay.URL+"/get?url=", 300)
	_, err := client.Events(context.Background(), "HR", "2026-07-01")
	if err == nil {
		t.Fatal("Expected error for malformed relay contents")
	}
	if !strings.Contains(err.Error(), "relay contents") {
		t.Errorf("Error should mention the relay contents, got: %v", err)
	}
}

func TestFormatTime(t *testing.T) {
	if got := FormatTime("2026-07-01T14:30:00+03:00"); got != "14:30" {
		t.Errorf("Expected 14:30, got %q", got)
	}
	// Unparseable input passes through unchanged
	if got := FormatTime("garbage"); got != "garbage" {
		t.Errorf("Expected pass-through, got %q", got)
	}
}

func TestFormatDate(t *testing.T) {
	if got := FormatDate("2026-07-01T14:30:00+03:00"); got != "2026-07-01" {
		t.Errorf("Expected 2026-07-01, got %q", got)
	}
}
