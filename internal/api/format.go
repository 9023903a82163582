package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/martlaht/ferrywatch/internal/entities"
	"github.com/martlaht/ferrywatch/internal/integration"
)

// FormatDirections renders the route list for display
func FormatDirections(directions []entities.Direction) string {
	if len(directions) == 0 {
		return "No ferry routes available right now."
	}

	var result strings.Builder
	result.WriteString("Available routes:\n\n")
	for _, d := range directions {
		result.WriteString(fmt.Sprintf("• %s - %s (%s → %s)\n", d.Code, d.Name, d.FromPort.Name, d.ToPort.Name))
	}
	result.WriteString("\nUse /departures [route] [date] to see departures.")
	return result.String()
}

// FormatDepartures renders a departure list with capacity counts
func FormatDepartures(direction, date string, departures []entities.Departure) string {
	if len(departures) == 0 {
		return fmt.Sprintf("No departures found for %s on %s.", direction, date)
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Departures for %s on %s:\n\n", direction, date))
	for _, d := range departures {
		result.WriteString(fmt.Sprintf("🕒 %s\n", integration.FormatTime(d.Start)))
		result.WriteString(fmt.Sprintf("🚗 Small vehicles: %d\n", d.Capacities.SmallVehicles))
		result.WriteString(fmt.Sprintf("🚚 Large vehicles: %d\n", d.Capacities.LargeVehicles))
		result.WriteString(fmt.Sprintf("🏍 Motorcycles: %d\n", d.Capacities.Motorcycles))
		result.WriteString(fmt.Sprintf("🧍 Passengers: %d\n\n", d.Capacities.Passengers))
	}
	result.WriteString("Use /watch [route] [date] [time] [threshold] to monitor a departure.")
	return result.String()
}

// FormatSessions renders the active watch session list
func FormatSessions(sessions []entities.WatchSession) string {
	if len(sessions) == 0 {
		return "No active watch sessions."
	}

	var result strings.Builder
	result.WriteString("Active watch sessions:\n\n")
	for _, s := range sessions {
		result.WriteString(fmt.Sprintf("🆔 %s\n", s.ID))
		result.WriteString(fmt.Sprintf("⛴ %s at %s on %s\n", s.Route, s.DepartureTime, s.DepartureDate))
		result.WriteString(fmt.Sprintf("🚗 Last checked capacity: %d (threshold %d)\n", s.LastCheckedCapacity, s.Threshold))
		if !s.LastCapacityCheck.IsZero() {
			result.WriteString(fmt.Sprintf("🕒 Last check: %s\n", s.LastCapacityCheck.Format("2006-01-02 15:04:05")))
		}
		if !s.LastNotificationSent.IsZero() {
			result.WriteString(fmt.Sprintf("🔔 Last alert: %s\n", s.LastNotificationSent.Format("2006-01-02 15:04:05")))
		}
		result.WriteString("\n")
	}
	result.WriteString(fmt.Sprintf("🕒 Now: %s\nUse /stop [id] to stop a session.", time.Now().Format("2006-01-02 15:04:05")))
	return result.String()
}
