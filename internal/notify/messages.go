package notify

import "fmt"

// CapacityAlert is the message sent when a departure's small vehicle
// capacity drops below the session threshold. It is the only template that
// asks the channel to stay visible until acknowledged.
func CapacityAlert(route, departureTime string, currentCapacity, threshold int) Message {
	return Message{
		Title: "🚗 Ferry Capacity Alert!",
		Body: fmt.Sprintf("Route: %s\n"+
			"Departure: %s\n"+
			"Available small vehicle spaces: %d\n"+
			"Your threshold: %d\n\n"+
			"⚠️ Small vehicle capacity has dropped below your threshold!",
			route, departureTime, currentCapacity, threshold),
		RequireAck: true,
	}
}

// MonitoringStarted is the message sent when a watch session is armed
func MonitoringStarted(route, departureTime string, threshold int) Message {
	return Message{
		Title: "🔔 Monitoring Started",
		Body: fmt.Sprintf("Route: %s\n"+
			"Departure: %s\n"+
			"Alert threshold: %d small vehicle spaces\n\n"+
			"You'll be notified when small vehicle capacity drops below %d.",
			route, departureTime, threshold, threshold),
	}
}

// MonitoringStopped is the message sent when a watch session is stopped
func MonitoringStopped(route, departureTime string) Message {
	return Message{
		Title: "🔕 Monitoring Stopped",
		Body: fmt.Sprintf("Route: %s\n"+
			"Departure: %s\n\n"+
			"Capacity monitoring has been disabled.",
			route, departureTime),
	}
}

// TestMessage is the message sent to verify a channel before arming a session
func TestMessage() Message {
	return Message{
		Title: "🚢 Ferry Monitoring Test",
		Body:  "Ferry capacity monitoring test - connection successful!",
	}
}
