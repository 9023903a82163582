package entities

// Port is one endpoint of a ferry route
type Port struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Direction describes a ferry route in one direction
type Direction struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	FromPort Port   `json:"fromPort"`
	ToPort   Port   `json:"toPort"`
}

// DirectionsResponse is the payload of the directions endpoint
type DirectionsResponse struct {
	TotalCount int         `json:"totalCount"`
	Items      []Direction `json:"items"`
}

// Capacities holds the remaining per-category slot counts for a departure.
// Field tags follow the upstream API's abbreviations.
type Capacities struct {
	Passengers    int `json:"pcs"`
	Bicycles      int `json:"bc"`
	SmallVehicles int `json:"sv"`
	LargeVehicles int `json:"bv"`
	Motorcycles   int `json:"mc"`
	Spare         int `json:"dc"`
}

// Departure is a single scheduled crossing on a route
type Departure struct {
	UID        string     `json:"uid"`
	Start      string     `json:"dtstart"` // ISO-8601
	End        string     `json:"dtend"`   // ISO-8601
	Status     string     `json:"status"`
	Capacities Capacities `json:"capacities"`
}

// EventsResponse is the payload of the events endpoint
type EventsResponse struct {
	TotalCount int         `json:"totalCount"`
	Items      []Departure `json:"items"`
}
