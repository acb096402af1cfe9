package model

// Rider wants to travel from Pickup to Dropoff.
type Rider struct {
	ID      RiderID  `json:"id"`
	Pickup  Position `json:"pickup"`
	Dropoff Position `json:"dropoff"`
}
