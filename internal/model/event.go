package model

import "time"

// Spot event types pushed to live subscribers.
const (
	EventSpotCreated      = "spot.created"
	EventSpotUpdated      = "spot.updated"
	EventSpotAvailability = "spot.availability"
)

// SpotEvent is a change notification for a single spot.
type SpotEvent struct {
	Type string    `json:"type"`
	Spot *SpotView `json:"spot"`
	At   time.Time `json:"at"`
}
