package model

import (
	"fmt"
	"time"
)

// RequestStatus is the lifecycle state of a ride request.
type RequestStatus string

const (
	RequestWaiting   RequestStatus = "waiting"
	RequestAssigned  RequestStatus = "assigned"
	RequestCompleted RequestStatus = "completed"
	RequestFailed    RequestStatus = "failed"
)

// Terminal reports whether no further transition is possible.
func (s RequestStatus) Terminal() bool {
	return s == RequestCompleted || s == RequestFailed
}

// AllowedTransitions is the request state flow.
var AllowedTransitions = map[RequestStatus][]RequestStatus{
	RequestWaiting:  {RequestAssigned, RequestFailed},
	RequestAssigned: {RequestCompleted, RequestFailed},
}

// CanTransition reports whether a request may move from one status to another.
func CanTransition(from, to RequestStatus) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

// RideRequest is a rider's demand for a trip. Pickup and Dropoff are copied
// from the rider when the request is created.
type RideRequest struct {
	ID          RequestID     `json:"id"`
	RiderID     RiderID       `json:"rider_id"`
	Status      RequestStatus `json:"status"`
	DriverID    *DriverID     `json:"assigned_driver_id"`
	Pickup      Position      `json:"pickup"`
	Dropoff     Position      `json:"dropoff"`
	ETA         int           `json:"eta"`
	Reason      string        `json:"reason,omitempty"`
	CreatedTick uint64        `json:"created_tick"`
	UpdatedTick uint64        `json:"updated_tick"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Transition moves the request to status to, stamping the update time.
func (r *RideRequest) Transition(to RequestStatus, tick uint64, now time.Time) error {
	if !CanTransition(r.Status, to) {
		return fmt.Errorf("%w: %s %s -> %s", ErrInvalidTransition, r.ID, r.Status, to)
	}
	r.Status = to
	r.UpdatedTick = tick
	r.UpdatedAt = now
	return nil
}

// Clone returns a deep copy.
func (r *RideRequest) Clone() RideRequest {
	c := *r
	if r.DriverID != nil {
		d := *r.DriverID
		c.DriverID = &d
	}
	return c
}
