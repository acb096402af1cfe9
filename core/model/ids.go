package model

import (
	"fmt"
	"strconv"
	"strings"
)

// DriverID identifies a driver. Values are allocated sequentially from 1.
type DriverID int

// RiderID identifies a rider.
type RiderID int

// RequestID identifies a ride request.
type RequestID int

func (id DriverID) String() string  { return "Driver " + strconv.Itoa(int(id)) }
func (id RiderID) String() string   { return "Rider " + strconv.Itoa(int(id)) }
func (id RequestID) String() string { return "Request " + strconv.Itoa(int(id)) }

func (id DriverID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }
func (id RiderID) MarshalText() ([]byte, error)   { return []byte(id.String()), nil }
func (id RequestID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *DriverID) UnmarshalText(b []byte) error {
	v, err := parseID("Driver", string(b))
	*id = DriverID(v)
	return err
}

func (id *RiderID) UnmarshalText(b []byte) error {
	v, err := parseID("Rider", string(b))
	*id = RiderID(v)
	return err
}

func (id *RequestID) UnmarshalText(b []byte) error {
	v, err := parseID("Request", string(b))
	*id = RequestID(v)
	return err
}

// ParseDriverID accepts "Driver 3", "driver-3" or "3".
func ParseDriverID(s string) (DriverID, error) {
	v, err := parseID("Driver", s)
	return DriverID(v), err
}

// ParseRiderID accepts "Rider 3", "rider-3" or "3".
func ParseRiderID(s string) (RiderID, error) {
	v, err := parseID("Rider", s)
	return RiderID(v), err
}

// ParseRequestID accepts "Request 3", "request-3" or "3".
func ParseRequestID(s string) (RequestID, error) {
	v, err := parseID("Request", s)
	return RequestID(v), err
}

func parseID(kind, s string) (int, error) {
	raw := strings.TrimSpace(s)
	if len(raw) >= len(kind) && strings.EqualFold(raw[:len(kind)], kind) {
		raw = strings.TrimLeft(raw[len(kind):], " -_")
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%w: invalid %s id %q", ErrNotFound, strings.ToLower(kind), s)
	}
	return v, nil
}
