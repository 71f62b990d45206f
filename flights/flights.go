// Package flights holds the dev backend's flight records.
package flights

import (
	"strings"
	"time"

	apperrors "github.com/dream1290/dbxui-sub000/internal/errors"
)

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusActive, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type Flight struct {
	ID             string     `json:"id"`
	FlightNumber   string     `json:"flight_number"`
	AircraftID     string     `json:"aircraft_id,omitempty"`
	Origin         string     `json:"origin"`
	Destination    string     `json:"destination"`
	DepartureTime  time.Time  `json:"departure_time"`
	ArrivalTime    *time.Time `json:"arrival_time,omitempty"`
	Status         Status     `json:"status"`
	RiskScore      *float64   `json:"risk_score,omitempty"`
	OrganizationID string     `json:"organization_id,omitempty"`
	CreatedBy      string     `json:"created_by,omitempty"`
}

// Validate checks the writable fields and fills defaults. It returns every
// failure, not just the first.
func (f *Flight) Validate() []apperrors.FieldError {
	var errs []apperrors.FieldError
	f.FlightNumber = strings.ToUpper(strings.TrimSpace(f.FlightNumber))
	f.Origin = strings.ToUpper(strings.TrimSpace(f.Origin))
	f.Destination = strings.ToUpper(strings.TrimSpace(f.Destination))

	if f.FlightNumber == "" {
		errs = append(errs, apperrors.FieldError{Field: "flight_number", Message: "Field required"})
	}
	if len(f.Origin) != 3 {
		errs = append(errs, apperrors.FieldError{Field: "origin", Message: "Origin must be a 3-letter airport code"})
	}
	if len(f.Destination) != 3 {
		errs = append(errs, apperrors.FieldError{Field: "destination", Message: "Destination must be a 3-letter airport code"})
	}
	if f.Origin != "" && f.Origin == f.Destination {
		errs = append(errs, apperrors.FieldError{Field: "destination", Message: "Destination must differ from origin"})
	}
	if f.DepartureTime.IsZero() {
		errs = append(errs, apperrors.FieldError{Field: "departure_time", Message: "Field required"})
	}
	if f.ArrivalTime != nil && !f.ArrivalTime.After(f.DepartureTime) {
		errs = append(errs, apperrors.FieldError{Field: "arrival_time", Message: "Arrival must be after departure"})
	}
	if f.Status == "" {
		f.Status = StatusScheduled
	} else if !f.Status.Valid() {
		errs = append(errs, apperrors.FieldError{Field: "status", Message: "Unknown flight status"})
	}
	return errs
}

// Filter narrows List. Zero fields match everything.
type Filter struct {
	Status         Status
	OrganizationID string
	Offset         int
	Limit          int
}

type Repo interface {
	Upsert(flight *Flight) error
	Get(id string) (*Flight, error)
	Delete(id string) error
	List(filter Filter) ([]*Flight, error)
}
