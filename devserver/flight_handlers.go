package devserver

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dream1290/dbxui-sub000/flights"
	apperrors "github.com/dream1290/dbxui-sub000/internal/errors"
	"github.com/dream1290/dbxui-sub000/users"
)

const (
	defaultPageLimit = 100
	maxPageLimit     = 1000
)

// flightInput is the writable subset of a flight
type flightInput struct {
	FlightNumber  string         `json:"flight_number"`
	AircraftID    string         `json:"aircraft_id"`
	Origin        string         `json:"origin"`
	Destination   string         `json:"destination"`
	DepartureTime time.Time      `json:"departure_time"`
	ArrivalTime   *time.Time     `json:"arrival_time"`
	Status        flights.Status `json:"status"`
}

func (in flightInput) applyTo(f *flights.Flight) {
	f.FlightNumber = in.FlightNumber
	f.AircraftID = in.AircraftID
	f.Origin = in.Origin
	f.Destination = in.Destination
	f.DepartureTime = in.DepartureTime
	f.ArrivalTime = in.ArrivalTime
	f.Status = in.Status
}

// pagination reads offset and limit query parameters
func pagination(r *http.Request) (offset, limit int, fields []apperrors.FieldError) {
	q := r.URL.Query()
	limit = defaultPageLimit
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxPageLimit {
			fields = append(fields, apperrors.FieldError{Field: "limit", Message: "limit must be between 1 and 1000"})
		}
		limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			fields = append(fields, apperrors.FieldError{Field: "offset", Message: "offset must be a non-negative integer"})
		}
		offset = n
	}
	return offset, limit, fields
}

// organizationScope limits non-admin users to their own organization
func organizationScope(user *users.User) string {
	if user.Role == users.RoleAdmin {
		return ""
	}
	return user.OrganizationID
}

// loadFlight returns the flight if it exists and is visible to the user
func (s *Server) loadFlight(r *http.Request) (*flights.Flight, error) {
	f, err := s.repos.Flights.Get(r.PathValue("id"))
	if err != nil {
		return nil, err
	}
	if scope := organizationScope(requestUser(r)); scope != "" && f.OrganizationID != scope {
		return nil, apperrors.ErrNotFound
	}
	return f, nil
}

func writeFlightError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, apperrors.ErrNotFound) {
		writeDetail(w, http.StatusNotFound, "Flight not found")
		return
	}
	writeError(w, r, err)
}

func (s *Server) ListFlightsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offset, limit, fields := pagination(r)
		status := flights.Status(r.URL.Query().Get("status"))
		if status != "" && !status.Valid() {
			fields = append(fields, apperrors.FieldError{Field: "status", Message: "Unknown flight status"})
		}
		if len(fields) > 0 {
			writeValidation(w, "query", fields...)
			return
		}

		list, err := s.repos.Flights.List(flights.Filter{
			Status:         status,
			OrganizationID: organizationScope(requestUser(r)),
			Offset:         offset,
			Limit:          limit,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func (s *Server) GetFlightHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := s.loadFlight(r)
		if err != nil {
			writeFlightError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, f)
	}
}

func (s *Server) CreateFlightHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in flightInput
		if err := decodeJSON(w, r, &in); err != nil {
			writeError(w, r, err)
			return
		}
		user := requestUser(r)
		f := &flights.Flight{OrganizationID: user.OrganizationID, CreatedBy: user.ID}
		in.applyTo(f)
		if fields := f.Validate(); len(fields) > 0 {
			writeValidation(w, "body", fields...)
			return
		}
		if err := s.repos.Flights.Upsert(f); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, f)
	}
}

func (s *Server) UpdateFlightHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := s.loadFlight(r)
		if err != nil {
			writeFlightError(w, r, err)
			return
		}
		var in flightInput
		if err := decodeJSON(w, r, &in); err != nil {
			writeError(w, r, err)
			return
		}
		in.applyTo(f)
		if fields := f.Validate(); len(fields) > 0 {
			writeValidation(w, "body", fields...)
			return
		}
		if err := s.repos.Flights.Upsert(f); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, f)
	}
}

func (s *Server) DeleteFlightHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := s.loadFlight(r)
		if err != nil {
			writeFlightError(w, r, err)
			return
		}
		if err := s.repos.Flights.Delete(f.ID); err != nil {
			writeFlightError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
