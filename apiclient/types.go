package apiclient

import (
	"io"
	"time"
)

// Role is a dashboard authorization role.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOperator Role = "operator"
	RoleAnalyst  Role = "analyst"
	RoleViewer   Role = "viewer"
)

type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	FullName       string    `json:"full_name,omitempty"`
	OrganizationID string    `json:"organization_id,omitempty"`
	Role           Role      `json:"role,omitempty"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at,omitempty"`
}

// LoginResponse is returned by login and, when the backend signs the user
// in directly, by registration.
type LoginResponse struct {
	AccessToken  string  `json:"access_token"`
	RefreshToken *string `json:"refresh_token,omitempty"`
	TokenType    string  `json:"token_type"`
	User         *User   `json:"user,omitempty"`
}

// RefreshResponse carries a new access token. RefreshToken is set only when
// the backend rotates it.
type RefreshResponse struct {
	AccessToken  string  `json:"access_token"`
	RefreshToken *string `json:"refresh_token,omitempty"`
	TokenType    string  `json:"token_type,omitempty"`
}

// RegisterRequest uses the backend's field names, full_name and
// organization_id.
type RegisterRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	FullName       string `json:"full_name"`
	OrganizationID string `json:"organization_id"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type FlightStatus string

const (
	FlightScheduled FlightStatus = "scheduled"
	FlightActive    FlightStatus = "active"
	FlightCompleted FlightStatus = "completed"
	FlightCancelled FlightStatus = "cancelled"
)

type Flight struct {
	ID            string       `json:"id"`
	FlightNumber  string       `json:"flight_number"`
	AircraftID    string       `json:"aircraft_id,omitempty"`
	Origin        string       `json:"origin"`
	Destination   string       `json:"destination"`
	DepartureTime time.Time    `json:"departure_time"`
	ArrivalTime   *time.Time   `json:"arrival_time,omitempty"`
	Status        FlightStatus `json:"status"`
	RiskScore     *float64     `json:"risk_score,omitempty"`
}

// FlightInput is the writable subset of a Flight.
type FlightInput struct {
	FlightNumber  string       `json:"flight_number"`
	AircraftID    string       `json:"aircraft_id,omitempty"`
	Origin        string       `json:"origin"`
	Destination   string       `json:"destination"`
	DepartureTime time.Time    `json:"departure_time"`
	ArrivalTime   *time.Time   `json:"arrival_time,omitempty"`
	Status        FlightStatus `json:"status,omitempty"`
}

type Aircraft struct {
	ID           string    `json:"id"`
	Registration string    `json:"registration"`
	Model        string    `json:"model"`
	Manufacturer string    `json:"manufacturer,omitempty"`
	Status       string    `json:"status"`
	FlightHours  float64   `json:"flight_hours"`
	LastService  time.Time `json:"last_maintenance,omitempty"`
}

type AircraftInput struct {
	Registration string  `json:"registration"`
	Model        string  `json:"model"`
	Manufacturer string  `json:"manufacturer,omitempty"`
	Status       string  `json:"status,omitempty"`
	FlightHours  float64 `json:"flight_hours,omitempty"`
}

type Report struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Type      string    `json:"report_type"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type ReportRequest struct {
	Title     string     `json:"title"`
	Type      string     `json:"report_type"`
	FlightIDs []string   `json:"flight_ids,omitempty"`
	From      *time.Time `json:"date_from,omitempty"`
	To        *time.Time `json:"date_to,omitempty"`
}

type Notification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Severity  string    `json:"severity,omitempty"`
	Read      bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

type AnalysisResult struct {
	ID        string         `json:"id,omitempty"`
	Filename  string         `json:"filename"`
	Status    string         `json:"status"`
	RiskScore float64        `json:"risk_score"`
	Findings  []string       `json:"findings,omitempty"`
	Metrics   map[string]any `json:"metrics,omitempty"`
}

type BatchAnalysisResult struct {
	Results []AnalysisResult `json:"results"`
	Total   int              `json:"total"`
	Failed  int              `json:"failed"`
}

type UserActivity struct {
	Action    string    `json:"action"`
	Resource  string    `json:"resource,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type DatabaseStatus struct {
	Status      string `json:"status"`
	Connections int    `json:"connections,omitempty"`
	Latency     string `json:"latency,omitempty"`
}

// UploadFile is one file of a batch analysis upload.
type UploadFile struct {
	Name    string
	Content io.Reader
}
