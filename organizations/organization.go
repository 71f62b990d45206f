package organizations

// DefaultOrganizationID is the organization users join when they register
// without naming one.
const DefaultOrganizationID = "default"

// Organization is an operator whose users and flights are kept together.
type Organization struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code,omitempty"` // ICAO operator code, e.g. "BAW"
}
