// Package session holds the client's authentication state and keeps it
// mirrored in a key-value Store.
package session

// Storage keys. KeyLegacyToken is the pre-rotation name of the access token
// and is migrated to KeyAccessToken the first time it is read.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyLegacyToken  = "auth_token"
)

// Session is the client's token pair. An empty string means no token is held.
type Session struct {
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

func (s Session) HasAccessToken() bool {
	return s.AccessToken != ""
}

// HasRefreshToken reports whether a refresh may be attempted.
func (s Session) HasRefreshToken() bool {
	return s.RefreshToken != ""
}
