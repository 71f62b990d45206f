package users

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// Role represents a dashboard authorization role
type Role string

const (
	RoleAdmin    Role = "admin"    // Can manage users and system status
	RoleOperator Role = "operator" // Can create, edit and delete flights
	RoleAnalyst  Role = "analyst"  // Can run analyses and generate reports
	RoleViewer   Role = "viewer"   // Read-only access
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleOperator, RoleAnalyst, RoleViewer:
		return true
	}
	return false
}

type User struct {
	ID             string    `json:"id"`                        // Unique identifier for the user
	Email          string    `json:"email"`                     // User's email address, also the login name
	PasswordHash   string    `json:"-"`                         // Hashed version of the user's password - never serialize
	FullName       string    `json:"full_name,omitempty"`       // Display name
	OrganizationID string    `json:"organization_id,omitempty"` // Operator organization the user belongs to
	Role           Role      `json:"role"`                      // Authorization role
	IsActive       bool      `json:"is_active"`                 // Inactive users cannot sign in
	CreatedAt      time.Time `json:"created_at"`                // Date and time when the user registered
	LastLogin      time.Time `json:"last_login,omitempty"`      // Last time the user logged in
}

// NormalizeEmail lowercases and trims an address so lookups are
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks that email is a bare address
func ValidateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("value is not a valid email address")
	}
	return nil
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}

	return nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// SetPassword validates and hashes password into the user
func (u *User) SetPassword(password string) error {
	if err := ValidatePasswordStrength(password); err != nil {
		return err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = hash
	return nil
}

// CheckPassword checks password against the user's hash
func (u *User) CheckPassword(password string) bool {
	return u.PasswordHash != "" && CheckPasswordHash(password, u.PasswordHash)
}

// HasRole returns true if the user holds any of roles. Admins hold every role.
func (u *User) HasRole(roles ...Role) bool {
	if u.Role == RoleAdmin {
		return true
	}
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}
