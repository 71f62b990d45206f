package devserver

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/dream1290/dbxui-sub000/internal/errors"
	"github.com/dream1290/dbxui-sub000/organizations"
	"github.com/dream1290/dbxui-sub000/users"
)

const DefaultOrganizationName = "Default Operator"

// InitialiseSystem creates the default organization and the admin user if
// they do not exist yet.
func (s *Server) InitialiseSystem() error {
	if _, err := s.repos.Organizations.Get(organizations.DefaultOrganizationID); err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return fmt.Errorf("[Server InitialiseSystem] failed to load default organization: %w", err)
		}
		org := &organizations.Organization{ID: organizations.DefaultOrganizationID, Name: DefaultOrganizationName}
		if err := s.repos.Organizations.Upsert(org); err != nil {
			return fmt.Errorf("[Server InitialiseSystem] failed to create default organization: %w", err)
		}
	}

	generatedPassword, err := s.createAdmin(s.config.GetAdminEmail(), s.config.GetAdminPassword())
	if err != nil {
		return fmt.Errorf("[Server InitialiseSystem] failed to bootstrap admin: %w", err)
	}
	s.adminPassword = generatedPassword

	if generatedPassword != "" {
		log.Info().
			Str("email", s.config.GetAdminEmail()).
			Str("password", generatedPassword).
			Msg("admin user created with a generated password")
	}
	return nil
}

// createAdmin returns the generated password, or "" when the admin already
// existed or a password was configured.
func (s *Server) createAdmin(email, password string) (generatedPassword string, err error) {
	email = users.NormalizeEmail(email)
	if _, err := s.repos.Users.GetByEmail(email); err == nil {
		return "", nil
	} else if !errors.Is(err, apperrors.ErrUserNotFound) {
		return "", err
	}

	if password == "" {
		passwordBytes := make([]byte, 12)
		if _, err := rand.Read(passwordBytes); err != nil {
			return "", fmt.Errorf("failed to generate password: %w", err)
		}
		password = base64.URLEncoding.EncodeToString(passwordBytes)
		generatedPassword = password
	}

	passwordHash, err := users.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	admin := &users.User{
		Email:          email,
		PasswordHash:   passwordHash,
		FullName:       "Administrator",
		OrganizationID: organizations.DefaultOrganizationID,
		Role:           users.RoleAdmin,
		IsActive:       true,
		CreatedAt:      time.Now(),
	}
	if err := s.repos.Users.Upsert(admin); err != nil {
		return "", err
	}
	return generatedPassword, nil
}
