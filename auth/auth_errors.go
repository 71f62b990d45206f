package auth

import "errors"

var (
	InvalidOrganizationErr = errors.New("organization not found")
	WeakPasswordErr        = errors.New("password does not meet requirements")
)
