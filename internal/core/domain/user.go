package domain

import (
	"net/mail"
	"strings"
)

// User is the authenticated account as described by the backend. The client
// checks presence, not shape.
type User struct {
	ID    ID     `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Credentials is the login form.
type Credentials struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	DeviceName string `json:"device_name"`
}

// Validate checks that the form is filled in before it is sent.
func (c Credentials) Validate() error {
	ve := NewValidationError("The given data was invalid.")
	if strings.TrimSpace(c.Email) == "" {
		ve.Add("email", "The email field is required.")
	}
	if c.Password == "" {
		ve.Add("password", "The password field is required.")
	}
	if ve.Empty() {
		return nil
	}
	return ve
}

// ValidEmail reports whether s is a bare address such as a@b.com. Forms
// with a display name, like "Bob <bob@b.com>", are rejected.
func ValidEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// Registration is the sign-up form.
type Registration struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
	DeviceName           string `json:"device_name"`
}

// Validate checks required fields and the password confirmation.
func (r Registration) Validate() error {
	ve := NewValidationError("The given data was invalid.")
	if strings.TrimSpace(r.Name) == "" {
		ve.Add("name", "The name field is required.")
	}
	if strings.TrimSpace(r.Email) == "" {
		ve.Add("email", "The email field is required.")
	} else if !ValidEmail(strings.TrimSpace(r.Email)) {
		ve.Add("email", "The email field must be a valid email address.")
	}
	if r.Password == "" {
		ve.Add("password", "The password field is required.")
	} else if r.Password != r.PasswordConfirmation {
		ve.Add("password_confirmation", "The password confirmation does not match.")
	}
	if ve.Empty() {
		return nil
	}
	return ve
}

// AuthResponse is the body returned by /login and /register.
type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user,omitempty"`
}

// ProfileResponse is the body returned by the /profile endpoints.
type ProfileResponse struct {
	User    *User  `json:"user"`
	Message string `json:"message,omitempty"`
}
