package api

import (
	"context"
	"errors"
	"strings"

	"github.com/dayon-app/dayon-go/internal/client/gateway"
	"github.com/dayon-app/dayon-go/internal/core/domain"
)

// ProfileService reads and edits the current user's account.
type ProfileService struct {
	gw *gateway.Gateway
}

// PasswordChange is the body of PUT /profile/password.
type PasswordChange struct {
	Current      string `json:"current_password"`
	New          string `json:"password"`
	Confirmation string `json:"password_confirmation"`
}

// Validate checks that every field is set and the new password is
// confirmed.
func (p PasswordChange) Validate() error {
	ve := domain.NewValidationError("All password fields are required")
	if p.Current == "" {
		ve.Add("current_password", "The current password field is required.")
	}
	if p.New == "" {
		ve.Add("password", "The password field is required.")
	}
	if p.Confirmation == "" {
		ve.Add("password_confirmation", "The password confirmation field is required.")
	}
	if !ve.Empty() {
		return ve
	}
	if p.New != p.Confirmation {
		return domain.NewValidationError("New passwords do not match").
			Add("password_confirmation", "The password confirmation does not match.")
	}
	return nil
}

// Get returns the current user.
func (s *ProfileService) Get(ctx context.Context) (*domain.User, error) {
	var resp domain.ProfileResponse
	if err := s.gw.Get(ctx, "/profile", &resp); err != nil {
		return nil, err
	}
	if resp.User == nil {
		return nil, &domain.DecodeError{Path: "/profile", Err: errors.New("response has no user")}
	}
	return resp.User, nil
}

// Update changes the name and email. Both are required.
func (s *ProfileService) Update(ctx context.Context, name, email string) (*domain.User, error) {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)

	ve := domain.NewValidationError("Name and email are required")
	if name == "" {
		ve.Add("name", "The name field is required.")
	}
	if email == "" {
		ve.Add("email", "The email field is required.")
	} else if !domain.ValidEmail(email) {
		ve.Add("email", "The email field must be a valid email address.")
	}
	if !ve.Empty() {
		return nil, ve
	}

	var resp domain.ProfileResponse
	body := map[string]string{"name": name, "email": email}
	if err := s.gw.Put(ctx, "/profile", body, &resp); err != nil {
		return nil, err
	}
	if resp.User == nil {
		return &domain.User{Name: name, Email: email}, nil
	}
	return resp.User, nil
}

// ChangePassword replaces the password.
func (s *ProfileService) ChangePassword(ctx context.Context, p PasswordChange) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	var resp Message
	if err := s.gw.Put(ctx, "/profile/password", p, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}
