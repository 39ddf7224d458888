package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/dayon-app/dayon-go/internal/client/gateway"
	"github.com/dayon-app/dayon-go/internal/core/domain"
)

// ReservationService manages the current user's reservations.
type ReservationService struct {
	gw *gateway.Gateway
}

// List returns the user's reservations. Both {"reservations": [...]} and a
// bare array are accepted.
func (s *ReservationService) List(ctx context.Context) ([]domain.Reservation, error) {
	const path = "/reservations"

	resp, err := s.gw.Send(ctx, &gateway.Request{Method: http.MethodGet, Path: path})
	if err != nil {
		return nil, err
	}

	var raw json.RawMessage
	if err := resp.Decode(path, &raw); err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}

	var list []domain.Reservation
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, &domain.DecodeError{Path: path, Err: err}
		}
		return list, nil
	}

	var wrapped struct {
		Reservations []domain.Reservation `json:"reservations"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, &domain.DecodeError{Path: path, Err: err}
	}
	return wrapped.Reservations, nil
}

// Create submits a reservation request. The form is validated first.
func (s *ReservationService) Create(ctx context.Context, r domain.NewReservation) (*domain.Reservation, error) {
	if r.Status == "" {
		r.Status = domain.ReservationPending
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}

	var resp struct {
		Message     string              `json:"message"`
		Reservation *domain.Reservation `json:"reservation"`
	}
	if err := s.gw.Post(ctx, "/reservations", r, &resp); err != nil {
		return nil, err
	}
	if resp.Reservation == nil {
		return &domain.Reservation{
			PropertyID:   r.PropertyID,
			Description:  r.Description,
			DateReserved: r.DateReserved,
			Status:       r.Status,
		}, nil
	}
	return resp.Reservation, nil
}

// Cancel withdraws a reservation.
func (s *ReservationService) Cancel(ctx context.Context, id domain.ID) error {
	if id == "" {
		return domain.ErrMissingArgument.WithDetails("reservation id")
	}
	req := &gateway.Request{
		Method: http.MethodDelete,
		Path:   "/reservations/" + pathID(id.String()),
		Route:  "/reservations/{id}",
	}
	return s.gw.Do(ctx, req, nil)
}
