package domain

import (
	"strings"
	"time"
)

// Reservation statuses.
const (
	ReservationPending  = "pending"
	ReservationReserved = "reserved"
)

// DateLayout is the wire format of date_reserved.
const DateLayout = "2006-01-02"

// Reservation is a booking request made by the current user.
type Reservation struct {
	ID           ID        `json:"id"`
	PropertyID   ID        `json:"property_id"`
	Description  string    `json:"description"`
	DateReserved string    `json:"date_reserved"`
	Status       string    `json:"status"`
	Property     *Property `json:"property,omitempty"`
}

// Cancellable reports whether the reservation can still be withdrawn. Once
// the owner confirms it (status "reserved") it can no longer be cancelled
// from the client.
func (r Reservation) Cancellable() bool {
	return !strings.EqualFold(r.Status, ReservationReserved)
}

// NewReservation is the body of POST /reservations.
type NewReservation struct {
	PropertyID   ID     `json:"property_id"`
	Description  string `json:"description"`
	DateReserved string `json:"date_reserved"`
	Status       string `json:"status"`
}

// NewReservationFor builds a pending reservation for the given date.
func NewReservationFor(propertyID ID, description string, date time.Time) NewReservation {
	return NewReservation{
		PropertyID:   propertyID,
		Description:  description,
		DateReserved: date.Format(DateLayout),
		Status:       ReservationPending,
	}
}

// Validate checks the reservation form.
func (r NewReservation) Validate() error {
	ve := NewValidationError("The given data was invalid.")
	if r.PropertyID == "" {
		ve.Add("property_id", "The property id field is required.")
	}
	if strings.TrimSpace(r.Description) == "" {
		ve.Add("description", "Please enter a description.")
	}
	if _, err := time.Parse(DateLayout, r.DateReserved); err != nil {
		ve.Add("date_reserved", "The date reserved must be a date in YYYY-MM-DD format.")
	}
	if ve.Empty() {
		return nil
	}
	return ve
}
