package api

import (
	"net/url"

	"github.com/dayon-app/dayon-go/internal/client/gateway"
)

// Client groups the marketplace services.
type Client struct {
	Properties   *PropertyService
	Reservations *ReservationService
	Reviews      *ReviewService
	Profile      *ProfileService
}

// New creates a Client on top of gw.
func New(gw *gateway.Gateway) *Client {
	return &Client{
		Properties:   &PropertyService{gw: gw},
		Reservations: &ReservationService{gw: gw},
		Reviews:      &ReviewService{gw: gw},
		Profile:      &ProfileService{gw: gw},
	}
}

// Message is the {"message": "..."} acknowledgement most mutations return.
type Message struct {
	Message string `json:"message"`
}

func pathID(id string) string {
	return url.PathEscape(id)
}
