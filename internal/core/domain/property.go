package domain

import (
	"fmt"
	"strings"
)

// Availability statuses reported for a property.
const (
	AvailabilityAvailable   = "Available"
	AvailabilityUnavailable = "Unavailable"
)

// Property is a boarding-house listing.
type Property struct {
	ID                 ID        `json:"id"`
	Name               string    `json:"name"`
	Address            string    `json:"address,omitempty"`
	RoomType           string    `json:"room_type"`
	Price              Decimal   `json:"price"`
	PersonsPerRoom     int       `json:"persons_per_room,omitempty"`
	ContactNumber      string    `json:"contact_number,omitempty"`
	AvailabilityStatus string    `json:"availability_status"`
	Photos             []string  `json:"photos,omitempty"`
	Amenities          []Amenity `json:"amenities,omitempty"`
	Owner              *User     `json:"user,omitempty"`
}

// Amenity is one listed amenity of a property.
type Amenity struct {
	Amenity string `json:"amenity"`
}

// Available reports whether the listing can currently be reserved.
func (p Property) Available() bool {
	return strings.EqualFold(p.AvailabilityStatus, AvailabilityAvailable)
}

// AmenityNames joins the amenity names for display.
func (p Property) AmenityNames() string {
	names := make([]string, 0, len(p.Amenities))
	for _, a := range p.Amenities {
		if a.Amenity != "" {
			names = append(names, a.Amenity)
		}
	}
	if len(names) == 0 {
		return "None"
	}
	return strings.Join(names, ", ")
}

// Location is the map position of a property.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (l Location) String() string {
	return fmt.Sprintf("%.6f,%.6f", l.Latitude, l.Longitude)
}

// PropertyFilter narrows a fetched listing client side.
type PropertyFilter struct {
	// Query matches a case-insensitive substring of the property name.
	// Blank queries match everything.
	Query string
	// RoomType matches room_type exactly. Empty matches everything.
	RoomType string
}

// Match reports whether a property passes the filter.
func (f PropertyFilter) Match(p Property) bool {
	if q := strings.TrimSpace(f.Query); q != "" {
		if !strings.Contains(strings.ToLower(p.Name), strings.ToLower(q)) {
			return false
		}
	}
	if f.RoomType != "" && p.RoomType != f.RoomType {
		return false
	}
	return true
}

// FilterProperties returns the properties that pass the filter, in order.
func FilterProperties(props []Property, f PropertyFilter) []Property {
	out := make([]Property, 0, len(props))
	for _, p := range props {
		if f.Match(p) {
			out = append(out, p)
		}
	}
	return out
}
