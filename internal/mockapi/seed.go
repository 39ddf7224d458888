package mockapi

import (
	"fmt"

	"github.com/dayon-app/dayon-go/internal/core/domain"
)

// Demo account created by Seed.
const (
	DemoName     = "Demo User"
	DemoEmail    = "demo@dayon.test"
	DemoPassword = "password"
)

type seedProperty struct {
	property  domain.Property
	lat, long string
}

var seedProperties = []seedProperty{
	{
		property: domain.Property{
			Name:               "Casa Verde Boarding House",
			Address:            "12 Mabini St, Davao City",
			RoomType:           "Single",
			Price:              "3500.00",
			PersonsPerRoom:     1,
			ContactNumber:      "09171234567",
			AvailabilityStatus: domain.AvailabilityAvailable,
			Amenities:          []domain.Amenity{{Amenity: "WiFi"}, {Amenity: "Aircon"}},
		},
		lat: "7.0731", long: "125.6128",
	},
	{
		property: domain.Property{
			Name:               "Sampaguita Dormitory",
			Address:            "45 Rizal Ave, Davao City",
			RoomType:           "Shared",
			Price:              "1800.00",
			PersonsPerRoom:     4,
			ContactNumber:      "09281234567",
			AvailabilityStatus: domain.AvailabilityAvailable,
			Amenities:          []domain.Amenity{{Amenity: "WiFi"}, {Amenity: "Laundry"}},
		},
		lat: "7.0702", long: "125.6090",
	},
	{
		property: domain.Property{
			Name:               "Bayview Bedspace",
			Address:            "3 Quezon Blvd, Davao City",
			RoomType:           "Bedspace",
			Price:              "1200.50",
			PersonsPerRoom:     6,
			ContactNumber:      "09391234567",
			AvailabilityStatus: domain.AvailabilityUnavailable,
		},
		lat: "7.0655", long: "125.6183",
	},
}

// Seed fills the store with the demo account, a few listings and a review.
func Seed(s *Store) error {
	demo, err := s.CreateUser(DemoName, DemoEmail, DemoPassword)
	if err != nil {
		return fmt.Errorf("seed demo user: %w", err)
	}
	var first domain.Property
	for i, sp := range seedProperties {
		p := s.AddProperty(sp.property, sp.lat, sp.long)
		if i == 0 {
			first = p
		}
	}
	if _, err := s.AddReview(first.ID, demo, 5, "Clean rooms and a friendly landlady."); err != nil {
		return fmt.Errorf("seed review: %w", err)
	}
	return nil
}
