package command

import (
	"fmt"
	"strconv"

	"github.com/dayon-app/dayon-go/internal/cli/output"
	"github.com/dayon-app/dayon-go/internal/core/domain"
)

// Views pick the table columns for each result. JSON and YAML output
// marshal the underlying domain values unchanged.

type userView struct {
	*domain.User
}

func (v userView) Table(bool) *output.Table {
	t := output.NewTable("ID", "NAME", "EMAIL")
	t.AddRow(v.ID.String(), v.Name, v.Email)
	return t
}

type propertyTable []domain.Property

func (l propertyTable) Table(wide bool) *output.Table {
	t := output.NewTable("ID", "NAME", "ROOM TYPE", "PRICE", "STATUS")
	if wide {
		t.SetHeaders("ID", "NAME", "ROOM TYPE", "PRICE", "STATUS", "PERSONS", "CONTACT", "ADDRESS", "AMENITIES")
	}
	for _, p := range l {
		row := []string{p.ID.String(), p.Name, p.RoomType, p.Price.String(), p.AvailabilityStatus}
		if wide {
			row = append(row, persons(p.PersonsPerRoom), p.ContactNumber, p.Address, p.AmenityNames())
		}
		t.AddRow(row...)
	}
	return t
}

// propertyDetail is a single listing with its reviews summarised.
type propertyDetail struct {
	domain.Property
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int     `json:"review_count"`
}

func (d propertyDetail) Table(bool) *output.Table {
	t := output.NewTable("FIELD", "VALUE")
	t.AddRow("ID", d.ID.String())
	t.AddRow("Name", d.Name)
	t.AddRow("Address", d.Address)
	t.AddRow("Room type", d.RoomType)
	t.AddRow("Price", d.Price.String())
	t.AddRow("Persons per room", persons(d.PersonsPerRoom))
	t.AddRow("Contact", d.ContactNumber)
	t.AddRow("Status", d.AvailabilityStatus)
	t.AddRow("Amenities", d.AmenityNames())
	t.AddRow("Rating", ratingSummary(d.AverageRating, d.ReviewCount))
	return t
}

type locationView struct {
	PropertyID domain.ID `json:"property_id"`
	domain.Location
}

func (v locationView) Table(bool) *output.Table {
	t := output.NewTable("PROPERTY", "LATITUDE", "LONGITUDE")
	t.AddRow(v.PropertyID.String(),
		strconv.FormatFloat(v.Latitude, 'f', 6, 64),
		strconv.FormatFloat(v.Longitude, 'f', 6, 64))
	return t
}

type reservationTable []domain.Reservation

func (l reservationTable) Table(wide bool) *output.Table {
	t := output.NewTable("ID", "PROPERTY", "DATE", "STATUS")
	if wide {
		t.SetHeaders("ID", "PROPERTY", "DATE", "STATUS", "CANCELLABLE", "DESCRIPTION")
	}
	for _, r := range l {
		row := []string{r.ID.String(), reservationProperty(r), r.DateReserved, r.Status}
		if wide {
			row = append(row, strconv.FormatBool(r.Cancellable()), r.Description)
		}
		t.AddRow(row...)
	}
	return t
}

func reservationProperty(r domain.Reservation) string {
	if r.Property != nil && r.Property.Name != "" {
		return r.Property.Name
	}
	return r.PropertyID.String()
}

// reviewSummary is the reviews of one property with their average.
type reviewSummary struct {
	PropertyID    domain.ID       `json:"property_id"`
	AverageRating float64         `json:"average_rating"`
	Reviews       []domain.Review `json:"reviews"`
}

func (s reviewSummary) Table(wide bool) *output.Table {
	t := output.NewTable("RATING", "BY", "COMMENT")
	if wide {
		t.SetHeaders("ID", "RATING", "BY", "COMMENT", "CREATED")
	}
	for _, r := range s.Reviews {
		by := ""
		if r.User != nil {
			by = r.User.Name
		}
		if wide {
			t.AddRow(r.ID.String(), r.Rating.String(), by, r.Comment, r.CreatedAt)
			continue
		}
		t.AddRow(r.Rating.String(), by, r.Comment)
	}
	return t
}

func persons(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func ratingSummary(avg float64, n int) string {
	if n == 0 {
		return "No reviews yet"
	}
	return fmt.Sprintf("%.1f / 5 (%d reviews)", avg, n)
}
