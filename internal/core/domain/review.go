package domain

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Rating bounds accepted by the review form.
const (
	MinRating = 1
	MaxRating = 5
)

// Review is a rating left on a property.
type Review struct {
	ID        ID      `json:"id"`
	Rating    Decimal `json:"rating"`
	Comment   string  `json:"comment,omitempty"`
	CreatedAt string  `json:"created_at,omitempty"`
	User      *User   `json:"user,omitempty"`
}

// NewReview is the body of POST /properties/{id}/reviews. The backend
// expects the rating as a string.
type NewReview struct {
	Rating  int    `json:"-"`
	Comment string `json:"comment"`
	UserID  ID     `json:"user_id"`
}

// MarshalJSON sends the rating as a string.
func (r NewReview) MarshalJSON() ([]byte, error) {
	type wire struct {
		Rating  string `json:"rating"`
		Comment string `json:"comment"`
		UserID  ID     `json:"user_id"`
	}
	return json.Marshal(wire{
		Rating:  strconv.Itoa(r.Rating),
		Comment: r.Comment,
		UserID:  r.UserID,
	})
}

// Validate checks the review form.
func (r NewReview) Validate() error {
	if r.Rating < MinRating || r.Rating > MaxRating {
		return NewValidationError("Please provide a rating").
			Add("rating", "The rating must be between 1 and 5.")
	}
	return nil
}

// AverageRating is the mean of the parseable ratings, or 0 when there are
// none.
func AverageRating(reviews []Review) float64 {
	var sum float64
	var n int
	for _, r := range reviews {
		v, err := strconv.ParseFloat(strings.TrimSpace(string(r.Rating)), 64)
		if err != nil {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
