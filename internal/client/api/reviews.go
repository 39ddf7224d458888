package api

import (
	"context"
	"net/http"

	"github.com/dayon-app/dayon-go/internal/client/gateway"
	"github.com/dayon-app/dayon-go/internal/core/domain"
)

// ReviewService reads and posts property reviews.
type ReviewService struct {
	gw *gateway.Gateway
}

func reviewsPath(propertyID domain.ID) string {
	return "/properties/" + pathID(propertyID.String()) + "/reviews"
}

// List returns the reviews of a property.
func (s *ReviewService) List(ctx context.Context, propertyID domain.ID) ([]domain.Review, error) {
	var resp struct {
		Reviews []domain.Review `json:"reviews"`
	}
	req := &gateway.Request{
		Method: http.MethodGet,
		Path:   reviewsPath(propertyID),
		Route:  "/properties/{id}/reviews",
	}
	if err := s.gw.Do(ctx, req, &resp); err != nil {
		return nil, err
	}
	return resp.Reviews, nil
}

// Create posts a review. The rating must be between 1 and 5.
func (s *ReviewService) Create(ctx context.Context, propertyID domain.ID, r domain.NewReview) error {
	if err := r.Validate(); err != nil {
		return err
	}
	req := &gateway.Request{
		Method: http.MethodPost,
		Path:   reviewsPath(propertyID),
		Route:  "/properties/{id}/reviews",
		Body:   r,
	}
	return s.gw.Do(ctx, req, nil)
}

// AverageRating is the mean rating of reviews, 0 when there are none.
func AverageRating(reviews []domain.Review) float64 {
	return domain.AverageRating(reviews)
}
