package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dayon-app/dayon-go/internal/client/gateway"
	"github.com/dayon-app/dayon-go/internal/core/domain"
)

// PropertyService reads listings.
type PropertyService struct {
	gw *gateway.Gateway
}

// List returns every listing.
func (s *PropertyService) List(ctx context.Context) ([]domain.Property, error) {
	var resp struct {
		Properties []domain.Property `json:"properties"`
	}
	if err := s.gw.Get(ctx, "/properties", &resp); err != nil {
		return nil, err
	}
	return resp.Properties, nil
}

// Find returns the listing with the given id from the full listing. The
// backend has no single-property endpoint.
func (s *PropertyService) Find(ctx context.Context, id domain.ID) (*domain.Property, error) {
	props, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range props {
		if props[i].ID == id {
			return &props[i], nil
		}
	}
	return nil, domain.ErrNotFound.WithDetails("property " + id.String())
}

// Location returns the map position of a property. The backend sends the
// coordinates as strings or numbers.
func (s *PropertyService) Location(ctx context.Context, id domain.ID) (domain.Location, error) {
	path := "/properties_map/" + pathID(id.String())

	var resp struct {
		Location *struct {
			Lat  domain.Decimal `json:"lat"`
			Long domain.Decimal `json:"long"`
		} `json:"location"`
	}
	req := &gateway.Request{Method: http.MethodGet, Path: path, Route: "/properties_map/{id}"}
	if err := s.gw.Do(ctx, req, &resp); err != nil {
		return domain.Location{}, err
	}
	if resp.Location == nil {
		return domain.Location{}, &domain.DecodeError{Path: path, Err: errors.New("response has no location")}
	}

	lat, err := resp.Location.Lat.Float()
	if err != nil {
		return domain.Location{}, &domain.DecodeError{Path: path, Err: fmt.Errorf("lat: %w", err)}
	}
	long, err := resp.Location.Long.Float()
	if err != nil {
		return domain.Location{}, &domain.DecodeError{Path: path, Err: fmt.Errorf("long: %w", err)}
	}
	if lat < -90 || lat > 90 || long < -180 || long > 180 {
		return domain.Location{}, &domain.DecodeError{Path: path, Err: fmt.Errorf("coordinates out of range: %v,%v", lat, long)}
	}
	return domain.Location{Latitude: lat, Longitude: long}, nil
}

// Filter narrows a fetched listing. Order is preserved.
func Filter(props []domain.Property, f domain.PropertyFilter) []domain.Property {
	return domain.FilterProperties(props, f)
}
