package maps

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"

	"souq/internal/types"
)

// GeocodeService handles interactions with the Google Geocoding API.
type GeocodeService struct {
	client *maps.Client
}

// NewGeocodeService creates a new GeocodeService with the given API Key.
func NewGeocodeService(apiKey string) (*GeocodeService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &GeocodeService{client: client}, nil
}

// ReverseGeocode resolves the country and city for a coordinate. Either value
// may come back empty when the API has no matching component.
func (s *GeocodeService) ReverseGeocode(ctx context.Context, p types.Point) (country, city string, err error) {
	results, err := s.client.ReverseGeocode(ctx, &maps.GeocodingRequest{
		LatLng: &maps.LatLng{Lat: p.Lat, Lng: p.Lng},
	})
	if err != nil {
		return "", "", fmt.Errorf("geocoding api error: %w", err)
	}

	for _, result := range results {
		for _, comp := range result.AddressComponents {
			for _, t := range comp.Types {
				switch t {
				case "country":
					if country == "" {
						country = comp.LongName
					}
				case "locality", "administrative_area_level_1":
					if city == "" {
						city = comp.LongName
					}
				}
			}
		}
		if country != "" && city != "" {
			break
		}
	}
	return country, city, nil
}
