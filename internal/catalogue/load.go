package catalogue

import (
	"fmt"
	"log"

	"github.com/go-playground/validator/v10"

	"github.com/passbi/transport_catalogue/internal/models"
)

var validate = validator.New()

// Load builds a frozen, validated catalogue from loader records.
// Stops are registered first, then distances, then buses.
func Load(input *models.NetworkInput) (*Catalogue, error) {
	if err := validate.Struct(input); err != nil {
		return nil, fmt.Errorf("invalid network input: %w", err)
	}

	c := New()

	for _, stop := range input.Stops {
		coords := models.Coordinates{Lat: stop.Latitude, Lng: stop.Longitude}
		if _, err := c.AddStop(stop.Name, coords); err != nil {
			return nil, err
		}
	}

	for _, d := range input.Distances {
		if err := c.AddDistance(d.From, d.To, d.Meters); err != nil {
			return nil, err
		}
	}

	for _, bus := range input.Buses {
		if len(bus.Stops) < 2 {
			log.Printf("Warning: bus %s has %d stops and will not be routable", bus.Name, len(bus.Stops))
		}
		if _, err := c.AddBus(bus.Name, bus.Stops, bus.IsRoundTrip); err != nil {
			return nil, err
		}
	}

	c.Freeze()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("network validation failed: %w", err)
	}

	stats := c.Stats()
	log.Printf("Catalogue loaded: %d stops, %d buses, %d distances", stats.Stops, stats.Buses, stats.Distances)

	return c, nil
}

// ValidateSettings checks routing parameters
func ValidateSettings(settings models.RoutingSettings) error {
	if err := validate.Struct(settings); err != nil {
		return fmt.Errorf("invalid routing settings: %w", err)
	}
	return nil
}
