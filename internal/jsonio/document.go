// Package jsonio reads transport catalogue request documents and renders
// their stat answers. A document carries the network as base requests,
// the routing settings, and a batch of stat requests:
//
//	{
//	  "base_requests": [
//	    {"type": "Stop", "name": "Морской вокзал", "latitude": 43.581969, "longitude": 39.719848,
//	     "road_distances": {"Ривьерский мост": 850}},
//	    {"type": "Bus", "name": "114", "stops": ["Морской вокзал", "Ривьерский мост"], "is_roundtrip": false}
//	  ],
//	  "routing_settings": {"bus_wait_time": 6, "bus_velocity": 40},
//	  "stat_requests": [
//	    {"id": 1, "type": "Bus", "name": "114"},
//	    {"id": 2, "type": "Route", "from": "Морской вокзал", "to": "Ривьерский мост"}
//	  ]
//	}
package jsonio

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/go-playground/validator/v10"

	"github.com/passbi/transport_catalogue/internal/models"
)

// Request types
const (
	TypeStop  = "Stop"
	TypeBus   = "Bus"
	TypeRoute = "Route"
	TypeMap   = "Map"
)

// ErrNoRoutingSettings is returned when a document without routing settings
// is asked for them
var ErrNoRoutingSettings = errors.New("routing_settings missing")

var validate = validator.New()

// Document is a parsed request document
type Document struct {
	BaseRequests    []BaseRequest           `json:"base_requests" validate:"dive"`
	RoutingSettings *models.RoutingSettings `json:"routing_settings,omitempty"`
	StatRequests    []StatRequest           `json:"stat_requests" validate:"dive"`
	// Rendering is not supported; the settings are accepted and ignored
	RenderSettings json.RawMessage `json:"render_settings,omitempty"`
}

// BaseRequest describes a stop or a bus of the network
type BaseRequest struct {
	Type string `json:"type" validate:"oneof=Stop Bus"`
	Name string `json:"name" validate:"required"`

	// Stop fields
	Latitude      float64        `json:"latitude,omitempty" validate:"gte=-90,lte=90"`
	Longitude     float64        `json:"longitude,omitempty" validate:"gte=-180,lte=180"`
	RoadDistances map[string]int `json:"road_distances,omitempty" validate:"dive,gte=0"`

	// Bus fields
	Stops       []string `json:"stops,omitempty" validate:"dive,required"`
	IsRoundTrip bool     `json:"is_roundtrip,omitempty"`
}

// StatRequest is one query of the batch
type StatRequest struct {
	ID   int    `json:"id"`
	Type string `json:"type" validate:"required"`
	Name string `json:"name,omitempty"`
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

// Read parses and validates a request document
func Read(r io.Reader) (*Document, error) {
	var doc Document
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode request document: %w", err)
	}
	if err := validate.Struct(&doc); err != nil {
		return nil, fmt.Errorf("invalid request document: %w", err)
	}
	return &doc, nil
}

// NetworkInput converts the base requests to loader records. Stop and bus
// order follow the document; road distances of a stop are emitted sorted by
// destination name.
func (d *Document) NetworkInput() *models.NetworkInput {
	input := &models.NetworkInput{}
	if d.RoutingSettings != nil {
		input.Settings = *d.RoutingSettings
	}

	for _, req := range d.BaseRequests {
		switch req.Type {
		case TypeStop:
			input.Stops = append(input.Stops, models.StopRecord{
				Name:      req.Name,
				Latitude:  req.Latitude,
				Longitude: req.Longitude,
			})

			destinations := make([]string, 0, len(req.RoadDistances))
			for to := range req.RoadDistances {
				destinations = append(destinations, to)
			}
			sort.Strings(destinations)
			for _, to := range destinations {
				input.Distances = append(input.Distances, models.DistanceRecord{
					From:   req.Name,
					To:     to,
					Meters: req.RoadDistances[to],
				})
			}

		case TypeBus:
			input.Buses = append(input.Buses, models.BusRecord{
				Name:        req.Name,
				Stops:       req.Stops,
				IsRoundTrip: req.IsRoundTrip,
			})
		}
	}

	return input
}

// Settings returns the routing settings of the document
func (d *Document) Settings() (models.RoutingSettings, error) {
	if d.RoutingSettings == nil {
		return models.RoutingSettings{}, ErrNoRoutingSettings
	}
	return *d.RoutingSettings, nil
}
