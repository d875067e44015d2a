package models

// StopID is the stable index of a stop in the catalogue, assigned in
// registration order.
type StopID int

// BusID is the stable index of a bus in the catalogue, assigned in
// registration order.
type BusID int

// SegmentType represents the kind of itinerary segment
type SegmentType string

const (
	SegmentWait SegmentType = "Wait"
	SegmentRide SegmentType = "Bus"
)

// Coordinates is a geographic point in degrees
type Coordinates struct {
	Lat float64 `json:"latitude"`
	Lng float64 `json:"longitude"`
}

// Stop represents a named transit stop
type Stop struct {
	ID          StopID
	Name        string
	Coordinates Coordinates
}

// Bus represents a named bus route.
// For a non-round bus Stops holds the out-and-back sequence
// (A, B, C, B, A for an outward list A, B, C).
type Bus struct {
	ID          BusID
	Name        string
	Stops       []StopID
	IsRoundTrip bool
}

// RoutingSettings holds the parameters of the transit graph
type RoutingSettings struct {
	BusWaitTime float64 `json:"bus_wait_time" yaml:"bus_wait_time" validate:"gt=0"` // minutes
	BusVelocity float64 `json:"bus_velocity" yaml:"bus_velocity" validate:"gt=0"`   // km/h
}

// Segment is one step of an itinerary: waiting at a stop or riding a bus.
// Stop is set for Wait segments; Bus and SpanCount for ride segments.
type Segment struct {
	Type      SegmentType `json:"type"`
	Minutes   float64     `json:"time"`
	Stop      string      `json:"stop_name,omitempty"`
	Bus       string      `json:"bus,omitempty"`
	SpanCount int         `json:"span_count,omitempty"`
}

// Itinerary is the answer to a route query
type Itinerary struct {
	TotalTime float64   `json:"total_time"`
	Segments  []Segment `json:"items"`
}

// BusInfo holds the structural statistics of a bus route
type BusInfo struct {
	StopCount       int     `json:"stop_count"`
	UniqueStopCount int     `json:"unique_stop_count"`
	RouteLength     int     `json:"route_length"` // meters, road-based
	Curvature       float64 `json:"curvature"`
}

// NearbyStop is a stop returned by a proximity search
type NearbyStop struct {
	Name      string  `json:"name"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	DistanceM float64 `json:"distance_meters"`
}

// Input records consumed from data loaders

// StopRecord is a stop as delivered by a loader
type StopRecord struct {
	Name      string  `json:"name" validate:"required"`
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

// BusRecord is a bus as delivered by a loader. Stops is the outward list;
// the out-and-back sequence is synthesized on registration.
type BusRecord struct {
	Name        string   `json:"name" validate:"required"`
	Stops       []string `json:"stops" validate:"dive,required"`
	IsRoundTrip bool     `json:"is_roundtrip"`
}

// DistanceRecord is a directional road distance between two stops
type DistanceRecord struct {
	From   string `json:"from" validate:"required"`
	To     string `json:"to" validate:"required"`
	Meters int    `json:"meters" validate:"gte=0"`
}

// NetworkInput is everything needed to build a frozen catalogue
type NetworkInput struct {
	Stops     []StopRecord     `validate:"dive"`
	Buses     []BusRecord      `validate:"dive"`
	Distances []DistanceRecord `validate:"dive"`
	Settings  RoutingSettings  `validate:"-"`
}
