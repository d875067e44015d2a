package jsonio

import (
	"encoding/json"
	"errors"
	"io"
	"log"

	"github.com/passbi/transport_catalogue/internal/catalogue"
	"github.com/passbi/transport_catalogue/internal/models"
)

const (
	messageNotFound     = "not found"
	messageNotSupported = "not supported"
)

// Catalogue answers bus and stop queries
type Catalogue interface {
	BusInfo(name string) (*models.BusInfo, error)
	StopBuses(name string) ([]string, error)
}

// Router answers route queries
type Router interface {
	GetRoute(from, to string) (*models.Itinerary, bool, error)
}

// ErrorResponse answers a request that could not be served
type ErrorResponse struct {
	RequestID    int    `json:"request_id"`
	ErrorMessage string `json:"error_message"`
}

// BusResponse answers a Bus request
type BusResponse struct {
	RequestID int `json:"request_id"`
	models.BusInfo
}

// StopResponse answers a Stop request
type StopResponse struct {
	RequestID int      `json:"request_id"`
	Buses     []string `json:"buses"`
}

// RouteResponse answers a Route request
type RouteResponse struct {
	RequestID int `json:"request_id"`
	models.Itinerary
}

// RequestHandler serves stat requests from a catalogue and a router
type RequestHandler struct {
	catalogue Catalogue
	router    Router
}

// NewRequestHandler creates a handler; router may be nil when the network
// has no routing settings, in which case Route requests are not supported
func NewRequestHandler(cat Catalogue, router Router) *RequestHandler {
	return &RequestHandler{catalogue: cat, router: router}
}

// Handle answers the requests in order, one response per request
func (h *RequestHandler) Handle(requests []StatRequest) ([]interface{}, error) {
	responses := make([]interface{}, 0, len(requests))
	for _, req := range requests {
		response, err := h.handleOne(req)
		if err != nil {
			return nil, err
		}
		responses = append(responses, response)
	}
	return responses, nil
}

func (h *RequestHandler) handleOne(req StatRequest) (interface{}, error) {
	switch req.Type {
	case TypeBus:
		info, err := h.catalogue.BusInfo(req.Name)
		if errors.Is(err, catalogue.ErrNotFound) {
			return notFound(req), nil
		}
		if err != nil {
			return nil, err
		}
		return BusResponse{RequestID: req.ID, BusInfo: *info}, nil

	case TypeStop:
		buses, err := h.catalogue.StopBuses(req.Name)
		if errors.Is(err, catalogue.ErrNotFound) {
			return notFound(req), nil
		}
		if err != nil {
			return nil, err
		}
		return StopResponse{RequestID: req.ID, Buses: buses}, nil

	case TypeRoute:
		if h.router == nil {
			return notSupported(req), nil
		}
		itinerary, ok, err := h.router.GetRoute(req.From, req.To)
		if errors.Is(err, catalogue.ErrNotFound) || (err == nil && !ok) {
			return notFound(req), nil
		}
		if err != nil {
			return nil, err
		}
		return RouteResponse{RequestID: req.ID, Itinerary: *itinerary}, nil

	default:
		if req.Type != TypeMap {
			log.Printf("Warning: unknown stat request type %q (id %d)", req.Type, req.ID)
		}
		return notSupported(req), nil
	}
}

func notFound(req StatRequest) ErrorResponse {
	return ErrorResponse{RequestID: req.ID, ErrorMessage: messageNotFound}
}

func notSupported(req StatRequest) ErrorResponse {
	return ErrorResponse{RequestID: req.ID, ErrorMessage: messageNotSupported}
}

// WriteResponses writes the answers as an indented JSON array
func WriteResponses(w io.Writer, responses []interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "    ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(responses)
}
