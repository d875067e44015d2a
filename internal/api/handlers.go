package api

import (
	"context"
	"errors"
	"log"
	"net/url"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/passbi/transport_catalogue/internal/cache"
	"github.com/passbi/transport_catalogue/internal/catalogue"
	"github.com/passbi/transport_catalogue/internal/jsonio"
	"github.com/passbi/transport_catalogue/internal/models"
	"github.com/passbi/transport_catalogue/internal/routing"
)

const (
	defaultNearbyLimit = 10
	maxNearbyLimit     = 100
	lockWait           = 3 * time.Second
)

// RouteCache stores route answers between requests
type RouteCache interface {
	GetRoute(ctx context.Context, key string) (*cache.CachedRoute, error)
	SetRoute(ctx context.Context, key string, route *cache.CachedRoute) error
	AcquireLock(ctx context.Context, routeKey string) (bool, error)
	ReleaseLock(ctx context.Context, routeKey string) error
	WaitForLock(ctx context.Context, routeKey string, maxWait time.Duration) (*cache.CachedRoute, error)
	HealthCheck(ctx context.Context) error
}

// Handlers serves the query API of one loaded network
type Handlers struct {
	catalogue   *catalogue.Catalogue
	router      *routing.TransportRouter
	cache       RouteCache
	fingerprint string
	requests    *jsonio.RequestHandler
	dbCheck     func(ctx context.Context) error
}

// NewHandlers creates the handlers. router is nil when routing is disabled;
// routeCache is nil when no Redis is configured.
func NewHandlers(cat *catalogue.Catalogue, router *routing.TransportRouter, routeCache RouteCache) *Handlers {
	var batchRouter jsonio.Router
	if router != nil {
		batchRouter = router
	}

	return &Handlers{
		catalogue:   cat,
		router:      router,
		cache:       routeCache,
		fingerprint: cat.Fingerprint(),
		requests:    jsonio.NewRequestHandler(cat, batchRouter),
	}
}

// SetDatabaseCheck makes /health report on the database the network was
// loaded from
func (h *Handlers) SetDatabaseCheck(check func(ctx context.Context) error) {
	h.dbCheck = check
}

// Register mounts the endpoints on app
func (h *Handlers) Register(app *fiber.App) {
	app.Get("/health", h.Health)

	v1 := app.Group("/v1")
	v1.Get("/buses/:name", h.Bus)
	v1.Get("/stops/nearby", h.StopsNearby)
	v1.Get("/stops/:name", h.Stop)
	v1.Get("/route", h.Route)
	v1.Post("/requests", h.Requests)
	v1.Get("/stats", h.Stats)
}

// BusResponse is the answer of /v1/buses/:name
type BusResponse struct {
	Name string `json:"name"`
	models.BusInfo
}

// Bus handles the /v1/buses/:name endpoint
func (h *Handlers) Bus(c *fiber.Ctx) error {
	name, err := pathName(c)
	if err != nil {
		return err
	}

	info, err := h.catalogue.BusInfo(name)
	if errors.Is(err, catalogue.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "bus_not_found",
			"name":  name,
		})
	}
	if err != nil {
		return err
	}

	return c.JSON(BusResponse{Name: name, BusInfo: *info})
}

// StopResponse is the answer of /v1/stops/:name
type StopResponse struct {
	Name  string   `json:"name"`
	Buses []string `json:"buses"`
}

// Stop handles the /v1/stops/:name endpoint
func (h *Handlers) Stop(c *fiber.Ctx) error {
	name, err := pathName(c)
	if err != nil {
		return err
	}

	buses, err := h.catalogue.StopBuses(name)
	if errors.Is(err, catalogue.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "stop_not_found",
			"name":  name,
		})
	}
	if err != nil {
		return err
	}

	return c.JSON(StopResponse{Name: name, Buses: buses})
}

// NearbyStopsResponse is the answer of /v1/stops/nearby
type NearbyStopsResponse struct {
	Stops []models.NearbyStop `json:"stops"`
}

// StopsNearby handles the /v1/stops/nearby endpoint
func (h *Handlers) StopsNearby(c *fiber.Ctx) error {
	latStr := c.Query("lat")
	lonStr := c.Query("lon")

	if latStr == "" || lonStr == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing required parameters: lat and lon",
		})
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil || lat < -90 || lat > 90 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid latitude",
		})
	}

	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil || lon < -180 || lon > 180 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid longitude",
		})
	}

	limit := defaultNearbyLimit
	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit <= 0 || limit > maxNearbyLimit {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid limit (must be between 1 and 100)",
			})
		}
	}

	stops, err := h.catalogue.NearbyStops(lat, lon, limit)
	if err != nil {
		return err
	}
	if stops == nil {
		stops = []models.NearbyStop{}
	}

	return c.JSON(NearbyStopsResponse{Stops: stops})
}

// RouteResponse is the answer of /v1/route
type RouteResponse struct {
	From string `json:"from"`
	To   string `json:"to"`
	models.Itinerary
}

// Route handles the /v1/route endpoint
func (h *Handlers) Route(c *fiber.Ctx) error {
	from := c.Query("from")
	to := c.Query("to")

	if from == "" || to == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing required parameters: from and to",
		})
	}

	if h.router == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(fiber.Map{
			"error": "routing_disabled",
		})
	}

	result, err := h.findRoute(c.Context(), from, to)
	if errors.Is(err, routing.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "stop_not_found",
		})
	}
	if err != nil {
		return err
	}

	if !result.Found {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "no_route",
			"from":  from,
			"to":    to,
		})
	}

	return c.JSON(RouteResponse{From: from, To: to, Itinerary: *result.Itinerary})
}

// findRoute answers a route query through the cache when one is configured.
// Concurrent misses for the same key wait on a lock instead of recomputing.
func (h *Handlers) findRoute(ctx context.Context, from, to string) (*cache.CachedRoute, error) {
	if h.cache == nil {
		return h.computeRoute(from, to)
	}

	cacheKey := cache.RouteKey(h.fingerprint, from, to)

	cached, err := h.cache.GetRoute(ctx, cacheKey)
	if err != nil {
		log.Printf("Failed to read route cache: %v", err)
	} else if cached != nil {
		return cached, nil
	}

	acquired, err := h.cache.AcquireLock(ctx, cacheKey)
	if err != nil {
		log.Printf("Failed to acquire lock: %v", err)
	} else if !acquired {
		cached, err := h.cache.WaitForLock(ctx, cacheKey, lockWait)
		if err == nil && cached != nil {
			return cached, nil
		}
	}

	defer func() {
		if acquired {
			if err := h.cache.ReleaseLock(ctx, cacheKey); err != nil {
				log.Printf("Failed to release lock: %v", err)
			}
		}
	}()

	result, err := h.computeRoute(from, to)
	if err != nil {
		return nil, err
	}

	if err := h.cache.SetRoute(ctx, cacheKey, result); err != nil {
		log.Printf("Failed to cache route: %v", err)
	}

	return result, nil
}

func (h *Handlers) computeRoute(from, to string) (*cache.CachedRoute, error) {
	itinerary, ok, err := h.router.GetRoute(from, to)
	if err != nil {
		return nil, err
	}
	return &cache.CachedRoute{Found: ok, Itinerary: itinerary}, nil
}

// BatchRequest is the body of /v1/requests
type BatchRequest struct {
	StatRequests []jsonio.StatRequest `json:"stat_requests"`
}

// Requests handles the /v1/requests endpoint. The answers use the same
// shapes as the batch document output.
func (h *Handlers) Requests(c *fiber.Ctx) error {
	var body BatchRequest
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	responses, err := h.requests.Handle(body.StatRequests)
	if err != nil {
		return err
	}

	return c.JSON(responses)
}

// Stats handles the /v1/stats endpoint
func (h *Handlers) Stats(c *fiber.Ctx) error {
	stats := fiber.Map{
		"catalogue":   h.catalogue.Stats(),
		"fingerprint": h.fingerprint,
	}

	if h.router != nil {
		vertices, edges := h.router.GraphStats()
		stats["graph"] = fiber.Map{
			"vertices": vertices,
			"edges":    edges,
		}
		stats["routing_settings"] = h.router.Settings()
	}

	if pool, ok := h.cache.(interface{ Stats() map[string]interface{} }); ok {
		stats["cache"] = pool.Stats()
	}

	return c.JSON(stats)
}

// Health handles the /health endpoint. A failing cache degrades the
// service without making it unhealthy; a failing database does.
func (h *Handlers) Health(c *fiber.Ctx) error {
	ctx := c.Context()

	checks := fiber.Map{
		"catalogue": "ok",
		"routing":   "ok",
		"cache":     "disabled",
	}
	if h.router == nil {
		checks["routing"] = "disabled"
	}

	status := "healthy"
	httpStatus := fiber.StatusOK

	if h.cache != nil {
		checks["cache"] = "ok"
		if err := h.cache.HealthCheck(ctx); err != nil {
			checks["cache"] = err.Error()
			status = "degraded"
		}
	}

	if h.dbCheck != nil {
		checks["database"] = "ok"
		if err := h.dbCheck(ctx); err != nil {
			checks["database"] = err.Error()
			status = "unhealthy"
			httpStatus = fiber.StatusServiceUnavailable
		}
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status": status,
		"checks": checks,
	})
}

// ErrorHandler renders errors returned from handlers as JSON
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}

	log.Printf("Error: %v", err)

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}

// NotFound answers requests for unknown endpoints
func NotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error": "endpoint not found",
	})
}

// pathName returns the unescaped :name route parameter
func pathName(c *fiber.Ctx) (string, error) {
	name, err := url.PathUnescape(c.Params("name"))
	if err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, "invalid name")
	}
	return name, nil
}
