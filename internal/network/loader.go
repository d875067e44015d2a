// Package network assembles a frozen catalogue and its router from one of
// the configured sources: a JSON request document, a GTFS feed or the
// Postgres store written by the importer.
package network

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/passbi/transport_catalogue/internal/catalogue"
	"github.com/passbi/transport_catalogue/internal/config"
	"github.com/passbi/transport_catalogue/internal/db"
	"github.com/passbi/transport_catalogue/internal/gtfs"
	"github.com/passbi/transport_catalogue/internal/jsonio"
	"github.com/passbi/transport_catalogue/internal/models"
	"github.com/passbi/transport_catalogue/internal/routing"
)

// Network is a loaded catalogue with its router.
// Router is nil when no routing settings are available.
type Network struct {
	Catalogue *catalogue.Catalogue
	Router    *routing.TransportRouter
	Source    string
}

// LoadInput reads the raw network records from the configured source
func LoadInput(ctx context.Context, cfg config.NetworkConfig) (*models.NetworkInput, error) {
	switch cfg.Source {
	case config.SourceJSON:
		file, err := os.Open(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open network document: %w", err)
		}
		defer file.Close()

		doc, err := jsonio.Read(file)
		if err != nil {
			return nil, err
		}
		return doc.NetworkInput(), nil

	case config.SourceGTFS:
		feed, err := parseFeed(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to parse GTFS feed: %w", err)
		}
		return gtfs.ToNetwork(feed, gtfs.Options{
			DedupeThreshold: cfg.DedupeThreshold,
			ShapeDistScale:  cfg.ShapeDistScale,
		})

	case config.SourcePostgres:
		pool, err := db.GetDB()
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return db.NewStore(pool).LoadNetwork(ctx)

	default:
		return nil, fmt.Errorf("unknown network source %q", cfg.Source)
	}
}

func parseFeed(path string) (*gtfs.Feed, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return gtfs.ParseGTFSDir(path)
	}
	return gtfs.ParseGTFSZip(path)
}

// Load builds the catalogue and router described by cfg. Each routing
// setting from the configuration takes precedence over the source's value.
func Load(ctx context.Context, cfg *config.AppConfig) (*Network, error) {
	input, err := LoadInput(ctx, cfg.Network)
	if err != nil {
		return nil, err
	}

	return Build(input, cfg.Network.Source, cfg.Routing)
}

// Build freezes input into a catalogue and, when settings are known,
// creates its router
func Build(input *models.NetworkInput, source string, routingCfg config.RoutingConfig) (*Network, error) {
	start := time.Now()

	cat, err := catalogue.Load(input)
	if err != nil {
		return nil, err
	}

	n := &Network{Catalogue: cat, Source: source}

	settings := routingCfg.Apply(input.Settings)
	if settings == (models.RoutingSettings{}) {
		log.Printf("Warning: no routing settings for %s network, route queries are disabled", source)
		return n, nil
	}

	if err := catalogue.ValidateSettings(settings); err != nil {
		return nil, err
	}

	n.Router, err = routing.NewTransportRouter(cat, settings, routingCfg.RouterOptions())
	if err != nil {
		return nil, err
	}

	vertices, edges := n.Router.GraphStats()
	log.Printf("Network from %s ready in %v: %d vertices, %d edges", source, time.Since(start), vertices, edges)

	return n, nil
}
