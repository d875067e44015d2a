package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/passbi/transport_catalogue/internal/config"
	"github.com/passbi/transport_catalogue/internal/db"
	"github.com/passbi/transport_catalogue/internal/network"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	from := flag.String("from", "", "Optional stop name to test a route from")
	to := flag.String("to", "", "Optional stop name to test a route to")
	flag.Parse()

	log.Println("🔄 Transport Catalogue - Graph Rebuild Tool")
	log.Println("===========================================")

	// The graph is always rebuilt from the database
	os.Setenv("NETWORK_SOURCE", config.SourcePostgres)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	// Connect to database
	log.Println("📡 Connecting to database...")
	pool, err := db.GetDB()
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	log.Println("✅ Database connected")

	ctx := context.Background()

	// Check data availability
	stopCount, busCount, distanceCount, err := db.NewStore(pool).Counts(ctx)
	if err != nil {
		log.Fatalf("❌ Failed to count rows: %v", err)
	}

	log.Printf("📊 Database statistics:")
	log.Printf("   Stops: %d", stopCount)
	log.Printf("   Buses: %d", busCount)
	log.Printf("   Road distances: %d", distanceCount)

	if stopCount == 0 {
		log.Fatalf("❌ No data found in database. Run the importer first!")
	}

	// Rebuild graph
	fmt.Println()
	log.Println("🔄 Starting graph rebuild...")
	startTime := time.Now()

	n, err := network.Load(ctx, cfg)
	if err != nil {
		log.Fatalf("❌ Failed to rebuild graph: %v", err)
	}
	if n.Router == nil {
		log.Fatalf("❌ No routing settings in database or config")
	}
	n.Router.Prepare()

	duration := time.Since(startTime)
	vertices, edges := n.Router.GraphStats()
	settings := n.Router.Settings()

	fmt.Println()
	log.Println("✅ Graph rebuild completed!")
	log.Printf("⏱️  Duration: %v", duration)
	log.Printf("📊 Graph statistics:")
	log.Printf("   Vertices: %d", vertices)
	log.Printf("   Edges: %d", edges)
	log.Printf("   Wait time: %.1f min, velocity: %.1f km/h", settings.BusWaitTime, settings.BusVelocity)
	log.Printf("   Fingerprint: %s", n.Catalogue.Fingerprint())

	if *from != "" && *to != "" {
		itinerary, ok, err := n.Router.GetRoute(*from, *to)
		switch {
		case err != nil:
			log.Printf("⚠️  Route %s -> %s: %v", *from, *to, err)
		case !ok:
			log.Printf("⚠️  No route from %s to %s", *from, *to)
		default:
			log.Printf("🧭 %s -> %s: %.2f min in %d segments", *from, *to, itinerary.TotalTime, len(itinerary.Segments))
		}
	}

	fmt.Println()
	log.Println("🚀 Graph is ready for routing!")
}
