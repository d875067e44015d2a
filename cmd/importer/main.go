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
	// Command-line flags
	source := flag.String("source", config.SourceGTFS, "Input format: json or gtfs")
	inPath := flag.String("in", "", "Path to the JSON document, GTFS ZIP or unpacked GTFS directory (required)")
	dedupeThreshold := flag.Float64("dedupe-threshold", 30.0, "GTFS stop deduplication threshold in meters")
	shapeDistScale := flag.Float64("shape-dist-scale", 1.0, "Meters per GTFS shape_dist_traveled unit")
	verify := flag.Bool("verify", true, "Build the catalogue and routing graph before writing")

	flag.Parse()

	// Validate required flags
	if *inPath == "" || (*source != config.SourceJSON && *source != config.SourceGTFS) {
		fmt.Println("Usage: importer --source=<json|gtfs> --in=<path> [--dedupe-threshold=30] [--shape-dist-scale=1] [--verify]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Validate file exists
	if _, err := os.Stat(*inPath); os.IsNotExist(err) {
		log.Fatalf("Input not found: %s", *inPath)
	}

	log.Println("Starting network import...")
	log.Printf("Source: %s", *source)
	log.Printf("Input: %s", *inPath)

	ctx := context.Background()
	cfg := config.NetworkConfig{
		Source:          *source,
		Path:            *inPath,
		DedupeThreshold: *dedupeThreshold,
		ShapeDistScale:  *shapeDistScale,
	}

	if err := runImport(ctx, cfg, *verify); err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	log.Println("Import completed successfully!")
}

func runImport(ctx context.Context, cfg config.NetworkConfig, verify bool) error {
	startTime := time.Now()

	log.Println("Step 1/3: Reading network...")
	input, err := network.LoadInput(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to read network: %w", err)
	}

	if verify {
		log.Println("Step 2/3: Verifying catalogue and routing graph...")
		if _, err := network.Build(input, cfg.Source, config.RoutingConfig{}); err != nil {
			return fmt.Errorf("network verification failed: %w", err)
		}
	} else {
		log.Println("Step 2/3: Verification skipped")
	}

	log.Println("Step 3/3: Writing network to database...")
	pool, err := db.GetDB()
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	store := db.NewStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	if err := store.SaveNetwork(ctx, input); err != nil {
		return fmt.Errorf("failed to save network: %w", err)
	}

	stops, buses, distances, err := store.Counts(ctx)
	if err != nil {
		return fmt.Errorf("failed to count rows: %w", err)
	}

	log.Printf("Imported %d stops, %d buses, %d road distances in %v",
		stops, buses, distances, time.Since(startTime))
	return nil
}
