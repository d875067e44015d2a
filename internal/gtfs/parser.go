package gtfs

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Stop represents a stop from stops.txt
type Stop struct {
	StopID   string
	StopName string
	Lat      float64
	Lon      float64
}

// Route represents a route from routes.txt
type Route struct {
	RouteID   string
	AgencyID  string
	ShortName string
	LongName  string
	RouteType int
}

// Trip represents a trip from trips.txt
type Trip struct {
	RouteID   string
	ServiceID string
	TripID    string
	Headsign  string
	Direction int
}

// StopTime represents a stop time from stop_times.txt.
// ShapeDistTraveled is negative when the feed leaves it blank.
type StopTime struct {
	TripID            string
	StopID            string
	StopSequence      int
	ShapeDistTraveled float64
}

// Feed represents a parsed GTFS feed
type Feed struct {
	Stops     []Stop
	Routes    []Route
	Trips     []Trip
	StopTimes []StopTime
}

// ParseGTFSZip extracts and parses a GTFS ZIP file
func ParseGTFSZip(zipPath string) (*Feed, error) {
	tempDir, err := os.MkdirTemp("", "gtfs-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	if err := extractZip(zipPath, tempDir); err != nil {
		return nil, fmt.Errorf("failed to extract zip: %w", err)
	}

	return ParseGTFSDir(tempDir)
}

// ParseGTFSDir parses an unpacked GTFS feed
func ParseGTFSDir(dir string) (*Feed, error) {
	feed := &Feed{}
	var err error

	if feed.Stops, err = parseFile(filepath.Join(dir, "stops.txt"), parseStops); err != nil {
		return nil, fmt.Errorf("failed to parse stops (required): %w", err)
	}
	log.Printf("Parsed %d stops", len(feed.Stops))

	if feed.Routes, err = parseFile(filepath.Join(dir, "routes.txt"), parseRoutes); err != nil {
		return nil, fmt.Errorf("failed to parse routes (required): %w", err)
	}
	log.Printf("Parsed %d routes", len(feed.Routes))

	if feed.Trips, err = parseFile(filepath.Join(dir, "trips.txt"), parseTrips); err != nil {
		return nil, fmt.Errorf("failed to parse trips (required): %w", err)
	}
	log.Printf("Parsed %d trips", len(feed.Trips))

	if feed.StopTimes, err = parseFile(filepath.Join(dir, "stop_times.txt"), parseStopTimes); err != nil {
		return nil, fmt.Errorf("failed to parse stop_times (required): %w", err)
	}
	log.Printf("Parsed %d stop_times", len(feed.StopTimes))

	return feed, nil
}

func parseFile[T any](filePath string, parse func(io.Reader) ([]T, error)) ([]T, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return parse(file)
}

// readRows calls fn for every well-formed row, keyed by the header columns
func readRows(reader io.Reader, kind string, fn func(row func(field string) string)) error {
	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	header, err := csvReader.Read()
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}

	colMap := makeColumnMap(header)

	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			log.Printf("Warning: skipping malformed %s row: %v", kind, err)
			continue
		}

		fn(func(field string) string {
			return getField(record, colMap, field)
		})
	}
}

func parseStops(reader io.Reader) ([]Stop, error) {
	var stops []Stop

	err := readRows(reader, "stop", func(row func(string) string) {
		stopID := row("stop_id")
		latStr := row("stop_lat")
		lonStr := row("stop_lon")

		if stopID == "" || latStr == "" || lonStr == "" {
			log.Printf("Warning: skipping stop with missing required fields: %s", stopID)
			return
		}
		// Stations and entrances are not served by buses
		if locationType := row("location_type"); locationType != "" && locationType != "0" {
			return
		}

		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil {
			log.Printf("Warning: invalid latitude for stop %s: %v", stopID, err)
			return
		}

		lon, err := strconv.ParseFloat(lonStr, 64)
		if err != nil {
			log.Printf("Warning: invalid longitude for stop %s: %v", stopID, err)
			return
		}

		stops = append(stops, Stop{
			StopID:   stopID,
			StopName: row("stop_name"),
			Lat:      lat,
			Lon:      lon,
		})
	})

	return stops, err
}

func parseRoutes(reader io.Reader) ([]Route, error) {
	var routes []Route

	err := readRows(reader, "route", func(row func(string) string) {
		routeID := row("route_id")
		if routeID == "" {
			return
		}

		routeType, _ := strconv.Atoi(row("route_type"))

		routes = append(routes, Route{
			RouteID:   routeID,
			AgencyID:  row("agency_id"),
			ShortName: row("route_short_name"),
			LongName:  row("route_long_name"),
			RouteType: routeType,
		})
	})

	return routes, err
}

func parseTrips(reader io.Reader) ([]Trip, error) {
	var trips []Trip

	err := readRows(reader, "trip", func(row func(string) string) {
		tripID := row("trip_id")
		routeID := row("route_id")
		if tripID == "" || routeID == "" {
			return
		}

		direction, _ := strconv.Atoi(row("direction_id"))

		trips = append(trips, Trip{
			RouteID:   routeID,
			ServiceID: row("service_id"),
			TripID:    tripID,
			Headsign:  row("trip_headsign"),
			Direction: direction,
		})
	})

	return trips, err
}

func parseStopTimes(reader io.Reader) ([]StopTime, error) {
	var stopTimes []StopTime

	err := readRows(reader, "stop_time", func(row func(string) string) {
		tripID := row("trip_id")
		stopID := row("stop_id")
		seqStr := row("stop_sequence")
		if tripID == "" || stopID == "" || seqStr == "" {
			return
		}

		sequence, err := strconv.Atoi(seqStr)
		if err != nil {
			log.Printf("Warning: invalid sequence for trip %s: %v", tripID, err)
			return
		}

		shapeDist := -1.0
		if v := row("shape_dist_traveled"); v != "" {
			if d, err := strconv.ParseFloat(v, 64); err == nil && d >= 0 {
				shapeDist = d
			}
		}

		stopTimes = append(stopTimes, StopTime{
			TripID:            tripID,
			StopID:            stopID,
			StopSequence:      sequence,
			ShapeDistTraveled: shapeDist,
		})
	})

	return stopTimes, err
}

// Helper functions

func makeColumnMap(header []string) map[string]int {
	colMap := make(map[string]int)
	for i, col := range header {
		// Some exporters prefix the first header with a UTF-8 BOM
		colMap[strings.TrimPrefix(strings.TrimSpace(col), "\ufeff")] = i
	}
	return colMap
}

func getField(record []string, colMap map[string]int, fieldName string) string {
	if idx, ok := colMap[fieldName]; ok && idx < len(record) {
		return strings.TrimSpace(record[idx])
	}
	return ""
}

func extractZip(zipPath, destDir string) error {
	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return err
	}
	defer reader.Close()

	for _, file := range reader.File {
		if file.FileInfo().IsDir() {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return err
		}

		destPath := filepath.Join(destDir, filepath.Base(file.Name))
		outFile, err := os.Create(destPath)
		if err != nil {
			rc.Close()
			return err
		}

		_, err = io.Copy(outFile, rc)
		rc.Close()
		outFile.Close()

		if err != nil {
			return err
		}
	}

	return nil
}
