package db

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/passbi/transport_catalogue/internal/models"
)

const batchSize = 1000

// Schema creates the network tables. The position columns keep the
// registration order of stops and buses.
const Schema = `
CREATE TABLE IF NOT EXISTS stop (
	name     TEXT PRIMARY KEY,
	position INTEGER NOT NULL UNIQUE,
	lat      DOUBLE PRECISION NOT NULL CHECK (lat BETWEEN -90 AND 90),
	lon      DOUBLE PRECISION NOT NULL CHECK (lon BETWEEN -180 AND 180)
);

CREATE TABLE IF NOT EXISTS bus (
	name         TEXT PRIMARY KEY,
	position     INTEGER NOT NULL UNIQUE,
	is_roundtrip BOOLEAN NOT NULL
);

CREATE TABLE IF NOT EXISTS bus_stop (
	bus_name  TEXT NOT NULL REFERENCES bus(name) ON DELETE CASCADE,
	seq       INTEGER NOT NULL,
	stop_name TEXT NOT NULL REFERENCES stop(name) ON DELETE CASCADE,
	PRIMARY KEY (bus_name, seq)
);

CREATE TABLE IF NOT EXISTS road_distance (
	from_stop TEXT NOT NULL REFERENCES stop(name) ON DELETE CASCADE,
	to_stop   TEXT NOT NULL REFERENCES stop(name) ON DELETE CASCADE,
	meters    INTEGER NOT NULL CHECK (meters >= 0),
	PRIMARY KEY (from_stop, to_stop)
);

CREATE TABLE IF NOT EXISTS routing_settings (
	id            INTEGER PRIMARY KEY DEFAULT 1 CHECK (id = 1),
	bus_wait_time DOUBLE PRECISION NOT NULL CHECK (bus_wait_time > 0),
	bus_velocity  DOUBLE PRECISION NOT NULL CHECK (bus_velocity > 0)
);
`

// Store persists transit networks in Postgres
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a store on a connection pool
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// EnsureSchema creates the network tables if they do not exist
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SaveNetwork replaces the stored network with input in one transaction
func (s *Store) SaveNetwork(ctx context.Context, input *models.NetworkInput) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "TRUNCATE routing_settings, road_distance, bus_stop, bus, stop"); err != nil {
		return fmt.Errorf("failed to clear network: %w", err)
	}

	batch := &pgx.Batch{}
	for i, stop := range input.Stops {
		batch.Queue(`INSERT INTO stop (name, position, lat, lon) VALUES ($1, $2, $3, $4)`,
			stop.Name, i, stop.Latitude, stop.Longitude)
	}
	if err := sendBatch(ctx, tx, batch); err != nil {
		return fmt.Errorf("failed to insert stops: %w", err)
	}
	log.Printf("Saved %d stops", len(input.Stops))

	batch = &pgx.Batch{}
	for _, d := range input.Distances {
		batch.Queue(`
			INSERT INTO road_distance (from_stop, to_stop, meters)
			VALUES ($1, $2, $3)
			ON CONFLICT (from_stop, to_stop) DO UPDATE
			SET meters = EXCLUDED.meters
		`, d.From, d.To, d.Meters)
		if batch.Len() >= batchSize {
			if err := sendBatch(ctx, tx, batch); err != nil {
				return fmt.Errorf("failed to insert distances: %w", err)
			}
			batch = &pgx.Batch{}
		}
	}
	if err := sendBatch(ctx, tx, batch); err != nil {
		return fmt.Errorf("failed to insert distances: %w", err)
	}
	log.Printf("Saved %d road distances", len(input.Distances))

	batch = &pgx.Batch{}
	for i, bus := range input.Buses {
		batch.Queue(`INSERT INTO bus (name, position, is_roundtrip) VALUES ($1, $2, $3)`,
			bus.Name, i, bus.IsRoundTrip)
		for seq, stopName := range bus.Stops {
			batch.Queue(`INSERT INTO bus_stop (bus_name, seq, stop_name) VALUES ($1, $2, $3)`,
				bus.Name, seq, stopName)
		}
		if batch.Len() >= batchSize {
			if err := sendBatch(ctx, tx, batch); err != nil {
				return fmt.Errorf("failed to insert buses: %w", err)
			}
			batch = &pgx.Batch{}
		}
	}
	if err := sendBatch(ctx, tx, batch); err != nil {
		return fmt.Errorf("failed to insert buses: %w", err)
	}
	log.Printf("Saved %d buses", len(input.Buses))

	if input.Settings != (models.RoutingSettings{}) {
		_, err := tx.Exec(ctx, `INSERT INTO routing_settings (bus_wait_time, bus_velocity) VALUES ($1, $2)`,
			input.Settings.BusWaitTime, input.Settings.BusVelocity)
		if err != nil {
			return fmt.Errorf("failed to insert routing settings: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// LoadNetwork reads the stored network in registration order
func (s *Store) LoadNetwork(ctx context.Context) (*models.NetworkInput, error) {
	input := &models.NetworkInput{}

	rows, err := s.pool.Query(ctx, `SELECT name, lat, lon FROM stop ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stops: %w", err)
	}
	input.Stops, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.StopRecord, error) {
		var stop models.StopRecord
		err := row.Scan(&stop.Name, &stop.Latitude, &stop.Longitude)
		return stop, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read stops: %w", err)
	}

	rows, err = s.pool.Query(ctx, `SELECT from_stop, to_stop, meters FROM road_distance ORDER BY from_stop, to_stop`)
	if err != nil {
		return nil, fmt.Errorf("failed to query distances: %w", err)
	}
	input.Distances, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.DistanceRecord, error) {
		var d models.DistanceRecord
		err := row.Scan(&d.From, &d.To, &d.Meters)
		return d, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read distances: %w", err)
	}

	input.Buses, err = s.loadBuses(ctx)
	if err != nil {
		return nil, err
	}

	err = s.pool.QueryRow(ctx, `SELECT bus_wait_time, bus_velocity FROM routing_settings WHERE id = 1`).
		Scan(&input.Settings.BusWaitTime, &input.Settings.BusVelocity)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to read routing settings: %w", err)
	}

	log.Printf("Loaded network: %d stops, %d buses, %d distances",
		len(input.Stops), len(input.Buses), len(input.Distances))
	return input, nil
}

func (s *Store) loadBuses(ctx context.Context) ([]models.BusRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT b.name, b.is_roundtrip, bs.stop_name
		FROM bus b
		LEFT JOIN bus_stop bs ON bs.bus_name = b.name
		ORDER BY b.position, bs.seq
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query buses: %w", err)
	}
	defer rows.Close()

	var buses []models.BusRecord
	for rows.Next() {
		var (
			name        string
			isRoundTrip bool
			stopName    *string
		)
		if err := rows.Scan(&name, &isRoundTrip, &stopName); err != nil {
			return nil, fmt.Errorf("failed to scan bus: %w", err)
		}

		if len(buses) == 0 || buses[len(buses)-1].Name != name {
			buses = append(buses, models.BusRecord{Name: name, IsRoundTrip: isRoundTrip, Stops: []string{}})
		}
		if stopName != nil {
			last := &buses[len(buses)-1]
			last.Stops = append(last.Stops, *stopName)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read buses: %w", err)
	}

	return buses, nil
}

// Counts returns the number of stored stops, buses and road distances
func (s *Store) Counts(ctx context.Context) (stops, buses, distances int, err error) {
	err = s.pool.QueryRow(ctx, `
		SELECT (SELECT COUNT(*) FROM stop), (SELECT COUNT(*) FROM bus), (SELECT COUNT(*) FROM road_distance)
	`).Scan(&stops, &buses, &distances)
	return stops, buses, distances, err
}

func sendBatch(ctx context.Context, tx pgx.Tx, batch *pgx.Batch) error {
	if batch.Len() == 0 {
		return nil
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("batch statement %d: %w", i, err)
		}
	}
	return nil
}
