package sqlite

import (
	"context"
	"fmt"
	"log/slog"
)

type seedCity struct {
	name             string
	description      string
	pointsOfInterest [][2]string // name, description
}

var seedCities = []seedCity{
	{
		name:        "New York City",
		description: "The one with that big park.",
		pointsOfInterest: [][2]string{
			{"Central Park", "The most visited urban park in the United States."},
			{"Empire State Building", "A 102-story skyscraper located in Midtown Manhattan."},
		},
	},
	{
		name:        "Antwerp",
		description: "The one with the cathedral that was never really finished.",
		pointsOfInterest: [][2]string{
			{"Cathedral of Our Lady", "A Gothic style cathedral, conceived by architects Jan and Pieter Appelmans."},
			{"Antwerp Central Station", "The finest example of railway architecture in Belgium."},
		},
	},
	{
		name:        "Paris",
		description: "The one with that big tower.",
		pointsOfInterest: [][2]string{
			{"Eiffel Tower", "A wrought iron lattice tower on the Champ de Mars, named after engineer Gustave Eiffel."},
			{"The Louvre", "The world's largest museum."},
		},
	},
	{
		name:        "Berlin",
		description: "The one with the wall that is no longer there.",
		pointsOfInterest: [][2]string{
			{"Brandenburg Gate", "An 18th-century neoclassical monument."},
			{"Museum Island", "Five world-renowned museums on the northern half of an island in the Spree."},
		},
	},
}

// Seed inserts the demo cities and their points of interest when the store
// has no cities yet. It reports whether anything was inserted.
func (db *DB) Seed(ctx context.Context) (bool, error) {
	var count int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM cities`).Scan(&count); err != nil {
		return false, fmt.Errorf("sqlite: counting cities before seeding: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("sqlite: beginning seed transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, c := range seedCities {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO cities (name, description) VALUES (?, ?)`, c.name, nullString(c.description))
		if err != nil {
			return false, fmt.Errorf("sqlite: seeding city %q: %w", c.name, err)
		}
		cityID, err := res.LastInsertId()
		if err != nil {
			return false, fmt.Errorf("sqlite: reading seeded city id: %w", err)
		}
		for _, p := range c.pointsOfInterest {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO points_of_interest (city_id, name, description) VALUES (?, ?, ?)`,
				cityID, p[0], nullString(p[1]),
			); err != nil {
				return false, fmt.Errorf("sqlite: seeding point of interest %q: %w", p[0], err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("sqlite: committing seed data: %w", err)
	}

	db.logger.Info("seeded database", slog.Int("cities", len(seedCities)))
	return true, nil
}
