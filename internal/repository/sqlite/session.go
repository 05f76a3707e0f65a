package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sakif/cityinfo/internal/model"
	"github.com/sakif/cityinfo/internal/repository"
)

var _ repository.CityInfoRepository = (*Session)(nil)

// Session is a unit of work over the shared connection pool.
//
// CHANGE TRACKING:
// Reads run immediately. Writes are recorded in three lists and only reach the
// database when SaveChanges runs:
//
//   - added    → entities passed to AddPointOfInterest (INSERT, id assigned on commit)
//   - tracked  → entities returned by GetPointOfInterest, with a snapshot of the
//     values they had when loaded (UPDATE if the caller changed them)
//   - removed  → entities passed to DeletePointOfInterest (DELETE)
//
// The caller mutates the entity it got back, exactly like it would mutate any
// other struct, and the session works out what SQL is needed by comparing
// against the snapshot.
//
// A Session is not safe for concurrent use.
type Session struct {
	conn    *sql.DB
	added   []*model.PointOfInterest
	tracked map[*model.PointOfInterest]model.PointOfInterest
	removed []*model.PointOfInterest
}

func newSession(conn *sql.DB) *Session {
	return &Session{
		conn:    conn,
		tracked: make(map[*model.PointOfInterest]model.PointOfInterest),
	}
}

// track remembers p together with a copy of its current values.
func (s *Session) track(p *model.PointOfInterest) {
	s.tracked[p] = *p
}

// HasChanges reports whether SaveChanges has anything to write.
func (s *Session) HasChanges() bool {
	if len(s.added) > 0 || len(s.removed) > 0 {
		return true
	}
	for p, snapshot := range s.tracked {
		if modified(p, snapshot) {
			return true
		}
	}
	return false
}

// SaveChanges flushes every pending change in one transaction.
//
// ALL OR NOTHING:
// If any statement fails, or ctx is cancelled (the client went away), the
// deferred Rollback undoes everything and the pending lists are left as they
// were. Generated ids are only copied into the added entities after Commit
// succeeds, so a failed save never leaves an entity with an id that does not
// exist in the database.
//
// The returned bool mirrors "affected rows >= 0": it is true on every
// successful commit, even when nothing needed writing.
func (s *Session) SaveChanges(ctx context.Context) (bool, error) {
	if !s.HasChanges() {
		return true, nil
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	defer func() {
		// After a successful Commit this returns sql.ErrTxDone, which is fine.
		_ = tx.Rollback()
	}()

	newIDs := make([]int64, len(s.added))
	for i, p := range s.added {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO points_of_interest (city_id, name, description) VALUES (?, ?, ?)`,
			p.CityID, p.Name, nullString(p.Description),
		)
		if err != nil {
			return false, fmt.Errorf("sqlite: inserting point of interest for city %d: %w", p.CityID, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return false, fmt.Errorf("sqlite: reading inserted point of interest id: %w", err)
		}
		newIDs[i] = id
	}

	for p, snapshot := range s.tracked {
		if s.isRemoved(p) || !modified(p, snapshot) {
			continue
		}
		// id and city_id come from the snapshot: both are immutable, so any
		// change the caller made to them is ignored.
		if _, err := tx.ExecContext(ctx,
			`UPDATE points_of_interest SET name = ?, description = ? WHERE id = ? AND city_id = ?`,
			p.Name, nullString(p.Description), snapshot.ID, snapshot.CityID,
		); err != nil {
			return false, fmt.Errorf("sqlite: updating point of interest %d: %w", snapshot.ID, err)
		}
	}

	for _, p := range s.removed {
		id := p.ID
		if snapshot, ok := s.tracked[p]; ok {
			id = snapshot.ID
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM points_of_interest WHERE id = ?`, id,
		); err != nil {
			return false, fmt.Errorf("sqlite: deleting point of interest %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("sqlite: committing unit of work: %w", err)
	}

	s.acceptChanges(newIDs)
	return true, nil
}

// acceptChanges brings the change tracker in line with what was just committed.
func (s *Session) acceptChanges(newIDs []int64) {
	for _, p := range s.removed {
		delete(s.tracked, p)
	}
	for p, snapshot := range s.tracked {
		p.ID, p.CityID = snapshot.ID, snapshot.CityID
		s.track(p)
	}
	for i, p := range s.added {
		p.ID = newIDs[i]
		s.track(p)
	}
	s.added = nil
	s.removed = nil
}

func (s *Session) isRemoved(p *model.PointOfInterest) bool {
	for _, r := range s.removed {
		if r == p {
			return true
		}
	}
	return false
}

func modified(p *model.PointOfInterest, snapshot model.PointOfInterest) bool {
	return p.Name != snapshot.Name || p.Description != snapshot.Description
}

// nullString stores an empty optional text column as NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
