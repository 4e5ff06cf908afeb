package database

import (
	"database/sql"
	"encoding/hex"
	"time"

	"golang.org/x/crypto/blake2b"
)

// Run is one recorded randomization.
type Run struct {
	ID            int64
	Seed          int64
	ItemAlgorithm string
	ConfigDigest  string
	InputDigest   string
	OutputDigest  string
	Repairs       int
	FloorsBefore  int
	FloorsAfter   int
	StartedAt     time.Time
	Duration      time.Duration
	Error         string
}

// GroupResize is the outcome of resizing one floor-list group in a run.
type GroupResize struct {
	ID         int64
	RunID      int64
	MappaIndex int
	OldFloors  int
	NewFloors  int
	Applied    bool
	Reason     string
}

// Digest returns the hex BLAKE2b-256 digest of data.
func Digest(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// RecordRun stores a run together with its group resizes and returns the
// run ID.
func (d *Database) RecordRun(run Run, resizes []GroupResize) (int64, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	id, err := d.insert(tx, `
		INSERT INTO runs (seed, item_algorithm, config_digest, input_digest, output_digest,
			repairs, floors_before, floors_after, started_at, duration_ms, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.Seed, run.ItemAlgorithm, run.ConfigDigest, run.InputDigest, run.OutputDigest,
		run.Repairs, run.FloorsBefore, run.FloorsAfter, run.StartedAt.UTC(), run.Duration.Milliseconds(), run.Error)
	if err != nil {
		return 0, err
	}

	for _, r := range resizes {
		if err := d.recordGroupResize(tx, id, r); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

func (d *Database) recordGroupResize(exec execer, runID int64, r GroupResize) error {
	_, err := d.insert(exec, `
		INSERT INTO group_resizes (run_id, mappa_index, old_floors, new_floors, applied, reason)
		VALUES (?, ?, ?, ?, ?, ?)`,
		runID, r.MappaIndex, r.OldFloors, r.NewFloors, r.Applied, r.Reason)
	return err
}

const runColumns = `id, seed, item_algorithm, config_digest, input_digest, output_digest,
	repairs, floors_before, floors_after, started_at, duration_ms, error`

func scanRun(row interface{ Scan(...any) error }) (*Run, error) {
	run := &Run{}
	var durationMS int64
	err := row.Scan(&run.ID, &run.Seed, &run.ItemAlgorithm, &run.ConfigDigest, &run.InputDigest,
		&run.OutputDigest, &run.Repairs, &run.FloorsBefore, &run.FloorsAfter, &run.StartedAt,
		&durationMS, &run.Error)
	if err != nil {
		return nil, err
	}
	run.Duration = time.Duration(durationMS) * time.Millisecond
	return run, nil
}

// GetRun returns a run by ID, or nil if it does not exist.
func (d *Database) GetRun(id int64) (*Run, error) {
	row := d.db.QueryRow(d.qb.Build(`SELECT `+runColumns+` FROM runs WHERE id = ?`), id)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return run, err
}

// ListRuns returns the most recent runs, newest first.
func (d *Database) ListRuns(limit int) ([]Run, error) {
	rows, err := d.db.Query(d.qb.Build(`SELECT `+runColumns+` FROM runs ORDER BY id DESC LIMIT ?`), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// FindRunsByOutput returns the runs that produced the given output digest.
func (d *Database) FindRunsByOutput(digest string) ([]Run, error) {
	rows, err := d.db.Query(d.qb.Build(`SELECT `+runColumns+` FROM runs WHERE output_digest = ? ORDER BY id`), digest)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// GetGroupResizes returns the group resizes of a run ordered by mappa index.
func (d *Database) GetGroupResizes(runID int64) ([]GroupResize, error) {
	rows, err := d.db.Query(d.qb.Build(`
		SELECT id, run_id, mappa_index, old_floors, new_floors, applied, reason
		FROM group_resizes
		WHERE run_id = ?
		ORDER BY mappa_index, id`), runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var resizes []GroupResize
	for rows.Next() {
		var r GroupResize
		if err := rows.Scan(&r.ID, &r.RunID, &r.MappaIndex, &r.OldFloors, &r.NewFloors, &r.Applied, &r.Reason); err != nil {
			return nil, err
		}
		resizes = append(resizes, r)
	}
	return resizes, rows.Err()
}
