package database

import (
	"fmt"
)

// CopyHistory copies every run of src, with its group resizes, into d.
// Row IDs are kept. Runs whose ID already exists in d are skipped. With
// dryRun set nothing is written and the counts say what would be copied.
func (d *Database) CopyHistory(src *Database, dryRun bool) (runs, resizes int64, err error) {
	all, err := src.allRuns()
	if err != nil {
		return 0, 0, fmt.Errorf("read runs: %w", err)
	}

	for _, run := range all {
		existing, err := d.GetRun(run.ID)
		if err != nil {
			return runs, resizes, err
		}
		if existing != nil {
			continue
		}

		groups, err := src.GetGroupResizes(run.ID)
		if err != nil {
			return runs, resizes, fmt.Errorf("read resizes of run %d: %w", run.ID, err)
		}
		if dryRun {
			runs++
			resizes += int64(len(groups))
			continue
		}

		if err := d.importRun(run, groups); err != nil {
			return runs, resizes, fmt.Errorf("copy run %d: %w", run.ID, err)
		}
		runs++
		resizes += int64(len(groups))
	}

	if !dryRun {
		if err := d.resetSequences(); err != nil {
			return runs, resizes, err
		}
	}
	return runs, resizes, nil
}

func (d *Database) allRuns() ([]Run, error) {
	rows, err := d.db.Query(`SELECT ` + runColumns + ` FROM runs ORDER BY id`)
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

// importRun inserts a run and its resizes with their original IDs
func (d *Database) importRun(run Run, groups []GroupResize) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(d.qb.Build(`
		INSERT INTO runs (id, seed, item_algorithm, config_digest, input_digest, output_digest,
			repairs, floors_before, floors_after, started_at, duration_ms, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		run.ID, run.Seed, run.ItemAlgorithm, run.ConfigDigest, run.InputDigest, run.OutputDigest,
		run.Repairs, run.FloorsBefore, run.FloorsAfter, run.StartedAt.UTC(), run.Duration.Milliseconds(), run.Error)
	if err != nil {
		return err
	}

	for _, g := range groups {
		_, err := tx.Exec(d.qb.Build(`
			INSERT INTO group_resizes (id, run_id, mappa_index, old_floors, new_floors, applied, reason)
			VALUES (?, ?, ?, ?, ?, ?, ?)`),
			g.ID, run.ID, g.MappaIndex, g.OldFloors, g.NewFloors, g.Applied, g.Reason)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// resetSequences moves PostgreSQL ID sequences past imported rows
func (d *Database) resetSequences() error {
	if _, ok := d.dialect.(*PostgresDialect); !ok {
		return nil
	}
	for _, table := range []string{"runs", "group_resizes"} {
		query := fmt.Sprintf(`SELECT setval(pg_get_serial_sequence('%s', 'id'), COALESCE((SELECT MAX(id) FROM %s), 0) + 1, false)`, table, table)
		if _, err := d.db.Exec(query); err != nil {
			return fmt.Errorf("reset %s sequence: %w", table, err)
		}
	}
	return nil
}
