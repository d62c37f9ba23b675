// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rundb records the outcome of verification runs in a database.
package rundb // import "github.com/go-lpc/dmacrc/rundb"

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-lpc/dmacrc/verify"
	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
)

const (
	host = "localhost"
)

var (
	usr = "username"
	pwd = "s3cr3t"

	drvName = "mysql"
)

const schema = `
CREATE TABLE IF NOT EXISTS verifications (
	identifier BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
	uuid       CHAR(36) NOT NULL,
	datetime   DATETIME(6) NOT NULL,
	state      VARCHAR(32) NOT NULL,
	crc        INT UNSIGNED NOT NULL,
	expected   INT UNSIGNED NOT NULL,
	words      INT UNSIGNED NOT NULL,
	elapsed    BIGINT NOT NULL
)`

// Run is a recorded verification run.
type Run struct {
	ID       uint64
	UUID     string
	Time     time.Time
	State    verify.State
	CRC      uint32
	Expected uint32
	Words    uint32
	Elapsed  time.Duration
}

// DB exposes convenience methods to record and retrieve verification runs.
type DB struct {
	db   *sql.DB
	name string
}

// Open opens a connection to the database dbname.
func Open(dbname string) (*DB, error) {
	db, err := sql.Open(drvName, dsn(dbname))
	if err != nil {
		return nil, fmt.Errorf("rundb: could not open %q db: %w", dbname, err)
	}

	err = ping(db, dbname)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("rundb: could not ping %q db: %w", dbname, err)
	}

	return &DB{db: db, name: dbname}, nil
}

func dsn(db string) string {
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true", usr, pwd, host, db)
}

func ping(db *sql.DB, dbname string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("rundb: could not ping %q db: %w", dbname, err)
	}

	return nil
}

func (db *DB) Close() error {
	return db.db.Close()
}

// Setup creates the verifications table if needed.
func (db *DB) Setup(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := db.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("rundb: could not create verifications table: %w", err)
	}
	return nil
}

// Record stores the report of a verification run done at time now, and
// returns the UUID of the recorded run.
func (db *DB) Record(ctx context.Context, now time.Time, rep verify.Report) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	id := uuid.NewString()
	_, err := db.db.ExecContext(
		ctx,
		"INSERT INTO verifications (uuid, datetime, state, crc, expected, words, elapsed) VALUES (?, ?, ?, ?, ?, ?, ?)",
		id, now.UTC(), rep.State.String(), int64(rep.CRC), int64(rep.Expected),
		int64(rep.Words), int64(rep.Elapsed),
	)
	if err != nil {
		return "", fmt.Errorf("rundb: could not record verification: %w", err)
	}
	return id, nil
}

// LastState returns the state of the most recent verification run.
func (db *DB) LastState(ctx context.Context) (verify.State, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var (
		name string
		rows int
	)
	res, err := db.db.QueryContext(
		ctx,
		"SELECT state FROM verifications ORDER BY datetime DESC LIMIT 1",
	)
	if err != nil {
		return verify.Waiting, fmt.Errorf("rundb: could not query last state: %w", err)
	}
	defer res.Close()

	for res.Next() {
		err = res.Scan(&name)
		if err != nil {
			return verify.Waiting, fmt.Errorf("rundb: could not get last state value: %w", err)
		}
		rows++
	}

	if err := res.Err(); err != nil {
		return verify.Waiting, fmt.Errorf("rundb: could not scan db for last state: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return verify.Waiting, fmt.Errorf("rundb: context error while retrieving last state: %w", err)
	}

	if rows == 0 {
		return verify.Waiting, fmt.Errorf("rundb: no verification recorded: %w", sql.ErrNoRows)
	}

	st, err := verify.ParseState(name)
	if err != nil {
		return verify.Waiting, fmt.Errorf("rundb: could not decode last state: %w", err)
	}
	return st, nil
}

// Runs returns all the recorded verification runs, most recent first.
func (db *DB) Runs(ctx context.Context) ([]Run, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var runs []Run
	rows, err := db.db.QueryContext(
		ctx,
		"SELECT identifier, uuid, datetime, state, crc, expected, words, elapsed FROM verifications ORDER BY datetime DESC",
	)
	if err != nil {
		return runs, fmt.Errorf("rundb: could not run verifications query: %w", err)
	}
	defer rows.Close()

	i := 0
	for rows.Next() {
		var (
			run     Run
			state   string
			elapsed int64
		)
		err = rows.Scan(
			&run.ID, &run.UUID, &run.Time, &state,
			&run.CRC, &run.Expected, &run.Words, &elapsed,
		)
		if err != nil {
			return runs, fmt.Errorf("rundb: could not scan row %d: %w", i, err)
		}
		i++

		run.State, err = verify.ParseState(state)
		if err != nil {
			return runs, fmt.Errorf("rundb: could not decode row %d: %w", i, err)
		}
		run.Elapsed = time.Duration(elapsed)
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return runs, fmt.Errorf("rundb: could not scan db for verifications: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return runs, fmt.Errorf("rundb: context error while retrieving verifications: %w", err)
	}

	return runs, nil
}
