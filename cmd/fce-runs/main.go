// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command fce-runs displays the verification runs recorded by fce-verify.
package main // import "github.com/go-lpc/dmacrc/cmd/fce-runs"

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/go-lpc/dmacrc/rundb"
)

func main() {
	log.SetPrefix("fce-runs: ")
	log.SetFlags(0)

	var (
		dbname = flag.String("db", "fce", "name of the runs database")
		last   = flag.Bool("last", false, "only display the state of the last run")
	)

	flag.Parse()

	db, err := rundb.Open(*dbname)
	if err != nil {
		log.Fatalf("could not open runs db: %+v", err)
	}
	defer db.Close()

	err = doQuery(db, *last)
	if err != nil {
		log.Fatalf("could not do query: %+v", err)
	}
}

func doQuery(db *rundb.DB, last bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	state, err := db.LastState(ctx)
	if err != nil {
		return fmt.Errorf("could not get last state: %w", err)
	}
	log.Printf("last state: %v", state)

	if last {
		return nil
	}

	runs, err := db.Runs(ctx)
	if err != nil {
		return fmt.Errorf("could not retrieve runs: %w", err)
	}
	log.Printf("runs: %d", len(runs))
	for _, run := range runs {
		log.Printf(
			">>> run=%d (%s), time=%s, state=%v, crc=0x%08x, expected=0x%08x, words=%d, elapsed=%v",
			run.ID, run.UUID, run.Time.Format(time.RFC3339), run.State,
			run.CRC, run.Expected, run.Words, run.Elapsed,
		)
	}

	return nil
}
