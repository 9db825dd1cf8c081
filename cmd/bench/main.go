// Copyright 2024 The hashindex Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// bench drives the hashindex engines against synthetic or file-based key
// workloads and reports insert and read throughput. Results print as text
// by default and can additionally be emitted as JSON or appended to a
// SQLite database for comparison across runs.
//
// Typical invocations:
//
//	bench -engine=kvl -n 1000000 -seq
//	bench -engine=all -n 6291456 -rand -json
//	bench -engine=chain -keys workload.bin -readers 4 -db results.db
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/sugawarayuuta/sonnet"
	"golang.org/x/sync/errgroup"

	"github.com/wangziqi2013/hashindex"
	"github.com/wangziqi2013/hashindex/hashers"

	_ "github.com/mattn/go-sqlite3"
)

// payload mirrors the fixed 64-byte values a secondary index typically
// stores (a record identifier padded to a cache line).
type payload [64]byte

const readPasses = 10

var (
	engine   = flag.String("engine", "all", "engine to benchmark: kvl, chain, bucket or all")
	numKeys  = flag.Uint64("n", 1<<20, "number of keys to insert")
	seq      = flag.Bool("seq", false, "sequential key workload")
	rnd      = flag.Bool("rand", false, "random key workload (default)")
	dup      = flag.Int("dup", 1, "values inserted per key")
	readers  = flag.Int("readers", 1, "goroutines sharing the read passes (the table is not mutated while they run)")
	keysPath = flag.String("keys", "", "binary file of 8-byte little-endian keys, mapped instead of generated")
	jsonOut  = flag.Bool("json", false, "print results as a JSON array")
	dbPath   = flag.String("db", "", "append results to this SQLite database")
	initCap  = flag.Int("cap", 1024, "initial capacity request for each table")
)

type result struct {
	Engine        string  `json:"engine"`
	Workload      string  `json:"workload"`
	Keys          uint64  `json:"keys"`
	ValuesPerKey  int     `json:"values_per_key"`
	Readers       int     `json:"readers"`
	InsertNsPerOp float64 `json:"insert_ns_per_op"`
	ReadNsPerOp   float64 `json:"read_ns_per_op"`
}

// table is the slice of the engine surface the harness exercises.
type table interface {
	insert(k uint64, v payload)
	read(k uint64) bool
}

type kvlTable struct {
	m *hashindex.Map[uint64, payload]
}

func (t kvlTable) insert(k uint64, v payload) { t.m.Insert(k, v) }
func (t kvlTable) read(k uint64) bool         { return t.m.GetFirstValue(k) != nil }

type chainTable struct {
	m *hashindex.ChainMap[uint64, payload]
}

func (t chainTable) insert(k uint64, v payload) { t.m.Insert(k, v) }
func (t chainTable) read(k uint64) bool {
	found := false
	t.m.GetValue(k, func(payload) { found = true })
	return found
}

type bucketTable struct {
	m *hashindex.BucketMap[uint64, payload]
}

func (t bucketTable) insert(k uint64, v payload) { t.m.Insert(k, v) }
func (t bucketTable) read(k uint64) bool {
	found := false
	t.m.GetValue(k, func(payload) { found = true })
	return found
}

func newTable(engine string) table {
	eq := hashers.EqualOf[uint64]()
	switch engine {
	case "kvl":
		return kvlTable{hashindex.New[uint64, payload](*initCap, hashers.Uint64, eq,
			hashindex.WithLoadFactor[uint64, payload](hashindex.LoadFactorThreeQuarters))}
	case "chain":
		return chainTable{hashindex.NewChainMap[uint64, payload](*initCap, hashers.Uint64, eq,
			hashindex.WithChainLoadFactor[uint64, payload](hashindex.LoadFactorPercent(400)))}
	case "bucket":
		return bucketTable{hashindex.NewBucketMap[uint64, payload](*initCap, hashers.Uint64, eq,
			hashindex.WithBucketLoadFactor[uint64, payload](hashindex.LoadFactorPercent(400)))}
	}
	log.Fatalf("unknown engine %q", engine)
	return nil
}

func workloadKeys() ([]uint64, string, func()) {
	if *keysPath != "" {
		keys, cleanup, err := mapKeysFile(*keysPath)
		if err != nil {
			log.Fatalf("loading %s: %v", *keysPath, err)
		}
		return keys, "file", cleanup
	}
	keys := make([]uint64, *numKeys)
	if *seq && !*rnd {
		for i := range keys {
			keys[i] = uint64(i)
		}
		return keys, "seq", func() {}
	}
	rng := rand.New(rand.NewSource(0x5eed))
	for i := range keys {
		keys[i] = rng.Uint64()
	}
	return keys, "rand", func() {}
}

func runOne(engine string, keys []uint64, workload string) result {
	t := newTable(engine)
	var v payload

	start := time.Now()
	for d := 0; d < *dup; d++ {
		for _, k := range keys {
			t.insert(k, v)
		}
	}
	insertDur := time.Since(start)

	// The read passes never mutate the table, so they can be shared among
	// reader goroutines.
	start = time.Now()
	var g errgroup.Group
	for r := 0; r < *readers; r++ {
		r := r
		g.Go(func() error {
			for pass := r; pass < readPasses; pass += *readers {
				for _, k := range keys {
					if !t.read(k) {
						return fmt.Errorf("%s: key %d missing on pass %d", engine, k, pass)
					}
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}
	readDur := time.Since(start)

	inserts := float64(len(keys) * *dup)
	reads := float64(len(keys) * readPasses)
	return result{
		Engine:        engine,
		Workload:      workload,
		Keys:          uint64(len(keys)),
		ValuesPerKey:  *dup,
		Readers:       *readers,
		InsertNsPerOp: float64(insertDur.Nanoseconds()) / inserts,
		ReadNsPerOp:   float64(readDur.Nanoseconds()) / reads,
	}
}

func writeDB(path string, results []result) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return err
	}
	defer db.Close()

	const schema = `CREATE TABLE IF NOT EXISTS results (
		at TEXT NOT NULL,
		engine TEXT NOT NULL,
		workload TEXT NOT NULL,
		keys INTEGER NOT NULL,
		values_per_key INTEGER NOT NULL,
		readers INTEGER NOT NULL,
		insert_ns_per_op REAL NOT NULL,
		read_ns_per_op REAL NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		return err
	}
	at := time.Now().UTC().Format(time.RFC3339)
	for _, r := range results {
		_, err := db.Exec(
			`INSERT INTO results VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			at, r.Engine, r.Workload, r.Keys, r.ValuesPerKey, r.Readers,
			r.InsertNsPerOp, r.ReadNsPerOp)
		if err != nil {
			return err
		}
	}
	return nil
}

func main() {
	flag.Parse()

	keys, workload, cleanup := workloadKeys()
	defer cleanup()

	engines := []string{"kvl", "chain", "bucket"}
	if *engine != "all" {
		engines = []string{*engine}
	}

	var results []result
	for _, e := range engines {
		r := runOne(e, keys, workload)
		results = append(results, r)
		fmt.Printf("%-6s %-4s n=%d dup=%d readers=%d  insert=%.1f ns/op  read=%.1f ns/op\n",
			r.Engine, r.Workload, r.Keys, r.ValuesPerKey, r.Readers,
			r.InsertNsPerOp, r.ReadNsPerOp)
	}

	if *jsonOut {
		out, err := sonnet.Marshal(results)
		if err != nil {
			log.Fatal(err)
		}
		os.Stdout.Write(out)
		fmt.Println()
	}
	if *dbPath != "" {
		if err := writeDB(*dbPath, results); err != nil {
			log.Fatalf("writing %s: %v", *dbPath, err)
		}
	}
}
