// Package query implements the read side of zygosdb: opening a database
// file, loading per-(dataset, chromosome) table indices, and resolving
// positional range queries into decoded rows.
//
// A Client owns a read-only mapping of the database file and a cache of
// built TableIndex values. Indices, dictionaries, and decompressed row
// segments are immutable once built and shared across however many
// goroutines issue queries, so concurrent reads need no locking.
//
//	client, err := query.Open("variants.zdb")
//	if err != nil { ... }
//	defer client.Close()
//
//	index, err := client.TableIndex("alzheimer", 7)
//	if err != nil { ... }
//
//	rows, err := index.QueryRange(1_000_000, 2_000_000)
//
// For large windows, a ParallelQueryHandle fans the scan out over a fixed
// number of workers:
//
//	rows, err = index.ParallelQuery(8).QueryRange(1_000_000, 50_000_000)
package query
