// Package zygosdb provides a compact, position-indexed binary format for
// storing and querying genomic variant annotations.
//
// A database file holds one or more named datasets. Each dataset declares a
// column schema and is partitioned into per-chromosome tables whose rows are
// sorted by genomic position. Every table carries a sparse position index,
// so a range query reads only the rows near the requested interval instead
// of scanning the whole table.
//
// # Column Types
//
//   - Integer: 64-bit signed integers (the first column is always the
//     genomic position)
//   - Float: 64-bit IEEE-754 floats
//   - VolatileString: short strings stored inline, for high-cardinality data
//   - HashtableString: dictionary-encoded strings, for low-cardinality data
//     such as alleles or consequence terms
//
// Table segments are optionally compressed with gzip, LZ4 or zstd; the
// algorithm is recorded per dataset in the file header.
//
// # Building
//
//	builder, _ := zygosdb.NewBuilder()
//	ds, _ := builder.Dataset("variants", format.CompressionZstd, columns)
//	table, _ := ds.Table(1)
//	table.Append(int64(12345), 0.98, "A")
//	builder.WriteFile("variants.zygos")
//
// Databases can also be built from tab-separated source files with the tsv
// and config packages, or with the zygosdb command.
//
// # Querying
//
//	client, _ := zygosdb.Open("variants.zygos")
//	defer client.Close()
//
//	idx, _ := client.TableIndex("variants", 1)
//	rows, _ := idx.QueryRange(1_000_000, 2_000_000)
//	for _, row := range rows {
//	    fmt.Println(row.Position())
//	}
//
// Range bounds are inclusive on both ends. For large result sets,
// idx.ParallelQuery(n) runs the same query across n workers and returns
// rows in the same order as the sequential path.
//
// # Package Structure
//
// This package provides top-level wrappers around the build and query
// packages, which can also be used directly. The format, section, encoding
// and compress packages implement the on-disk format.
package zygosdb

import (
	"github.com/zygoslab/zygosdb/build"
	"github.com/zygoslab/zygosdb/query"
)

// Client reads a database file. See query.Client.
type Client = query.Client

// Row is one decoded result row. See query.Row.
type Row = query.Row

// Builder assembles a database file. See build.Builder.
type Builder = build.Builder

// Open opens a database file for querying.
//
// The returned client memory-maps the file and parses its header; table
// segments are loaded lazily on first query. Close releases the mapping.
func Open(path string) (*Client, error) {
	return query.Open(path)
}

// NewBuilder creates an empty database builder.
//
// Available options:
//   - build.WithIndexInterval(n): rows between sparse index samples
//   - build.WithLogger(logger): build progress logging
func NewBuilder(opts ...build.Option) (*Builder, error) {
	return build.NewBuilder(opts...)
}
