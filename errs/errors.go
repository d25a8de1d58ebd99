// Package errs defines the sentinel errors shared across the zygosdb packages.
//
// All errors returned by the storage and query engine wrap one of these
// sentinels, so callers can classify failures with errors.Is without parsing
// error strings.
package errs

import "errors"

// Format errors, raised while parsing headers at open time. They indicate a
// corrupt or foreign file and are never retryable.
var (
	// ErrInvalidMagicNumber indicates the database or index magic bytes did
	// not match.
	ErrInvalidMagicNumber = errors.New("invalid magic number")
	// ErrUnsupportedVersion indicates the database format version byte is not
	// supported by this implementation.
	ErrUnsupportedVersion = errors.New("unsupported format version")
	// ErrInvalidColumnType indicates a column header declared an unknown
	// column type id.
	ErrInvalidColumnType = errors.New("invalid column type")
	// ErrInvalidCompressionType indicates a dataset header declared an
	// unknown compression algorithm id.
	ErrInvalidCompressionType = errors.New("invalid compression type")
	// ErrUnexpectedEOF indicates a declared length or prefixed array ran past
	// the end of the file.
	ErrUnexpectedEOF = errors.New("unexpected end of data")
	// ErrOffsetOutOfRange indicates an embedded file offset points outside
	// the file bounds.
	ErrOffsetOutOfRange = errors.New("offset out of range")
	// ErrInvalidIndexOrder indicates index entry positions are not strictly
	// increasing or entry offsets are not monotonically non-decreasing.
	ErrInvalidIndexOrder = errors.New("invalid index entry order")
	// ErrInvalidName indicates a dataset or column name is not valid UTF-8.
	ErrInvalidName = errors.New("invalid name")
)

// Query errors. Each aborts only the query that raised it; indices and
// segments already built for other tables remain valid.
var (
	// ErrRowCorruption indicates row decoding ran past a declared boundary or
	// resolved a dictionary index with no entry.
	ErrRowCorruption = errors.New("row corruption")
	// ErrDecompression indicates a row segment's compressed stream is corrupt
	// or truncated. Not retryable.
	ErrDecompression = errors.New("decompression failed")
	// ErrInvalidRange indicates a caller contract violation: start > end.
	// The query is rejected before any I/O.
	ErrInvalidRange = errors.New("invalid query range")
	// ErrDatasetNotFound indicates the named dataset does not exist in the
	// database header.
	ErrDatasetNotFound = errors.New("dataset not found")
	// ErrTableNotFound indicates the dataset has no table for the requested
	// chromosome.
	ErrTableNotFound = errors.New("table not found")
)

// Build errors, raised while constructing a database file.
var (
	// ErrPositionOrder indicates rows were appended out of genomic position
	// order. Rows must be appended with non-decreasing positions.
	ErrPositionOrder = errors.New("rows must be appended in ascending position order")
	// ErrColumnMismatch indicates an appended row does not match the declared
	// column schema in arity or value type.
	ErrColumnMismatch = errors.New("row does not match column schema")
	// ErrInvalidPosition indicates a negative position value.
	ErrInvalidPosition = errors.New("invalid position value")
	// ErrStringTooLong indicates a string value exceeds the 255-byte limit of
	// the length-prefixed encoding.
	ErrStringTooLong = errors.New("string exceeds maximum encodable length")
	// ErrLimitExceeded indicates a count limit of the format was exceeded,
	// such as more than 255 datasets, columns, or tables.
	ErrLimitExceeded = errors.New("format count limit exceeded")
)
