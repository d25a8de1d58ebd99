package format

import "fmt"

type (
	ColumnType      uint8
	CompressionType uint8
)

// Column types as stored in the column header. The numeric values are part of
// the on-disk format and must not be reordered.
const (
	// ColumnInteger stores 64-bit signed integers, fixed width.
	ColumnInteger ColumnType = 0
	// ColumnFloat stores IEEE-754 binary64 values, fixed width.
	ColumnFloat ColumnType = 1
	// ColumnVolatileString stores strings inline per row, length-prefixed.
	// Appropriate for high-cardinality values that rarely repeat.
	ColumnVolatileString ColumnType = 2
	// ColumnHashtableString stores strings once in a per-table dictionary and
	// references them by index from each row. Appropriate for low-cardinality
	// repeated values such as REF/ALT alleles.
	ColumnHashtableString ColumnType = 3
)

// Compression algorithms applied to a dataset's row segments. The numeric
// values are part of the on-disk format.
const (
	CompressionNone CompressionType = 0
	CompressionGzip CompressionType = 1
	CompressionLZ4  CompressionType = 2
	CompressionZstd CompressionType = 3
)

func (c ColumnType) String() string {
	switch c {
	case ColumnInteger:
		return "Integer"
	case ColumnFloat:
		return "Float"
	case ColumnVolatileString:
		return "VolatileString"
	case ColumnHashtableString:
		return "HashtableString"
	default:
		return "Unknown"
	}
}

// Valid reports whether c is a known column type.
func (c ColumnType) Valid() bool {
	return c <= ColumnHashtableString
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionGzip:
		return "Gzip"
	case CompressionLZ4:
		return "LZ4"
	case CompressionZstd:
		return "Zstd"
	default:
		return "Unknown"
	}
}

// Valid reports whether c is a known compression type.
func (c CompressionType) Valid() bool {
	return c <= CompressionZstd
}

// ParseColumnType converts a column type name, as used in build configuration
// files, into its ColumnType value.
func ParseColumnType(name string) (ColumnType, error) {
	switch name {
	case "integer":
		return ColumnInteger, nil
	case "float":
		return ColumnFloat, nil
	case "volatile-string":
		return ColumnVolatileString, nil
	case "hashtable-string":
		return ColumnHashtableString, nil
	default:
		return 0, fmt.Errorf("unknown column type: %q", name)
	}
}

// ParseCompressionType converts a compression algorithm name, as used in build
// configuration files, into its CompressionType value. An empty name selects
// CompressionNone.
func ParseCompressionType(name string) (CompressionType, error) {
	switch name {
	case "", "none":
		return CompressionNone, nil
	case "gzip":
		return CompressionGzip, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("unknown compression type: %q", name)
	}
}
