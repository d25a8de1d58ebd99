package section

// Magic byte sequences identifying the database header and table index blocks.
const (
	MagicDatabase = "ZygosDB"
	MagicIndex    = "INDEX"
)

// FormatVersion is the only database format version this implementation
// reads and writes.
const FormatVersion = 1

// Fixed section sizes in bytes.
const (
	// IndexEntrySize is the size of one (position, offset) index entry.
	IndexEntrySize = 16
	// indexBlockPreludeSize covers the index magic, max position, end offset,
	// segment offset, segment length and entry count fields.
	indexBlockPreludeSize = len(MagicIndex) + 5*8
)

// MaxNameLength is the longest dataset or column name the Pascal string
// encoding can carry.
const MaxNameLength = 255

// MaxSectionCount is the largest number of datasets per database, columns per
// dataset, and tables per dataset; all three counts are stored as one byte.
const MaxSectionCount = 255
