// Package section defines the byte layout of a zygosdb database file and the
// parsers and serializers for each of its sections.
//
// A database file consists of a database header followed by, for every table,
// a row segment (possibly compressed) and a table index block:
//
//	Database   := magic("ZygosDB") version(1) count(1) Dataset...
//	Dataset    := name(PascalString) compression(1) count(1) Column... count(1) TableRef...
//	Column     := type(1) name(PascalString)
//	TableRef   := chromosome(1) indexOffset(8)
//	IndexBlock := magic("INDEX") maxPosition(8) endOffset(8)
//	              segmentOffset(8) segmentLength(8)
//	              entryCount(8) (position(8) offset(8))...
//
// All multi-byte integers are big-endian. Pascal strings carry a 1-byte
// length prefix. Entry offsets and endOffset are relative to the start of the
// decompressed row segment; segmentOffset and segmentLength locate the stored
// (possibly compressed) segment bytes in the file.
//
// Every parser validates magic bytes and bounds-checks embedded offsets and
// declared lengths before trusting them; a mismatch surfaces as one of the
// errs sentinels rather than an out-of-range read.
package section
