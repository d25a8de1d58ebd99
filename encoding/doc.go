// Package encoding implements the column codec: the byte-level encoding and
// decoding of typed row values and the per-table string dictionary.
//
// Each row is a fixed-order concatenation of per-column encodings:
//
//	Integer         8-byte big-endian two's-complement
//	Float           8-byte big-endian IEEE-754 binary64
//	VolatileString  1-byte length prefix + UTF-8 bytes, inline
//	HashtableString 4-byte big-endian index into the table dictionary
//
// The Reader type decodes values from a decompressed row segment and treats
// any read past its bounds as row corruption, never as a panic or an
// out-of-range access.
package encoding
