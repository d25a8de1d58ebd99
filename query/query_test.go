package query

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zygoslab/zygosdb/build"
	"github.com/zygoslab/zygosdb/errs"
	"github.com/zygoslab/zygosdb/format"
	"github.com/zygoslab/zygosdb/section"
)

// writeVariantDB builds a small two-dataset database file and returns its
// path. The "variants" dataset on chromosome 1 holds positions
// 10, 20, 20, 35, 50 with an index sampled every 2 rows.
func writeVariantDB(t *testing.T, compression format.CompressionType) string {
	t.Helper()

	b, err := build.NewBuilder(build.WithIndexInterval(2))
	require.NoError(t, err)

	ds, err := b.Dataset("variants", compression, []section.ColumnHeader{
		{Type: format.ColumnInteger, Name: "position"},
		{Type: format.ColumnFloat, Name: "score"},
		{Type: format.ColumnVolatileString, Name: "note"},
		{Type: format.ColumnHashtableString, Name: "allele"},
	})
	require.NoError(t, err)

	tb, err := ds.Table(1)
	require.NoError(t, err)
	rows := []struct {
		pos    int64
		score  float64
		note   string
		allele string
	}{
		{10, 0.1, "first", "A"},
		{20, 0.2, "dup-a", "T"},
		{20, 0.25, "dup-b", "A"},
		{35, 0.3, "", "G"},
		{50, 0.5, "last", "A"},
	}
	for _, row := range rows {
		require.NoError(t, tb.Append(row.pos, row.score, row.note, row.allele))
	}

	// Second chromosome in the same dataset, and a second dataset, so the
	// lookups have something to miss against.
	tb2, err := ds.Table(2)
	require.NoError(t, err)
	require.NoError(t, tb2.Append(int64(7), 0.7, "only", "C"))

	ds2, err := b.Dataset("coverage", compression, []section.ColumnHeader{
		{Type: format.ColumnInteger, Name: "position"},
		{Type: format.ColumnInteger, Name: "depth"},
	})
	require.NoError(t, err)
	tb3, err := ds2.Table(1)
	require.NoError(t, err)
	for i := range 100 {
		require.NoError(t, tb3.Append(int64(i), int64(i*3)))
	}

	path := filepath.Join(t.TempDir(), "test.zygos")
	require.NoError(t, b.WriteFile(path))

	return path
}

func openVariantDB(t *testing.T, compression format.CompressionType) *Client {
	t.Helper()

	client, err := Open(writeVariantDB(t, compression))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return client
}

func TestOpenErrors(t *testing.T) {
	t.Run("MissingFile", func(t *testing.T) {
		_, err := Open(filepath.Join(t.TempDir(), "nope.zygos"))
		require.Error(t, err)
	})
}

func TestClientListing(t *testing.T) {
	client := openVariantDB(t, format.CompressionNone)

	require.ElementsMatch(t, []string{"variants", "coverage"}, client.ListDatasets())

	chroms, err := client.ListChromosomes("variants")
	require.NoError(t, err)
	require.Equal(t, []uint8{1, 2}, chroms)

	_, err = client.ListChromosomes("unknown")
	require.ErrorIs(t, err, errs.ErrDatasetNotFound)

	alg, err := client.CompressionAlgorithm("variants")
	require.NoError(t, err)
	require.Equal(t, format.CompressionNone, alg)
}

func TestClientTableIndexLookup(t *testing.T) {
	client := openVariantDB(t, format.CompressionNone)

	t.Run("DatasetNotFound", func(t *testing.T) {
		_, err := client.TableIndex("unknown", 1)
		require.ErrorIs(t, err, errs.ErrDatasetNotFound)
	})

	t.Run("TableNotFound", func(t *testing.T) {
		_, err := client.TableIndex("variants", 99)
		require.ErrorIs(t, err, errs.ErrTableNotFound)
	})

	t.Run("NonIntegerPositionColumn", func(t *testing.T) {
		// Hand-built file whose first column is a Float. The scanner can
		// only interpret column 0 as a fixed-width integer position, so the
		// index build must reject the schema instead of decoding garbage.
		header := section.DatabaseHeader{
			Version: section.FormatVersion,
			Datasets: []section.DatasetHeader{{
				Name:        "foreign",
				Compression: format.CompressionNone,
				Columns: []section.ColumnHeader{
					{Type: format.ColumnFloat, Name: "position"},
				},
				Tables: []section.TableRef{{Chromosome: 1}},
			}},
		}

		segment := []byte{0, 0, 0, 0} // empty dictionary
		headerSize := uint64(header.EncodedSize())
		header.Datasets[0].Tables[0].Offset = headerSize + uint64(len(segment))

		block := section.TableIndexBlock{
			EndOffset:     uint64(len(segment)),
			SegmentOffset: headerSize,
			SegmentLength: uint64(len(segment)),
		}

		data := header.AppendTo(nil)
		data = append(data, segment...)
		data = block.AppendTo(data)

		path := filepath.Join(t.TempDir(), "foreign.zygos")
		require.NoError(t, os.WriteFile(path, data, 0o644))

		foreign, err := Open(path)
		require.NoError(t, err)
		defer foreign.Close()

		_, err = foreign.TableIndex("foreign", 1)
		require.ErrorIs(t, err, errs.ErrColumnMismatch)
	})

	t.Run("Cached", func(t *testing.T) {
		a, err := client.TableIndex("variants", 1)
		require.NoError(t, err)
		b, err := client.TableIndex("variants", 1)
		require.NoError(t, err)
		require.Same(t, a, b)
	})

	t.Run("Metadata", func(t *testing.T) {
		idx, err := client.TableIndex("variants", 1)
		require.NoError(t, err)
		require.Equal(t, "variants", idx.Dataset())
		require.Equal(t, uint8(1), idx.Chromosome())
		require.Equal(t, uint64(10), idx.MinPosition())
		require.Equal(t, uint64(50), idx.MaxPosition())
		require.Len(t, idx.Columns(), 4)
	})
}

func requirePositions(t *testing.T, rows []Row, want ...uint64) {
	t.Helper()
	got := make([]uint64, len(rows))
	for i := range rows {
		got[i] = rows[i].Position()
	}
	require.Equal(t, want, got)
}

func TestQueryRange(t *testing.T) {
	for _, compression := range []format.CompressionType{
		format.CompressionNone,
		format.CompressionGzip,
		format.CompressionLZ4,
		format.CompressionZstd,
	} {
		t.Run(compression.String(), func(t *testing.T) {
			client := openVariantDB(t, compression)
			idx, err := client.TableIndex("variants", 1)
			require.NoError(t, err)

			t.Run("MidRange", func(t *testing.T) {
				rows, err := idx.QueryRange(15, 35)
				require.NoError(t, err)
				requirePositions(t, rows, 20, 20, 35)
			})

			t.Run("FullRange", func(t *testing.T) {
				rows, err := idx.QueryRange(0, 1000)
				require.NoError(t, err)
				requirePositions(t, rows, 10, 20, 20, 35, 50)
			})

			t.Run("InclusiveBounds", func(t *testing.T) {
				rows, err := idx.QueryRange(10, 10)
				require.NoError(t, err)
				requirePositions(t, rows, 10)
			})

			t.Run("DuplicatePositionPoint", func(t *testing.T) {
				rows, err := idx.QueryRange(20, 20)
				require.NoError(t, err)
				requirePositions(t, rows, 20, 20)
			})

			t.Run("AbsentPositionInsideBounds", func(t *testing.T) {
				rows, err := idx.QueryRange(21, 34)
				require.NoError(t, err)
				require.Empty(t, rows)
			})

			t.Run("PastMaxPosition", func(t *testing.T) {
				rows, err := idx.QueryRange(51, 1000)
				require.NoError(t, err)
				require.Empty(t, rows)
			})

			t.Run("BeforeMinPosition", func(t *testing.T) {
				rows, err := idx.QueryRange(0, 9)
				require.NoError(t, err)
				require.Empty(t, rows)
			})

			t.Run("InvertedRange", func(t *testing.T) {
				_, err := idx.QueryRange(5, 2)
				require.ErrorIs(t, err, errs.ErrInvalidRange)
			})

			t.Run("Idempotent", func(t *testing.T) {
				first, err := idx.QueryRange(15, 35)
				require.NoError(t, err)
				second, err := idx.QueryRange(15, 35)
				require.NoError(t, err)
				require.Equal(t, len(first), len(second))
				for i := range first {
					require.Equal(t, first[i].Position(), second[i].Position())
				}
			})
		})
	}
}

func TestQueryRowValues(t *testing.T) {
	client := openVariantDB(t, format.CompressionZstd)
	idx, err := client.TableIndex("variants", 1)
	require.NoError(t, err)

	rows, err := idx.QueryRange(20, 20)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	row := rows[0]
	require.Equal(t, 4, row.NumColumns())

	pos, ok := row.Int(0)
	require.True(t, ok)
	require.Equal(t, int64(20), pos)

	score, ok := row.Float(1)
	require.True(t, ok)
	require.InDelta(t, 0.2, score, 1e-12)

	note, ok := row.String(2)
	require.True(t, ok)
	require.Equal(t, "dup-a", note)

	allele, ok := row.String(3)
	require.True(t, ok)
	require.Equal(t, "T", allele)

	// Second row of the tied position resolves its own dictionary entry.
	allele2, ok := rows[1].String(3)
	require.True(t, ok)
	require.Equal(t, "A", allele2)

	t.Run("TypeMismatch", func(t *testing.T) {
		_, ok := row.Int(1)
		require.False(t, ok)
		_, ok = row.Float(0)
		require.False(t, ok)
		_, ok = row.String(0)
		require.False(t, ok)
	})

	t.Run("IndexOutOfRange", func(t *testing.T) {
		_, ok := row.Value(99)
		require.False(t, ok)
		_, ok = row.Value(-1)
		require.False(t, ok)
	})

	t.Run("Value", func(t *testing.T) {
		v, ok := row.Value(3)
		require.True(t, ok)
		require.Equal(t, "T", v)
	})
}

func TestQueryEmptyStringCell(t *testing.T) {
	client := openVariantDB(t, format.CompressionNone)
	idx, err := client.TableIndex("variants", 1)
	require.NoError(t, err)

	rows, err := idx.QueryRange(35, 35)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	note, ok := rows[0].String(2)
	require.True(t, ok)
	require.Empty(t, note)
}

func TestQuerySecondDataset(t *testing.T) {
	client := openVariantDB(t, format.CompressionGzip)
	idx, err := client.TableIndex("coverage", 1)
	require.NoError(t, err)

	rows, err := idx.QueryRange(40, 42)
	require.NoError(t, err)
	requirePositions(t, rows, 40, 41, 42)

	depth, ok := rows[2].Int(1)
	require.True(t, ok)
	require.Equal(t, int64(126), depth)
}

func TestQueryAllIntervalWidths(t *testing.T) {
	// Exercise boundary handling around every index sampling interval.
	for _, interval := range []int{1, 2, 3, 7, 256} {
		b, err := build.NewBuilder(build.WithIndexInterval(interval))
		require.NoError(t, err)
		ds, err := b.Dataset("d", format.CompressionLZ4, []section.ColumnHeader{
			{Type: format.ColumnInteger, Name: "position"},
		})
		require.NoError(t, err)
		tb, err := ds.Table(1)
		require.NoError(t, err)
		for i := range 50 {
			require.NoError(t, tb.Append(int64(i*2)))
		}

		path := filepath.Join(t.TempDir(), "interval.zygos")
		require.NoError(t, b.WriteFile(path))

		client, err := Open(path)
		require.NoError(t, err)

		idx, err := client.TableIndex("d", 1)
		require.NoError(t, err)

		rows, err := idx.QueryRange(11, 31)
		require.NoError(t, err)
		requirePositions(t, rows, 12, 14, 16, 18, 20, 22, 24, 26, 28, 30)

		require.NoError(t, client.Close())
	}
}
