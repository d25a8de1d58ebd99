package query

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zygoslab/zygosdb/build"
	"github.com/zygoslab/zygosdb/errs"
	"github.com/zygoslab/zygosdb/format"
	"github.com/zygoslab/zygosdb/section"
)

// writeWideDB builds a single-table database with enough rows and index
// entries for chunked parallel scans to actually split work.
func writeWideDB(t *testing.T, rows int, compression format.CompressionType) *Client {
	t.Helper()

	b, err := build.NewBuilder(build.WithIndexInterval(8))
	require.NoError(t, err)
	ds, err := b.Dataset("variants", compression, []section.ColumnHeader{
		{Type: format.ColumnInteger, Name: "position"},
		{Type: format.ColumnHashtableString, Name: "allele"},
	})
	require.NoError(t, err)
	tb, err := ds.Table(1)
	require.NoError(t, err)

	alleles := []string{"A", "C", "G", "T"}
	for i := range rows {
		// Duplicate every fourth position to exercise tie handling.
		pos := int64(i - i/4)
		require.NoError(t, tb.Append(pos, alleles[i%len(alleles)]))
	}

	path := filepath.Join(t.TempDir(), "wide.zygos")
	require.NoError(t, b.WriteFile(path))

	client, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return client
}

func TestParallelQueryWorkers(t *testing.T) {
	client := writeWideDB(t, 64, format.CompressionNone)
	idx, err := client.TableIndex("variants", 1)
	require.NoError(t, err)

	require.Equal(t, 4, idx.ParallelQuery(4).Workers())
	require.Equal(t, 1, idx.ParallelQuery(0).Workers())
	require.Equal(t, 1, idx.ParallelQuery(-3).Workers())
}

func TestParallelQueryMatchesSequential(t *testing.T) {
	for _, compression := range []format.CompressionType{
		format.CompressionNone,
		format.CompressionZstd,
	} {
		t.Run(compression.String(), func(t *testing.T) {
			client := writeWideDB(t, 500, compression)
			idx, err := client.TableIndex("variants", 1)
			require.NoError(t, err)

			ranges := [][2]uint64{
				{0, 10000},
				{13, 291},
				{100, 100},
				{0, 0},
				{370, 380},
			}
			for _, r := range ranges {
				want, err := idx.QueryRange(r[0], r[1])
				require.NoError(t, err)

				for _, workers := range []int{1, 2, 3, 4, 8, 32} {
					got, err := idx.ParallelQuery(workers).QueryRange(r[0], r[1])
					require.NoError(t, err)
					require.Len(t, got, len(want), "range [%d,%d] with %d workers", r[0], r[1], workers)
					for i := range want {
						require.Equal(t, want[i].Position(), got[i].Position())
						wantAllele, _ := want[i].String(1)
						gotAllele, _ := got[i].String(1)
						require.Equal(t, wantAllele, gotAllele)
					}
				}
			}
		})
	}
}

func TestParallelQueryValidation(t *testing.T) {
	client := writeWideDB(t, 64, format.CompressionNone)
	idx, err := client.TableIndex("variants", 1)
	require.NoError(t, err)
	h := idx.ParallelQuery(4)

	t.Run("InvertedRange", func(t *testing.T) {
		_, err := h.QueryRange(9, 3)
		require.ErrorIs(t, err, errs.ErrInvalidRange)
	})

	t.Run("MissEntirely", func(t *testing.T) {
		rows, err := h.QueryRange(100000, 200000)
		require.NoError(t, err)
		require.Empty(t, rows)
	})
}

func BenchmarkQueryRange(b *testing.B) {
	builder, err := build.NewBuilder(build.WithIndexInterval(256))
	if err != nil {
		b.Fatal(err)
	}
	ds, err := builder.Dataset("variants", format.CompressionZstd, []section.ColumnHeader{
		{Type: format.ColumnInteger, Name: "position"},
		{Type: format.ColumnFloat, Name: "score"},
		{Type: format.ColumnHashtableString, Name: "allele"},
	})
	if err != nil {
		b.Fatal(err)
	}
	tb, err := ds.Table(1)
	if err != nil {
		b.Fatal(err)
	}
	alleles := []string{"A", "C", "G", "T"}
	for i := range 100_000 {
		if err := tb.Append(int64(i*10), float64(i%100), alleles[i%4]); err != nil {
			b.Fatal(err)
		}
	}
	path := filepath.Join(b.TempDir(), "bench.zygos")
	if err := builder.WriteFile(path); err != nil {
		b.Fatal(err)
	}

	client, err := Open(path)
	if err != nil {
		b.Fatal(err)
	}
	defer client.Close()
	idx, err := client.TableIndex("variants", 1)
	if err != nil {
		b.Fatal(err)
	}

	b.Run("Sequential", func(b *testing.B) {
		for b.Loop() {
			if _, err := idx.QueryRange(100_000, 600_000); err != nil {
				b.Fatal(err)
			}
		}
	})
	for _, workers := range []int{2, 4, 8} {
		b.Run(fmt.Sprintf("Parallel%d", workers), func(b *testing.B) {
			h := idx.ParallelQuery(workers)
			for b.Loop() {
				if _, err := h.QueryRange(100_000, 600_000); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func TestParallelQueryMoreWorkersThanEntries(t *testing.T) {
	client := writeWideDB(t, 10, format.CompressionLZ4)
	idx, err := client.TableIndex("variants", 1)
	require.NoError(t, err)

	want, err := idx.QueryRange(0, 100)
	require.NoError(t, err)

	got, err := idx.ParallelQuery(16).QueryRange(0, 100)
	require.NoError(t, err)
	require.Len(t, got, len(want))
	for i := range want {
		require.Equal(t, want[i].Position(), got[i].Position())
	}
}
