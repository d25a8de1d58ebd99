package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zygoslab/zygosdb/format"
)

func writeManifest(t *testing.T, dir, body string, sources ...string) string {
	t.Helper()
	for _, name := range sources {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("1\tA\n"), 0o644))
	}
	path := filepath.Join(dir, "build.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	return path
}

const validManifest = `
[datasets.variants]
file_per_chromosome = true
chromosomes = [2, 1]
path = "variants_chr{chromosome}.tsv"
compression = "zstd"

[[datasets.variants.columns]]
name = "position"
type = "integer"
role = "position"

[[datasets.variants.columns]]
name = "allele"
type = "hashtable-string"
`

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, validManifest, "variants_chr1.tsv", "variants_chr2.tsv")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Datasets, 1)

	ds := cfg.Datasets["variants"]
	require.NotNil(t, ds)

	compression, err := ds.CompressionType()
	require.NoError(t, err)
	require.Equal(t, format.CompressionZstd, compression)

	colType, err := ds.Columns[1].ColumnType()
	require.NoError(t, err)
	require.Equal(t, format.ColumnHashtableString, colType)

	require.Equal(t, []uint8{1, 2}, cfg.SortedChromosomes(ds))

	paths := cfg.Paths(ds)
	require.Equal(t, filepath.Join(dir, "variants_chr1.tsv"), paths[1])
	require.Equal(t, filepath.Join(dir, "variants_chr2.tsv"), paths[2])
}

func TestLoadMissingSourceFile(t *testing.T) {
	path := writeManifest(t, t.TempDir(), validManifest, "variants_chr1.tsv")
	_, err := Load(path)
	require.ErrorContains(t, err, "variants_chr2.tsv")
}

func TestSingleFileDataset(t *testing.T) {
	manifest := `
[datasets.scores]
file_per_chromosome = false
path = "scores.tsv"

[[datasets.scores.columns]]
name = "position"
type = "integer"
role = "position"

[[datasets.scores.columns]]
name = "score"
type = "float"
`
	dir := t.TempDir()
	cfg, err := Load(writeManifest(t, dir, manifest, "scores.tsv"))
	require.NoError(t, err)

	ds := cfg.Datasets["scores"]
	require.Equal(t, []uint8{0}, cfg.SortedChromosomes(ds))
	require.Equal(t, map[uint8]string{0: filepath.Join(dir, "scores.tsv")}, cfg.Paths(ds))

	compression, err := ds.CompressionType()
	require.NoError(t, err)
	require.Equal(t, format.CompressionNone, compression)
}

func TestValidateColumnRoles(t *testing.T) {
	load := func(t *testing.T, columns string) error {
		manifest := `
[datasets.d]
file_per_chromosome = false
path = "d.tsv"
` + columns
		_, err := Load(writeManifest(t, t.TempDir(), manifest, "d.tsv"))

		return err
	}

	t.Run("NoPositionColumn", func(t *testing.T) {
		err := load(t, `
[[datasets.d.columns]]
name = "score"
type = "float"
`)
		require.ErrorContains(t, err, "'position'")
	})

	t.Run("TwoPositionColumns", func(t *testing.T) {
		err := load(t, `
[[datasets.d.columns]]
name = "a"
type = "integer"
role = "position"

[[datasets.d.columns]]
name = "b"
type = "integer"
role = "position"
`)
		require.ErrorContains(t, err, "only one column")
	})

	t.Run("StartWithoutEnd", func(t *testing.T) {
		err := load(t, `
[[datasets.d.columns]]
name = "start"
type = "integer"
role = "position-start"
`)
		require.ErrorContains(t, err, "position-end")
	})

	t.Run("StartEndPair", func(t *testing.T) {
		err := load(t, `
[[datasets.d.columns]]
name = "start"
type = "integer"
role = "position-start"

[[datasets.d.columns]]
name = "end"
type = "integer"
role = "position-end"
`)
		require.NoError(t, err)
	})

	t.Run("PositionMixedWithStart", func(t *testing.T) {
		err := load(t, `
[[datasets.d.columns]]
name = "pos"
type = "integer"
role = "position"

[[datasets.d.columns]]
name = "start"
type = "integer"
role = "position-start"

[[datasets.d.columns]]
name = "end"
type = "integer"
role = "position-end"
`)
		require.ErrorContains(t, err, "cannot be combined")
	})

	t.Run("NonIntegerPosition", func(t *testing.T) {
		err := load(t, `
[[datasets.d.columns]]
name = "pos"
type = "float"
role = "position"
`)
		require.ErrorContains(t, err, "type 'integer'")
	})

	t.Run("UnknownRole", func(t *testing.T) {
		err := load(t, `
[[datasets.d.columns]]
name = "pos"
type = "integer"
role = "primary"
`)
		require.ErrorContains(t, err, "unknown column role")
	})

	t.Run("UnknownType", func(t *testing.T) {
		err := load(t, `
[[datasets.d.columns]]
name = "pos"
type = "integer"
role = "position"

[[datasets.d.columns]]
name = "x"
type = "varchar"
`)
		require.ErrorContains(t, err, "varchar")
	})
}

func TestValidatePathRules(t *testing.T) {
	t.Run("MissingPlaceholder", func(t *testing.T) {
		manifest := `
[datasets.d]
file_per_chromosome = true
chromosomes = [1]
path = "d.tsv"

[[datasets.d.columns]]
name = "pos"
type = "integer"
role = "position"
`
		_, err := Load(writeManifest(t, t.TempDir(), manifest, "d.tsv"))
		require.ErrorContains(t, err, "{chromosome}")
	})

	t.Run("MissingChromosomes", func(t *testing.T) {
		manifest := `
[datasets.d]
file_per_chromosome = true
path = "d_{chromosome}.tsv"

[[datasets.d.columns]]
name = "pos"
type = "integer"
role = "position"
`
		_, err := Load(writeManifest(t, t.TempDir(), manifest))
		require.ErrorContains(t, err, "'chromosomes'")
	})

	t.Run("BadCompression", func(t *testing.T) {
		manifest := `
[datasets.d]
file_per_chromosome = false
path = "d.tsv"
compression = "brotli"

[[datasets.d.columns]]
name = "pos"
type = "integer"
role = "position"
`
		_, err := Load(writeManifest(t, t.TempDir(), manifest, "d.tsv"))
		require.Error(t, err)
	})
}
