// Package config loads and validates TOML build manifests. A manifest
// names the datasets to build, where their tab-separated source files live,
// and the column schema of each dataset.
//
// Example manifest:
//
//	[datasets.variants]
//	file_per_chromosome = true
//	chromosomes = [1, 2, 3]
//	path = "variants_chr{chromosome}.tsv"
//	compression = "zstd"
//
//	[[datasets.variants.columns]]
//	name = "position"
//	type = "integer"
//	role = "position"
//
//	[[datasets.variants.columns]]
//	name = "allele"
//	type = "hashtable-string"
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/zygoslab/zygosdb/format"
)

// ChromosomePlaceholder is the substring of a dataset path replaced with
// the chromosome number when file_per_chromosome is set.
const ChromosomePlaceholder = "{chromosome}"

// ColumnRole describes how a column participates in range queries.
type ColumnRole uint8

const (
	// RoleData marks an ordinary payload column. It is the default.
	RoleData ColumnRole = iota
	// RolePosition marks the single genomic position column.
	RolePosition
	// RolePositionStart marks the start of an interval-valued record.
	RolePositionStart
	// RolePositionEnd marks the end of an interval-valued record.
	RolePositionEnd
)

func (r ColumnRole) String() string {
	switch r {
	case RoleData:
		return "data"
	case RolePosition:
		return "position"
	case RolePositionStart:
		return "position-start"
	case RolePositionEnd:
		return "position-end"
	default:
		return "unknown"
	}
}

// UnmarshalText implements toml decoding for kebab-case role names.
func (r *ColumnRole) UnmarshalText(text []byte) error {
	switch string(text) {
	case "", "data":
		*r = RoleData
	case "position":
		*r = RolePosition
	case "position-start":
		*r = RolePositionStart
	case "position-end":
		*r = RolePositionEnd
	default:
		return fmt.Errorf("unknown column role %q", text)
	}

	return nil
}

// ColumnSpec declares one column of a dataset.
type ColumnSpec struct {
	Name string     `toml:"name"`
	Type string     `toml:"type"`
	Role ColumnRole `toml:"role"`
}

// ColumnType parses the declared type name.
func (c *ColumnSpec) ColumnType() (format.ColumnType, error) {
	return format.ParseColumnType(c.Type)
}

// Dataset declares one dataset: its source files and column schema.
type Dataset struct {
	FilePerChromosome bool         `toml:"file_per_chromosome"`
	Chromosomes       []uint8      `toml:"chromosomes"`
	Path              string       `toml:"path"`
	Compression       string       `toml:"compression"`
	Columns           []ColumnSpec `toml:"columns"`
}

// CompressionType parses the declared compression name. An absent setting
// means no compression.
func (d *Dataset) CompressionType() (format.CompressionType, error) {
	return format.ParseCompressionType(d.Compression)
}

// Config is a parsed build manifest.
type Config struct {
	Datasets map[string]*Dataset `toml:"datasets"`

	// dir is the manifest's directory; dataset paths resolve against it.
	dir string
}

// Load reads and validates a manifest file.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.dir = filepath.Dir(path)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &cfg, nil
}

// Validate checks every dataset declaration. Source files must exist.
func (c *Config) Validate() error {
	if len(c.Datasets) == 0 {
		return fmt.Errorf("manifest declares no datasets")
	}
	for name, ds := range c.Datasets {
		if err := c.validateDataset(ds); err != nil {
			return fmt.Errorf("dataset %q: %w", name, err)
		}
	}

	return nil
}

func (c *Config) validateDataset(ds *Dataset) error {
	if ds.Path == "" {
		return fmt.Errorf("'path' is required")
	}
	if ds.FilePerChromosome {
		if len(ds.Chromosomes) == 0 {
			return fmt.Errorf("'chromosomes' must be set when 'file_per_chromosome' is true")
		}
		if !strings.Contains(ds.Path, ChromosomePlaceholder) {
			return fmt.Errorf("'path' must contain %q when 'file_per_chromosome' is true", ChromosomePlaceholder)
		}
	}
	if _, err := ds.CompressionType(); err != nil {
		return err
	}
	if err := validateColumns(ds.Columns); err != nil {
		return err
	}

	for _, p := range c.Paths(ds) {
		info, err := os.Stat(p)
		if err != nil {
			return fmt.Errorf("source file %s: %w", p, err)
		}
		if info.IsDir() {
			return fmt.Errorf("source file %s is a directory", p)
		}
	}

	return nil
}

func validateColumns(columns []ColumnSpec) error {
	if len(columns) == 0 {
		return fmt.Errorf("'columns' is required")
	}

	var position, start, end int
	for _, col := range columns {
		if _, err := col.ColumnType(); err != nil {
			return fmt.Errorf("column %q: %w", col.Name, err)
		}
		switch col.Role {
		case RolePosition:
			position++
		case RolePositionStart:
			start++
		case RolePositionEnd:
			end++
		}
		if col.Role != RoleData && col.Type != "integer" {
			return fmt.Errorf("column %q with role %q must have type 'integer'", col.Name, col.Role)
		}
	}

	switch {
	case position == 0 && start == 0 && end == 0:
		return fmt.Errorf("a column with role 'position', or a 'position-start'/'position-end' pair, is required")
	case position == 1 && start == 0 && end == 0:
		return nil
	case position > 1:
		return fmt.Errorf("only one column may have role 'position'")
	case position > 0:
		return fmt.Errorf("role 'position' cannot be combined with 'position-start' or 'position-end'")
	case start == 1 && end == 1:
		return nil
	case start > 1 || end > 1:
		return fmt.Errorf("only one 'position-start' and one 'position-end' column are allowed")
	case end == 0:
		return fmt.Errorf("role 'position-start' requires a 'position-end' column")
	default:
		return fmt.Errorf("role 'position-end' requires a 'position-start' column")
	}
}

// Paths returns the source files of a dataset keyed by chromosome, sorted
// by chromosome. Single-file datasets map everything to chromosome 0.
func (c *Config) Paths(ds *Dataset) map[uint8]string {
	if !ds.FilePerChromosome {
		return map[uint8]string{0: c.resolve(ds.Path)}
	}

	chroms := append([]uint8(nil), ds.Chromosomes...)
	sort.Slice(chroms, func(i, j int) bool { return chroms[i] < chroms[j] })

	paths := make(map[uint8]string, len(chroms))
	for _, chrom := range chroms {
		p := strings.ReplaceAll(ds.Path, ChromosomePlaceholder, strconv.Itoa(int(chrom)))
		paths[chrom] = c.resolve(p)
	}

	return paths
}

// SortedChromosomes returns the dataset's chromosomes in increasing order.
// Single-file datasets yield chromosome 0.
func (c *Config) SortedChromosomes(ds *Dataset) []uint8 {
	if !ds.FilePerChromosome {
		return []uint8{0}
	}
	chroms := append([]uint8(nil), ds.Chromosomes...)
	sort.Slice(chroms, func(i, j int) bool { return chroms[i] < chroms[j] })

	return chroms
}

func (c *Config) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(c.dir, path)
}
