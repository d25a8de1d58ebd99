package tsv

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/zygoslab/zygosdb/build"
	"github.com/zygoslab/zygosdb/config"
	"github.com/zygoslab/zygosdb/section"
)

// BuildDatabase ingests every dataset of a manifest and writes the database
// to outPath. The column holding the genomic position (role "position", or
// "position-start" for interval datasets) is moved to the front of the
// stored schema; fields of each record are reordered to match.
func BuildDatabase(cfg *config.Config, outPath string, logger *slog.Logger, opts ...build.Option) error {
	if logger == nil {
		logger = slog.Default()
	}
	opts = append(opts, build.WithLogger(logger))

	b, err := build.NewBuilder(opts...)
	if err != nil {
		return err
	}

	for name, ds := range cfg.Datasets {
		if err := buildDataset(b, cfg, name, ds, logger); err != nil {
			return fmt.Errorf("dataset %q: %w", name, err)
		}
	}

	logger.Info("writing database", "path", outPath)

	return b.WriteFile(outPath)
}

func buildDataset(b *build.Builder, cfg *config.Config, name string, ds *config.Dataset, logger *slog.Logger) error {
	columns, order, err := storedSchema(ds.Columns)
	if err != nil {
		return err
	}
	compression, err := ds.CompressionType()
	if err != nil {
		return err
	}

	dataset, err := b.Dataset(name, compression, columns)
	if err != nil {
		return err
	}

	paths := cfg.Paths(ds)
	for _, chrom := range cfg.SortedChromosomes(ds) {
		table, err := dataset.Table(chrom)
		if err != nil {
			return err
		}

		path := paths[chrom]
		f, err := os.Open(path)
		if err != nil {
			return err
		}

		rows, err := ingestReordered(table, columns, order, NewReader(f))
		_ = f.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		logger.Info("chromosome ingested", "dataset", name, "chromosome", chrom, "rows", rows)
	}

	return nil
}

// storedSchema converts the manifest's column specs into the stored column
// order: the position column first, the rest in declared order. order[i]
// gives the source-field index of stored column i.
func storedSchema(specs []config.ColumnSpec) ([]section.ColumnHeader, []int, error) {
	posIdx := -1
	for i, spec := range specs {
		if spec.Role == config.RolePosition || spec.Role == config.RolePositionStart {
			posIdx = i

			break
		}
	}
	if posIdx < 0 {
		return nil, nil, fmt.Errorf("no column with role 'position' or 'position-start'")
	}

	columns := make([]section.ColumnHeader, 0, len(specs))
	order := make([]int, 0, len(specs))

	appendCol := func(i int) error {
		colType, err := specs[i].ColumnType()
		if err != nil {
			return err
		}
		columns = append(columns, section.ColumnHeader{Type: colType, Name: specs[i].Name})
		order = append(order, i)

		return nil
	}

	if err := appendCol(posIdx); err != nil {
		return nil, nil, err
	}
	for i := range specs {
		if i == posIdx {
			continue
		}
		if err := appendCol(i); err != nil {
			return nil, nil, err
		}
	}

	return columns, order, nil
}

func ingestReordered(tb *build.TableBuilder, columns []section.ColumnHeader, order []int, r *Reader) (int, error) {
	rows := 0
	reordered := make([]string, len(order))
	for {
		fields, err := r.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return rows, err
		}
		if len(fields) != len(order) {
			return rows, fmt.Errorf("line %d has %d fields, schema has %d columns", r.Line(), len(fields), len(order))
		}

		for i, src := range order {
			reordered[i] = fields[src]
		}

		cells := make([]any, len(reordered))
		for i, field := range reordered {
			cells[i], err = parseCell(columns[i], field)
			if err != nil {
				return rows, fmt.Errorf("line %d: %w", r.Line(), err)
			}
		}
		if err := tb.Append(cells...); err != nil {
			return rows, fmt.Errorf("line %d: %w", r.Line(), err)
		}
		rows++
	}
}
