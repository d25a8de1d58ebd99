package query

import (
	"bufio"
	"fmt"
	"io"
	"sync"

	"github.com/zygoslab/zygosdb/compress"
	"github.com/zygoslab/zygosdb/errs"
	"github.com/zygoslab/zygosdb/format"
	"github.com/zygoslab/zygosdb/section"
)

// Client is an open database session.
//
// The database header is parsed once at open time. Table indices are built
// on first request per (dataset, chromosome) pair and cached for the life of
// the client; a mutex guards cache construction so concurrent requests for
// the same table build it exactly once.
//
// A Client is safe for concurrent use. Close unmaps the file; queries must
// not be issued after Close.
type Client struct {
	file   *mappedFile
	header *section.DatabaseHeader

	mu      sync.Mutex
	indices map[indexKey]*TableIndex
}

type indexKey struct {
	dataset    string
	chromosome uint8
}

// Open opens the database file at path and parses its header.
//
// It fails with an I/O error if the file is missing or unreadable, and with
// a format error (errs.ErrInvalidMagicNumber, errs.ErrUnsupportedVersion,
// ...) if the header is corrupt.
func Open(path string) (*Client, error) {
	file, err := openMapped(path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	header, err := section.ParseDatabaseHeader(bufio.NewReader(io.NewSectionReader(file, 0, file.size)))
	if err != nil {
		_ = file.Close()

		return nil, fmt.Errorf("parse database header: %w", err)
	}

	return &Client{
		file:    file,
		header:  header,
		indices: make(map[indexKey]*TableIndex),
	}, nil
}

// Close releases the file mapping. Rows already returned stay valid; table
// indices obtained from this client must not be queried afterwards.
func (c *Client) Close() error {
	return c.file.Close()
}

// Header returns the parsed database header. The returned value is shared
// and must be treated as read-only.
func (c *Client) Header() *section.DatabaseHeader {
	return c.header
}

// ListDatasets returns the dataset names in header order.
func (c *Client) ListDatasets() []string {
	names := make([]string, len(c.header.Datasets))
	for i := range c.header.Datasets {
		names[i] = c.header.Datasets[i].Name
	}

	return names
}

// ListChromosomes returns the chromosomes of the named dataset in header
// order.
func (c *Client) ListChromosomes(dataset string) ([]uint8, error) {
	ds, ok := c.header.Dataset(dataset)
	if !ok {
		return nil, fmt.Errorf("%w: %q", errs.ErrDatasetNotFound, dataset)
	}

	chromosomes := make([]uint8, len(ds.Tables))
	for i := range ds.Tables {
		chromosomes[i] = ds.Tables[i].Chromosome
	}

	return chromosomes, nil
}

// CompressionAlgorithm returns the compression type of the named dataset's
// row segments.
func (c *Client) CompressionAlgorithm(dataset string) (format.CompressionType, error) {
	ds, ok := c.header.Dataset(dataset)
	if !ok {
		return 0, fmt.Errorf("%w: %q", errs.ErrDatasetNotFound, dataset)
	}

	return ds.Compression, nil
}

// TableIndex returns the table index for the given dataset and chromosome,
// building and caching it on first request.
func (c *Client) TableIndex(dataset string, chromosome uint8) (*TableIndex, error) {
	key := indexKey{dataset: dataset, chromosome: chromosome}

	c.mu.Lock()
	defer c.mu.Unlock()

	if index, ok := c.indices[key]; ok {
		return index, nil
	}

	index, err := c.buildTableIndex(dataset, chromosome)
	if err != nil {
		return nil, err
	}
	c.indices[key] = index

	return index, nil
}

func (c *Client) buildTableIndex(dataset string, chromosome uint8) (*TableIndex, error) {
	ds, ok := c.header.Dataset(dataset)
	if !ok {
		return nil, fmt.Errorf("%w: %q", errs.ErrDatasetNotFound, dataset)
	}
	ref, ok := ds.Table(chromosome)
	if !ok {
		return nil, fmt.Errorf("%w: dataset %q has no chromosome %d", errs.ErrTableNotFound, dataset, chromosome)
	}

	// The scanner decodes column 0 as the fixed-width position; a file whose
	// first column is anything else cannot be scanned meaningfully.
	if len(ds.Columns) == 0 || ds.Columns[0].Type != format.ColumnInteger {
		return nil, fmt.Errorf("%w: dataset %q position column must be an Integer column", errs.ErrColumnMismatch, dataset)
	}

	codec, err := compress.GetCodec(ds.Compression)
	if err != nil {
		return nil, err
	}

	block, err := section.ReadTableIndexBlock(c.file, int64(ref.Offset), c.file.size)
	if err != nil {
		return nil, fmt.Errorf("table index for %q chromosome %d: %w", dataset, chromosome, err)
	}

	return &TableIndex{
		dataset:     dataset,
		chromosome:  chromosome,
		columns:     ds.Columns,
		compression: ds.Compression,
		codec:       codec,
		block:       block,
		file:        c.file,
	}, nil
}
