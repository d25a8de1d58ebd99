package tsv

import (
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/zygoslab/zygosdb/format"
)

const (
	// MinGuessSample is the minimum number of records needed before a
	// schema guess is considered trustworthy.
	MinGuessSample = 16

	// DefaultVolatileThreshold is the distinct-value fraction above which
	// a string column is stored inline instead of dictionary-encoded.
	DefaultVolatileThreshold = 0.5
)

// Guesser infers column types from sampled records.
type Guesser struct {
	// VolatileThreshold is the distinct/total ratio above which a string
	// column becomes a VolatileString column. Zero means
	// DefaultVolatileThreshold.
	VolatileThreshold float64

	// MinSample overrides MinGuessSample when positive.
	MinSample int
}

type columnStats struct {
	allInt   bool
	allFloat bool
	tooLong  bool
	total    int
	distinct map[uint64]struct{}
}

// Guess infers one column type per field across the sampled records.
func (g *Guesser) Guess(records [][]string) ([]format.ColumnType, error) {
	minSample := g.MinSample
	if minSample <= 0 {
		minSample = MinGuessSample
	}
	if len(records) < minSample {
		return nil, fmt.Errorf("need at least %d records to guess a schema, got %d", minSample, len(records))
	}

	threshold := g.VolatileThreshold
	if threshold <= 0 {
		threshold = DefaultVolatileThreshold
	}

	stats := make([]columnStats, len(records[0]))
	for i := range stats {
		stats[i] = columnStats{
			allInt:   true,
			allFloat: true,
			distinct: make(map[uint64]struct{}),
		}
	}

	for _, record := range records {
		if len(record) != len(stats) {
			return nil, fmt.Errorf("ragged sample: record has %d fields, expected %d", len(record), len(stats))
		}
		for i, field := range record {
			st := &stats[i]
			st.total++
			if st.allInt {
				if _, err := strconv.ParseInt(field, 10, 64); err != nil {
					st.allInt = false
				}
			}
			if st.allFloat {
				if _, err := strconv.ParseFloat(field, 64); err != nil {
					st.allFloat = false
				}
			}
			if len(field) > 255 {
				st.tooLong = true
			}
			// Hash instead of retaining the strings; samples can be large.
			st.distinct[xxhash.Sum64String(field)] = struct{}{}
		}
	}

	types := make([]format.ColumnType, len(stats))
	for i, st := range stats {
		switch {
		case st.allInt:
			types[i] = format.ColumnInteger
		case st.allFloat:
			types[i] = format.ColumnFloat
		default:
			ratio := float64(len(st.distinct)) / float64(st.total)
			if ratio > threshold && !st.tooLong {
				types[i] = format.ColumnVolatileString
			} else {
				types[i] = format.ColumnHashtableString
			}
		}
	}

	return types, nil
}
