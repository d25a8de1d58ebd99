// Command zygosdb builds and queries variant database files.
//
//	zygosdb build --config build.toml --out variants.zygos
//	zygosdb info variants.zygos
//	zygosdb query variants.zygos --dataset variants --chromosome 1 --start 100 --end 200
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kingpin/v2"

	"github.com/zygoslab/zygosdb/build"
	"github.com/zygoslab/zygosdb/config"
	"github.com/zygoslab/zygosdb/query"
	"github.com/zygoslab/zygosdb/tsv"
)

var (
	app     = kingpin.New("zygosdb", "Build and query position-indexed variant databases.")
	verbose = app.Flag("verbose", "Enable debug logging.").Short('v').Bool()

	buildCmd      = app.Command("build", "Build a database from a TOML manifest.")
	buildConfig   = buildCmd.Flag("config", "Build manifest path.").Short('c').Required().ExistingFile()
	buildOut      = buildCmd.Flag("out", "Output database path.").Short('o').Required().String()
	buildInterval = buildCmd.Flag("index-interval", "Rows between sparse index samples.").Default("256").Int()

	infoCmd  = app.Command("info", "Print the layout of a database file.")
	infoFile = infoCmd.Arg("file", "Database file.").Required().ExistingFile()

	queryCmd     = app.Command("query", "Query a position range and print matching rows.")
	queryFile    = queryCmd.Arg("file", "Database file.").Required().ExistingFile()
	queryDataset = queryCmd.Flag("dataset", "Dataset name.").Short('d').Required().String()
	queryChrom   = queryCmd.Flag("chromosome", "Chromosome number.").Required().Uint8()
	queryStart   = queryCmd.Flag("start", "Range start, inclusive.").Required().Uint64()
	queryEnd     = queryCmd.Flag("end", "Range end, inclusive.").Required().Uint64()
	queryThreads = queryCmd.Flag("threads", "Worker count; 1 queries sequentially.").Short('t').Default("1").Int()
)

func main() {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	var err error
	switch command {
	case buildCmd.FullCommand():
		err = runBuild(logger)
	case infoCmd.FullCommand():
		err = runInfo()
	case queryCmd.FullCommand():
		err = runQuery()
	}
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

func runBuild(logger *slog.Logger) error {
	cfg, err := config.Load(*buildConfig)
	if err != nil {
		return err
	}

	return tsv.BuildDatabase(cfg, *buildOut, logger, build.WithIndexInterval(*buildInterval))
}

func runInfo() error {
	client, err := query.Open(*infoFile)
	if err != nil {
		return err
	}
	defer client.Close()

	header := client.Header()
	fmt.Printf("format version %d, %d dataset(s)\n", header.Version, len(header.Datasets))
	for _, ds := range header.Datasets {
		fmt.Printf("\ndataset %q (compression: %s)\n", ds.Name, ds.Compression)
		for _, col := range ds.Columns {
			fmt.Printf("  column %-20s %s\n", col.Name, col.Type)
		}
		chroms := make([]string, len(ds.Tables))
		for i, table := range ds.Tables {
			chroms[i] = fmt.Sprint(table.Chromosome)
		}
		fmt.Printf("  chromosomes: %s\n", strings.Join(chroms, ", "))
	}

	return nil
}

func runQuery() error {
	client, err := query.Open(*queryFile)
	if err != nil {
		return err
	}
	defer client.Close()

	idx, err := client.TableIndex(*queryDataset, *queryChrom)
	if err != nil {
		return err
	}

	var rows []query.Row
	if *queryThreads > 1 {
		rows, err = idx.ParallelQuery(*queryThreads).QueryRange(*queryStart, *queryEnd)
	} else {
		rows, err = idx.QueryRange(*queryStart, *queryEnd)
	}
	if err != nil {
		return err
	}

	columns := idx.Columns()
	fields := make([]string, len(columns))
	for _, row := range rows {
		for i := range columns {
			v, _ := row.Value(i)
			fields[i] = fmt.Sprint(v)
		}
		fmt.Println(strings.Join(fields, "\t"))
	}
	fmt.Fprintf(os.Stderr, "%d row(s)\n", len(rows))

	return nil
}
