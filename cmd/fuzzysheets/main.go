package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	_ "github.com/joho/godotenv/autoload"

	"fuzzysheets/internal/analysis"
	"fuzzysheets/internal/config"
	"fuzzysheets/internal/generate"
	"fuzzysheets/internal/logging"
	"fuzzysheets/internal/models"
	"fuzzysheets/internal/service"
)

const usage = `Usage: fuzzysheets <command> [options]

Commands:
  detect    find fuzzy duplicate rows in one CSV file
  merge     merge two CSV files on fuzzily matching rows
  columns   show how the columns of two CSV files align
  generate  write synthetic CSV files with known duplicates

Run "fuzzysheets <command> -h" for the options of a command.
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatalf("fuzzysheets: %v", err)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return errors.New("missing command")
	}
	switch args[0] {
	case "detect":
		return runDetect(ctx, args[1:], stdout)
	case "merge":
		return runMerge(ctx, args[1:], stdout)
	case "columns":
		return runColumns(args[1:], stdout)
	case "generate":
		return runGenerate(args[1:], stdout)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	}
	fmt.Fprint(os.Stderr, usage)
	return fmt.Errorf("unknown command %q", args[0])
}

// commonFlags are shared by the commands that run the matching engine.
type commonFlags struct {
	configPath string
	header     string
	id         string
	verbose    bool
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "YAML file overlaying the environment configuration")
	fs.StringVar(&c.header, "header", "auto", "Input has a header row: auto, true or false")
	fs.StringVar(&c.id, "id", "auto", "First column is an id column: auto, true or false")
	fs.BoolVar(&c.verbose, "v", false, "Log rankings and progress")
}

func (c *commonFlags) loadOptions() (analysis.LoadOptions, error) {
	header, err := models.ParseFlag(c.header)
	if err != nil {
		return analysis.LoadOptions{}, fmt.Errorf("-header: %w", err)
	}
	id, err := models.ParseFlag(c.id)
	if err != nil {
		return analysis.LoadOptions{}, fmt.Errorf("-id: %w", err)
	}
	return analysis.LoadOptions{Header: header, ID: id}, nil
}

// engine loads the configuration, applies overrides and builds the engine.
// The returned logger must be closed.
func (c *commonFlags) engine(override func(*service.Options)) (*service.Engine, *logging.Logger, error) {
	cfg, err := config.LoadFile(c.configPath)
	if err != nil {
		return nil, nil, err
	}
	logCfg := cfg.LogConfig()
	if c.verbose {
		logCfg.Level = logging.LevelDebug
	}
	logger, err := logging.NewLogger(logCfg)
	if err != nil {
		return nil, nil, err
	}

	opts := cfg.Match
	if override != nil {
		override(&opts)
	}
	engine, err := service.NewEngine(opts, logger)
	if err != nil {
		logger.Close()
		return nil, nil, err
	}
	return engine, logger, nil
}

func newFlagSet(name, synopsis string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: fuzzysheets %s %s\n\n", name, synopsis)
		fs.PrintDefaults()
	}
	return fs
}

func runDetect(ctx context.Context, args []string, stdout io.Writer) error {
	var (
		common    commonFlags
		in, out   string
		report    string
		threshold float64
	)
	fs := newFlagSet("detect", "-in FILE [options]")
	common.register(fs)
	fs.StringVar(&in, "in", "", "CSV file to search for duplicates")
	fs.StringVar(&out, "out", "", "Sorted output CSV (default: <in>_sorted.csv)")
	fs.Float64Var(&threshold, "threshold", -1, "Duplicate threshold (default from configuration)")
	fs.StringVar(&report, "report", "", "Truth log of a generated file; prints an accuracy report")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if in = strings.TrimSpace(in); in == "" {
		fs.Usage()
		return errors.New("missing required -in file")
	}
	if out == "" {
		out = strings.TrimSuffix(in, filepath.Ext(in)) + "_sorted.csv"
	}

	loadOpts, err := common.loadOptions()
	if err != nil {
		return err
	}
	engine, logger, err := common.engine(func(o *service.Options) {
		if threshold >= 0 {
			o.DuplicateThreshold = threshold
		}
	})
	if err != nil {
		return err
	}
	defer logger.Close()

	csvService := analysis.NewCSVService()
	t, err := csvService.ParseFile(in, loadOpts)
	if err != nil {
		return fmt.Errorf("read %s: %w", in, err)
	}
	res, err := engine.DetectDuplicates(ctx, t)
	if err != nil {
		return err
	}
	if err := csvService.WriteFile(out, res.Sorted); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	fmt.Fprintf(stdout, "rows: %d\nduplicate pairs: %d\nwritten: %s\n", t.NumRows(), res.Duplicates(), out)

	if report != "" {
		truth, err := generate.ReadTruthFile(report)
		if err != nil {
			return err
		}
		return generate.WriteReport(stdout, "detect duplicates", generate.Evaluate(generate.CanonicalDuplicates(res.Pairs), truth))
	}
	return nil
}

func runMerge(ctx context.Context, args []string, stdout io.Writer) error {
	var (
		common            commonFlags
		left, right, out  string
		report            string
		threshold, weight float64
	)
	fs := newFlagSet("merge", "-left FILE -right FILE [options]")
	common.register(fs)
	fs.StringVar(&left, "left", "", "First CSV file")
	fs.StringVar(&right, "right", "", "Second CSV file")
	fs.StringVar(&out, "out", "", "Merged output CSV (default: merged.csv next to -left)")
	fs.Float64Var(&threshold, "threshold", -1, "Row match threshold (default from configuration)")
	fs.Float64Var(&weight, "weight", -1, "Weight of column names against column contents (default from configuration)")
	fs.StringVar(&report, "report", "", "Truth log of generated files; prints an accuracy report")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if left == "" || right == "" {
		fs.Usage()
		return errors.New("missing required -left or -right file")
	}
	if out == "" {
		out = filepath.Join(filepath.Dir(left), "merged.csv")
	}

	loadOpts, err := common.loadOptions()
	if err != nil {
		return err
	}
	engine, logger, err := common.engine(func(o *service.Options) {
		if threshold >= 0 {
			o.MatchThreshold = threshold
		}
		if weight >= 0 {
			o.ColumnNameWeight = weight
		}
	})
	if err != nil {
		return err
	}
	defer logger.Close()

	csvService := analysis.NewCSVService()
	a, err := csvService.ParseFile(left, loadOpts)
	if err != nil {
		return fmt.Errorf("read %s: %w", left, err)
	}
	b, err := csvService.ParseFile(right, loadOpts)
	if err != nil {
		return fmt.Errorf("read %s: %w", right, err)
	}

	res, err := engine.Merge(ctx, a, b)
	if err != nil {
		return err
	}
	if err := csvService.WriteFile(out, res.Table.ToTable()); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	matched := 0
	for _, p := range res.Rows.Pairs {
		if p.Complete() {
			matched++
		}
	}
	fmt.Fprintf(stdout, "rows: %d + %d\nmatched rows: %d\nmerged rows: %d\nwritten: %s\n",
		a.NumRows(), b.NumRows(), matched, len(res.Table.Rows), out)

	if report != "" {
		truth, err := generate.ReadTruthFile(report)
		if err != nil {
			return err
		}
		return generate.WriteReport(stdout, "merge", generate.Evaluate(res.InputPairs(), truth))
	}
	return nil
}

func runColumns(args []string, stdout io.Writer) error {
	var (
		common      commonFlags
		left, right string
	)
	fs := newFlagSet("columns", "-left FILE -right FILE [options]")
	common.register(fs)
	fs.StringVar(&left, "left", "", "First CSV file")
	fs.StringVar(&right, "right", "", "Second CSV file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if left == "" || right == "" {
		fs.Usage()
		return errors.New("missing required -left or -right file")
	}

	loadOpts, err := common.loadOptions()
	if err != nil {
		return err
	}
	engine, logger, err := common.engine(nil)
	if err != nil {
		return err
	}
	defer logger.Close()

	csvService := analysis.NewCSVService()
	a, err := csvService.ParseFile(left, loadOpts)
	if err != nil {
		return fmt.Errorf("read %s: %w", left, err)
	}
	b, err := csvService.ParseFile(right, loadOpts)
	if err != nil {
		return fmt.Errorf("read %s: %w", right, err)
	}
	al, err := engine.MatchColumns(a, b)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "left: %s (%d rows)\nright: %s (%d rows)\n\n", al.Left.Name, al.Left.NumRows(), al.Right.Name, al.Right.NumRows())
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LEFT\tRIGHT\tTYPE\tSCORE")
	k := 0
	for i, p := range al.Pairs {
		l, r, typ := "-", "-", "-"
		if p.HasLeft() {
			l = al.Left.Header[p.Left+1]
		}
		if p.HasRight() {
			r = al.Right.Header[p.Right+1]
		}
		if p.Complete() {
			typ = al.Types[k].String()
			k++
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\n", l, r, typ, al.Scores[i])
	}
	return tw.Flush()
}

func runGenerate(args []string, stdout io.Writer) error {
	var (
		rows int
		seed int64
		two  bool
		dir  string
	)
	fs := newFlagSet("generate", "[-rows N] [-seed S] [-two] [-dir DIR]")
	fs.IntVar(&rows, "rows", 50, "Number of rows (records with -two)")
	fs.Int64Var(&seed, "seed", 1, "Random seed")
	fs.BoolVar(&two, "two", false, "Write two files to merge instead of one file with duplicates")
	fs.StringVar(&dir, "dir", ".", "Output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if rows < 1 {
		return fmt.Errorf("-rows must be positive, got %d", rows)
	}

	csvService := analysis.NewCSVService()
	g := generate.New(seed)
	var (
		written []string
		truth   []models.Pair
		logPath string
	)
	if two {
		left, right, t := g.Spreadsheets(rows)
		for _, table := range []*models.Table{left, right} {
			path := filepath.Join(dir, table.Name+".csv")
			if err := csvService.WriteFile(path, table); err != nil {
				return err
			}
			written = append(written, path)
		}
		truth = t
		logPath = filepath.Join(dir, left.Name+"_"+right.Name+"_log.csv")
	} else {
		table, t := g.Spreadsheet(rows)
		path := filepath.Join(dir, table.Name+".csv")
		if err := csvService.WriteFile(path, table); err != nil {
			return err
		}
		written = append(written, path)
		truth = t
		logPath = filepath.Join(dir, table.Name+"_log.csv")
	}
	if err := generate.WriteTruthFile(logPath, truth); err != nil {
		return err
	}
	written = append(written, logPath)

	for _, path := range written {
		fmt.Fprintf(stdout, "written: %s\n", path)
	}
	return nil
}
