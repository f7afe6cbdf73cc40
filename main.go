package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/bcampbell/regomat/pipeline"
	"github.com/bcampbell/regomat/sources"
	"github.com/bcampbell/regomat/store"
)

func main() {
	var listFlag = flag.Bool("l", false, "list known sources and exit")
	var verbosityFlag = flag.Int("v", 1, "verbosity of output (0=errors only 1=info 2=debug)")
	var configFlag = flag.String("c", "regomat.cfg", "config file")
	flag.Parse()

	log := newLogger(*verbosityFlag)
	defer log.Sync()

	if *listFlag {
		for _, name := range sources.Names() {
			fmt.Println(name)
		}
		return
	}

	cfg, err := LoadConfig(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := loadLookups(cfg); err != nil {
		log.Errorf("loading lookups: %s", err)
		os.Exit(1)
	}

	// which sources?
	targetSources := flag.Args()
	if len(targetSources) == 0 {
		// none specified on commandline - run every configured one
		for name := range cfg.Source {
			targetSources = append(targetSources, name)
		}
	}
	if len(targetSources) == 0 {
		fmt.Fprintln(os.Stderr, "no sources configured")
		os.Exit(1)
	}

	failed := 0
	for _, name := range targetSources {
		if err := runSource(ctx, cfg, name, log); err != nil {
			log.Errorw("source failed", "source", name, "error", err)
			failed++
		}
		if ctx.Err() != nil {
			break
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

// runSource runs one source's pipeline with its own writers and stats.
func runSource(ctx context.Context, cfg *Config, name string, log *zap.SugaredLogger) error {
	spec, err := sources.Lookup(name)
	if err != nil {
		return err
	}
	srcCfg, ok := cfg.Source[name]
	if !ok || srcCfg.File == "" {
		return fmt.Errorf("no input file configured for %s", name)
	}

	f, err := os.Open(srcCfg.File)
	if err != nil {
		return err
	}
	defer f.Close()

	stats := store.NewStats()
	writers, err := cfg.Writers(ctx, stats, log)
	if err != nil {
		return err
	}
	if len(writers) == 0 {
		return fmt.Errorf("no destinations configured")
	}

	p := &pipeline.Pipeline{
		Writers:       writers,
		Enricher:      cfg.Enricher(stats, log),
		Stats:         stats,
		Log:           log,
		EnrichWorkers: cfg.Postcodes.Workers,
	}
	runErr := p.Run(ctx, spec, pipeline.NewCSVRowReader(f))
	log.Infof("%s stats: %s", name, stats.JSON())
	return runErr
}

// loadLookups reads the auxiliary crosswalk CSVs and re-registers the
// sources that use them.
func loadLookups(cfg *Config) error {
	dualRows, err := readLookupCSV(cfg.Lookups.DualRegistered)
	if err != nil {
		return fmt.Errorf("dual-registered lookup: %w", err)
	}
	if dualRows != nil {
		sources.Register(sources.OSCR(sources.DualRegistered(dualRows)))
	}

	nameRows, err := readLookupCSV(cfg.Lookups.ExtraNames)
	if err != nil {
		return fmt.Errorf("extra-names lookup: %w", err)
	}
	if nameRows != nil {
		sources.Register(sources.CCNI(sources.ExtraNames(nameRows)))
	}
	return nil
}

func newLogger(verbosity int) *zap.SugaredLogger {
	cfg := zap.NewDevelopmentConfig()
	switch {
	case verbosity <= 0:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	case verbosity == 1:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return logger.Sugar()
}
