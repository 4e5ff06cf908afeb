package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lawnchairsociety/mysterydungeon-randomizer/internal/config"
	"github.com/lawnchairsociety/mysterydungeon-randomizer/internal/database"
	"github.com/lawnchairsociety/mysterydungeon-randomizer/internal/items"
	"github.com/lawnchairsociety/mysterydungeon-randomizer/internal/logger"
	"github.com/lawnchairsociety/mysterydungeon-randomizer/internal/mappa"
	"github.com/lawnchairsociety/mysterydungeon-randomizer/internal/progress"
	"github.com/lawnchairsociety/mysterydungeon-randomizer/internal/randomizer"
	"gopkg.in/yaml.v3"
)

// options holds the parsed command line
type options struct {
	inFile, outFile, configFile, itemsFile string
	seed                                   int64
	dbFile, dbDriver                       string
	pgHost, pgUser, pgDatabase             string
	pgPort                                 int
	progressAddr                           string
}

func main() {
	var opts options
	flag.StringVar(&opts.inFile, "in", "", "Path to the floor data to randomize (.yaml or .yaml.zst)")
	flag.StringVar(&opts.outFile, "out", "", "Path to write the randomized floor data (.yaml or .yaml.zst)")
	flag.StringVar(&opts.configFile, "config", "data/randomizer.yaml", "Path to randomizer config YAML file")
	flag.StringVar(&opts.itemsFile, "items", "data/items.yaml", "Path to items YAML file")
	loggingConfig := flag.String("logging", "data/logging.yaml", "Path to logging config YAML file")
	flag.Int64Var(&opts.seed, "seed", 0, "Randomization seed (default: config seed, else random based on current time)")
	flag.StringVar(&opts.dbFile, "db", "", "Path to the SQLite run history (empty disables history)")
	flag.StringVar(&opts.dbDriver, "db-driver", "sqlite", "Run history driver: sqlite or postgres")
	flag.StringVar(&opts.pgHost, "pg-host", "localhost", "PostgreSQL host")
	flag.IntVar(&opts.pgPort, "pg-port", 5432, "PostgreSQL port")
	flag.StringVar(&opts.pgUser, "pg-user", "randomizer", "PostgreSQL user (password from MDR_PG_PASSWORD)")
	flag.StringVar(&opts.pgDatabase, "pg-database", "randomizer", "PostgreSQL database")
	flag.StringVar(&opts.progressAddr, "progress-addr", "", "Serve progress over WebSocket on this address, e.g. :4444 (empty disables)")
	flag.Parse()

	if opts.inFile == "" || opts.outFile == "" {
		fmt.Fprintln(os.Stderr, "Error: --in and --out are required")
		flag.Usage()
		os.Exit(1)
	}

	// Initialize logger first (before any logging)
	logConfig, err := logger.LoadConfig(*loggingConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v, using default logging\n", err)
	}
	if err := logger.Initialize(logConfig); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	if err := run(opts); err != nil {
		logger.Error("Randomization failed", "error", err)
		logger.Close()
		os.Exit(1)
	}
	logger.Close()
}

// run does the work of main. Every resource it opens is released before it
// returns, so progress clients see the final event and a clean close.
func run(opts options) error {
	cfg, err := config.LoadConfig(opts.configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	runSeed := opts.seed
	if runSeed == 0 {
		runSeed = cfg.Seed
	}
	if runSeed == 0 {
		runSeed = time.Now().UnixNano()
		logger.Info("Seed selected", "seed", runSeed, "random", true)
	} else {
		logger.Info("Seed selected", "seed", runSeed, "random", false)
	}

	catalog, err := items.LoadItemsFromYAML(opts.itemsFile)
	if err != nil {
		return fmt.Errorf("load items: %w", err)
	}
	logger.Info("Items loaded", "count", catalog.Len())

	data, err := mappa.LoadData(opts.inFile)
	if err != nil {
		return fmt.Errorf("load floor data: %w", err)
	}
	logger.Info("Floor data loaded", "path", opts.inFile, "floor_lists", len(data.FloorLists), "dungeons", len(data.Dungeons))

	var status progress.Status = progress.LogStatus{}
	if opts.progressAddr != "" {
		hub := progress.NewHub(cfg.Progress)
		mux := http.NewServeMux()
		mux.Handle("/progress", hub)
		srv := &http.Server{Addr: opts.progressAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Progress server failed", "error", err)
			}
		}()
		defer func() {
			hub.Close()
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			srv.Shutdown(ctx)
			logger.Debug("Progress server stopped", "clients_left", hub.ClientCount())
		}()
		logger.Info("Serving progress", "address", opts.progressAddr, "path", "/progress")
		status = progress.Tee(progress.LogStatus{}, hub)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r, err := randomizer.New(cfg, catalog, rand.New(rand.NewSource(runSeed)), status)
	if err != nil {
		return fmt.Errorf("set up randomizer: %w", err)
	}

	started := time.Now()
	report, runErr := r.Run(ctx, data)
	if runErr == nil {
		if err := mappa.SaveData(opts.outFile, report.Data); err != nil {
			runErr = fmt.Errorf("save output: %w", err)
		} else {
			logger.Info("Floor data saved", "path", opts.outFile)
		}
	}

	if opts.dbFile != "" || opts.dbDriver == "postgres" {
		dbConfig := database.DefaultConfig(opts.dbFile)
		if opts.dbDriver == "postgres" {
			pg := database.DefaultPostgresConfig()
			pg.Host = opts.pgHost
			pg.Port = opts.pgPort
			pg.User = opts.pgUser
			pg.Password = os.Getenv("MDR_PG_PASSWORD")
			pg.Database = opts.pgDatabase
			dbConfig = database.Config{Driver: opts.dbDriver, Postgres: pg}
		}
		if err := recordRun(dbConfig, cfg, data, runSeed, started, report, runErr); err != nil {
			logger.Error("Failed to record run", "error", err)
		}
	}

	return runErr
}

// recordRun stores the run and its group resizes in the run history
func recordRun(dbConfig database.Config, cfg *config.RandomizerConfig, input *mappa.Data, seed int64,
	started time.Time, report randomizer.Report, runErr error) error {
	db, err := database.OpenWithConfig(dbConfig)
	if err != nil {
		return err
	}
	defer db.Close()

	configDigest, err := yamlDigest(cfg)
	if err != nil {
		return err
	}
	inputDigest, err := dataDigest(input)
	if err != nil {
		return err
	}

	run := database.Run{
		Seed:          seed,
		ItemAlgorithm: cfg.Dungeons.ItemAlgorithm,
		ConfigDigest:  configDigest,
		InputDigest:   inputDigest,
		Repairs:       report.Repairs,
		FloorsBefore:  report.FloorsBefore,
		FloorsAfter:   report.FloorsAfter,
		StartedAt:     started,
		Duration:      time.Since(started),
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}
	if report.Data != nil {
		if run.OutputDigest, err = dataDigest(report.Data); err != nil {
			return err
		}
	}

	resizes := make([]database.GroupResize, len(report.Groups))
	for i, g := range report.Groups {
		resizes[i] = database.GroupResize{
			MappaIndex: g.MappaIndex,
			OldFloors:  g.OldFloors,
			NewFloors:  g.NewFloors,
			Applied:    g.Applied,
			Reason:     g.Reason,
		}
	}

	id, err := db.RecordRun(run, resizes)
	if err != nil {
		return err
	}
	logger.Info("Run recorded", "run_id", id, "output_digest", run.OutputDigest)
	return nil
}

func yamlDigest(v any) (string, error) {
	raw, err := yaml.Marshal(v)
	if err != nil {
		return "", err
	}
	return database.Digest(raw), nil
}

func dataDigest(data *mappa.Data) (string, error) {
	var buf bytes.Buffer
	if err := mappa.EncodeData(&buf, data); err != nil {
		return "", err
	}
	return database.Digest(buf.Bytes()), nil
}
