package main

import (
	"flag"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/oisee/seqmine/pkg/analytics"
	"github.com/oisee/seqmine/pkg/config"
	"github.com/oisee/seqmine/pkg/interp"
	"github.com/oisee/seqmine/pkg/mine"
	"github.com/oisee/seqmine/pkg/oeis"
	"github.com/oisee/seqmine/pkg/store"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "seqmine",
		Short: "OEIS program miner — mutate, execute and match integer-sequence programs",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath(), "Path to the TOML configuration file")
	// glog's -v / -logtostderr flags; mark the go flag set parsed so
	// glog stops complaining, the real values arrive through pflag.
	rootCmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)
	flag.CommandLine.Parse([]string{})

	loadConfig := func() (*config.Config, error) {
		return config.Load(configPath)
	}

	// eval command
	var termCount int
	var verbose bool

	evalCmd := &cobra.Command{
		Use:   "eval [A-number or program file]",
		Short: "Evaluate a program and print its terms",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			fileStore := store.NewFileStore(cfg.OeisProgramsDir())
			manager := store.NewDependencyManager(fileStore)

			var runner *interp.Runner
			if id, idErr := oeis.ParseID(args[0]); idErr == nil {
				runner, err = manager.Resolve(id)
			} else {
				var source []byte
				source, err = os.ReadFile(args[0])
				if err == nil {
					runner, err = manager.ParseAnonymous(string(source))
				}
			}
			if err != nil {
				return err
			}

			limits := interp.DefaultLimits()
			if verbose {
				runner.Trace = os.Stdout
				var steps uint64
				cache := interp.NewCache(interp.DefaultCacheCapacity)
				for i := 0; i < termCount; i++ {
					out, err := runner.Run(bigInt(i), interp.Verbose, &steps, &limits, cache)
					if err != nil {
						return fmt.Errorf("input %d: %w", i, err)
					}
					fmt.Printf("a(%d) = %s\n", i, out)
				}
				return nil
			}
			fmt.Println(runner.Inspect(termCount, &limits))
			return nil
		},
	}
	evalCmd.Flags().IntVarP(&termCount, "terms", "t", 20, "Number of terms to evaluate")
	evalCmd.Flags().BoolVarP(&verbose, "verbose", "V", false, "Trace the register state after every instruction")

	// deps command
	depsCmd := &cobra.Command{
		Use:   "deps [A-number]",
		Short: "Print the dependency resolution order of a program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			id, err := oeis.ParseID(args[0])
			if err != nil {
				return err
			}
			manager := store.NewDependencyManager(store.NewFileStore(cfg.OeisProgramsDir()))
			if _, err := manager.Resolve(id); err != nil {
				return err
			}
			var parts []string
			for _, dep := range manager.Trace() {
				parts = append(parts, dep.ANumber())
			}
			fmt.Println(strings.Join(parts, ","))
			return nil
		},
	}

	// analytics command
	analyticsCmd := &cobra.Command{
		Use:   "analytics",
		Short: "Analyze the program corpus and write the histogram CSV files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			analyzer := analytics.NewAnalyzer()
			if err := analyzer.AnalyzeStore(store.NewFileStore(cfg.OeisProgramsDir())); err != nil {
				return err
			}
			dir := cfg.AnalyticsDir()
			if err := analyzer.WriteCSVFiles(dir); err != nil {
				return err
			}
			fmt.Printf("analytics written to %s (%d valid, %d invalid programs)\n",
				dir, len(analyzer.Valid()), len(analyzer.Invalid()))
			return nil
		},
	}

	// index command
	var expectedRows int
	var fpRate float64

	indexCmd := &cobra.Command{
		Use:   "index",
		Short: "Build the fixed-length sequence indexes from the OEIS stripped file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			f, err := os.Open(cfg.OeisStrippedFile)
			if err != nil {
				return err
			}
			defer f.Close()
			funnel, err := mine.FunnelFromStripped(f, mine.DefaultStageTermCounts, expectedRows, fpRate, indexKeys())
			if err != nil {
				return err
			}
			if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
				return err
			}
			for _, checker := range funnel.Checkers() {
				path := cfg.IndexFile(checker.TermCount())
				if err := checker.SaveFile(path); err != nil {
					return err
				}
				fmt.Printf("saved %s\n", path)
			}
			return nil
		},
	}
	indexCmd.Flags().IntVar(&expectedRows, "rows", 400_000, "Expected number of OEIS rows")
	indexCmd.Flags().Float64Var(&fpRate, "fp-rate", mine.DefaultFalsePositiveRate, "Bloom filter false-positive rate")

	// mine command
	var numWorkers int
	var batchSize int
	var metricsAddr string

	mineCmd := &cobra.Command{
		Use:   "mine",
		Short: "Mine candidate programs until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runMine(cfg, numWorkers, batchSize, metricsAddr, expectedRows, fpRate)
		},
	}
	mineCmd.Flags().IntVar(&numWorkers, "workers", runtime.NumCPU(), "Number of mining workers")
	mineCmd.Flags().IntVar(&batchSize, "batch-size", 1000, "Iterations per worker batch")
	mineCmd.Flags().StringVar(&metricsAddr, "metrics", "", "Serve prometheus metrics on this address (e.g. :9090)")
	mineCmd.Flags().IntVar(&expectedRows, "rows", 400_000, "Expected number of OEIS rows")
	mineCmd.Flags().Float64Var(&fpRate, "fp-rate", mine.DefaultFalsePositiveRate, "Bloom filter false-positive rate")

	rootCmd.AddCommand(evalCmd, depsCmd, analyticsCmd, indexCmd, mineCmd)
	if err := rootCmd.Execute(); err != nil {
		glog.Errorf("%v", err)
		os.Exit(1)
	}
}

func runMine(cfg *config.Config, numWorkers, batchSize int, metricsAddr string, expectedRows int, fpRate float64) error {
	deny, err := store.LoadDenyList(cfg.DenyFile())
	if err != nil {
		return err
	}
	ctx, err := mine.LoadMutateContext(cfg.AnalyticsDir(), deny)
	if err != nil {
		return fmt.Errorf("run `seqmine analytics` first: %w", err)
	}

	funnel, err := loadOrBuildFunnel(cfg, expectedRows, fpRate)
	if err != nil {
		return err
	}

	var names map[oeis.ID]string
	if namesFile, err := os.Open(cfg.OeisNamesFile); err == nil {
		names, err = oeis.ReadNames(namesFile)
		namesFile.Close()
		if err != nil {
			return err
		}
	} else {
		glog.Warningf("names file unavailable, candidates go unannotated: %v", err)
	}

	annotator := &mine.Annotator{Names: names, SubmittedBy: cfg.LodaSubmittedBy}
	sink, err := mine.NewEventDirSink(cfg.MineEventDir, annotator)
	if err != nil {
		return err
	}
	table := mine.NewCandidateTable(sink)

	guard := mine.NewPreventFlooding(100_000, 2)
	checkpointFile := filepath.Join(cfg.CacheDir, "miner_checkpoint.gob")
	if ckpt, err := mine.LoadCheckpoint(checkpointFile); err == nil {
		guard.Reseed(ckpt.Fingerprints)
		glog.Infof("reseeded flood guard with %d fingerprints", len(ckpt.Fingerprints))
	}

	var recorder mine.Recorder = mine.GlogRecorder{}
	if metricsAddr != "" {
		registry := prometheus.NewRegistry()
		recorder = mine.NewPrometheusRecorder(registry)
		go func() {
			http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
			if err := http.ListenAndServe(metricsAddr, nil); err != nil {
				glog.Errorf("metrics listener: %v", err)
			}
		}()
	}

	fileStore := store.NewFileStore(cfg.OeisProgramsDir())
	coordinator := &mine.Coordinator{
		NumWorkers: numWorkers,
		BatchSize:  batchSize,
		NewMiner: func(workerID int, seed uint64) (*mine.Miner, error) {
			return mine.NewMiner(fileStore, ctx, funnel, guard, table, recorder, seed), nil
		},
	}

	stop := make(chan struct{})
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-interrupts
		glog.Infof("interrupt received, stopping after current batches")
		close(stop)
	}()

	runErr := coordinator.Run(stop)

	iterations, candidates, _ := coordinator.Stats()
	ckpt := &mine.Checkpoint{
		Fingerprints: guard.Snapshot(),
		Iterations:   iterations,
		Candidates:   candidates,
	}
	if err := mine.SaveCheckpoint(checkpointFile, ckpt); err != nil {
		glog.Errorf("saving checkpoint: %v", err)
	}
	return runErr
}

// loadOrBuildFunnel prefers the index snapshots written by `seqmine
// index` and falls back to reading the stripped file directly.
func loadOrBuildFunnel(cfg *config.Config, expectedRows int, fpRate float64) (*mine.Funnel, error) {
	paths := make([]string, len(mine.DefaultStageTermCounts))
	for i, k := range mine.DefaultStageTermCounts {
		paths[i] = cfg.IndexFile(k)
	}
	if funnel, err := mine.FunnelFromIndexFiles(paths); err == nil {
		glog.Infof("loaded funnel indexes from %s", cfg.CacheDir)
		return funnel, nil
	}
	stripped, err := os.Open(cfg.OeisStrippedFile)
	if err != nil {
		return nil, err
	}
	defer stripped.Close()
	return mine.FunnelFromStripped(stripped, mine.DefaultStageTermCounts, expectedRows, fpRate, indexKeys())
}

// indexKeys are the persisted bloom hash keys; fixed so that separately
// built indexes agree.
func indexKeys() [2]uint64 {
	return [2]uint64{0x5e90_0000_0000_0001, 0xA5A5_5A5A_0F0F_F0F0}
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "seqmine.toml"
	}
	return filepath.Join(home, ".seqmine", "config.toml")
}

func bigInt(i int) *big.Int {
	return big.NewInt(int64(i))
}
