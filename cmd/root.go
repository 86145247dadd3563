package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/hrdmtr/genbapower-sub000/sim"
	"github.com/hrdmtr/genbapower-sub000/sim/journal"
	"github.com/hrdmtr/genbapower-sub000/sim/trace"
)

var (
	// Shared kitchen flags
	seed       int64  // Seed for drawn doneness and batch IDs
	logLevel   string // Log verbosity level
	configPath string // Kitchen policy YAML overlaid onto defaults
	journalDir string // BadgerDB directory for the event journal; empty disables it
	session    string // Journal session name; empty means random

	// Scenario flags
	scenarioPath string        // Scripted scenario YAML
	traceLevel   string        // Trace detail for the run summary
	adviseAt     time.Duration // Virtual time at which advise stops the scenario
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "kitchen-sim",
	Short: "Discrete-event simulator for a noodle counter kitchen",
}

// runCmd plays a scenario on a virtual clock and prints a summary
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a scripted kitchen scenario on a virtual clock",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()
		if scenarioPath == "" {
			logrus.Fatalf("--scenario is required")
		}
		if !trace.IsValidTraceLevel(traceLevel) {
			logrus.Fatalf("Invalid trace level: %s", traceLevel)
		}
		if err := runScenarioFile(os.Stdout, scenarioPath, trace.TraceLevel(traceLevel)); err != nil {
			logrus.Fatalf("Scenario failed: %v", err)
		}
	},
}

// adviseCmd plays a scenario prefix and prints what the staff should do next
var adviseCmd = &cobra.Command{
	Use:   "advise",
	Short: "Print advisories and staff recommendations at a point in a scenario",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()
		if scenarioPath == "" {
			logrus.Fatalf("--scenario is required")
		}
		if adviseAt <= 0 {
			logrus.Fatalf("--at must be positive, got %s", adviseAt)
		}
		if err := adviseScenarioFile(os.Stdout, scenarioPath, adviseAt); err != nil {
			logrus.Fatalf("Advise failed: %v", err)
		}
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setLogLevel() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// loadConfig returns the defaults when path is empty.
func loadConfig(path string) (sim.KitchenConfig, error) {
	if path == "" {
		return sim.DefaultKitchenConfig(), nil
	}
	return sim.LoadKitchenConfig(path)
}

// openJournal returns a nil journal when dir is empty.
func openJournal(dir string) (*journal.Journal, error) {
	if dir == "" {
		return nil, nil
	}
	return journal.Open(dir, session)
}

// virtualKitchen builds a kitchen on a fresh virtual clock from the shared flags.
func virtualKitchen(sinks ...sim.EventSink) (*sim.Kitchen, *sim.VirtualClock, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	clock := sim.NewVirtualClock()
	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(seed))
	k, err := sim.NewKitchen(cfg, clock, rng, sinks...)
	if err != nil {
		return nil, nil, err
	}
	return k, clock, nil
}

func runScenarioFile(w io.Writer, path string, level trace.TraceLevel) error {
	sc, err := LoadScenario(path)
	if err != nil {
		return err
	}
	recorder := trace.NewRecorder(level)
	sinks := []sim.EventSink{recorder}

	j, err := openJournal(journalDir)
	if err != nil {
		return err
	}
	if j != nil {
		defer j.Close()
		sinks = append(sinks, j)
	}

	k, clock, err := virtualKitchen(sinks...)
	if err != nil {
		return err
	}
	start := time.Now()
	result, err := RunScenario(k, clock, sc, 0)
	if err != nil {
		return err
	}
	logrus.Infof("scenario %q finished at %s in %s", sc.Name, clock.Now(), time.Since(start))

	fmt.Fprintf(w, "Scenario: %s (seed %d)\n", sc.Name, seed)
	fmt.Fprintf(w, "Commands applied     : %d\n", result.Applied)
	fmt.Fprintf(w, "Commands rejected    : %d\n", result.Rejected)
	trace.Summarize(recorder).Print(w)
	printSnapshot(w, k.Snapshot())
	if j != nil {
		fmt.Fprintf(w, "Journal session      : %s\n", j.Session())
		if j.Failed() > 0 {
			logrus.Warnf("%d events could not be journaled", j.Failed())
		}
	}
	return nil
}

func adviseScenarioFile(w io.Writer, path string, at time.Duration) error {
	sc, err := LoadScenario(path)
	if err != nil {
		return err
	}
	k, clock, err := virtualKitchen()
	if err != nil {
		return err
	}
	if _, err := RunScenario(k, clock, sc, at); err != nil {
		return err
	}
	printAdvice(w, k)
	return nil
}

// init sets up CLI flags and subcommands
func init() {
	for _, c := range []*cobra.Command{runCmd, adviseCmd, serveCmd} {
		c.Flags().Int64Var(&seed, "seed", 42, "Seed for drawn doneness and batch IDs")
		c.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
		c.Flags().StringVar(&configPath, "config", "", "Kitchen policy YAML (defaults when empty)")
	}
	for _, c := range []*cobra.Command{runCmd, serveCmd} {
		c.Flags().StringVar(&journalDir, "journal-dir", "", "Directory for the BadgerDB event journal (disabled when empty)")
		c.Flags().StringVar(&session, "session", "", "Journal session name (random when empty)")
	}

	runCmd.Flags().StringVar(&scenarioPath, "scenario", "", "Scenario YAML to play")
	runCmd.Flags().StringVar(&traceLevel, "trace-level", string(trace.TraceLevelRecords), "Trace detail: none, records, events")

	adviseCmd.Flags().StringVar(&scenarioPath, "scenario", "", "Scenario YAML to play")
	adviseCmd.Flags().DurationVar(&adviseAt, "at", 2*time.Minute, "Virtual time at which to stop and advise")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(adviseCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(replayCmd)
}
