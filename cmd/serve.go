package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/hrdmtr/genbapower-sub000/server"
	"github.com/hrdmtr/genbapower-sub000/sim"
)

var (
	// CLI flags for the real-time server
	addr          string // Listen address
	ticketMachine bool   // Start the ticket machine on boot
)

// serveCmd runs a wall-clock kitchen behind the HTTP surface
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a real-time kitchen over HTTP and websocket",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()
		if err := godotenv.Load(); err != nil {
			logrus.Debugf("no .env loaded: %v", err)
		}
		envOverride(cmd, "addr", "KITCHEN_ADDR", &addr)
		envOverride(cmd, "config", "KITCHEN_CONFIG", &configPath)
		envOverride(cmd, "journal-dir", "KITCHEN_JOURNAL_DIR", &journalDir)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := serve(ctx); err != nil {
			logrus.Fatalf("Server failed: %v", err)
		}
	},
}

// envOverride replaces *dst with the value of key unless the flag was set
// explicitly on the command line.
func envOverride(cmd *cobra.Command, flag, key string, dst *string) {
	if cmd.Flags().Changed(flag) {
		return
	}
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func serve(ctx context.Context) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	loop := sim.NewLoop(64)
	clock := sim.NewRealClock(loop)
	k, err := sim.NewKitchen(cfg, clock, sim.NewPartitionedRNG(sim.NewSimulationKey(seed)))
	if err != nil {
		return err
	}

	j, err := openJournal(journalDir)
	if err != nil {
		return err
	}
	if j != nil {
		defer j.Close()
		k.Subscribe(j)
	}

	srv := server.New(k, loop)
	go loop.Run(ctx)

	if ticketMachine {
		if err := loop.Do(ctx, k.StartTicketMachine); err != nil {
			return err
		}
	}
	return srv.Run(ctx, addr)
}

func init() {
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "HTTP listen address")
	serveCmd.Flags().BoolVar(&ticketMachine, "ticket-machine", false, "Sell tickets automatically while customers are in line")
}
