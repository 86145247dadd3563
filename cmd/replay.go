package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/hrdmtr/genbapower-sub000/sim"
	"github.com/hrdmtr/genbapower-sub000/sim/journal"
	"github.com/hrdmtr/genbapower-sub000/sim/trace"
)

var replayEvents bool // Print every replayed event as a JSON line

// replayCmd reads a journal back
var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "List journal sessions, or summarize one",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()
		if journalDir == "" {
			logrus.Fatalf("--journal-dir is required")
		}
		if err := replay(os.Stdout, journalDir, session, replayEvents); err != nil {
			logrus.Fatalf("Replay failed: %v", err)
		}
	},
}

// replay lists sessions when name is empty, otherwise feeds the session
// through a trace recorder and prints its summary.
func replay(w io.Writer, dir, name string, events bool) error {
	j, err := journal.Open(dir, "")
	if err != nil {
		return err
	}
	defer j.Close()

	if name == "" {
		sessions, err := j.Sessions()
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "=== Journal Sessions ===")
		for _, s := range sessions {
			fmt.Fprintln(w, s)
		}
		return nil
	}

	recorder := trace.NewRecorder(trace.TraceLevelRecords)
	enc := json.NewEncoder(w)
	n := 0
	err = j.Replay(name, func(e sim.Event) error {
		n++
		recorder.Emit(e)
		if events {
			return enc.Encode(e)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.New("no events for session " + name)
	}
	trace.Summarize(recorder).Print(w)
	return nil
}

func init() {
	replayCmd.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	replayCmd.Flags().StringVar(&journalDir, "journal-dir", "", "Directory of the BadgerDB event journal")
	replayCmd.Flags().StringVar(&session, "session", "", "Session to summarize (lists sessions when empty)")
	replayCmd.Flags().BoolVar(&replayEvents, "events", false, "Print every event as a JSON line before the summary")
}
