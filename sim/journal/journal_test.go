package journal

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrdmtr/genbapower-sub000/sim"
)

func openTemp(t *testing.T, session string) (*Journal, string) {
	t.Helper()
	dir := t.TempDir()
	j, err := Open(dir, session)
	require.NoError(t, err)
	return j, dir
}

func TestJournal_ReplayInSequenceOrder(t *testing.T) {
	// GIVEN events written out of key-string order (9 < 10 numerically)
	j, _ := openTemp(t, "lunch")
	defer j.Close()
	for _, seq := range []uint64{10, 9, 1, 100} {
		j.Emit(sim.Event{Seq: seq, Type: sim.EventOrderPlaced, At: time.Duration(seq) * time.Second})
	}

	// WHEN replayed
	var got []uint64
	require.NoError(t, j.Replay("lunch", func(e sim.Event) error {
		got = append(got, e.Seq)
		return nil
	}))

	// THEN they come back by sequence number
	assert.Equal(t, []uint64{1, 9, 10, 100}, got)
	assert.Equal(t, 0, j.Failed())
}

func TestJournal_RoundTripsEventFields(t *testing.T) {
	j, _ := openTemp(t, "s1")
	defer j.Close()
	want := sim.Event{
		Seq:        3,
		At:         80 * time.Second,
		Type:       sim.EventBatchDone,
		Worker:     sim.WorkerMain,
		ProductID:  "P004",
		Doneness:   sim.DonenessHard,
		BatchID:    "b-1",
		Stage:      sim.StagePlatingWait,
		Count:      1,
		Advisories: []sim.Advisory{{Kind: sim.AdvisoryPlatingNeeded, Count: 1, Severity: sim.SeverityInfo}},
	}
	j.Emit(want)

	var got []sim.Event
	require.NoError(t, j.Replay("s1", func(e sim.Event) error {
		got = append(got, e)
		return nil
	}))
	require.Len(t, got, 1)
	assert.Equal(t, want, got[0])
}

func TestJournal_SessionsAreSeparate(t *testing.T) {
	// GIVEN two sessions written into the same directory
	j, dir := openTemp(t, "a")
	j.Emit(sim.Event{Seq: 1, Type: sim.EventOrderPlaced})
	require.NoError(t, j.Close())

	j2, err := Open(dir, "b")
	require.NoError(t, err)
	defer j2.Close()
	j2.Emit(sim.Event{Seq: 1, Type: sim.EventCustomerChanged})
	j2.Emit(sim.Event{Seq: 2, Type: sim.EventCustomerChanged})

	// THEN each replays only its own events
	sessions, err := j2.Sessions()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, sessions)

	count := 0
	require.NoError(t, j2.Replay("a", func(e sim.Event) error {
		count++
		assert.Equal(t, sim.EventOrderPlaced, e.Type)
		return nil
	}))
	assert.Equal(t, 1, count)
}

func TestJournal_ReplayStopsOnError(t *testing.T) {
	j, _ := openTemp(t, "s")
	defer j.Close()
	j.Emit(sim.Event{Seq: 1})
	j.Emit(sim.Event{Seq: 2})

	stop := errors.New("stop")
	calls := 0
	err := j.Replay("s", func(sim.Event) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestJournal_RandomSessionName(t *testing.T) {
	j, _ := openTemp(t, "")
	defer j.Close()
	assert.Len(t, j.Session(), 36)
}

func TestJournal_RecordsAKitchenRun(t *testing.T) {
	// GIVEN a kitchen writing to a journal
	j, _ := openTemp(t, "run")
	defer j.Close()
	clock := sim.NewVirtualClock()
	k, err := sim.NewKitchen(sim.DefaultKitchenConfig(), clock, sim.NewPartitionedRNG(sim.NewSimulationKey(5)), j)
	require.NoError(t, err)

	// WHEN one dish is ordered and boiled
	_, err = k.PlaceOrder("P004", nil)
	require.NoError(t, err)
	_, err = k.StartNextOrder(sim.WorkerMain)
	require.NoError(t, err)
	clock.Advance(2 * time.Minute)

	// THEN the journal holds a gapless sequence ending with the batch done
	var seqs []uint64
	var types []sim.EventType
	require.NoError(t, j.Replay("run", func(e sim.Event) error {
		seqs = append(seqs, e.Seq)
		types = append(types, e.Type)
		return nil
	}))
	require.NotEmpty(t, seqs)
	for i, s := range seqs {
		assert.Equal(t, uint64(i+1), s)
	}
	assert.Contains(t, types, sim.EventBatchDone)
}
