package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrdmtr/genbapower-sub000/sim"
)

// fullServiceYAML takes one hard P004 from order to table.
const fullServiceYAML = `
name: full-service
steps:
  - {at: 0s, command: order, product: P004, doneness: hard}
  - {at: 0s, command: cook, worker: main, product: P004, doneness: hard}
  - {at: 80s, command: instruct, worker: main, instruction: plating}
  - {at: 90s, command: instruct, worker: sub, instruction: garnishing}
  - {at: 100s, command: instruct, worker: sub, instruction: serving}
`

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newScenarioKitchen(t *testing.T) (*sim.Kitchen, *sim.VirtualClock) {
	t.Helper()
	clock := sim.NewVirtualClock()
	k, err := sim.NewKitchen(sim.DefaultKitchenConfig(), clock, sim.NewPartitionedRNG(sim.NewSimulationKey(42)))
	require.NoError(t, err)
	return k, clock
}

func TestLoadScenario_Valid(t *testing.T) {
	sc, err := LoadScenario(writeScenario(t, fullServiceYAML))
	require.NoError(t, err)
	assert.Equal(t, "full-service", sc.Name)
	require.Len(t, sc.Steps, 5)
	assert.Equal(t, 80*time.Second, sc.Steps[2].At)
	assert.Equal(t, "plating", sc.Steps[2].Instruction)
}

func TestLoadScenario_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"unknown field", "steps:\n  - {at: 0s, command: arrive, colour: red}\n", "colour"},
		{"unknown command", "steps:\n  - {at: 0s, command: dance}\n", "unknown command"},
		{"out of order", "steps:\n  - {at: 10s, command: arrive}\n  - {at: 5s, command: arrive}\n", "before previous step"},
		{"cook without doneness", "steps:\n  - {at: 0s, command: cook, worker: main, product: P004}\n", "cook needs"},
		{"instruct without worker", "steps:\n  - {at: 0s, command: instruct, instruction: plating}\n", "instruct needs"},
		{"negative repeat", "steps:\n  - {at: 0s, command: arrive, repeat: -1}\n", "repeat"},
		{"until before last step", "until: 5s\nsteps:\n  - {at: 10s, command: arrive}\n", "until"},
		{"no steps", "name: empty\n", "no steps"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestRunScenario_FullService(t *testing.T) {
	// GIVEN a scenario that cooks, plates, garnishes and serves one dish
	sc, err := parseScenario([]byte(fullServiceYAML))
	require.NoError(t, err)
	k, clock := newScenarioKitchen(t)

	// WHEN it runs to completion
	result, err := RunScenario(k, clock, sc, 0)

	// THEN every command applied and the dish reached the table
	require.NoError(t, err)
	assert.Equal(t, ScenarioResult{Applied: 5}, result)
	s := k.Snapshot()
	assert.Equal(t, 1, s.Served)
	assert.Equal(t, 99, s.Cutlery)
	assert.Equal(t, 1, s.DishBacklog)
	assert.Equal(t, 105*time.Second, clock.Now())
	assert.Zero(t, clock.Pending())
}

func TestRunScenario_RejectionsAreCounted(t *testing.T) {
	// GIVEN cooking with nothing ordered, and an unknown worker
	sc, err := parseScenario([]byte(`
steps:
  - {at: 0s, command: cook, worker: main, product: P004, doneness: soft}
  - {at: 0s, command: cook_next, worker: boss}
  - {at: 1s, command: order, product: P001, doneness: normal, repeat: 2}
`))
	require.NoError(t, err)
	k, clock := newScenarioKitchen(t)

	// WHEN it runs
	result, err := RunScenario(k, clock, sc, 0)

	// THEN the bad commands are rejected without aborting the run
	require.NoError(t, err)
	assert.Equal(t, ScenarioResult{Applied: 2, Rejected: 2}, result)
	assert.Equal(t, 2, k.Snapshot().QueuedTotal)
}

func TestRunScenario_VoidByReference(t *testing.T) {
	// GIVEN two batches and a void of the first one
	sc, err := parseScenario([]byte(`
steps:
  - {at: 0s, command: order, product: P004, doneness: hard, repeat: 2}
  - {at: 0s, command: cook_next, worker: main, repeat: 2}
  - {at: 10s, command: void, batch: 1}
  - {at: 11s, command: void, batch: 5}
`))
	require.NoError(t, err)
	k, clock := newScenarioKitchen(t)

	// WHEN it runs up to 20s
	result, err := RunScenario(k, clock, sc, 20*time.Second)

	// THEN one batch is left boiling and the out-of-range reference is rejected
	require.NoError(t, err)
	assert.Equal(t, ScenarioResult{Applied: 5, Rejected: 1}, result)
	s := k.Snapshot()
	assert.Equal(t, 1, s.Boiler.Occupied)
	assert.Equal(t, 0, s.PlatingWait)
	assert.Equal(t, 20*time.Second, s.At)
}

func TestRunScenario_UntilStopsEarly(t *testing.T) {
	sc, err := parseScenario([]byte(fullServiceYAML))
	require.NoError(t, err)
	k, clock := newScenarioKitchen(t)

	result, err := RunScenario(k, clock, sc, 85*time.Second)
	require.NoError(t, err)

	// cook, order and plating applied; garnish and serve not yet reached
	assert.Equal(t, 3, result.Applied)
	s := k.Snapshot()
	w, ok := s.Worker(sim.WorkerMain)
	require.True(t, ok)
	assert.Equal(t, sim.StatePlating, w.State)
	assert.Equal(t, 0, s.Served)
}

func TestRunScenario_TicketMachineDrains(t *testing.T) {
	// GIVEN three customers and a ticket machine left running
	sc, err := parseScenario([]byte(`
steps:
  - {at: 0s, command: arrive, repeat: 3}
  - {at: 0s, command: ticket_machine_start}
`))
	require.NoError(t, err)
	k, clock := newScenarioKitchen(t)

	// WHEN the scenario drains
	_, err = RunScenario(k, clock, sc, 0)

	// THEN the machine is stopped before draining; nothing fired
	require.NoError(t, err)
	assert.False(t, k.TicketMachineRunning())
	assert.Equal(t, 3, k.Snapshot().Customers.InLine)

	// WHEN a scenario sets an explicit end time instead
	sc.Until = 50 * time.Second
	k, clock = newScenarioKitchen(t)
	_, err = RunScenario(k, clock, sc, 0)

	// THEN tickets are sold at 15s, 30s and 45s
	require.NoError(t, err)
	s := k.Snapshot()
	assert.Equal(t, 0, s.Customers.InLine)
	assert.Equal(t, 3, s.Customers.Waiting)
	assert.Equal(t, 3, s.QueuedTotal)
}
