package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// eventLog is an in-package EventSink that keeps every emitted event.
type eventLog struct {
	events []Event
}

func (l *eventLog) Emit(e Event) { l.events = append(l.events, e) }

// ofType returns the recorded events of type typ, in emission order.
func (l *eventLog) ofType(typ EventType) []Event {
	var out []Event
	for _, e := range l.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

// newTestKitchen builds a kitchen with the default config on a virtual clock.
func newTestKitchen(t *testing.T) (*Kitchen, *VirtualClock, *eventLog) {
	t.Helper()
	return newTestKitchenWith(t, DefaultKitchenConfig())
}

func newTestKitchenWith(t *testing.T, cfg KitchenConfig) (*Kitchen, *VirtualClock, *eventLog) {
	t.Helper()
	clock := NewVirtualClock()
	log := &eventLog{}
	k, err := NewKitchen(cfg, clock, NewPartitionedRNG(NewSimulationKey(42)), log)
	require.NoError(t, err)
	return k, clock, log
}

// order places a dish with an explicit doneness and fails the test on error.
func order(t *testing.T, k *Kitchen, productID string, d Doneness) {
	t.Helper()
	_, err := k.PlaceOrder(productID, &d)
	require.NoError(t, err)
}

// cookedToPlatingWait orders and boils one dish until it waits for plating.
func cookedToPlatingWait(t *testing.T, k *Kitchen, clock *VirtualClock) {
	t.Helper()
	order(t, k, "P004", DonenessHard)
	_, err := k.StartCooking(WorkerMain, "P004", DonenessHard)
	require.NoError(t, err)
	clock.Advance(80 * time.Second)
}

func workerState(k *Kitchen, id WorkerID) WorkerState {
	return k.workers[id].State()
}
