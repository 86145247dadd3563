package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/hrdmtr/genbapower-sub000/sim"
)

// Scenario commands understood by RunScenario.
const (
	CommandOrder              = "order"
	CommandCook               = "cook"
	CommandCookNext           = "cook_next"
	CommandInstruct           = "instruct"
	CommandVoid               = "void"
	CommandArrive             = "arrive"
	CommandTicket             = "ticket"
	CommandFinish             = "finish"
	CommandLeave              = "leave"
	CommandTicketMachineStart = "ticket_machine_start"
	CommandTicketMachineStop  = "ticket_machine_stop"
)

var validCommands = map[string]bool{
	CommandOrder: true, CommandCook: true, CommandCookNext: true, CommandInstruct: true,
	CommandVoid: true, CommandArrive: true, CommandTicket: true, CommandFinish: true,
	CommandLeave: true, CommandTicketMachineStart: true, CommandTicketMachineStop: true,
}

// Step is one scripted kitchen command, applied once the virtual clock reaches At.
type Step struct {
	At          time.Duration `yaml:"at"`
	Command     string        `yaml:"command"`
	Worker      string        `yaml:"worker,omitempty"`
	Product     string        `yaml:"product,omitempty"`
	Doneness    string        `yaml:"doneness,omitempty"`    // empty on order means drawn from the configured ratios
	Instruction string        `yaml:"instruction,omitempty"` // instruct only
	Batch       int           `yaml:"batch,omitempty"`       // void: 1-based start order of the batch, 0 = most recent
	Repeat      int           `yaml:"repeat,omitempty"`      // run the command this many times (default 1)
}

// Scenario is a scripted run. Steps must be ordered by At.
type Scenario struct {
	Name  string        `yaml:"name"`
	Until time.Duration `yaml:"until"` // 0 = stop the ticket machine after the last step and drain
	Steps []Step        `yaml:"steps"`
}

// ScenarioResult counts what happened to the scripted commands.
type ScenarioResult struct {
	Applied  int
	Rejected int
}

// maxDrainFirings bounds the drain after the last step.
const maxDrainFirings = 100000

// LoadScenario reads a scenario file with strict field checking.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	return parseScenario(data)
}

func parseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&sc); err != nil {
		return nil, fmt.Errorf("parsing scenario YAML: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate checks step ordering and that every command is known and
// carries the fields it needs. Worker, product and doneness values are
// left to the kitchen so they surface as ordinary rejections.
func (sc *Scenario) Validate() error {
	if len(sc.Steps) == 0 {
		return errors.New("scenario has no steps")
	}
	var last time.Duration
	for i, st := range sc.Steps {
		if !validCommands[st.Command] {
			return fmt.Errorf("step %d: unknown command %q", i, st.Command)
		}
		if st.At < last {
			return fmt.Errorf("step %d: at %s is before previous step at %s", i, st.At, last)
		}
		last = st.At
		if st.Repeat < 0 {
			return fmt.Errorf("step %d: repeat must be >= 0, got %d", i, st.Repeat)
		}
		switch st.Command {
		case CommandCook:
			if st.Worker == "" || st.Product == "" || st.Doneness == "" {
				return fmt.Errorf("step %d: cook needs worker, product and doneness", i)
			}
		case CommandCookNext:
			if st.Worker == "" {
				return fmt.Errorf("step %d: cook_next needs worker", i)
			}
		case CommandInstruct:
			if st.Worker == "" || st.Instruction == "" {
				return fmt.Errorf("step %d: instruct needs worker and instruction", i)
			}
		case CommandOrder:
			if st.Product == "" {
				return fmt.Errorf("step %d: order needs product", i)
			}
		case CommandVoid:
			if st.Batch < 0 {
				return fmt.Errorf("step %d: batch must be >= 0, got %d", i, st.Batch)
			}
		}
	}
	if sc.Until > 0 && sc.Until < last {
		return fmt.Errorf("until %s is before the last step at %s", sc.Until, last)
	}
	return nil
}

// scenarioRunner applies steps to a kitchen on a virtual clock.
type scenarioRunner struct {
	kitchen *sim.Kitchen
	clock   *sim.VirtualClock
	batches []string // IDs in start order
	result  ScenarioResult
}

// RunScenario plays sc against k up to virtual time until. A zero until
// plays every step and then, if sc.Until is also zero, stops the ticket
// machine and drains every pending timer. Rejected commands are counted,
// not fatal; any other error aborts the run.
func RunScenario(k *sim.Kitchen, clock *sim.VirtualClock, sc *Scenario, until time.Duration) (ScenarioResult, error) {
	r := &scenarioRunner{kitchen: k, clock: clock}
	for i, st := range sc.Steps {
		if until > 0 && st.At > until {
			break
		}
		clock.AdvanceTo(st.At)
		n := max(st.Repeat, 1)
		for j := 0; j < n; j++ {
			if err := r.apply(st); err != nil {
				if sim.KindOf(err) == "" {
					return r.result, fmt.Errorf("step %d (%s): %w", i, st.Command, err)
				}
				logrus.Debugf("[%s] step %d %s rejected: %v", clock.Now(), i, st.Command, err)
				r.result.Rejected++
				continue
			}
			r.result.Applied++
		}
	}

	switch {
	case until > 0:
		clock.AdvanceTo(until)
	case sc.Until > 0:
		clock.AdvanceTo(sc.Until)
	default:
		k.StopTicketMachine()
		if clock.RunUntilIdle(maxDrainFirings) >= maxDrainFirings && clock.Pending() > 0 {
			return r.result, fmt.Errorf("scenario did not drain after %d timer firings", maxDrainFirings)
		}
	}
	return r.result, nil
}

func (r *scenarioRunner) apply(st Step) error {
	k := r.kitchen
	switch st.Command {
	case CommandOrder:
		var d *sim.Doneness
		if st.Doneness != "" {
			parsed, err := sim.ParseDoneness(st.Doneness)
			if err != nil {
				return err
			}
			d = &parsed
		}
		_, err := k.PlaceOrder(st.Product, d)
		return err
	case CommandCook:
		d, err := sim.ParseDoneness(st.Doneness)
		if err != nil {
			return err
		}
		b, err := k.StartCooking(sim.WorkerID(st.Worker), st.Product, d)
		if err != nil {
			return err
		}
		r.batches = append(r.batches, b.ID)
		return nil
	case CommandCookNext:
		b, err := k.StartNextOrder(sim.WorkerID(st.Worker))
		if err != nil {
			return err
		}
		r.batches = append(r.batches, b.ID)
		return nil
	case CommandInstruct:
		i, err := sim.ParseInstruction(st.Instruction)
		if err != nil {
			return err
		}
		return k.AdvanceWorker(sim.WorkerID(st.Worker), i)
	case CommandVoid:
		return k.VoidBatch(r.batchRef(st.Batch))
	case CommandArrive:
		k.CustomerArrives()
		return nil
	case CommandTicket:
		_, err := k.PurchaseTicket()
		return err
	case CommandFinish:
		return k.FinishEating()
	case CommandLeave:
		return k.CustomerLeaves()
	case CommandTicketMachineStart:
		k.StartTicketMachine()
		return nil
	case CommandTicketMachineStop:
		k.StopTicketMachine()
		return nil
	}
	return fmt.Errorf("unknown command %q", st.Command)
}

// batchRef resolves a scripted batch number to an ID. Unresolvable
// references return an empty ID, which the kitchen rejects as unknown.
func (r *scenarioRunner) batchRef(n int) string {
	if len(r.batches) == 0 {
		return ""
	}
	if n == 0 {
		return r.batches[len(r.batches)-1]
	}
	if n > len(r.batches) {
		return ""
	}
	return r.batches[n-1]
}
