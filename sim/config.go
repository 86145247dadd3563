package sim

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Product is one menu item that can be ordered.
type Product struct {
	Name  string `yaml:"name" json:"name"`
	Price int    `yaml:"price" json:"price"`
}

// InstructionDurations holds the fixed duration of each timed staff task.
// Boiling has none: it lasts as long as the worker's cook batches.
type InstructionDurations struct {
	Plating          time.Duration `yaml:"plating"`
	Garnishing       time.Duration `yaml:"garnishing"`
	Serving          time.Duration `yaml:"serving"`
	RefillingCutlery time.Duration `yaml:"refilling_cutlery"`
	Washing          time.Duration `yaml:"washing"`
	Cleaning         time.Duration `yaml:"cleaning"`
}

// For returns the duration of instruction i.
func (d InstructionDurations) For(i Instruction) (time.Duration, bool) {
	switch i {
	case InstructionPlating:
		return d.Plating, true
	case InstructionGarnishing:
		return d.Garnishing, true
	case InstructionServing:
		return d.Serving, true
	case InstructionRefillingCutlery:
		return d.RefillingCutlery, true
	case InstructionWashing:
		return d.Washing, true
	case InstructionCleaning:
		return d.Cleaning, true
	}
	return 0, false
}

// AdvisoryPolicy holds the thresholds used when deriving advisories and
// per-staff recommendations. None of them gate advisory emission.
type AdvisoryPolicy struct {
	WarningAt       int `yaml:"warning_at"`        // count at which severity becomes warning
	CriticalAt      int `yaml:"critical_at"`       // count at which severity becomes critical
	WashBacklogOver int `yaml:"wash_backlog_over"` // recommend washing above this many dirty dishes
	LowCutlery      int `yaml:"low_cutlery"`       // recommend refilling below this many sets
}

// BoilerCapacity is the number of boiler slots. It is a property of the
// counter's hardware, not a policy knob, so it is not configurable.
const BoilerCapacity = 2

// KitchenConfig groups every policy constant of the kitchen.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type KitchenConfig struct {
	Doneness       DonenessPolicy       `yaml:"doneness"`
	Instructions   InstructionDurations `yaml:"instructions"`
	InitialCutlery int                  `yaml:"initial_cutlery"`
	CutleryRefill  int                  `yaml:"cutlery_refill"`
	WashBatch      int                  `yaml:"wash_batch"`
	TicketInterval time.Duration        `yaml:"ticket_interval"`
	DefaultProduct string               `yaml:"default_product"`
	Products       map[string]Product   `yaml:"products"`
	Advisory       AdvisoryPolicy       `yaml:"advisory"`
}

// DefaultKitchenConfig returns the counter as it runs on the shop floor.
func DefaultKitchenConfig() KitchenConfig {
	return KitchenConfig{
		Doneness:     DefaultDonenessPolicy(),
		Instructions: InstructionDurations{
			Plating:          10 * time.Second,
			Garnishing:       10 * time.Second,
			Serving:          5 * time.Second,
			RefillingCutlery: 30 * time.Second,
			Washing:          60 * time.Second,
			Cleaning:         120 * time.Second,
		},
		InitialCutlery: 100,
		CutleryRefill:  50,
		WashBatch:      10,
		TicketInterval: 15 * time.Second,
		DefaultProduct: "P004",
		Products: map[string]Product{
			"P001": {Name: "Shoyu Ramen", Price: 800},
			"P002": {Name: "Miso Ramen", Price: 850},
			"P003": {Name: "Shio Ramen", Price: 800},
			"P004": {Name: "Tonkotsu Ramen", Price: 900},
			"P005": {Name: "Tsukemen", Price: 950},
			"P006": {Name: "Chashu Rice Bowl", Price: 400},
			"P007": {Name: "Gyoza (6 pcs)", Price: 350},
			"P008": {Name: "Beer", Price: 500},
		},
		Advisory: AdvisoryPolicy{
			WarningAt:       2,
			CriticalAt:      4,
			WashBacklogOver: 5,
			LowCutlery:      20,
		},
	}
}

// LoadKitchenConfig reads a YAML file and overlays it onto the defaults.
// Unknown keys are rejected so typos surface as errors.
func LoadKitchenConfig(path string) (KitchenConfig, error) {
	cfg := DefaultKitchenConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading kitchen config: %w", err)
	}
	if err := decodeKitchenConfig(data, &cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid kitchen config %s: %w", path, err)
	}
	return cfg, nil
}

func decodeKitchenConfig(data []byte, cfg *KitchenConfig) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		return fmt.Errorf("parsing kitchen config: %w", err)
	}
	return nil
}

// Validate checks stock, durations and ratios.
func (c KitchenConfig) Validate() error {
	if err := c.Doneness.Validate(); err != nil {
		return err
	}
	for _, i := range TimedInstructions() {
		d, _ := c.Instructions.For(i)
		if d <= 0 {
			return fmt.Errorf("instructions.%s must be positive, got %s", i, d)
		}
	}
	if c.InitialCutlery < 0 {
		return fmt.Errorf("initial_cutlery must be non-negative, got %d", c.InitialCutlery)
	}
	if c.CutleryRefill <= 0 {
		return fmt.Errorf("cutlery_refill must be positive, got %d", c.CutleryRefill)
	}
	if c.WashBatch <= 0 {
		return fmt.Errorf("wash_batch must be positive, got %d", c.WashBatch)
	}
	if c.TicketInterval <= 0 {
		return fmt.Errorf("ticket_interval must be positive, got %s", c.TicketInterval)
	}
	if len(c.Products) == 0 {
		return fmt.Errorf("products must not be empty")
	}
	if _, ok := c.Products[c.DefaultProduct]; !ok {
		return fmt.Errorf("default_product %q is not in products", c.DefaultProduct)
	}
	if c.Advisory.WarningAt < 1 || c.Advisory.CriticalAt < c.Advisory.WarningAt {
		return fmt.Errorf("advisory thresholds must satisfy 1 <= warning_at <= critical_at, got %d/%d",
			c.Advisory.WarningAt, c.Advisory.CriticalAt)
	}
	return nil
}
