package sim

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Doneness is the customer's noodle firmness preference; it picks the boil time.
type Doneness string

const (
	DonenessHard   Doneness = "hard"
	DonenessNormal Doneness = "normal"
	DonenessSoft   Doneness = "soft"
)

// donenessOrder fixes the walk order of the cumulative draw.
var donenessOrder = []Doneness{DonenessHard, DonenessNormal, DonenessSoft}

// Donenesses returns all doneness values in draw order.
func Donenesses() []Doneness {
	return append([]Doneness(nil), donenessOrder...)
}

// ParseDoneness accepts "hard", "normal" or "soft".
func ParseDoneness(s string) (Doneness, error) {
	d := Doneness(s)
	switch d {
	case DonenessHard, DonenessNormal, DonenessSoft:
		return d, nil
	}
	return "", invalidRef(ReasonBadDoneness, "%q", s)
}

// DonenessSetting is the boil time and population share of one doneness.
type DonenessSetting struct {
	Boil  time.Duration `yaml:"boil"`
	Ratio float64       `yaml:"ratio"`
}

// DonenessPolicy maps each doneness to its boil time and share of orders.
type DonenessPolicy map[Doneness]DonenessSetting

// DefaultDonenessPolicy is 80/90/100 seconds with a 20/60/20 split.
func DefaultDonenessPolicy() DonenessPolicy {
	return DonenessPolicy{
		DonenessHard:   {Boil: 80 * time.Second, Ratio: 0.2},
		DonenessNormal: {Boil: 90 * time.Second, Ratio: 0.6},
		DonenessSoft:   {Boil: 100 * time.Second, Ratio: 0.2},
	}
}

// UnmarshalYAML overlays each listed doneness onto the entry already in the
// policy, so a file can change one field of one doneness and keep the rest.
// Unknown donenesses and fields are rejected.
func (p *DonenessPolicy) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: doneness must be a mapping", value.Line)
	}
	merged := make(DonenessPolicy, len(*p))
	for d, s := range *p {
		merged[d] = s
	}
	for i := 0; i+1 < len(value.Content); i += 2 {
		key, body := value.Content[i], value.Content[i+1]
		d, err := ParseDoneness(key.Value)
		if err != nil {
			return fmt.Errorf("line %d: unknown doneness %q", key.Line, key.Value)
		}
		if body.Kind != yaml.MappingNode {
			return fmt.Errorf("line %d: doneness %q must be a mapping", body.Line, key.Value)
		}
		for j := 0; j+1 < len(body.Content); j += 2 {
			if f := body.Content[j]; f.Value != "boil" && f.Value != "ratio" {
				return fmt.Errorf("line %d: field %s not found in doneness %q", f.Line, f.Value, key.Value)
			}
		}
		s := merged[d]
		if err := body.Decode(&s); err != nil {
			return err
		}
		merged[d] = s
	}
	*p = merged
	return nil
}

// BoilTime returns the boil duration for d.
func (p DonenessPolicy) BoilTime(d Doneness) (time.Duration, error) {
	s, ok := p[d]
	if !ok {
		return 0, invalidRef(ReasonBadDoneness, "%q", d)
	}
	return s.Boil, nil
}

// Draw picks a doneness from a single uniform sample u in [0,1) by walking
// the cumulative ratios hard, normal, soft. Falls back to normal if the
// ratios leave a gap above u.
func (p DonenessPolicy) Draw(u float64) Doneness {
	cumulative := 0.0
	for _, d := range donenessOrder {
		cumulative += p[d].Ratio
		if u < cumulative {
			return d
		}
	}
	return DonenessNormal
}

// Validate checks that every doneness is present with a positive boil time
// and that the ratios form a distribution.
func (p DonenessPolicy) Validate() error {
	total := 0.0
	for _, d := range donenessOrder {
		s, ok := p[d]
		if !ok {
			return fmt.Errorf("doneness %q missing", d)
		}
		if s.Boil <= 0 {
			return fmt.Errorf("doneness %q: boil time must be positive, got %s", d, s.Boil)
		}
		if s.Ratio < 0 {
			return fmt.Errorf("doneness %q: ratio must be non-negative, got %f", d, s.Ratio)
		}
		total += s.Ratio
	}
	if len(p) != len(donenessOrder) {
		return fmt.Errorf("doneness policy has %d entries, want %d", len(p), len(donenessOrder))
	}
	if total < 1-1e-9 || total > 1+1e-9 {
		return fmt.Errorf("doneness ratios must sum to 1, got %f", total)
	}
	return nil
}
