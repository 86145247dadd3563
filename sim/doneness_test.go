package sim

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDonenessPolicy_BoilTimes(t *testing.T) {
	p := DefaultDonenessPolicy()
	tests := []struct {
		d    Doneness
		want time.Duration
	}{
		{DonenessHard, 80 * time.Second},
		{DonenessNormal, 90 * time.Second},
		{DonenessSoft, 100 * time.Second},
	}
	for _, tt := range tests {
		t.Run(string(tt.d), func(t *testing.T) {
			got, err := p.BoilTime(tt.d)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := p.BoilTime("crispy")
	assert.ErrorIs(t, err, ErrInvalidReference)
}

func TestDonenessPolicy_DrawBoundaries(t *testing.T) {
	p := DefaultDonenessPolicy()
	assert.Equal(t, DonenessHard, p.Draw(0))
	assert.Equal(t, DonenessHard, p.Draw(0.1999))
	assert.Equal(t, DonenessNormal, p.Draw(0.2))
	assert.Equal(t, DonenessNormal, p.Draw(0.7999))
	assert.Equal(t, DonenessSoft, p.Draw(0.8))
	assert.Equal(t, DonenessSoft, p.Draw(0.9999))
}

func TestDonenessPolicy_DrawConverges(t *testing.T) {
	// GIVEN 100,000 draws from the orders stream
	const n = 100000
	p := DefaultDonenessPolicy()
	rng := NewPartitionedRNG(NewSimulationKey(42)).ForSubsystem(SubsystemOrders)
	counts := map[Doneness]int{}
	for i := 0; i < n; i++ {
		counts[p.Draw(rng.Float64())]++
	}

	// THEN each share is within 0.01 of its ratio
	for d, want := range map[Doneness]float64{DonenessHard: 0.2, DonenessNormal: 0.6, DonenessSoft: 0.2} {
		got := float64(counts[d]) / n
		if math.Abs(got-want) > 0.01 {
			t.Errorf("%s share = %.4f, want %.2f±0.01", d, got, want)
		}
	}
}

func TestParseDoneness(t *testing.T) {
	for _, d := range Donenesses() {
		got, err := ParseDoneness(string(d))
		require.NoError(t, err)
		assert.Equal(t, d, got)
	}
	_, err := ParseDoneness("al dente")
	assert.Equal(t, ReasonBadDoneness, ReasonOf(err))
}

func TestDonenessPolicy_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p DonenessPolicy)
		wantErr bool
	}{
		{"default", func(p DonenessPolicy) {}, false},
		{"missing soft", func(p DonenessPolicy) { delete(p, DonenessSoft) }, true},
		{"zero boil", func(p DonenessPolicy) { p[DonenessHard] = DonenessSetting{Boil: 0, Ratio: 0.2} }, true},
		{"negative ratio", func(p DonenessPolicy) { p[DonenessHard] = DonenessSetting{Boil: time.Second, Ratio: -0.2} }, true},
		{"ratios off", func(p DonenessPolicy) { p[DonenessSoft] = DonenessSetting{Boil: time.Second, Ratio: 0.5} }, true},
		{"extra entry", func(p DonenessPolicy) { p["burnt"] = DonenessSetting{Boil: time.Second} }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultDonenessPolicy()
			tt.mutate(p)
			err := p.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
