package matching

import (
	"testing"
	"time"

	"souq/internal/types"
)

func TestDriverEligible(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	freshness := 10 * time.Second

	base := Driver{
		IsActive:     true,
		IsAvailable:  true,
		IsBusy:       false,
		LastOnlineAt: now.Add(-2 * time.Second),
		Location:     types.Point{Lat: 30, Lng: 30},
	}

	tests := []struct {
		name   string
		mutate func(*Driver)
		want   bool
	}{
		{"all conditions met", func(*Driver) {}, true},
		{"heartbeat exactly at window edge", func(d *Driver) { d.LastOnlineAt = now.Add(-freshness) }, true},
		{"not vetted", func(d *Driver) { d.IsActive = false }, false},
		{"opted out", func(d *Driver) { d.IsAvailable = false }, false},
		{"already serving an order", func(d *Driver) { d.IsBusy = true }, false},
		{"stale heartbeat", func(d *Driver) { d.LastOnlineAt = now.Add(-11 * time.Second) }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := base
			tt.mutate(&d)
			if got := d.Eligible(now, freshness); got != tt.want {
				t.Errorf("Eligible() = %v, want %v", got, tt.want)
			}
		})
	}
}
