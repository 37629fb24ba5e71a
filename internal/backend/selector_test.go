package backend

import (
	"sync"
	"testing"
)

func TestSelectMode_CapabilityTiers(t *testing.T) {
	tests := []struct {
		name string
		caps Capability
		want AnalysisMode
	}{
		{
			name: "no optional capability",
			caps: Capability{},
			want: ModeBaseOnly,
		},
		{
			name: "supplemental model only",
			caps: Capability{SupplementalModelAvailable: true},
			want: ModeBasePlusSupplemental,
		},
		{
			name: "unified backend only",
			caps: Capability{UnifiedBackendAvailable: true},
			want: ModeUnified,
		},
		{
			name: "everything available",
			caps: Capability{UnifiedBackendAvailable: true, SupplementalModelAvailable: true},
			want: ModeUnifiedPlusSupplemental,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			selector := NewSelector(func() Capability { return tt.caps }, "")
			if got := selector.CurrentMode(); got != tt.want {
				t.Errorf("Expected mode %s, got %s", tt.want, got)
			}
		})
	}
}

func TestSelector_ProbesOnce(t *testing.T) {
	probeCalls := 0
	selector := NewSelector(func() Capability {
		probeCalls++
		return Capability{UnifiedBackendAvailable: true}
	}, "")

	for i := 0; i < 5; i++ {
		selector.CurrentMode()
	}

	if probeCalls != 1 {
		t.Errorf("Expected exactly 1 probe, got %d", probeCalls)
	}
}

func TestSelector_RefreshReprobes(t *testing.T) {
	caps := Capability{}
	var mu sync.Mutex
	selector := NewSelector(func() Capability {
		mu.Lock()
		defer mu.Unlock()
		return caps
	}, "")

	if got := selector.CurrentMode(); got != ModeBaseOnly {
		t.Fatalf("Expected base_only before upgrade, got %s", got)
	}

	mu.Lock()
	caps = Capability{UnifiedBackendAvailable: true, SupplementalModelAvailable: true}
	mu.Unlock()

	// Cached decision survives until an explicit refresh.
	if got := selector.CurrentMode(); got != ModeBaseOnly {
		t.Errorf("Expected cached mode before Refresh, got %s", got)
	}
	if got := selector.Refresh(); got != ModeUnifiedPlusSupplemental {
		t.Errorf("Expected upgraded mode after Refresh, got %s", got)
	}
	if got := selector.CurrentMode(); got != ModeUnifiedPlusSupplemental {
		t.Errorf("Expected new mode cached, got %s", got)
	}
}

func TestSelector_ForcedModeHonored(t *testing.T) {
	selector := NewSelector(func() Capability {
		return Capability{UnifiedBackendAvailable: true, SupplementalModelAvailable: true}
	}, ModeBaseOnly)

	if got := selector.CurrentMode(); got != ModeBaseOnly {
		t.Errorf("Expected forced base_only, got %s", got)
	}
}

func TestSelector_ForcedModeClampedToCapability(t *testing.T) {
	selector := NewSelector(func() Capability { return Capability{} }, ModeUnifiedPlusSupplemental)

	// System only supports base_only; the forced mode cannot exceed it.
	if got := selector.CurrentMode(); got != ModeBaseOnly {
		t.Errorf("Expected forced mode clamped to base_only, got %s", got)
	}
}

func TestSelector_ConcurrentFirstUse(t *testing.T) {
	probeCalls := 0
	var probeMu sync.Mutex
	selector := NewSelector(func() Capability {
		probeMu.Lock()
		probeCalls++
		probeMu.Unlock()
		return Capability{SupplementalModelAvailable: true}
	}, "")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got := selector.CurrentMode(); got != ModeBasePlusSupplemental {
				t.Errorf("Expected base_plus_supplemental, got %s", got)
			}
		}()
	}
	wg.Wait()

	if probeCalls != 1 {
		t.Errorf("Expected 1 probe under concurrency, got %d", probeCalls)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		input string
		want  AnalysisMode
		ok    bool
	}{
		{"base_only", ModeBaseOnly, true},
		{"base_plus_supplemental", ModeBasePlusSupplemental, true},
		{"unified", ModeUnified, true},
		{"unified_plus_supplemental", ModeUnifiedPlusSupplemental, true},
		{"turbo", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseMode(tt.input)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseMode(%q) = (%s, %v), want (%s, %v)", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestRank_Ordering(t *testing.T) {
	if !(ModeBaseOnly.Rank() < ModeBasePlusSupplemental.Rank() &&
		ModeBasePlusSupplemental.Rank() < ModeUnified.Rank() &&
		ModeUnified.Rank() < ModeUnifiedPlusSupplemental.Rank()) {
		t.Error("Mode ranks out of order")
	}
	if AnalysisMode("bogus").Rank() != -1 {
		t.Error("Expected -1 rank for unknown mode")
	}
}
