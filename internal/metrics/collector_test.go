package metrics

import (
	"sync"
	"testing"
	"time"
)

type mockStatsProvider struct {
	mu    sync.Mutex
	stats Stats
	calls int
}

func (m *mockStatsProvider) GetStats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.stats
}

func (m *mockStatsProvider) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func TestCollectorCollectsImmediately(t *testing.T) {
	provider := &mockStatsProvider{stats: Stats{Entries: 3, UsageBytes: 4096}}
	collector := NewCollector(provider, time.Hour)

	collector.Start()
	defer collector.Stop()

	deadline := time.After(2 * time.Second)
	for provider.callCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("Collector did not collect stats within 2s of Start")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestCollectorStops(t *testing.T) {
	provider := &mockStatsProvider{}
	collector := NewCollector(provider, 10*time.Millisecond)

	collector.Start()
	time.Sleep(50 * time.Millisecond)
	collector.Stop()

	countAfterStop := provider.callCount()
	time.Sleep(50 * time.Millisecond)

	if got := provider.callCount(); got != countAfterStop {
		t.Errorf("Collector kept collecting after Stop: %d -> %d", countAfterStop, got)
	}
}

func TestCollectorPeriodicCollection(t *testing.T) {
	provider := &mockStatsProvider{stats: Stats{Entries: 1, UsageBytes: 100}}
	collector := NewCollector(provider, 10*time.Millisecond)

	collector.Start()
	defer collector.Stop()

	deadline := time.After(2 * time.Second)
	for provider.callCount() < 3 {
		select {
		case <-deadline:
			t.Fatalf("Expected at least 3 collections, got %d", provider.callCount())
		case <-time.After(10 * time.Millisecond):
		}
	}
}
