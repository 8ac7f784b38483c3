package metrics

import (
	"time"

	"file-forge/internal/logging"
)

// StatsProvider reports current work-root usage.
type StatsProvider interface {
	GetStats() Stats
}

// Stats holds the current work-root statistics.
type Stats struct {
	Entries    int
	UsageBytes int64
}

// Collector periodically samples work-root usage into gauges.
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new work-root stats collector.
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the collection loop.
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the collection loop.
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	// Collect immediately on start
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	stats := c.statsProvider.GetStats()
	WorkRootEntries.Set(float64(stats.Entries))
	WorkRootUsageBytes.Set(float64(stats.UsageBytes))
	logging.Debug("Work root stats: %d entries, %d bytes", stats.Entries, stats.UsageBytes)
}
