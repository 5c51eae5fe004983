package diskbase

import (
	"fmt"
	vm "github.com/VictoriaMetrics/metrics"
	"github.com/dustin/go-humanize"
	gometrics "github.com/rcrowley/go-metrics"
	"io"
	"strings"
	"time"
)

// cacheMetrics holds the counters of one cache. Every cache owns its own
// metric set, so several caches (tests, tools) never collide on names.
type cacheMetrics struct {
	set       *vm.Set
	hits      *vm.Counter
	misses    *vm.Counter
	evictions *vm.Counter
	bytesRead *vm.Counter

	registry  gometrics.Registry
	readBytes gometrics.Histogram
}

func newCacheMetrics(c *Cache) *cacheMetrics {
	set := vm.NewSet()
	m := &cacheMetrics{
		set:       set,
		hits:      set.NewCounter("propdb_diskbase_hits_total"),
		misses:    set.NewCounter("propdb_diskbase_misses_total"),
		evictions: set.NewCounter("propdb_diskbase_evictions_total"),
		bytesRead: set.NewCounter("propdb_diskbase_read_bytes_total"),
		registry:  gometrics.NewRegistry(),
		readBytes: gometrics.NewHistogram(gometrics.NewUniformSample(1028)),
	}

	set.NewGauge("propdb_diskbase_objects", func() float64 {
		return float64(c.entries.Size())
	})
	set.NewGauge(`propdb_diskbase_resident{ring="loaded"}`, func() float64 {
		return float64(c.loaded.len)
	})
	set.NewGauge(`propdb_diskbase_resident{ring="priority"}`, func() float64 {
		return float64(c.priority.len)
	})
	set.NewGauge(`propdb_diskbase_resident{ring="changed"}`, func() float64 {
		return float64(c.changed.len)
	})
	set.NewGauge("propdb_diskbase_read_bytes_mean", func() float64 {
		return m.readBytes.Mean()
	})

	if err := m.registry.Register("diskbase.fetch.bytes", m.readBytes); err != nil {
		plog.Warningf("failed to register fetch size histogram: %v", err)
	}
	return m
}

// observeRead records the number of bytes read by one fetch
func (m *cacheMetrics) observeRead(n int64) {
	m.readBytes.Update(n)
	m.bytesRead.Add(int(n))
}

// WritePrometheus writes the cache metrics in Prometheus text format
func (c *Cache) WritePrometheus(w io.Writer) {
	c.metrics.set.WritePrometheus(w)
}

// Registry returns the go-metrics registry holding the fetch size histogram
func (c *Cache) Registry() gometrics.Registry {
	return c.metrics.registry
}

// --------------------------------------------------------------------------
// Report
// --------------------------------------------------------------------------

// Info is a snapshot of the cache counters
type Info struct {
	Tracked   int
	Loaded    int
	Priority  int
	Changed   int
	Hits      uint64
	Misses    uint64
	Evictions uint64
	ReadBytes int64 // total bytes read from the backing file
}

// HitRatio returns hits / (hits + misses) in percent
func (i Info) HitRatio() float64 {
	total := i.Hits + i.Misses
	if total == 0 {
		return 0
	}
	return float64(i.Hits) * 100 / float64(total)
}

// Info returns the current counters
func (c *Cache) Info() Info {
	return Info{
		Tracked:   c.entries.Size(),
		Loaded:    c.loaded.len,
		Priority:  c.priority.len,
		Changed:   c.changed.len,
		Hits:      c.metrics.hits.Get(),
		Misses:    c.metrics.misses.Get(),
		Evictions: c.metrics.evictions.Get(),
		ReadBytes: int64(c.metrics.bytesRead.Get()),
	}
}

// Display renders the cache report: resident objects per ring, the hit
// ratio and the min/avg/max fetch rate over three nested windows.
func (c *Cache) Display() string {
	info := c.Info()
	now := c.now()
	snap := c.metrics.readBytes.Snapshot()

	var sb strings.Builder
	addSection := func(title string) {
		sb.WriteString(title + ":\n")
	}
	addField := func(name string, value any) {
		sb.WriteString(fmt.Sprintf("  %-22s: %v\n", name, value))
	}

	addSection("Property Cache")
	addField("Objects", info.Tracked)
	addField("Loaded", info.Loaded)
	addField("Priority", info.Priority)
	addField("Changed", info.Changed)
	addField("Hits", info.Hits)
	addField("Misses", info.Misses)
	addField("Hit Ratio", fmt.Sprintf("%.1f%%", info.HitRatio()))
	addField("Evictions", info.Evictions)
	addField("Bytes Read", humanize.Bytes(uint64(info.ReadBytes)))
	if snap.Count() > 0 {
		addField("Avg Fetch Size", humanize.Bytes(uint64(snap.Mean())))
		addField("P95 Fetch Size", humanize.Bytes(uint64(snap.Percentile(0.95))))
	}

	addSection(fmt.Sprintf("Fetches per %s", c.stats.Slot()))
	window := c.stats.Window()
	for _, span := range []time.Duration{window / 6, window / 2, window} {
		s := c.stats.Report(span, now)
		addField("Last "+span.String(), fmt.Sprintf("min %.0f, avg %.2f, max %.0f", s.Min, s.Mean, s.Max))
	}
	return sb.String()
}
