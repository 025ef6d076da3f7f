package store

import "time"

// ExplainOptions configures the explain operation
type ExplainOptions struct {
	WithSamples int
	WithMetrics bool
	PK          string
}

// ExplainResult holds the results of an explain operation
type ExplainResult struct {
	Global struct {
		TotalKeys     int           `json:"total_keys"`
		ActiveKeys    int           `json:"active_keys"`
		Tombstones    int           `json:"tombstones"`
		TotalSizeMB   float64       `json:"total_size_mb"`
		LiveSizeMB    float64       `json:"live_size_mb"`
		IndexMemoryMB float64       `json:"index_memory_mb"`
		Uptime        time.Duration `json:"uptime"`
	} `json:"global"`

	Segments []Segment `json:"segments"`

	Partitions map[string]PKStats `json:"partitions"`

	Diagnostics struct {
		CompactionReady []string `json:"compaction_ready"`
		CRCErrors       int      `json:"crc_errors"`
		Samples         []Sample `json:"samples,omitempty"`
		Metrics         struct {
			AvgGetLatencyMs float64 `json:"avg_get_latency_ms,omitempty"`
			IORateMBs       float64 `json:"io_rate_mbs,omitempty"`
		} `json:"metrics,omitempty"`
	} `json:"diagnostics"`

	Warnings []string `json:"warnings,omitempty"`
}

type Segment struct {
	ID      string  `json:"id"`
	Keys    int     `json:"keys"`
	DeadPct float64 `json:"dead_pct"`
	SizeMB  float64 `json:"size_mb"`
}

type Sample struct {
	Key   string    `json:"key"`
	Value string    `json:"value_truncated"`
	Ts    time.Time `json:"timestamp"`
}

type SKRange struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
	Min   string `json:"min,omitempty"`
	Max   string `json:"max,omitempty"`
}

type PKStats struct {
	Keys        int       `json:"keys"`
	SKRanges    []SKRange `json:"sk_ranges"`
	Cardinality string    `json:"cardinality"`
}

