package health

import (
	"sync"
	"time"

	"github.com/KingInYellow18/medianest-sub018/internal/clock"
)

type Trend int

const (
	TrendStable Trend = iota
	TrendImproving
	TrendDegrading
)

type Status int

const (
	StatusUp Status = iota
	StatusDegraded
	StatusDown
)

// Sample is one observed call outcome for a service.
type Sample struct {
	Timestamp time.Time
	Success   bool
	Latency   time.Duration
}

// Summary holds the derived metrics for one service window.
type Summary struct {
	Service      string  `json:"service"`
	Samples      int     `json:"samples"`
	UptimeRatio  float64 `json:"uptime_ratio"`
	AvgLatencyMs int64   `json:"avg_latency_ms"`
	Trend        Trend   `json:"trend"`
	Status       Status  `json:"status"`
}

type record struct {
	mutex   sync.Mutex
	samples []Sample
}

// Monitor keeps a bounded window of recent samples per service and
// derives uptime ratio, average latency and trend from it.
type Monitor struct {
	mutex      sync.RWMutex
	clock      clock.Clock
	windowSize int
	trendDelta float64
	records    map[string]*record
}

const (
	degradedBelow = 0.9
	downBelow     = 0.5
)

func New(clk clock.Clock, windowSize int, trendDelta float64) *Monitor {
	return &Monitor{
		clock:      clk,
		windowSize: windowSize,
		trendDelta: trendDelta,
		records:    make(map[string]*record),
	}
}

// Record appends one sample to the service's window, discarding the
// oldest sample once the window is full.
func (m *Monitor) Record(service string, success bool, latency time.Duration) {
	r := m.getRecord(service)

	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.samples = append(r.samples, Sample{
		Timestamp: m.clock.Now(),
		Success:   success,
		Latency:   latency,
	})

	if len(r.samples) > m.windowSize {
		r.samples = r.samples[1:]
	}
}

// Summary derives the current metrics for one service. A service with no
// samples yet reports StatusUp with a zero window.
func (m *Monitor) Summary(service string) Summary {
	r := m.getRecord(service)

	r.mutex.Lock()
	defer r.mutex.Unlock()

	s := Summary{Service: service, Samples: len(r.samples)}
	if len(r.samples) == 0 {
		s.UptimeRatio = 1
		return s
	}

	var successes int
	var totalLatency time.Duration
	for _, sample := range r.samples {
		if sample.Success {
			successes++
		}
		totalLatency += sample.Latency
	}

	s.UptimeRatio = float64(successes) / float64(len(r.samples))
	s.AvgLatencyMs = (totalLatency / time.Duration(len(r.samples))).Milliseconds()
	s.Trend = trend(r.samples, m.trendDelta)
	s.Status = status(s.UptimeRatio)

	return s
}

// Trend compares the newer half of the window against the older half.
func (m *Monitor) Trend(service string) Trend {
	r := m.getRecord(service)

	r.mutex.Lock()
	defer r.mutex.Unlock()

	return trend(r.samples, m.trendDelta)
}

// Services returns the identities seen so far.
func (m *Monitor) Services() []string {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	services := make([]string, 0, len(m.records))
	for service := range m.records {
		services = append(services, service)
	}
	return services
}

func trend(samples []Sample, delta float64) Trend {
	if len(samples) < 2 {
		return TrendStable
	}

	mid := len(samples) / 2
	older := uptimeRatio(samples[:mid])
	newer := uptimeRatio(samples[mid:])

	switch {
	case newer-older > delta:
		return TrendImproving
	case older-newer > delta:
		return TrendDegrading
	default:
		return TrendStable
	}
}

func uptimeRatio(samples []Sample) float64 {
	if len(samples) == 0 {
		return 1
	}

	var successes int
	for _, s := range samples {
		if s.Success {
			successes++
		}
	}
	return float64(successes) / float64(len(samples))
}

func status(ratio float64) Status {
	switch {
	case ratio < downBelow:
		return StatusDown
	case ratio < degradedBelow:
		return StatusDegraded
	default:
		return StatusUp
	}
}

func (m *Monitor) getRecord(service string) *record {
	m.mutex.RLock()
	r, exists := m.records[service]
	m.mutex.RUnlock()

	if exists {
		return r
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	// Double-check: another goroutine may have created it
	if r, exists = m.records[service]; exists {
		return r
	}

	r = &record{}
	m.records[service] = r
	return r
}

func (t Trend) String() string {
	switch t {
	case TrendImproving:
		return "improving"
	case TrendDegrading:
		return "degrading"
	default:
		return "stable"
	}
}

func (t Trend) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

func (t *Trend) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"improving"`:
		*t = TrendImproving
	case `"degrading"`:
		*t = TrendDegrading
	default:
		*t = TrendStable
	}
	return nil
}

func (s Status) String() string {
	switch s {
	case StatusDegraded:
		return "degraded"
	case StatusDown:
		return "down"
	default:
		return "up"
	}
}

func (s Status) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

func (s *Status) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"degraded"`:
		*s = StatusDegraded
	case `"down"`:
		*s = StatusDown
	default:
		*s = StatusUp
	}
	return nil
}
