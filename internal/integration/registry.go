package integration

import (
	"sort"
	"sync"

	"github.com/KingInYellow18/medianest-sub018/internal/health"
)

// ServiceHealth is the status view of one service, consumed by the
// admin dashboard.
type ServiceHealth struct {
	Service      string        `json:"service"`
	Status       health.Status `json:"status"`
	UptimeRatio  float64       `json:"uptime_ratio"`
	AvgLatencyMs int64         `json:"avg_latency_ms"`
	Trend        health.Trend  `json:"trend"`
	CircuitState string        `json:"circuit_state"`
}

// Registry holds the integration client for each external service.
type Registry struct {
	mutex   sync.RWMutex
	clients map[string]*Client
	monitor *health.Monitor
}

func NewRegistry(monitor *health.Monitor) *Registry {
	return &Registry{
		clients: make(map[string]*Client),
		monitor: monitor,
	}
}

func (r *Registry) Register(client *Client) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.clients[client.Service()] = client
}

func (r *Registry) Get(service string) (*Client, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	client, ok := r.clients[service]
	return client, ok
}

func (r *Registry) Services() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	services := make([]string, 0, len(r.clients))
	for service := range r.clients {
		services = append(services, service)
	}
	sort.Strings(services)
	return services
}

// ServiceHealth combines the rolling health record with the current
// circuit state for one service.
func (r *Registry) ServiceHealth(service string) (ServiceHealth, bool) {
	client, ok := r.Get(service)
	if !ok {
		return ServiceHealth{}, false
	}

	summary := r.monitor.Summary(service)
	return ServiceHealth{
		Service:      service,
		Status:       summary.Status,
		UptimeRatio:  summary.UptimeRatio,
		AvgLatencyMs: summary.AvgLatencyMs,
		Trend:        summary.Trend,
		CircuitState: client.CircuitState().String(),
	}, true
}

// Overview reports every registered service, sorted by identity.
func (r *Registry) Overview() []ServiceHealth {
	services := r.Services()

	overview := make([]ServiceHealth, 0, len(services))
	for _, service := range services {
		if sh, ok := r.ServiceHealth(service); ok {
			overview = append(overview, sh)
		}
	}
	return overview
}
