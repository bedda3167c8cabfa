package healthcheck

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/KingInYellow18/medianest-sub018/internal/health"
)

// Probe periodically checks whether an external service is reachable by
// sending HTTP GET requests to its status URL, and records each outcome
// as a sample in the health monitor. The probe supplements call-derived
// samples so a service that receives no traffic still has a live health
// record.
func Probe(
	ctx context.Context,
	service string,
	statusURL string,
	interval time.Duration,
	monitor *health.Monitor,
	logger *slog.Logger,
) {
	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	healthy := true

	for {
		select {
		case <-ctx.Done():
			logger.Info("Health probe stopped",
				slog.String("service", service))
			return

		case <-ticker.C:
			req, err := http.NewRequestWithContext(
				ctx, http.MethodGet, statusURL, nil)
			if err != nil {
				continue
			}

			start := time.Now()
			res, err := client.Do(req)
			latency := time.Since(start)

			up := err == nil && res.StatusCode < 500
			if err == nil {
				res.Body.Close()
			}

			monitor.Record(service, up, latency)

			if up != healthy {
				healthy = up
				if up {
					logger.Info("Service is back up",
						slog.String("service", service))
				} else {
					logger.Warn("Service is down",
						slog.String("service", service))
				}
			}
		}
	}
}
