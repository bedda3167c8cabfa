package health_test

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/KingInYellow18/medianest-sub018/internal/clock"
	"github.com/KingInYellow18/medianest-sub018/internal/health"
)

func TestHealth(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Health Suite")
}

var _ = Describe("Monitor", func() {
	var (
		clk     *clock.Fake
		monitor *health.Monitor
	)

	record := func(service string, outcomes ...bool) {
		for _, success := range outcomes {
			monitor.Record(service, success, 100*time.Millisecond)
		}
	}

	BeforeEach(func() {
		clk = clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
		monitor = health.New(clk, 10, 0.1)
	})

	Describe("Summary", func() {
		It("should report a clean window for an unseen service", func() {
			s := monitor.Summary("media-server")
			Expect(s.Samples).To(BeZero())
			Expect(s.UptimeRatio).To(Equal(1.0))
			Expect(s.Status).To(Equal(health.StatusUp))
		})

		It("should compute the uptime ratio over the window", func() {
			record("media-server", true, true, true, true, true, true, true, true, false, false)

			s := monitor.Summary("media-server")
			Expect(s.Samples).To(Equal(10))
			Expect(s.UptimeRatio).To(Equal(0.8))
		})

		It("should compute average latency in milliseconds", func() {
			monitor.Record("media-server", true, 100*time.Millisecond)
			monitor.Record("media-server", true, 300*time.Millisecond)

			s := monitor.Summary("media-server")
			Expect(s.AvgLatencyMs).To(Equal(int64(200)))
		})

		It("should discard the oldest sample once the window is full", func() {
			record("media-server", false)
			for i := 0; i < 10; i++ {
				record("media-server", true)
			}

			s := monitor.Summary("media-server")
			Expect(s.Samples).To(Equal(10))
			Expect(s.UptimeRatio).To(Equal(1.0))
		})

		DescribeTable("status thresholds",
			func(successes, failures int, expected health.Status) {
				for i := 0; i < successes; i++ {
					record("svc", true)
				}
				for i := 0; i < failures; i++ {
					record("svc", false)
				}
				Expect(monitor.Summary("svc").Status).To(Equal(expected))
			},
			Entry("all successes is up", 10, 0, health.StatusUp),
			Entry("nine of ten is up", 9, 1, health.StatusUp),
			Entry("eight of ten is degraded", 8, 2, health.StatusDegraded),
			Entry("half is degraded", 5, 5, health.StatusDegraded),
			Entry("four of ten is down", 4, 6, health.StatusDown),
			Entry("all failures is down", 0, 10, health.StatusDown),
		)
	})

	Describe("Trend", func() {
		It("should be stable with too few samples", func() {
			record("media-server", true)
			Expect(monitor.Trend("media-server")).To(Equal(health.TrendStable))
		})

		It("should degrade when the newer half drops past the delta", func() {
			record("media-server", true, true, true, true, true)
			record("media-server", false, false, true, true, true)

			Expect(monitor.Trend("media-server")).To(Equal(health.TrendDegrading))
		})

		It("should improve when the newer half recovers past the delta", func() {
			record("media-server", false, false, true, true, true)
			record("media-server", true, true, true, true, true)

			Expect(monitor.Trend("media-server")).To(Equal(health.TrendImproving))
		})

		It("should stay stable inside the delta", func() {
			record("media-server", true, true, true, true, true)
			record("media-server", true, true, true, true, true)

			Expect(monitor.Trend("media-server")).To(Equal(health.TrendStable))
		})
	})

	Describe("Services", func() {
		It("should list every service seen", func() {
			record("media-server", true)
			record("downloader", false)

			Expect(monitor.Services()).To(ConsistOf("media-server", "downloader"))
		})
	})

	Describe("rendering", func() {
		It("should render trend strings", func() {
			Expect(health.TrendStable.String()).To(Equal("stable"))
			Expect(health.TrendImproving.String()).To(Equal("improving"))
			Expect(health.TrendDegrading.String()).To(Equal("degrading"))
		})

		It("should render status strings", func() {
			Expect(health.StatusUp.String()).To(Equal("up"))
			Expect(health.StatusDegraded.String()).To(Equal("degraded"))
			Expect(health.StatusDown.String()).To(Equal("down"))
		})
	})
})
