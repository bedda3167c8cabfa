package ratelimit_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/KingInYellow18/medianest-sub018/internal/clock"
	"github.com/KingInYellow18/medianest-sub018/internal/ratelimit"
)

func TestRateLimit(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "RateLimit Suite")
}

var _ = Describe("Limiter", func() {
	var (
		clk     *clock.Fake
		limiter *ratelimit.Limiter
	)

	BeforeEach(func() {
		clk = clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
		limiter = ratelimit.New(clk, map[string]ratelimit.Quota{
			"downloader":   {Limit: 3, Window: time.Hour},
			"media-server": {Limit: 100, Window: time.Minute},
		})
	})

	Describe("Allow", func() {
		It("should admit exactly the limit within one window", func() {
			for i := 0; i < 3; i++ {
				d := limiter.Allow("user-1", "downloader")
				Expect(d.Allowed).To(BeTrue())
				Expect(d.Remaining).To(Equal(2 - i))
			}

			d := limiter.Allow("user-1", "downloader")
			Expect(d.Allowed).To(BeFalse())
			Expect(d.Remaining).To(BeZero())
		})

		It("should report the window reset time on rejection", func() {
			windowStart := clk.Now()
			for i := 0; i < 3; i++ {
				limiter.Allow("user-1", "downloader")
			}

			d := limiter.Allow("user-1", "downloader")
			Expect(d.Allowed).To(BeFalse())
			Expect(d.ResetAt).To(Equal(windowStart.Add(time.Hour)))
		})

		It("should admit again after the window elapses", func() {
			for i := 0; i < 4; i++ {
				limiter.Allow("user-1", "downloader")
			}

			clk.Advance(time.Hour)

			d := limiter.Allow("user-1", "downloader")
			Expect(d.Allowed).To(BeTrue())
			Expect(d.Remaining).To(Equal(2))
		})

		It("should not count rejected requests against the fresh window", func() {
			for i := 0; i < 10; i++ {
				limiter.Allow("user-1", "downloader")
			}

			clk.Advance(time.Hour)

			d := limiter.Allow("user-1", "downloader")
			Expect(d.Remaining).To(Equal(2))
		})

		It("should keep subjects independent", func() {
			for i := 0; i < 3; i++ {
				limiter.Allow("user-1", "downloader")
			}

			d := limiter.Allow("user-2", "downloader")
			Expect(d.Allowed).To(BeTrue())
		})

		It("should keep services independent", func() {
			for i := 0; i < 3; i++ {
				limiter.Allow("user-1", "downloader")
			}

			d := limiter.Allow("user-1", "media-server")
			Expect(d.Allowed).To(BeTrue())
			Expect(d.Remaining).To(Equal(99))
		})

		It("should admit services with no configured quota", func() {
			d := limiter.Allow("user-1", "unknown-service")
			Expect(d.Allowed).To(BeTrue())
		})

		It("should never over-admit under concurrent requests", func() {
			var admitted atomic.Int64
			var wg sync.WaitGroup

			for i := 0; i < 50; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if limiter.Allow("user-1", "downloader").Allowed {
						admitted.Add(1)
					}
				}()
			}
			wg.Wait()

			Expect(admitted.Load()).To(Equal(int64(3)))
		})
	})

	Describe("Quota", func() {
		It("should return the configured quota", func() {
			q, ok := limiter.Quota("downloader")
			Expect(ok).To(BeTrue())
			Expect(q.Limit).To(Equal(3))
			Expect(q.Window).To(Equal(time.Hour))
		})

		It("should report missing quotas", func() {
			_, ok := limiter.Quota("unknown-service")
			Expect(ok).To(BeFalse())
		})
	})
})
