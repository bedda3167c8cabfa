package integration_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gorilla/mux"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/KingInYellow18/medianest-sub018/internal/cache"
	"github.com/KingInYellow18/medianest-sub018/internal/clock"
	"github.com/KingInYellow18/medianest-sub018/internal/health"
	"github.com/KingInYellow18/medianest-sub018/internal/integration"
	"github.com/KingInYellow18/medianest-sub018/internal/ratelimit"
	"github.com/KingInYellow18/medianest-sub018/internal/retry"
)

var _ = Describe("Registry", func() {
	var (
		clk      *clock.Fake
		monitor  *health.Monitor
		registry *integration.Registry
	)

	addClient := func(service string) *integration.Client {
		limiter := ratelimit.New(clk, map[string]ratelimit.Quota{
			service: {Limit: 100, Window: time.Minute},
		})
		client := integration.NewClient(integration.Settings{
			Service:          service,
			FailureThreshold: 2,
			ResetTimeout:     30 * time.Second,
			MaxAttempts:      1,
			BaseDelay:        time.Millisecond,
		}, limiter, cache.New(clk), monitor, clk, testLogger)
		registry.Register(client)
		return client
	}

	BeforeEach(func() {
		clk = clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
		monitor = health.New(clk, 10, 0.1)
		registry = integration.NewRegistry(monitor)
	})

	Describe("Get", func() {
		It("should return registered clients", func() {
			addClient("media-server")

			client, ok := registry.Get("media-server")
			Expect(ok).To(BeTrue())
			Expect(client.Service()).To(Equal("media-server"))
		})

		It("should report unknown services", func() {
			_, ok := registry.Get("nope")
			Expect(ok).To(BeFalse())
		})
	})

	Describe("Services", func() {
		It("should list services sorted", func() {
			addClient("uptime-monitor")
			addClient("downloader")
			addClient("media-server")

			Expect(registry.Services()).To(Equal([]string{"downloader", "media-server", "uptime-monitor"}))
		})
	})

	Describe("ServiceHealth", func() {
		It("should combine health record and circuit state", func() {
			client := addClient("media-server")

			failing := integration.Operation(func(ctx context.Context) ([]byte, error) {
				return nil, retry.MarkTransient(errors.New("timeout"))
			})
			client.Call(context.Background(), "u", failing, integration.CallOptions{})
			client.Call(context.Background(), "u", failing, integration.CallOptions{})

			sh, ok := registry.ServiceHealth("media-server")
			Expect(ok).To(BeTrue())
			Expect(sh.Status).To(Equal(health.StatusDown))
			Expect(sh.UptimeRatio).To(BeZero())
			Expect(sh.CircuitState).To(Equal("OPEN"))
		})

		It("should report an unseen healthy service as up", func() {
			addClient("downloader")

			sh, ok := registry.ServiceHealth("downloader")
			Expect(ok).To(BeTrue())
			Expect(sh.Status).To(Equal(health.StatusUp))
			Expect(sh.CircuitState).To(Equal("CLOSED"))
		})
	})

	Describe("HTTP surface", func() {
		var router *mux.Router

		BeforeEach(func() {
			addClient("media-server")
			addClient("downloader")

			router = mux.NewRouter()
			router.HandleFunc("/status/services", registry.OverviewHandler()).Methods(http.MethodGet)
			router.HandleFunc("/status/services/{service}", registry.ServiceHandler()).Methods(http.MethodGet)
		})

		It("should serve the overview as JSON", func() {
			req := httptest.NewRequest(http.MethodGet, "/status/services", nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Header().Get("Content-Type")).To(Equal("application/json"))

			var overview []integration.ServiceHealth
			Expect(json.Unmarshal(rec.Body.Bytes(), &overview)).To(Succeed())
			Expect(overview).To(HaveLen(2))
			Expect(overview[0].Service).To(Equal("downloader"))
		})

		It("should serve a single service", func() {
			req := httptest.NewRequest(http.MethodGet, "/status/services/media-server", nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))

			var body map[string]any
			Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
			Expect(body["service"]).To(Equal("media-server"))
			Expect(body["circuit_state"]).To(Equal("CLOSED"))
			Expect(body["status"]).To(Equal("up"))
			Expect(body["trend"]).To(Equal("stable"))
		})

		It("should 404 for unknown services", func() {
			req := httptest.NewRequest(http.MethodGet, "/status/services/nope", nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})
	})
})
