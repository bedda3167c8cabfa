package integration_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/KingInYellow18/medianest-sub018/internal/integration"
	"github.com/KingInYellow18/medianest-sub018/internal/retry"
)

var _ = Describe("HTTPTransport", func() {
	It("should return the body of a 2xx response", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"ok":true}`))
		}))
		defer server.Close()

		transport := integration.NewHTTPTransport("media-server", time.Second)
		body, err := transport.Get(server.URL)(context.Background())

		Expect(err).NotTo(HaveOccurred())
		Expect(body).To(Equal([]byte(`{"ok":true}`)))
	})

	It("should classify 5xx responses as transient", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		transport := integration.NewHTTPTransport("media-server", time.Second)
		_, err := transport.Get(server.URL)(context.Background())

		Expect(retry.IsTransient(err)).To(BeTrue())

		var upstream *integration.UpstreamError
		Expect(errors.As(err, &upstream)).To(BeTrue())
		Expect(upstream.StatusCode).To(Equal(http.StatusBadGateway))
	})

	It("should classify 4xx responses as fatal", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		transport := integration.NewHTTPTransport("media-server", time.Second)
		_, err := transport.Get(server.URL)(context.Background())

		Expect(err).To(HaveOccurred())
		Expect(retry.IsTransient(err)).To(BeFalse())
	})

	It("should classify connection failures as transient", func() {
		transport := integration.NewHTTPTransport("media-server", time.Second)
		_, err := transport.Get("http://127.0.0.1:1")(context.Background())

		Expect(retry.IsTransient(err)).To(BeTrue())
	})

	It("should enforce the per-attempt timeout as a transient failure", func() {
		started := make(chan struct{}, 2)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started <- struct{}{}
			<-r.Context().Done()
		}))
		defer server.Close()

		transport := integration.NewHTTPTransport("media-server", 50*time.Millisecond)
		_, err := transport.Get(server.URL)(context.Background())

		Expect(err).To(HaveOccurred())
		Expect(retry.IsTransient(err)).To(BeTrue())
		Eventually(started).Should(Receive())
	})

	It("should propagate caller cancellation instead of retrying it", func() {
		var hits atomic.Int64
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			<-r.Context().Done()
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(50 * time.Millisecond)
			cancel()
		}()

		transport := integration.NewHTTPTransport("media-server", time.Minute)
		_, err := transport.Get(server.URL)(ctx)

		Expect(err).To(MatchError(context.Canceled))
		Expect(retry.IsTransient(err)).To(BeFalse())
	})
})
