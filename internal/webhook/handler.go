package webhook

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/KingInYellow18/medianest-sub018/internal/clock"
	"github.com/KingInYellow18/medianest-sub018/internal/ratelimit"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// Handler accepts POST /webhooks/{source}, verifies the signature over
// the raw body and publishes the event to the dispatcher. When a
// limiter is supplied, posts are rate limited per sender IP under the
// source service's quota before any body handling. A nil limiter
// disables inbound limiting.
type Handler struct {
	verifier   *Verifier
	dispatcher *Dispatcher
	limiter    *ratelimit.Limiter
	clock      clock.Clock
	logger     *slog.Logger
}

func NewHandler(verifier *Verifier, dispatcher *Dispatcher, limiter *ratelimit.Limiter, clk clock.Clock, logger *slog.Logger) *Handler {
	return &Handler{
		verifier:   verifier,
		dispatcher: dispatcher,
		limiter:    limiter,
		clock:      clk,
		logger:     logger,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	source := mux.Vars(r)["source"]

	if h.limiter != nil {
		decision := h.limiter.Allow(clientIP(r), source)
		if quota, ok := h.limiter.Quota(source); ok {
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(quota.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))
		}
		if !decision.Allowed {
			h.logger.Warn("Rate limited webhook",
				slog.String("source", source),
				slog.String("remote", r.RemoteAddr))
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
	}

	// The raw, unparsed body is what the signature covers. Read it in
	// full before any JSON parsing.
	rawBody, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			http.Error(w, "payload too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "unreadable body", http.StatusBadRequest)
		return
	}

	signature := r.Header.Get(SignatureHeader)
	if err := h.verifier.Verify(source, rawBody, signature); err != nil {
		h.logger.Warn("Rejected webhook",
			slog.String("source", source),
			slog.String("reason", err.Error()),
			slog.String("remote", r.RemoteAddr))
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	if !json.Valid(rawBody) {
		http.Error(w, "malformed payload", http.StatusBadRequest)
		return
	}

	event := Event{
		ID:         uuid.NewString(),
		Source:     source,
		Payload:    rawBody,
		ReceivedAt: h.clock.Now(),
	}

	if !h.dispatcher.Publish(event) {
		h.logger.Error("Webhook dispatch buffer full, dropping event",
			slog.String("source", source),
			slog.String("event_id", event.ID))
		http.Error(w, "dispatch queue full", http.StatusServiceUnavailable)
		return
	}

	h.logger.Info("Accepted webhook",
		slog.String("source", source),
		slog.String("event_id", event.ID),
		slog.Int("bytes", len(rawBody)))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":   "accepted",
		"event_id": event.ID,
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
