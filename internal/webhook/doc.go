// Package webhook handles inbound events from external services.
//
// Flow: HTTP request -> signature verification -> in-process dispatch.
// The verifier computes HMAC-SHA256 over the raw request body with the
// per-source secret and compares it to the X-Signature header in
// constant time. Accepted events are published onto a buffered channel
// and fanned out to subscribed consumers by a dedicated goroutine; a
// rejected event is dropped and logged, never retried.
//
// Usage:
//
//	dispatcher := webhook.NewDispatcher(256, logger)
//	dispatcher.Start(ctx)
//	dispatcher.Subscribe("media-server", func(e webhook.Event) {
//	    // React to the event...
//	})
//
//	verifier := webhook.NewVerifier(map[string]string{"media-server": secret})
//	handler := webhook.NewHandler(verifier, dispatcher, clock.System(), logger)
package webhook
