// Package ratelimit implements fixed-window admission control keyed by
// (subject, service). Each external service carries its own quota, so a
// strict per-user hourly budget on the download helper can coexist with
// a short, generous window on the media server.
//
// Usage:
//
//	limiter := ratelimit.New(clock.System(), map[string]ratelimit.Quota{
//	    "downloader":   {Limit: 5, Window: time.Hour},
//	    "media-server": {Limit: 100, Window: time.Minute},
//	})
//	d := limiter.Allow("user-42", "downloader")
//	if !d.Allowed {
//	    // Reject; d.ResetAt says when the window reopens.
//	}
package ratelimit
