// Package clock provides an injectable time source. Production code uses
// clock.System(); tests use clock.NewFake() and advance it manually to
// exercise TTL expiry, rate-limit windows and circuit reset timeouts
// without sleeping.
package clock
