// Package timer provides cancellable delayed callbacks for turn clocks and
// challenge expiry.
//
// Two forms are offered:
//
// Start schedules a callback to run once after a duration unless the given
// context is cancelled first. Cancellation before elapse means the callback
// never runs; a cancellation that races elapse still results in at most one
// invocation. Cancelling a context whose timer already fired is a harmless
// no-op, so callers may cancel tokens they no longer track.
//
// Service carries the keyed form: StartKeyed emits the key on an Elapsed
// channel instead of invoking a callback, for fire-and-forget notifications.
//
// Usage:
//
//	ctx, cancel := context.WithCancel(parent)
//	err := timer.Start(ctx, 30*time.Second, func() { expire(challenge) })
//	...
//	cancel() // challenge answered in time
package timer
