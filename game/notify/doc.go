// Package notify provides the batched outbound-notification queue that
// decouples lobby event producers from the transport.
//
// Producers call Enqueue with {receivers, method, payload} items; a
// background loop wakes every Delay (default 500ms), drains everything
// queued so far and hands the batch to a flush callback in one call. Rapid
// bursts of connects and disconnects therefore coalesce into fewer wire
// round-trips without the individual items being merged.
//
// Lifecycle:
//
// The flush callback is injected at construction and the loop runs under a
// context owned by the caller (main, in practice). Start fails with
// ErrAlreadyRunning when the loop is already live; cancelling the context
// stops it.
//
// Usage:
//
//	queue := notify.NewQueue(0, func(batch []notify.Item) { hub.Flush(batch) })
//	if err := queue.Start(ctx); err != nil { ... }
//	queue.Enqueue(notify.Item{Receivers: names, Method: "UpdateClientList", Payload: p})
package notify
