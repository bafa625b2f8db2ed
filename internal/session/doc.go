// Package session owns the bridge's single WhatsApp session.
//
// # Overview
//
// A Manager wraps a Provider (the network client) and is the only writer of
// the session State. Providers report what happens on the wire as Events
// through the emit callback handed to Initialize; the Manager consumes those
// events on one loop (Run), updates the State, fans them out to subscribers
// and performs recovery.
//
// # State Machine
//
//	uninitialized -> awaiting_login -> ready -> disconnected -> uninitialized
//	                                         \-> auth_failed  -/
//
// A stored session can go straight from uninitialized to ready. Transitions
// are driven only by provider events; the Manager never invents one.
//
// # Recovery
//
// On a disconnect the Manager destroys the provider and initializes it once.
// On an auth failure it destroys the provider, clears the persisted store and
// then initializes it. Recovery failures are logged and kept in
// State.LastError; the bridge stays up in a not-ready state.
//
// # Sending
//
// Send reads the State at call time and fails with ErrNotReady unless the
// session is ready. Recipients are normalized to the "@c.us" chat-id form.
// Provider failures are returned as *DeliveryError, which matches
// ErrDelivery with errors.Is.
//
// # Subscribing
//
//	events, id := mgr.Subscribe(ctx)
//	defer mgr.Unsubscribe(id)
//	for evt := range events {
//	    if evt.Kind == session.EventMessage { ... }
//	}
//
// Subscribers are independent. A subscriber whose buffer is full misses
// events rather than stalling the session loop.
package session
