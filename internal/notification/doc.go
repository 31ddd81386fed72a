// Package notification routes test lifecycle events to listeners.
//
// A Bus is scoped to one run. Listeners are added with AddListener, or with
// AddFirstListener when they must observe events ahead of everyone else (the
// run's Result listener is registered this way).
//
// # Thread Safety
//
// Fire* methods may be called from many goroutines at once. A listener that
// does not implement ThreadSafe (or returns false from it) is wrapped in a
// per-listener mutex when it is added, so it is never entered concurrently.
// Distinct listeners may still be notified in parallel. Wrapped listeners must
// not fire events on the bus from inside a callback.
//
// # Failure Isolation
//
// A listener callback that returns an error or panics does not stop delivery
// to the others. Its failure is reported once, as a TestFailure against
// runner.TestMechanism, to the listeners that handled the original event.
//
// Example:
//
//	bus := notification.NewBus(logger)
//	bus.AddFirstListener(result.Listener())
//	bus.AddListener(progress)
//
//	if err := bus.FireTestStarted(desc); err != nil {
//	    return err // stop requested
//	}
package notification
