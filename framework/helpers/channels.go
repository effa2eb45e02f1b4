package helpers

import (
	"time"

	"github.com/h3probe/h3probe/framework/opt"
)

// NonBlockingSend attempts a channel send without blocking and reports
// whether the value was accepted.
func NonBlockingSend[V any](ch chan<- V, value V) bool {
	select {
	case ch <- value:
		return true
	default:
		return false
	}
}

// TryReceive receives from the channel with a timeout. The returned Maybe
// is empty if the timeout elapsed first.
func TryReceive[V any](ch <-chan V, timeout time.Duration) opt.Maybe[V] {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	select {
	case value := <-ch:
		return opt.Some(value)
	case <-deadline.C:
		return opt.None[V]()
	}
}

// RequireValue receives from the channel with a timeout, failing and
// stopping the test if nothing arrives in time.
func RequireValue[V any](t TestContext, ch <-chan V, timeout time.Duration) V {
	t.Helper()
	received := TryReceive(ch, timeout)
	if !received.IsDefined() {
		var empty V
		t.Errorf("timed out waiting for value of type %T", empty)
		t.FailNow()
	}
	return received.Value()
}
