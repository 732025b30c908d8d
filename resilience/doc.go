// Package resilience bounds check execution.
//
// Two primitives are provided:
//
//   - Slot: a counting run slot. With the default capacity of one it
//     serializes every check execution in the process, so a sweep and an
//     on-demand run queue behind each other instead of interleaving.
//
//   - Timeout: runs an operation under a deadline and reports ErrTimeout
//     when the deadline passes first.
//
// # Usage
//
//	slot := resilience.NewSlot(resilience.SlotConfig{})
//	err := slot.Execute(ctx, func(ctx context.Context) error {
//	    return resilience.Within(ctx, 30*time.Second, runCheck)
//	})
//
// Neither primitive retries. A failed or timed-out operation is reported
// once to the caller.
package resilience
