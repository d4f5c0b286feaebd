package speech

import "context"

// withContextCancelHook runs onContextDone if ctx is cancelled before the
// returned channel is closed. Callers close the channel to disarm the hook.
func withContextCancelHook(ctx context.Context, onContextDone func()) chan struct{} {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			onContextDone()
		case <-done:
		}
	}()
	return done
}
