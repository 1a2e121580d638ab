package connector

import (
	"context"
	"fmt"
	"time"
)

// retryConnect calls connectFn until it succeeds, the attempts run out or
// ctx is done. The delay starts at BaseDelay and grows by Backoff up to
// MaxDelay.
func retryConnect(ctx context.Context, opts RetryConfig, connectFn func(context.Context) (Connection, error)) (Connection, error) {
	delay := opts.BaseDelay
	if delay <= 0 {
		delay = time.Second
	}
	backoff := opts.Backoff
	if backoff < 1 {
		backoff = 2
	}
	attempts := opts.MaxRetries + 1

	var err error
	for i := 0; i < attempts; i++ {
		var conn Connection
		conn, err = connectFn(ctx)
		if err == nil {
			return conn, nil
		}
		if i == attempts-1 {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("connect canceled after %d attempts: %w", i+1, ctx.Err())
		case <-timer.C:
		}
		delay = time.Duration(float64(delay) * backoff)
		if opts.MaxDelay > 0 && delay > opts.MaxDelay {
			delay = opts.MaxDelay
		}
	}
	return nil, fmt.Errorf("failed to connect after %d attempts: %w", attempts, err)
}
