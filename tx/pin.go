package tx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cs4432/simpledb/buffer"
)

// MaxPinWait is the longest a transaction waits for a buffer to become available.
const MaxPinWait = 5 * time.Second

// ErrPinTimeout is returned when no buffer became available within MaxPinWait
// or before the context deadline.
// It wraps buffer.ErrInsufficientFrames.
var ErrPinTimeout = errors.New("tx: timed out waiting for a buffer")

// retryPin calls pin until it succeeds or fails with an error other than
// buffer.ErrInsufficientFrames.
// Between attempts it backs off exponentially, from 1ms up to 100ms.
func retryPin(ctx context.Context, pin func() (*buffer.Buffer, error)) (*buffer.Buffer, error) {
	const maxDelay = 100 * time.Millisecond

	ctx, cancel := context.WithTimeout(ctx, MaxPinWait)
	defer cancel()

	var delay time.Duration
	for {
		buf, err := pin()
		if !errors.Is(err, buffer.ErrInsufficientFrames) {
			return buf, err
		}

		delay *= 2
		if delay > maxDelay {
			delay = maxDelay
		}
		if delay == 0 {
			delay = 1 * time.Millisecond
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil, fmt.Errorf("pin: %w", ctx.Err())
			}

			return nil, fmt.Errorf("%w: %w", ErrPinTimeout, err)
		case <-timer.C:
		}
	}
}
