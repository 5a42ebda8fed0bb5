package channel

import (
	"context"
	"errors"
	"fmt"
)

// Tee fans a message out to every channel. All channels are attempted; the
// joined error reports which ones failed.
func Tee(channels ...Channel) Channel {
	targets := make([]Channel, 0, len(channels))
	for _, ch := range channels {
		if ch != nil {
			targets = append(targets, ch)
		}
	}
	return Func(func(ctx context.Context, event string, payload map[string]any) error {
		var errs []error
		for i, ch := range targets {
			if err := ch.Send(ctx, event, payload); err != nil {
				errs = append(errs, fmt.Errorf("channel: tee target %d: %w", i, err))
			}
		}
		return errors.Join(errs...)
	})
}
