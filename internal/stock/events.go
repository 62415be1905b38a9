package stock

import "context"

// Notifier receives position changes after a movement commits, typically to
// enqueue alert evaluation. Delivery is best-effort; the movement is already
// durable when it fires.
type Notifier interface {
	PositionChanged(ctx context.Context, pos Position) error
}
