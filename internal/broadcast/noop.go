package broadcast

import "context"

type Noop struct{}

func (Noop) Broadcast(context.Context, Event) error {
	return nil
}

var _ Broadcaster = (*Noop)(nil)
