package serial

import (
	"go.dedis.ch/ballot"
	"go.dedis.ch/ballot/core/ordering"
)

// observer forwards the events to a channel. An event is dropped when the
// channel is full so that a slow watcher never blocks the ordering.
//
// - implements core.Observer
type observer struct {
	ch chan ordering.Event
}

func (o observer) NotifyCallback(event interface{}) {
	select {
	case o.ch <- event.(ordering.Event):
	default:
		ballot.Logger.Warn().
			Uint64("index", event.(ordering.Event).Index).
			Msg("watcher is full, event dropped")
	}
}
