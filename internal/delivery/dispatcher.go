package delivery

import (
	"github.com/prabidush11/Web-Development/internal/logger"
	"github.com/prabidush11/Web-Development/internal/metrics"
	"github.com/prabidush11/Web-Development/internal/presence"
	"github.com/prabidush11/Web-Development/pkg/types"
)

// Outcome describes what happened to a live delivery attempt.
type Outcome string

const (
	// Delivered means the message was queued on the receiver's connection.
	Delivered Outcome = "delivered"
	// Offline means the receiver had no registered connection.
	Offline Outcome = "offline"
	// Failed means the push was rejected (closed or backed-up connection).
	Failed Outcome = "failed"
)

// Locator finds the registered live connection of a user.
type Locator interface {
	Lookup(userID string) (presence.Handle, bool)
}

// Dispatcher pushes persisted messages to the receiver's live connection.
// Delivery is best effort: nothing is retried and failures never reach the
// sender. A missed push is recovered by the receiver's next history fetch.
type Dispatcher struct {
	locator Locator
}

func NewDispatcher(locator Locator) *Dispatcher {
	return &Dispatcher{locator: locator}
}

// Dispatch must only be called after msg has been durably stored.
func (d *Dispatcher) Dispatch(msg types.Message) Outcome {
	outcome := d.dispatch(msg)
	metrics.DispatchOutcomes.WithLabelValues(string(outcome)).Inc()
	return outcome
}

func (d *Dispatcher) dispatch(msg types.Message) Outcome {
	h, ok := d.locator.Lookup(msg.ReceiverID)
	if !ok {
		logger.Tracef("[delivery] %s offline; message %s waits for history", msg.ReceiverID, msg.ID)
		return Offline
	}

	if err := h.Push(types.EventNewMessage, msg); err != nil {
		logger.Warnf("[delivery] push of message %s to %s (%s) failed: %v", msg.ID, msg.ReceiverID, h.ID(), err)
		return Failed
	}

	logger.Debugf("[delivery] message %s queued for %s (%s)", msg.ID, msg.ReceiverID, h.ID())
	return Delivered
}
