package edustack

import "time"

//go:generate mockgen -destination ./internal/mocks/mock_link_layer_handler.go -package mocks github.com/davidkroell/edustack LinkLayerHandler

// LinkLayerHandler consumes the frames queued for one protocol. Errors are
// counted and logged by the dispatcher, they never stop it.
type LinkLayerHandler interface {
	Handle(frame *PendingFrame) error
}

type LinkLayerHandlerFunc func(frame *PendingFrame) error

func (f LinkLayerHandlerFunc) Handle(frame *PendingFrame) error {
	return f(frame)
}

// PendingFrame is an inbound payload waiting for its protocol handler. The
// payload is owned by the frame.
type PendingFrame struct {
	Payload  []byte
	Device   DeviceID
	Protocol ProtocolID
	Arrival  time.Time
}
