// Package driver contains the device backends the stack can run on.
package driver

import (
	"errors"
	"fmt"
	"net"
)

var (
	ErrQueueFull   = errors.New("loopback queue is full")
	ErrNotOpen     = fmt.Errorf("device is not open: %w", net.ErrClosed)
	ErrUnsupported = errors.New("backend is not supported on this platform")
)
