package driver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/mdlayher/ethernet"
	"github.com/mdlayher/raw"
)

//go:generate mockgen -destination ../internal/mocks/mock_packet_conn.go -package mocks net PacketConn

const rawReadTimeout = 100 * time.Millisecond

// RawSocket exchanges Ethernet frames over a packet socket bound to an
// existing host interface.
type RawSocket struct {
	Interface string

	mu   sync.Mutex
	conn net.PacketConn
}

func NewRawSocket(iface string) *RawSocket {
	return &RawSocket{Interface: iface}
}

func (r *RawSocket) Open() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn != nil {
		return nil
	}

	ifi, err := net.InterfaceByName(r.Interface)
	if err != nil {
		return fmt.Errorf("failed to open interface %s: %w", r.Interface, err)
	}

	conn, err := raw.ListenPacket(ifi, uint16(ethernet.EtherTypeIPv4), nil)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", r.Interface, err)
	}

	r.conn = conn
	return nil
}

// Initialize uses c instead of opening a packet socket.
func (r *RawSocket) Initialize(c net.PacketConn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.conn = c
}

func (r *RawSocket) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn == nil {
		return nil
	}
	err := r.conn.Close()
	r.conn = nil
	return err
}

func (r *RawSocket) connection() (net.PacketConn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn == nil {
		return nil, ErrNotOpen
	}
	return r.conn, nil
}

func (r *RawSocket) Receive(ctx context.Context, b []byte) (int, error) {
	conn, err := r.connection()
	if err != nil {
		return 0, err
	}

	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		if err := conn.SetReadDeadline(time.Now().Add(rawReadTimeout)); err != nil {
			return 0, err
		}

		n, _, err := conn.ReadFrom(b)
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			continue
		}
		return n, err
	}
}

// Send writes a complete Ethernet frame, addressed by its destination field.
func (r *RawSocket) Send(b []byte) error {
	conn, err := r.connection()
	if err != nil {
		return err
	}

	if len(b) < 6 {
		return fmt.Errorf("frame too short: %d bytes", len(b))
	}

	_, err = conn.WriteTo(b, &raw.Addr{HardwareAddr: net.HardwareAddr(b[:6])})
	return err
}
