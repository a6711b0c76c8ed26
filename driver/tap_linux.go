//go:build linux

package driver

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"
)

const tapPollTimeout = 100 // ms

// Tap attaches to a Linux TAP device and exchanges raw Ethernet frames with
// the host kernel.
type Tap struct {
	Name string

	mu sync.Mutex
	fd int
}

func NewTap(name string) *Tap {
	return &Tap{Name: name, fd: -1}
}

func (t *Tap) Open() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.fd >= 0 {
		return nil
	}

	fd, err := unix.Open("/dev/net/tun", unix.O_RDWR|unix.O_CLOEXEC|unix.O_NONBLOCK, 0)
	if err != nil {
		return fmt.Errorf("open /dev/net/tun: %w", err)
	}

	ifr, err := unix.NewIfreq(t.Name)
	if err != nil {
		unix.Close(fd)
		return err
	}
	ifr.SetUint16(unix.IFF_TAP | unix.IFF_NO_PI)

	if err := unix.IoctlIfreq(fd, unix.TUNSETIFF, ifr); err != nil {
		unix.Close(fd)
		return fmt.Errorf("TUNSETIFF %s: %w", t.Name, err)
	}

	link, err := netlink.LinkByName(t.Name)
	if err != nil {
		unix.Close(fd)
		return fmt.Errorf("lookup link %s: %w", t.Name, err)
	}
	if err := netlink.LinkSetUp(link); err != nil {
		unix.Close(fd)
		return fmt.Errorf("set link %s up: %w", t.Name, err)
	}

	t.fd = fd
	return nil
}

func (t *Tap) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.fd < 0 {
		return nil
	}
	err := unix.Close(t.fd)
	t.fd = -1
	return err
}

func (t *Tap) fileDescriptor() (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.fd < 0 {
		return -1, ErrNotOpen
	}
	return t.fd, nil
}

// Receive polls the device so a done ctx is noticed within the poll
// timeout.
func (t *Tap) Receive(ctx context.Context, b []byte) (int, error) {
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		fd, err := t.fileDescriptor()
		if err != nil {
			return 0, err
		}

		fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
		n, err := unix.Poll(fds, tapPollTimeout)
		if errors.Is(err, unix.EINTR) || n == 0 {
			continue
		}
		if err != nil {
			return 0, err
		}

		r, err := unix.Read(fd, b)
		if errors.Is(err, unix.EAGAIN) {
			continue
		}
		if err != nil {
			return 0, err
		}
		return r, nil
	}
}

func (t *Tap) Send(b []byte) error {
	fd, err := t.fileDescriptor()
	if err != nil {
		return err
	}

	_, err = unix.Write(fd, b)
	return err
}
