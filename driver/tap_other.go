//go:build !linux

package driver

import "context"

type Tap struct {
	Name string
}

func NewTap(name string) *Tap {
	return &Tap{Name: name}
}

func (t *Tap) Open() error {
	return ErrUnsupported
}

func (t *Tap) Close() error {
	return nil
}

func (t *Tap) Receive(ctx context.Context, _ []byte) (int, error) {
	<-ctx.Done()
	return 0, ctx.Err()
}

func (t *Tap) Send([]byte) error {
	return ErrUnsupported
}
