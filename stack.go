package edustack

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type stackState uint8

const (
	stackCreated stackState = iota
	stackStarted
	stackRunning
	stackStopped
)

type StackOptions struct {
	// QueueSize bounds every protocol queue, DefaultQueueSize if zero.
	QueueSize int
	Logger    zerolog.Logger
	// Registerer receives the stack metrics, a private registry if nil.
	Registerer prometheus.Registerer
}

// Stack is one protocol stack instance. It owns the devices, the dispatcher
// and the protocol modules; several stacks can coexist in one process.
type Stack struct {
	devices    *DeviceRegistry
	dispatcher *Dispatcher
	ip         *Internetv4LayerHandler
	icmp       *IcmpHandler
	metrics    *Metrics
	log        zerolog.Logger

	mu             sync.Mutex
	state          stackState
	cancelWorkers  context.CancelFunc
	deviceWorkers  *errgroup.Group
	dispatcherDone chan error
	shutdownOnce   sync.Once
	shutdownErr    error
}

func NewStack(opts StackOptions) (*Stack, error) {
	metrics, err := NewMetrics(opts.Registerer)
	if err != nil {
		return nil, err
	}

	devices := NewDeviceRegistry(metrics)
	dispatcher := NewDispatcher(opts.QueueSize, metrics, opts.Logger)
	ip := NewInternetLayerHandler(devices, dispatcher, NewInternetLayerStrategy(), NewRouteTable(), metrics, opts.Logger)

	return &Stack{
		devices:    devices,
		dispatcher: dispatcher,
		ip:         ip,
		icmp:       NewIcmpHandler(ip, opts.Logger),
		metrics:    metrics,
		log:        opts.Logger,
	}, nil
}

// Startup registers the built-in protocol modules.
func (s *Stack) Startup() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != stackCreated {
		return ErrStackRunning
	}

	if err := s.ip.RegisterProtocol(IPProtocolICMPv4, s.icmp); err != nil {
		return err
	}

	s.state = stackStarted
	return nil
}

func (s *Stack) configurable() error {
	if s.state >= stackRunning {
		return ErrStackRunning
	}
	return nil
}

func (s *Stack) RegisterDevice(dev *Device) (DeviceID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.configurable(); err != nil {
		return -1, err
	}

	id, err := s.devices.Register(dev)
	if err != nil {
		return -1, err
	}

	s.log.Info().Msgf("registered device %s (%s, mtu %d) as %s", dev.Name, dev.Type, dev.MTU, id)
	return id, nil
}

func (s *Stack) AllocInterface(addr net.IP, mask net.IPMask) (*Interface, error) {
	return AllocInterface(addr, mask)
}

func (s *Stack) RegisterInterface(dev DeviceID, iface *Interface) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.configurable(); err != nil {
		return err
	}
	return s.ip.RegisterInterface(dev, iface)
}

func (s *Stack) RegisterProtocol(ipProto IPProtocol, handler TransportLayerHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.configurable(); err != nil {
		return err
	}
	return s.ip.RegisterProtocol(ipProto, handler)
}

func (s *Stack) SetDefaultGateway(iface *Interface, gateway net.IP) error {
	return s.ip.SetDefaultGateway(iface, gateway)
}

func (s *Stack) ClearDefaultGateway() {
	s.ip.ClearDefaultGateway()
}

func (s *Stack) AddRoute(ri RouteInfo) error {
	return s.ip.AddRoute(ri)
}

// DeleteRoute removes a static or the default route by its Routes index.
func (s *Stack) DeleteRoute(index uint32) error {
	return s.ip.routeTable.DeleteRouteAtIndex(index)
}

func (s *Stack) RouteLookup(dst net.IP) (*RouteInfo, error) {
	return s.ip.RouteLookup(dst)
}

// RunWorkers opens every device and starts one worker per device plus the
// dispatcher. If a device fails to open, the devices opened so far are
// closed again and nothing is started. Canceling ctx stops the device
// workers; the dispatcher runs until Shutdown.
func (s *Stack) RunWorkers(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case stackCreated:
		return ErrStackNotStarted
	case stackRunning, stackStopped:
		return ErrStackRunning
	}

	devices := s.devices.Devices()
	for i, dev := range devices {
		if err := dev.open(); err != nil {
			for _, opened := range devices[:i] {
				if cerr := opened.close(); cerr != nil {
					s.log.Error().Err(cerr).Msgf("failed to close device %s", opened.Name)
				}
			}
			return fmt.Errorf("open device %s: %w", dev.Name, err)
		}
		s.log.Info().Msgf("device %s is up", dev.Name)
	}

	workerCtx, cancel := context.WithCancel(ctx)
	s.cancelWorkers = cancel
	s.dispatcherDone = make(chan error, 1)

	// the dispatcher outlives the workers and is stopped by Shutdown
	dispatcherCtx := context.WithoutCancel(ctx)
	s.dispatcher.running.Store(true)
	go func() {
		s.dispatcherDone <- s.dispatcher.Run(dispatcherCtx)
	}()

	s.deviceWorkers = &errgroup.Group{}
	for _, dev := range devices {
		listener := NewLinkLayerListener(dev, s.dispatcher, s.metrics, s.log)
		s.deviceWorkers.Go(func() error {
			return listener.ListenAndServe(workerCtx)
		})
	}

	s.state = stackRunning
	return nil
}

// Shutdown cancels the device workers and waits for them, then stops the
// dispatcher and closes the devices. Only the first call does anything.
func (s *Stack) Shutdown() error {
	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		wasRunning := s.state == stackRunning
		s.state = stackStopped
		if !wasRunning {
			s.dispatcher.Shutdown()
			return
		}

		s.cancelWorkers()
		workerErr := s.deviceWorkers.Wait()

		s.dispatcher.Shutdown()
		<-s.dispatcherDone

		errs := []error{workerErr}
		for _, dev := range s.devices.Devices() {
			if err := dev.close(); err != nil {
				errs = append(errs, fmt.Errorf("close device %s: %w", dev.Name, err))
			}
		}

		s.shutdownErr = errors.Join(errs...)
		s.log.Info().Msg("stack shut down")
	})

	return s.shutdownErr
}

// Output sends a datagram through the IP layer.
func (s *Stack) Output(proto IPProtocol, payload []byte, src, dst net.IP) error {
	return s.ip.Output(proto, payload, src, dst)
}

// IcmpOutput sends an ICMP message, see IcmpHandler.Output.
func (s *Stack) IcmpOutput(kind IcmpType, code uint8, id, seq uint16, data []byte, src, dst net.IP) error {
	return s.icmp.Output(kind, code, id, seq, data, src, dst)
}

func (s *Stack) SetIcmpMessageHandler(h IcmpMessageHandler) {
	s.icmp.SetMessageHandler(h)
}

func (s *Stack) Device(id DeviceID) (*Device, error) {
	return s.devices.Device(id)
}

func (s *Stack) DeviceByName(name string) (*Device, error) {
	return s.devices.DeviceByName(name)
}

func (s *Stack) Devices() []*Device {
	return s.devices.Devices()
}

func (s *Stack) Interfaces() []*Interface {
	return s.ip.Interfaces()
}

// InterfaceByAddress returns the interface whose network contains addr.
func (s *Stack) InterfaceByAddress(addr net.IP) *Interface {
	return s.devices.LookupByAddress(addr)
}

func (s *Stack) Routes() []RouteInfo {
	return s.ip.Routes()
}

func (s *Stack) Metrics() *Metrics {
	return s.metrics
}

type Stats struct {
	Devices        []DeviceStats
	QueueOverflows uint64
	Pending        map[ProtocolID]int
}

func (s *Stack) Stats() Stats {
	devices := s.devices.Devices()
	stats := Stats{
		Devices:        make([]DeviceStats, len(devices)),
		QueueOverflows: s.dispatcher.Overflows(),
		Pending:        s.dispatcher.Pending(),
	}
	for i, dev := range devices {
		stats.Devices[i] = dev.Stats()
	}
	return stats
}
