package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/davidkroell/edustack"
	"github.com/davidkroell/edustack/driver"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// buildStack registers the configured devices, interfaces and the default
// gateway. The returned stack is started up but not running.
func buildStack(cfg *edustack.Config, logger zerolog.Logger, reg prometheus.Registerer) (*edustack.Stack, error) {
	s, err := edustack.NewStack(edustack.StackOptions{
		QueueSize:  cfg.QueueSize,
		Logger:     logger,
		Registerer: reg,
	})
	if err != nil {
		return nil, err
	}

	if err := s.Startup(); err != nil {
		return nil, err
	}

	for _, dc := range cfg.Devices {
		dev, err := newDevice(dc)
		if err != nil {
			return nil, fmt.Errorf("device %s: %w", dc.Name, err)
		}
		if dc.MTU > 0 {
			dev.MTU = dc.MTU
		}

		id, err := s.RegisterDevice(dev)
		if err != nil {
			return nil, err
		}

		addr, err := dc.ParseAddress()
		if err != nil {
			return nil, err
		}

		iface, err := s.AllocInterface(addr.IP, addr.Mask)
		if err != nil {
			return nil, err
		}

		if err := s.RegisterInterface(id, iface); err != nil {
			return nil, fmt.Errorf("device %s: %w", dc.Name, err)
		}

		if dc.Gateway == "" {
			continue
		}

		gw, err := edustack.ParseIPv4(dc.Gateway)
		if err != nil {
			return nil, err
		}
		if err := s.SetDefaultGateway(iface, gw); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func newDevice(dc edustack.DeviceConfig) (*edustack.Device, error) {
	if dc.Type == edustack.DeviceKindLoopback {
		return edustack.NewLoopbackDevice(dc.Name, driver.NewLoopback(dc.QueueLimit)), nil
	}

	addrs, err := dc.ParseHardwareAddrs()
	if err != nil {
		return nil, err
	}

	switch dc.Type {
	case edustack.DeviceKindTap:
		return edustack.NewEthernetDevice(dc.Name, addrs.Local, addrs.Peer, driver.NewTap(dc.Name)), nil
	case edustack.DeviceKindRaw:
		return edustack.NewEthernetDevice(dc.Name, addrs.Local, addrs.Peer, driver.NewRawSocket(dc.HostInterface)), nil
	default:
		return nil, fmt.Errorf("%w: unknown device type %q", edustack.ErrInvalidConfig, dc.Type)
	}
}

// serveMetrics exposes the stack metrics until ctx is done.
func serveMetrics(ctx context.Context, addr string, s *edustack.Stack, logger zerolog.Logger) {
	if addr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", s.Metrics().Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		logger.Info().Msgf("serving metrics on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}
