package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/davidkroell/edustack"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type pingOptions struct {
	count    uint16
	interval time.Duration
	size     int
}

func (o *pingOptions) bindFlags(cmd *cobra.Command, defaultCount uint16) {
	cmd.Flags().Uint16VarP(&o.count, "number", "n", defaultCount, "number of pings, 0 pings until interrupted")
	cmd.Flags().DurationVarP(&o.interval, "interval", "i", time.Second, "time between two echo requests")
	cmd.Flags().IntVarP(&o.size, "size", "s", 48, "echo payload size in bytes")
}

// pingCommand brings the configured stack up and pings a host, the default
// gateway if none is given.
func pingCommand(opts *globalOptions) *cobra.Command {
	pingOpts := &pingOptions{}

	cmd := &cobra.Command{
		Use:   "ping [host]",
		Short: "bring the stack up and ping a host",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			logger, err := setupLogging(cfg.LogLevel)
			if err != nil {
				return err
			}

			dst, err := pingTarget(cfg, args)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s, err := buildStack(cfg, logger, prometheus.DefaultRegisterer)
			if err != nil {
				return err
			}
			serveMetrics(ctx, cfg.MetricsAddr, s, logger)

			if err := s.RunWorkers(ctx); err != nil {
				return err
			}
			defer func() {
				if err := s.Shutdown(); err != nil {
					logger.Error().Err(err).Msg("shutdown failed")
				}
			}()

			return runPing(ctx, cmd.OutOrStdout(), s, dst, pingOpts)
		},
	}

	pingOpts.bindFlags(cmd, 0)
	return cmd
}

func pingTarget(cfg *edustack.Config, args []string) (net.IP, error) {
	if len(args) > 0 {
		return edustack.ParseIPv4(args[0])
	}

	for _, dc := range cfg.Devices {
		if dc.Gateway != "" {
			return edustack.ParseIPv4(dc.Gateway)
		}
	}
	return nil, ErrTooFewArguments
}

func echoPayload(size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte('a' + i%26)
	}
	return data
}

// pingStats tracks one ping run. Replies arrive on the dispatcher
// goroutine, so all output goes through it.
type pingStats struct {
	mu       sync.Mutex
	out      io.Writer
	sentAt   map[uint16]time.Time
	sent     int
	received int
}

func newPingStats(out io.Writer) *pingStats {
	return &pingStats{out: out, sentAt: make(map[uint16]time.Time)}
}

func (p *pingStats) printf(format string, args ...interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.out, format, args...)
}

func (p *pingStats) requestSent(seq uint16) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.sentAt[seq] = time.Now()
	p.sent++
}

func (p *pingStats) replyReceived(msg *edustack.ICMPPacket, src net.IP) {
	p.mu.Lock()
	defer p.mu.Unlock()

	sentAt, ok := p.sentAt[msg.Seq]
	if !ok {
		// duplicate or stale reply
		return
	}
	delete(p.sentAt, msg.Seq)
	p.received++

	rtt := time.Since(sentAt).Round(time.Microsecond)
	fmt.Fprintf(p.out, "%d bytes from %s: icmp_seq=%d time=%s\n", len(msg.Data)+8, src, msg.Seq, rtt)
}

func (p *pingStats) summary(dst net.IP) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	loss := 0.0
	if p.sent > 0 {
		loss = 100 * float64(p.sent-p.received) / float64(p.sent)
	}
	_, err := fmt.Fprintf(p.out, "--- %s ping statistics ---\n%d packets transmitted, %d received, %.1f%% packet loss\n", dst, p.sent, p.received, loss)
	return err
}

// runPing sends echo requests until count is reached or ctx is done and
// prints the replies of this session. Requests that cannot be sent for lack
// of a route or a running device count as lost.
func runPing(ctx context.Context, out io.Writer, s *edustack.Stack, dst net.IP, opts *pingOptions) error {
	session := edustack.NewEchoSession(uint16(os.Getpid()))
	stats := newPingStats(out)

	s.SetIcmpMessageHandler(func(msg *edustack.ICMPPacket, src, _ net.IP, _ *edustack.Interface) {
		if msg.IcmpType != edustack.IcmpTypeEchoReply || msg.Id != session.ID {
			return
		}
		stats.replyReceived(msg, src)
	})
	defer s.SetIcmpMessageHandler(nil)

	stats.printf("PING %s: %d data bytes\n", dst, opts.size)

	data := echoPayload(opts.size)
	ticker := time.NewTicker(opts.interval)
	defer ticker.Stop()

	for i := 0; opts.count == 0 || i < int(opts.count); i++ {
		id, seq := session.Next()
		stats.requestSent(seq)

		if err := s.IcmpOutput(edustack.IcmpTypeEchoRequest, 0, id, seq, data, nil, dst); err != nil {
			if edustack.KindOf(err) != edustack.ResourceError {
				return err
			}
			// the next tick retries
			log.Debug().Err(err).Msgf("echo request %d not sent", seq)
			stats.printf("icmp_seq=%d: %v\n", seq, err)
		}

		select {
		case <-ctx.Done():
			return stats.summary(dst)
		case <-ticker.C:
		}
	}

	return stats.summary(dst)
}
