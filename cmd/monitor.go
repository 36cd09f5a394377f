package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/scitags/nldgram/codec"
	"github.com/scitags/nldgram/internal/api"
	"github.com/scitags/nldgram/internal/epoll"
	"github.com/scitags/nldgram/metrics"
	"github.com/scitags/nldgram/netlink"
	"github.com/scitags/nldgram/poll"
	"github.com/scitags/nldgram/socket"
	"github.com/spf13/cobra"
)

var (
	monitorProtocol    string
	monitorGroups      uint32
	monitorMemberships []uint
	monitorApi         bool
	monitorCount       int

	monitorCmd = &cobra.Command{
		Use:   "monitor",
		Short: "Print every message multicast on one or more channels.",
		Long: "monitor joins netlink multicast groups and logs every message it receives\n" +
			"until interrupted. Channels come from the configuration file unless the\n" +
			"channel flags are given.",
		Args: cobra.NoArgs,
		RunE: runMonitor,
	}
)

func init() {
	monitorCmd.Flags().StringVar(&monitorProtocol, "protocol", "route", "netlink protocol to listen on")
	monitorCmd.Flags().Uint32Var(&monitorGroups, "groups", codec.GroupLink|codec.GroupIPv4IfAddr|codec.GroupIPv6IfAddr, "multicast group mask to bind with")
	monitorCmd.Flags().UintSliceVar(&monitorMemberships, "group", nil, "multicast group to join, may be repeated")
	monitorCmd.Flags().BoolVar(&monitorApi, "api", false, "serve the channel status and metrics over HTTP")
	monitorCmd.Flags().IntVar(&monitorCount, "count", 0, "stop after this many messages, 0 means never")
}

func monitorChannels(cmd *cobra.Command) []*netlink.Config {
	flags := cmd.Flags()
	if len(conf.Channels) > 0 && !flags.Changed("protocol") && !flags.Changed("groups") && !flags.Changed("group") {
		return conf.Channels
	}

	c := netlink.DefaultConfig
	c.Protocol = monitorProtocol
	c.Groups = monitorGroups
	for _, g := range monitorMemberships {
		c.Memberships = append(c.Memberships, uint32(g))
	}

	return []*netlink.Config{&c}
}

// monitor ties the channels to the poller. Tokens are indices into chans.
type monitor struct {
	chans []*netlink.Channel
	conns []*metrics.Instrumented
	m     *metrics.Metrics
	buf   []byte
	seen  int
}

func runMonitor(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	m := metrics.New(conf.Metrics)
	if err := m.Register(reg); err != nil {
		return fmt.Errorf("error registering the metrics: %w", err)
	}

	chans, err := openChannels(monitorChannels(cmd))
	if err != nil {
		return err
	}

	mon := &monitor{chans: chans, m: m, buf: make([]byte, conf.RecvBuffer)}
	for _, ch := range chans {
		mon.conns = append(mon.conns, metrics.Instrument(ch, m))
	}
	defer mon.close()

	p, err := epoll.New()
	if err != nil {
		return fmt.Errorf("error creating the poller: %w", err)
	}
	defer p.Close()

	for i, ch := range chans {
		if err := ch.Register(p, poll.Token(i), poll.Readable, poll.Edge); err != nil {
			return fmt.Errorf("error registering %s: %w", ch, err)
		}
	}

	if monitorApi || conf.Api.Enabled {
		statusChans := make([]api.Channel, 0, len(chans))
		for _, ch := range chans {
			statusChans = append(statusChans, ch)
		}

		var metricsReg *prometheus.Registry
		if conf.Metrics.Enabled {
			metricsReg = reg
		}

		srv := api.New(conf.Api, metricsReg, statusChans...)
		srv.Start()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(sctx); err != nil {
				slog.Warn("error stopping the api server", "err", err)
			}
		}()
	}

	slog.Info("monitoring", "channels", len(chans))

	events := make([]epoll.Event, conf.Poller.MaxEvents)
	for {
		n, err := p.Wait(ctx, events, -1)
		if errors.Is(err, context.Canceled) {
			slog.Info("cleanly exiting", "messages", mon.seen)
			return nil
		}
		if err != nil {
			return err
		}

		for _, ev := range events[:n] {
			if err := mon.drain(int(ev.Token)); err != nil {
				return err
			}
			if monitorCount > 0 && mon.seen >= monitorCount {
				return nil
			}
		}
	}
}

// drain reads channel i until it would block, as edge triggered
// notifications demand.
func (mon *monitor) drain(i int) error {
	ch, conn := mon.chans[i], mon.conns[i]

	for {
		n, err := conn.Recv(mon.buf)
		if socket.IsWouldBlock(err) {
			return nil
		}
		if errors.Is(err, syscall.ENOBUFS) {
			// The kernel dropped multicast messages.
			slog.Warn("receive buffer overrun, messages were lost", "channel", ch)
			continue
		}
		if err != nil {
			return fmt.Errorf("error receiving on %s: %w", ch, err)
		}

		msgs, err := codec.Split(mon.buf[:n])
		if err != nil {
			slog.Warn("malformed datagram", "channel", ch, "len", n, "err", err)
		}

		for _, msg := range msgs {
			mon.seen++
			mon.m.ObserveMessage(ch.Protocol(), codec.TypeName(msg.Header.Type))
			slog.Info("message", append([]any{"channel", i}, codec.Describe(msg)...)...)
		}
	}
}

func (mon *monitor) close() {
	for i, conn := range mon.conns {
		if err := conn.Close(); err != nil {
			slog.Warn("error closing channel", "channel", mon.chans[i], "err", err)
		}
	}
}
