package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/scitags/nldgram/codec"
	"github.com/scitags/nldgram/internal/epoll"
	"github.com/scitags/nldgram/netlink"
	"github.com/scitags/nldgram/poll"
	"github.com/scitags/nldgram/socket"
	"github.com/scitags/nldgram/types"
	"github.com/spf13/cobra"
)

var (
	dumpAddresses bool
	dumpTimeout   time.Duration

	dumpCmd = &cobra.Command{
		Use:   "dump",
		Short: "Print every network link (or address) known to the kernel.",
		Args:  cobra.NoArgs,
		RunE:  runDump,
	}
)

func init() {
	dumpCmd.Flags().BoolVar(&dumpAddresses, "addresses", false, "dump addresses instead of links")
	dumpCmd.Flags().DurationVar(&dumpTimeout, "timeout", 5*time.Second, "give up if the dump takes longer")
}

func runDump(cmd *cobra.Command, args []string) error {
	ch, err := netlink.Bind(types.Route, 0)
	if err != nil {
		return fmt.Errorf("error binding a route channel: %w", err)
	}
	defer ch.Close()

	p, err := epoll.New()
	if err != nil {
		return fmt.Errorf("error creating the poller: %w", err)
	}
	defer p.Close()

	if err := ch.Register(p, 0, poll.Readable, poll.Level); err != nil {
		return fmt.Errorf("error registering the channel: %w", err)
	}
	defer ch.Deregister(p)

	seq := uint32(time.Now().Unix())

	req, err := codec.LinkDump(seq)
	if dumpAddresses {
		req, err = codec.AddrDump(seq)
	}
	if err != nil {
		return fmt.Errorf("error building the request: %w", err)
	}

	if _, err := ch.Send(req); err != nil {
		return fmt.Errorf("error sending the request: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), dumpTimeout)
	defer cancel()

	buf := make([]byte, conf.RecvBuffer)
	events := make([]epoll.Event, 1)

	for {
		if _, err := p.Wait(ctx, events, -1); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return fmt.Errorf("dump did not finish within %s", dumpTimeout)
			}
			return err
		}

		n, err := ch.Recv(buf)
		if socket.IsWouldBlock(err) {
			continue
		}
		if err != nil {
			return fmt.Errorf("error receiving: %w", err)
		}

		msgs, err := codec.Split(buf[:n])
		if err != nil {
			return fmt.Errorf("malformed reply: %w", err)
		}

		for _, m := range msgs {
			if m.Header.Sequence != seq {
				slog.Debug("ignoring unrelated message", "seq", m.Header.Sequence)
				continue
			}
			if err := codec.Err(m); err != nil {
				return fmt.Errorf("dump failed: %w", err)
			}
			if codec.Done(m) {
				return nil
			}
			fmt.Println(formatKV(codec.Describe(m)))
		}
	}
}
