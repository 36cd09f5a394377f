package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/scitags/nldgram/netlink"
)

func openChannels(confs []*netlink.Config) ([]*netlink.Channel, error) {
	chans := make([]*netlink.Channel, 0, len(confs))

	for i, c := range confs {
		ch, err := netlink.Open(c)
		if err != nil {
			closeChannels(chans)
			return nil, fmt.Errorf("error opening channel %d (%s): %w", i, c.Protocol, err)
		}
		slog.Debug("opened channel", "i", i, "channel", ch, GroupsKey, ch.Groups())
		chans = append(chans, ch)
	}

	return chans, nil
}

func closeChannels(chans []*netlink.Channel) error {
	var errs []error
	for _, ch := range chans {
		if err := ch.Close(); err != nil {
			slog.Error("error closing channel", "channel", ch, "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// formatKV renders slog-style key/value pairs as key=value words.
func formatKV(kv []any) string {
	var sb strings.Builder
	for i := 0; i+1 < len(kv); i += 2 {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%v=%v", kv[i], kv[i+1])
	}
	return sb.String()
}
