//go:build !linux

package netlink

import (
	"github.com/scitags/nldgram/poll"
	"github.com/scitags/nldgram/socket"
	"github.com/scitags/nldgram/types"
)

type Channel struct{}

func Bind(proto types.Protocol, groups uint32) (*Channel, error) {
	return nil, socket.ErrNotSupported
}

func Open(c *Config) (*Channel, error) {
	return nil, socket.ErrNotSupported
}

func (ch *Channel) String() string { return "netlink/unsupported" }
func (ch *Channel) Protocol() types.Protocol { return 0 }
func (ch *Channel) Groups() uint32 { return 0 }
func (ch *Channel) Send(b []byte) (int, error) { return 0, socket.ErrNotSupported }
func (ch *Channel) Recv(b []byte) (int, error) { return 0, socket.ErrNotSupported }
func (ch *Channel) LocalAddr() (Addr, error) { return Addr{}, socket.ErrNotSupported }
func (ch *Channel) Fd() int { return -1 }
func (ch *Channel) Release() (int, error) { return -1, socket.ErrNotSupported }
func (ch *Channel) Close() error { return socket.ErrNotSupported }

func (ch *Channel) Register(src poll.Source, tok poll.Token, in poll.Interest, opts poll.Opts) error {
	return socket.ErrNotSupported
}

func (ch *Channel) Reregister(src poll.Source, tok poll.Token, in poll.Interest, opts poll.Opts) error {
	return socket.ErrNotSupported
}

func (ch *Channel) Deregister(src poll.Source) error {
	return socket.ErrNotSupported
}
