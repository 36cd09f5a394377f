//go:build linux

package netlink

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"

	"github.com/scitags/nldgram/poll"
	"github.com/scitags/nldgram/socket"
	"github.com/scitags/nldgram/types"
	"golang.org/x/sys/unix"
)

// Channel is a bound, non-blocking netlink datagram socket. It is only ever
// handed out bound: construction failures never leave a descriptor behind.
//
// Send and Recv never block. When the kernel has nothing to deliver, or no
// room to accept a datagram, they return an error for which
// socket.IsWouldBlock reports true and the caller should wait for readiness
// through Register.
type Channel struct {
	sock   *socket.Socket
	proto  types.Protocol
	groups uint32
}

var _ poll.Evented = (*Channel)(nil)

// Bind opens a channel for proto using the process id as port id and groups
// as the multicast membership mask. A process can therefore hold a single
// Bind-ed channel per protocol; a second one fails with EADDRINUSE. Use Open
// with AutoPort for more.
func Bind(proto types.Protocol, groups uint32) (*Channel, error) {
	s, err := socket.New(proto)
	if err != nil {
		return nil, err
	}

	addr := Addr{PortID: uint32(os.Getpid()), Groups: groups}
	if err := s.Bind(addr.sockaddr()); err != nil {
		closeQuietly(s)
		return nil, err
	}

	slog.Debug("bound netlink channel", "protocol", proto, "addr", addr, "fd", s.Fd())

	return &Channel{sock: s, proto: proto, groups: groups}, nil
}

// Open builds a channel out of a Config. Socket buffer sizes are applied
// before binding, memberships and the peer after it.
func Open(c *Config) (*Channel, error) {
	proto, ok := types.ParseProtocol(c.Protocol)
	if !ok {
		return nil, fmt.Errorf("unknown netlink protocol %q: %w", c.Protocol, os.NewSyscallError("socket", unix.EPROTONOSUPPORT))
	}

	s, err := socket.New(proto)
	if err != nil {
		return nil, err
	}

	ch := &Channel{sock: s, proto: proto, groups: c.Groups}
	if err := ch.setup(c); err != nil {
		closeQuietly(s)
		return nil, err
	}

	slog.Debug("opened netlink channel", "channel", ch)

	return ch, nil
}

func (ch *Channel) setup(c *Config) error {
	if c.ReadBuffer > 0 {
		if err := ch.SetReadBuffer(c.ReadBuffer); err != nil {
			return err
		}
	}
	if c.WriteBuffer > 0 {
		if err := ch.SetWriteBuffer(c.WriteBuffer); err != nil {
			return err
		}
	}

	// Supported since 4.12; older kernels return ENOPROTOOPT.
	if c.ExtendedAck {
		if err := ch.sock.SetsockoptInt(unix.SOL_NETLINK, unix.NETLINK_EXT_ACK, 1); err != nil {
			slog.Warn("could not enable extended acknowledgements", "err", err)
		}
	}

	addr := Addr{Groups: c.Groups}
	if !c.AutoPort {
		addr.PortID = uint32(os.Getpid())
	}
	if err := ch.sock.Bind(addr.sockaddr()); err != nil {
		return err
	}

	for _, g := range c.Memberships {
		if err := ch.JoinGroup(g); err != nil {
			return fmt.Errorf("error joining group %d: %w", g, err)
		}
	}

	if c.Peer != nil {
		if err := ch.Connect(*c.Peer); err != nil {
			return err
		}
	}

	return nil
}

func closeQuietly(s *socket.Socket) {
	if err := s.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		slog.Warn("error closing netlink socket", "err", err)
	}
}

func (ch *Channel) String() string {
	return fmt.Sprintf("netlink/%s(groups=%#x fd=%d)", ch.proto, ch.groups, ch.Fd())
}

// Protocol returns the protocol the channel was opened for.
func (ch *Channel) Protocol() types.Protocol { return ch.proto }

// Groups returns the membership mask the channel was bound with. Groups
// joined afterwards are not reflected.
func (ch *Channel) Groups() uint32 { return ch.groups }

// Send writes b to the channel's peer: the kernel unless Connect said
// otherwise.
func (ch *Channel) Send(b []byte) (int, error) {
	return ch.sock.Send(b)
}

// SendTo writes b to an explicit destination.
func (ch *Channel) SendTo(b []byte, to Addr) (int, error) {
	return ch.sock.SendTo(b, to.sockaddr())
}

// Recv reads one datagram into b. Excess bytes of a datagram larger than b
// are discarded by the kernel.
func (ch *Channel) Recv(b []byte) (int, error) {
	return ch.sock.Recv(b)
}

// RecvFrom reads one datagram into b and reports who sent it.
func (ch *Channel) RecvFrom(b []byte) (int, Addr, error) {
	n, from, err := ch.sock.RecvFrom(b)
	if err != nil {
		return 0, Addr{}, err
	}
	return n, addrFrom(from), nil
}

// Connect sets the default destination of Send.
func (ch *Channel) Connect(to Addr) error {
	return ch.sock.Connect(to.sockaddr())
}

// LocalAddr returns the address the channel is bound to, including a
// kernel-assigned port id.
func (ch *Channel) LocalAddr() (Addr, error) {
	sa, err := ch.sock.Sockname()
	if err != nil {
		return Addr{}, err
	}
	return addrFrom(sa), nil
}

// JoinGroup adds a multicast membership. Unlike the bind mask it works for
// any group number.
func (ch *Channel) JoinGroup(group uint32) error {
	return ch.sock.SetsockoptInt(unix.SOL_NETLINK, unix.NETLINK_ADD_MEMBERSHIP, int(group))
}

// LeaveGroup drops a multicast membership.
func (ch *Channel) LeaveGroup(group uint32) error {
	return ch.sock.SetsockoptInt(unix.SOL_NETLINK, unix.NETLINK_DROP_MEMBERSHIP, int(group))
}

func (ch *Channel) SetReadBuffer(bytes int) error {
	return ch.sock.SetsockoptInt(unix.SOL_SOCKET, unix.SO_RCVBUF, bytes)
}

func (ch *Channel) SetWriteBuffer(bytes int) error {
	return ch.sock.SetsockoptInt(unix.SOL_SOCKET, unix.SO_SNDBUF, bytes)
}

// Fd returns the channel's descriptor, or -1 once closed or released. The
// caller must not close it.
func (ch *Channel) Fd() int { return ch.sock.Fd() }

// Release hands the descriptor to the caller, who must close it. Deregister
// from every source first: afterwards Fd is -1 and Deregister fails with
// EBADF.
func (ch *Channel) Release() (int, error) { return ch.sock.Release() }

// Close closes the descriptor exactly once. Deregister from every source
// before closing: once closed the channel no longer knows its descriptor, so
// Deregister fails with EBADF and the source keeps whatever it recorded.
func (ch *Channel) Close() error { return ch.sock.Close() }

func (ch *Channel) Register(src poll.Source, tok poll.Token, in poll.Interest, opts poll.Opts) error {
	return poll.Fd(ch.Fd()).Register(src, tok, in, opts)
}

func (ch *Channel) Reregister(src poll.Source, tok poll.Token, in poll.Interest, opts poll.Opts) error {
	return poll.Fd(ch.Fd()).Reregister(src, tok, in, opts)
}

func (ch *Channel) Deregister(src poll.Source) error {
	return poll.Fd(ch.Fd()).Deregister(src)
}
