//go:build linux

package socket

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"runtime"
	"sync/atomic"

	"github.com/scitags/nldgram/types"
	"golang.org/x/sys/unix"
)

const (
	// The descriptor belongs to the Socket and will be closed by it.
	stateOpen int32 = iota

	// The descriptor has been closed.
	stateClosed

	// The descriptor has been handed over to somebody else.
	stateReleased
)

// Socket owns a single non-blocking AF_NETLINK datagram descriptor. It knows
// nothing about netlink addressing: bind and connect take opaque socket
// addresses. Callers must not race Close or Release against I/O.
type Socket struct {
	fd    int
	proto types.Protocol
	state atomic.Int32
}

// New opens a netlink datagram socket for proto. The close-on-exec and
// non-blocking flags are set atomically on creation so the descriptor can
// neither leak into children nor ever block the calling thread.
func New(proto types.Protocol) (*Socket, error) {
	if !proto.Valid() {
		return nil, os.NewSyscallError("socket", unix.EPROTONOSUPPORT)
	}

	fd, err := sys.socket(unix.AF_NETLINK, unix.SOCK_DGRAM|unix.SOCK_CLOEXEC|unix.SOCK_NONBLOCK, int(proto))
	if err != nil {
		return nil, os.NewSyscallError("socket", err)
	}

	s := &Socket{fd: fd, proto: proto}

	// Dropping an open Socket on the floor must not leak the descriptor.
	runtime.SetFinalizer(s, (*Socket).finalize)

	slog.Debug("opened netlink socket", "fd", fd, "protocol", proto)

	return s, nil
}

func (s *Socket) String() string {
	return fmt.Sprintf("netlink/%s(fd=%d)", s.proto, s.Fd())
}

// Protocol returns the protocol the socket was opened with.
func (s *Socket) Protocol() types.Protocol {
	return s.proto
}

// Fd returns the underlying descriptor without giving up ownership: the
// caller must not close it. It returns -1 once the socket has been closed or
// released.
func (s *Socket) Fd() int {
	if s.state.Load() != stateOpen {
		return -1
	}
	return s.fd
}

// Release hands the descriptor over to the caller, who becomes responsible
// for closing it. The Socket is unusable afterwards and will never close the
// descriptor itself. Only the first call succeeds.
func (s *Socket) Release() (int, error) {
	if !s.state.CompareAndSwap(stateOpen, stateReleased) {
		return -1, net.ErrClosed
	}
	runtime.SetFinalizer(s, nil)

	slog.Debug("released netlink socket", "fd", s.fd, "protocol", s.proto)

	return s.fd, nil
}

// Close closes the descriptor. It does so exactly once: later calls, or
// calls after Release, return net.ErrClosed.
func (s *Socket) Close() error {
	if !s.state.CompareAndSwap(stateOpen, stateClosed) {
		return net.ErrClosed
	}
	runtime.SetFinalizer(s, nil)

	slog.Debug("closing netlink socket", "fd", s.fd, "protocol", s.proto)

	if err := sys.close(s.fd); err != nil {
		return os.NewSyscallError("close", err)
	}
	return nil
}

func (s *Socket) finalize() {
	if !s.state.CompareAndSwap(stateOpen, stateClosed) {
		return
	}

	slog.Warn("closing leaked netlink socket", "fd", s.fd, "protocol", s.proto)
	if err := sys.close(s.fd); err != nil {
		slog.Warn("error closing leaked netlink socket", "fd", s.fd, "err", err)
	}
}

// sysfd returns the descriptor for a system call named op or an EBADF error if
// the socket no longer owns one. Reaching the kernel with a stale descriptor
// could hit an unrelated file reusing its number.
func (s *Socket) sysfd(op string) (int, error) {
	if s.state.Load() != stateOpen {
		return -1, os.NewSyscallError(op, unix.EBADF)
	}
	return s.fd, nil
}

// Send writes b to the default peer: the kernel unless the socket has been
// connected elsewhere. It returns the number of bytes the kernel accepted.
// Would-block conditions are reported as unix.EAGAIN; see IsWouldBlock.
func (s *Socket) Send(b []byte) (int, error) {
	return s.SendTo(b, nil)
}

// SendTo writes b to the given address. A nil address behaves as Send.
func (s *Socket) SendTo(b []byte, to unix.Sockaddr) (int, error) {
	fd, err := s.sysfd("sendmsg")
	if err != nil {
		return 0, err
	}

	n, err := sys.sendmsg(fd, b, nil, to, 0)
	runtime.KeepAlive(s)
	if err != nil {
		return 0, os.NewSyscallError("sendmsg", err)
	}

	slog.Log(context.Background(), types.LevelTrace, "sent datagram", "fd", fd, "n", n)

	return n, nil
}

// Recv reads a single datagram into b and returns its length. A zero-length
// result with a nil error is a zero-length datagram, never end of stream.
func (s *Socket) Recv(b []byte) (int, error) {
	n, _, err := s.RecvFrom(b)
	return n, err
}

// RecvFrom behaves as Recv, also returning the sender's address.
func (s *Socket) RecvFrom(b []byte) (int, unix.Sockaddr, error) {
	fd, err := s.sysfd("recvfrom")
	if err != nil {
		return 0, nil, err
	}

	n, from, err := sys.recvfrom(fd, b, 0)
	runtime.KeepAlive(s)
	if err != nil {
		return 0, nil, os.NewSyscallError("recvfrom", err)
	}

	slog.Log(context.Background(), types.LevelTrace, "received datagram", "fd", fd, "n", n)

	return n, from, nil
}

// Bind assigns a local address to the socket.
func (s *Socket) Bind(sa unix.Sockaddr) error {
	fd, err := s.sysfd("bind")
	if err != nil {
		return err
	}

	err = sys.bind(fd, sa)
	runtime.KeepAlive(s)
	return os.NewSyscallError("bind", err)
}

// Connect sets the default destination for Send.
func (s *Socket) Connect(sa unix.Sockaddr) error {
	fd, err := s.sysfd("connect")
	if err != nil {
		return err
	}

	err = sys.connect(fd, sa)
	runtime.KeepAlive(s)
	return os.NewSyscallError("connect", err)
}

// Sockname returns the address the socket is bound to.
func (s *Socket) Sockname() (unix.Sockaddr, error) {
	fd, err := s.sysfd("getsockname")
	if err != nil {
		return nil, err
	}

	sa, err := sys.getsockname(fd)
	runtime.KeepAlive(s)
	if err != nil {
		return nil, os.NewSyscallError("getsockname", err)
	}
	return sa, nil
}

// SetsockoptInt sets an integer socket option.
func (s *Socket) SetsockoptInt(level, opt, value int) error {
	fd, err := s.sysfd("setsockopt")
	if err != nil {
		return err
	}

	err = sys.setsockoptInt(fd, level, opt, value)
	runtime.KeepAlive(s)
	return os.NewSyscallError("setsockopt", err)
}
