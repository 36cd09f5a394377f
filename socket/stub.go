//go:build !linux

package socket

import (
	"errors"
	"net"

	"github.com/scitags/nldgram/types"
)

var ErrNotSupported = errors.New("netlink sockets are only available on linux")

type Socket struct{}

func New(proto types.Protocol) (*Socket, error) {
	return nil, ErrNotSupported
}

func (s *Socket) String() string { return "netlink/unsupported" }
func (s *Socket) Protocol() types.Protocol { return 0 }
func (s *Socket) Fd() int { return -1 }
func (s *Socket) Send(b []byte) (int, error) { return 0, ErrNotSupported }
func (s *Socket) Recv(b []byte) (int, error) { return 0, ErrNotSupported }
func (s *Socket) Release() (int, error) { return -1, net.ErrClosed }
func (s *Socket) Close() error { return net.ErrClosed }
