//go:build !linux

package epoll

import (
	"context"
	"time"

	"github.com/scitags/nldgram/poll"
	"github.com/scitags/nldgram/socket"
)

type Event struct {
	Token    poll.Token
	Readable bool
	Writable bool
	Priority bool
	Error    bool
	Hangup   bool
}

type Poller struct{}

func New() (*Poller, error) {
	return nil, socket.ErrNotSupported
}

func (p *Poller) RegisterFd(fd int, tok poll.Token, in poll.Interest, opts poll.Opts) error {
	return socket.ErrNotSupported
}

func (p *Poller) ReregisterFd(fd int, tok poll.Token, in poll.Interest, opts poll.Opts) error {
	return socket.ErrNotSupported
}

func (p *Poller) DeregisterFd(fd int) error { return socket.ErrNotSupported }
func (p *Poller) Len() int { return 0 }
func (p *Poller) Close() error { return socket.ErrNotSupported }

func (p *Poller) Wait(ctx context.Context, events []Event, timeout time.Duration) (int, error) {
	return 0, socket.ErrNotSupported
}
