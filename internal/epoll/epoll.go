//go:build linux

// Package epoll is a poll.Source backed by epoll(7). It is the event loop
// the nldgram command drives its channels with.
package epoll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/josharian/native"
	"github.com/scitags/nldgram/poll"
	"golang.org/x/sys/unix"
)

// Event is a readiness notification for a registered descriptor.
type Event struct {
	Token    poll.Token
	Readable bool
	Writable bool
	Priority bool
	Error    bool
	Hangup   bool
}

// Poller watches descriptors for readiness. Registrations may be changed
// from any goroutine, but only one goroutine may Wait at a time.
type Poller struct {
	epfd int

	// wakefd is an eventfd used to interrupt Wait once its context is done.
	wakefd int

	mu     sync.Mutex
	tokens map[int]poll.Token
	closed bool
}

var _ poll.Source = (*Poller)(nil)

func New() (*Poller, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, os.NewSyscallError("epoll_create1", err)
	}

	wakefd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		unix.Close(epfd)
		return nil, os.NewSyscallError("eventfd", err)
	}

	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(wakefd)}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, wakefd, &ev); err != nil {
		unix.Close(wakefd)
		unix.Close(epfd)
		return nil, os.NewSyscallError("epoll_ctl", err)
	}

	slog.Debug("created epoll instance", "epfd", epfd, "wakefd", wakefd)

	return &Poller{epfd: epfd, wakefd: wakefd, tokens: map[int]poll.Token{}}, nil
}

func events(in poll.Interest, opts poll.Opts) uint32 {
	var e uint32
	if in.Readable() {
		e |= unix.EPOLLIN | unix.EPOLLRDHUP
	}
	if in.Writable() {
		e |= unix.EPOLLOUT
	}
	if in.Priority() {
		e |= unix.EPOLLPRI
	}
	if opts.Edge() {
		e |= unix.EPOLLET
	}
	if opts.Oneshot() {
		e |= unix.EPOLLONESHOT
	}
	return e
}

func (p *Poller) ctl(op, fd int, tok poll.Token, in poll.Interest, opts poll.Opts) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return net.ErrClosed
	}
	if fd == p.wakefd {
		return os.NewSyscallError("epoll_ctl", unix.EEXIST)
	}

	// The descriptor rides in the event data; tokens are looked up on the way
	// out so that a stale event for a deregistered descriptor is dropped.
	ev := unix.EpollEvent{Events: events(in, opts), Fd: int32(fd)}
	if err := unix.EpollCtl(p.epfd, op, fd, &ev); err != nil {
		return os.NewSyscallError("epoll_ctl", err)
	}
	p.tokens[fd] = tok

	slog.Debug("watching descriptor", "fd", fd, "token", tok, "interest", in, "opts", opts)

	return nil
}

func (p *Poller) RegisterFd(fd int, tok poll.Token, in poll.Interest, opts poll.Opts) error {
	return p.ctl(unix.EPOLL_CTL_ADD, fd, tok, in, opts)
}

func (p *Poller) ReregisterFd(fd int, tok poll.Token, in poll.Interest, opts poll.Opts) error {
	return p.ctl(unix.EPOLL_CTL_MOD, fd, tok, in, opts)
}

func (p *Poller) DeregisterFd(fd int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return net.ErrClosed
	}

	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil); err != nil {
		// The kernel already dropped a descriptor closed while registered.
		if errors.Is(err, unix.EBADF) || errors.Is(err, unix.ENOENT) {
			delete(p.tokens, fd)
		}
		return os.NewSyscallError("epoll_ctl", err)
	}
	delete(p.tokens, fd)

	slog.Debug("stopped watching descriptor", "fd", fd)

	return nil
}

// Len returns the number of registered descriptors. A descriptor closed
// without being deregistered is still counted until DeregisterFd is called
// for it.
func (p *Poller) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.tokens)
}

func (p *Poller) wake() {
	b := make([]byte, 8)
	native.Endian.PutUint64(b, 1)
	if _, err := unix.Write(p.wakefd, b); err != nil && !errors.Is(err, unix.EAGAIN) {
		slog.Warn("error waking the poller", "err", err)
	}
}

func (p *Poller) drain() {
	b := make([]byte, 8)
	for {
		if _, err := unix.Read(p.wakefd, b); err != nil {
			return
		}
	}
}

// Wait fills events with readiness notifications and returns how many it
// stored. It blocks until something is ready, timeout expires (a negative
// timeout never does) or ctx is done, in which case it returns ctx.Err().
func (p *Poller) Wait(ctx context.Context, events []Event, timeout time.Duration) (int, error) {
	if len(events) == 0 {
		return 0, fmt.Errorf("epoll: no room for events: %w", unix.EINVAL)
	}

	stop := context.AfterFunc(ctx, p.wake)
	defer stop()

	var deadline time.Time
	if timeout >= 0 {
		deadline = time.Now().Add(timeout)
	}

	raw := make([]unix.EpollEvent, len(events))
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		msec := -1
		if timeout >= 0 {
			left := time.Until(deadline)
			if left < 0 {
				left = 0
			}
			msec = int((left + time.Millisecond - 1) / time.Millisecond)
		}

		n, err := unix.EpollWait(p.epfd, raw, msec)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return 0, os.NewSyscallError("epoll_wait", err)
		}

		got := p.translate(raw[:n], events)
		if got > 0 {
			return got, nil
		}

		if timeout >= 0 && !time.Now().Before(deadline) {
			return 0, nil
		}
	}
}

func (p *Poller) translate(raw []unix.EpollEvent, events []Event) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	i := 0
	for _, ev := range raw {
		fd := int(ev.Fd)
		if fd == p.wakefd {
			p.drain()
			continue
		}

		tok, ok := p.tokens[fd]
		if !ok {
			continue
		}

		events[i] = Event{
			Token:    tok,
			Readable: ev.Events&(unix.EPOLLIN|unix.EPOLLRDHUP) != 0,
			Writable: ev.Events&unix.EPOLLOUT != 0,
			Priority: ev.Events&unix.EPOLLPRI != 0,
			Error:    ev.Events&unix.EPOLLERR != 0,
			Hangup:   ev.Events&unix.EPOLLHUP != 0,
		}
		i++
	}
	return i
}

// Close releases the epoll instance. Watched descriptors are left open.
func (p *Poller) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return net.ErrClosed
	}
	p.closed = true
	p.tokens = nil

	return errors.Join(
		os.NewSyscallError("close", unix.Close(p.wakefd)),
		os.NewSyscallError("close", unix.Close(p.epfd)),
	)
}
