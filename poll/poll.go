// Package poll describes how a resource joins a readiness-based event loop
// without knowing anything about the loop itself. The loop implements Source;
// resources implement Evented, usually by delegating to Fd.
package poll

import (
	"fmt"
	"strings"
	"syscall"
)

// Token is an opaque value chosen by the caller and handed back by the
// Source alongside every readiness notification for a registration.
type Token uint64

// Interest is the set of readiness kinds a registration cares about.
type Interest uint8

const (
	Readable Interest = 1 << iota
	Writable
	Priority
)

// Opts selects the notification discipline of a registration. The zero
// value asks for level-triggered notifications.
type Opts uint8

const (
	Level Opts = 0
	Edge  Opts = 1 << (iota - 1)
	Oneshot
)

// Source is an external readiness event source, typically backed by epoll.
// Registering an already registered descriptor is an error; Reregister
// replaces the token and interest of an existing registration and
// Deregister stops any further notifications for the descriptor.
type Source interface {
	RegisterFd(fd int, tok Token, in Interest, opts Opts) error
	ReregisterFd(fd int, tok Token, in Interest, opts Opts) error
	DeregisterFd(fd int) error
}

// Evented is anything that can be watched by a Source.
type Evented interface {
	Register(src Source, tok Token, in Interest, opts Opts) error
	Reregister(src Source, tok Token, in Interest, opts Opts) error
	Deregister(src Source) error
}

func (in Interest) Readable() bool { return in&Readable != 0 }
func (in Interest) Writable() bool { return in&Writable != 0 }
func (in Interest) Priority() bool { return in&Priority != 0 }

func (in Interest) String() string {
	var s []string
	if in.Readable() {
		s = append(s, "readable")
	}
	if in.Writable() {
		s = append(s, "writable")
	}
	if in.Priority() {
		s = append(s, "priority")
	}
	if len(s) == 0 {
		return "none"
	}
	return strings.Join(s, "|")
}

func (o Opts) Edge() bool    { return o&Edge != 0 }
func (o Opts) Oneshot() bool { return o&Oneshot != 0 }

func (o Opts) String() string {
	s := "level"
	if o.Edge() {
		s = "edge"
	}
	if o.Oneshot() {
		s += "|oneshot"
	}
	return s
}

// Fd makes any raw descriptor Evented. The descriptor stays owned by
// whoever opened it.
type Fd int

var _ Evented = Fd(0)

func (fd Fd) check(in Interest) error {
	if fd < 0 {
		return fmt.Errorf("poll: descriptor %d: %w", int(fd), syscall.EBADF)
	}
	if in&(Readable|Writable|Priority) == 0 {
		return fmt.Errorf("poll: empty interest for descriptor %d: %w", int(fd), syscall.EINVAL)
	}
	return nil
}

func (fd Fd) Register(src Source, tok Token, in Interest, opts Opts) error {
	if err := fd.check(in); err != nil {
		return err
	}
	return src.RegisterFd(int(fd), tok, in, opts)
}

func (fd Fd) Reregister(src Source, tok Token, in Interest, opts Opts) error {
	if err := fd.check(in); err != nil {
		return err
	}
	return src.ReregisterFd(int(fd), tok, in, opts)
}

func (fd Fd) Deregister(src Source) error {
	if fd < 0 {
		return fmt.Errorf("poll: descriptor %d: %w", int(fd), syscall.EBADF)
	}
	return src.DeregisterFd(int(fd))
}
