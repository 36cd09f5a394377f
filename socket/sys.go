//go:build linux

package socket

import "golang.org/x/sys/unix"

// sysCalls holds every system call a Socket issues. Tests replace entries to
// observe or fail them.
type sysCalls struct {
	socket        func(domain, typ, proto int) (int, error)
	close         func(fd int) error
	bind          func(fd int, sa unix.Sockaddr) error
	connect       func(fd int, sa unix.Sockaddr) error
	getsockname   func(fd int) (unix.Sockaddr, error)
	setsockoptInt func(fd, level, opt, value int) error
	sendmsg       func(fd int, p, oob []byte, to unix.Sockaddr, flags int) (int, error)
	recvfrom      func(fd int, p []byte, flags int) (int, unix.Sockaddr, error)
}

var sys = sysCalls{
	socket:        unix.Socket,
	close:         unix.Close,
	bind:          unix.Bind,
	connect:       unix.Connect,
	getsockname:   unix.Getsockname,
	setsockoptInt: unix.SetsockoptInt,
	sendmsg:       unix.SendmsgN,
	recvfrom:      unix.Recvfrom,
}
