//go:build linux

package netlink

import "golang.org/x/sys/unix"

func (a Addr) sockaddr() *unix.SockaddrNetlink {
	return &unix.SockaddrNetlink{Family: unix.AF_NETLINK, Pid: a.PortID, Groups: a.Groups}
}

func addrFrom(sa unix.Sockaddr) Addr {
	if nl, ok := sa.(*unix.SockaddrNetlink); ok {
		return Addr{PortID: nl.Pid, Groups: nl.Groups}
	}
	return Addr{}
}
