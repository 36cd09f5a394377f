//go:build linux

package netlink

import (
	"testing"
	"unsafe"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/sys/unix"
)

func TestAddrLayout(t *testing.T) {
	if SizeofAddr != unix.SizeofSockaddrNetlink {
		t.Fatalf("got size %d, want %d", SizeofAddr, unix.SizeofSockaddrNetlink)
	}

	for _, a := range []Addr{{}, {PortID: 1, Groups: 1}, {PortID: 0xdeadbeef, Groups: 0x80000001}} {
		raw := unix.RawSockaddrNetlink{Family: unix.AF_NETLINK, Pid: a.PortID, Groups: a.Groups}
		want := unsafe.Slice((*byte)(unsafe.Pointer(&raw)), unix.SizeofSockaddrNetlink)

		got, err := a.MarshalBinary()
		if err != nil {
			t.Fatalf("error marshalling %v: %v", a, err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("%v: layout mismatch (-want +got):\n%s", a, diff)
		}

		var back Addr
		if err := back.UnmarshalBinary(got); err != nil {
			t.Fatalf("error parsing %v: %v", a, err)
		}
		if back != a {
			t.Errorf("got %v back, want %v", back, a)
		}
	}

	var a Addr
	if err := a.UnmarshalBinary(make([]byte, 4)); err == nil {
		t.Errorf("short address was accepted")
	}
	if err := a.UnmarshalBinary(make([]byte, SizeofAddr)); err == nil {
		t.Errorf("address with family 0 was accepted")
	}
}

func TestGroupMask(t *testing.T) {
	tests := map[uint32]uint32{0: 0, 1: 1, 2: 2, 3: 4, 32: 1 << 31, 33: 0}
	for g, want := range tests {
		if got := GroupMask(g); got != want {
			t.Errorf("group %d: got %#x, want %#x", g, got, want)
		}
	}
}
