package netlink

import (
	"errors"
	"fmt"

	"github.com/josharian/native"
)

const (
	// afNetlink is AF_NETLINK, spelled out so the address layout stays
	// available off linux.
	afNetlink = 16

	// SizeofAddr is the size of struct sockaddr_nl.
	SizeofAddr = 12
)

// Addr is a netlink socket address. The kernel itself is port 0; a process
// usually binds with its pid. Groups is the multicast membership mask: bit
// n-1 set means group n.
type Addr struct {
	PortID uint32 `yaml:"portID"`
	Groups uint32 `yaml:"groups"`
}

func (a Addr) String() string {
	return fmt.Sprintf("netlink(port=%d groups=%#x)", a.PortID, a.Groups)
}

// MarshalBinary returns the image of struct sockaddr_nl in host byte order:
// family, padding, port id and groups.
func (a Addr) MarshalBinary() ([]byte, error) {
	b := make([]byte, SizeofAddr)
	native.Endian.PutUint16(b[0:2], afNetlink)
	native.Endian.PutUint16(b[2:4], 0)
	native.Endian.PutUint32(b[4:8], a.PortID)
	native.Endian.PutUint32(b[8:12], a.Groups)
	return b, nil
}

// UnmarshalBinary parses a struct sockaddr_nl image.
func (a *Addr) UnmarshalBinary(b []byte) error {
	if len(b) < SizeofAddr {
		return fmt.Errorf("short sockaddr_nl: %d bytes", len(b))
	}
	if f := native.Endian.Uint16(b[0:2]); f != afNetlink {
		return errors.New("not a netlink address")
	}
	a.PortID = native.Endian.Uint32(b[4:8])
	a.Groups = native.Endian.Uint32(b[8:12])
	return nil
}

// GroupMask returns the bind mask bit for multicast group g. Groups above 32
// cannot be expressed in the mask and yield 0; join those with
// Channel.JoinGroup instead.
func GroupMask(g uint32) uint32 {
	if g == 0 || g > 32 {
		return 0
	}
	return 1 << (g - 1)
}
