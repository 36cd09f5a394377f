package codec

import (
	"fmt"

	"github.com/jsimonetti/rtnetlink"
	"github.com/mdlayher/netlink"
)

// rtnetlink message types from linux/rtnetlink.h.
const (
	RTMNewLink netlink.HeaderType = 16
	RTMDelLink netlink.HeaderType = 17
	RTMGetLink netlink.HeaderType = 18
	RTMNewAddr netlink.HeaderType = 20
	RTMDelAddr netlink.HeaderType = 21
	RTMGetAddr netlink.HeaderType = 22
)

// Legacy rtnetlink multicast group masks, usable as a bind mask.
const (
	GroupLink       uint32 = 0x1
	GroupIPv4IfAddr uint32 = 0x10
	GroupIPv6IfAddr uint32 = 0x100
)

const iffUp = 0x1

var typeMap = map[netlink.HeaderType]string{
	netlink.Noop:    "NLMSG_NOOP",
	netlink.Error:   "NLMSG_ERROR",
	netlink.Done:    "NLMSG_DONE",
	netlink.Overrun: "NLMSG_OVERRUN",
	RTMNewLink:      "RTM_NEWLINK",
	RTMDelLink:      "RTM_DELLINK",
	RTMGetLink:      "RTM_GETLINK",
	RTMNewAddr:      "RTM_NEWADDR",
	RTMDelAddr:      "RTM_DELADDR",
	RTMGetAddr:      "RTM_GETADDR",
}

var operStateMap = map[rtnetlink.OperationalState]string{
	rtnetlink.OperStateUnknown:        "unknown",
	rtnetlink.OperStateNotPresent:     "notpresent",
	rtnetlink.OperStateDown:           "down",
	rtnetlink.OperStateLowerLayerDown: "lowerlayerdown",
	rtnetlink.OperStateTesting:        "testing",
	rtnetlink.OperStateDormant:        "dormant",
	rtnetlink.OperStateUp:             "up",
}

// TypeName names well known message types. Others are rendered numerically.
func TypeName(t netlink.HeaderType) string {
	if s, ok := typeMap[t]; ok {
		return s
	}
	return fmt.Sprintf("type(%d)", uint16(t))
}

// LinkDump asks for every link in the system.
func LinkDump(seq uint32) ([]byte, error) {
	return Request(RTMGetLink, netlink.Dump, seq, &rtnetlink.LinkMessage{})
}

// AddrDump asks for every address in the system.
func AddrDump(seq uint32) ([]byte, error) {
	return Request(RTMGetAddr, netlink.Dump, seq, &rtnetlink.AddressMessage{})
}

// Describe returns slog key/value pairs summarising m. Link and address
// messages are decoded; anything else is described by its header.
func Describe(m netlink.Message) []any {
	kv := []any{"type", TypeName(m.Header.Type), "seq", m.Header.Sequence, "pid", m.Header.PID}

	switch m.Header.Type {
	case RTMNewLink, RTMDelLink:
		var lm rtnetlink.LinkMessage
		if err := lm.UnmarshalBinary(m.Data); err != nil {
			return append(kv, "err", err)
		}
		kv = append(kv, "index", lm.Index, "up", lm.Flags&iffUp != 0)
		if a := lm.Attributes; a != nil {
			kv = append(kv, "name", a.Name, "mtu", a.MTU, "state", operStateMap[a.OperationalState])
			if len(a.Address) > 0 {
				kv = append(kv, "mac", a.Address.String())
			}
		}

	case RTMNewAddr, RTMDelAddr:
		var am rtnetlink.AddressMessage
		if err := am.UnmarshalBinary(m.Data); err != nil {
			return append(kv, "err", err)
		}
		kv = append(kv, "index", am.Index, "family", am.Family, "prefix", am.PrefixLength)
		if a := am.Attributes; a != nil && a.Address != nil {
			kv = append(kv, "addr", a.Address.String())
		}

	case netlink.Error:
		if err := Err(m); err != nil {
			kv = append(kv, "err", err)
		} else {
			kv = append(kv, "ack", true)
		}

	default:
		kv = append(kv, "len", m.Header.Length, "flags", m.Header.Flags.String())
	}

	return kv
}
