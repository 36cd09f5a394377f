package types

import (
	"slices"
	"strconv"
	"strings"
)

// Protocol selects the kernel subsystem a netlink socket talks to. It is
// purely a tag passed on to socket(2): message contents are never interpreted
// based on it.
type Protocol int

var (
	protocolMap = map[string]Protocol{
		"ROUTE":          Route,
		"USERSOCK":       Usersock,
		"FIREWALL":       Firewall,
		"INET_DIAG":      InetDiag,
		"SOCK_DIAG":      InetDiag,
		"NFLOG":          NFlog,
		"XFRM":           Xfrm,
		"SELINUX":        SELinux,
		"ISCSI":          ISCSI,
		"AUDIT":          Audit,
		"FIB_LOOKUP":     FibLookup,
		"CONNECTOR":      Connector,
		"NETFILTER":      Netfilter,
		"IP6_FW":         IP6Fw,
		"DNRTMSG":        Dnrtmsg,
		"KOBJECT_UEVENT": KObjectUevent,
		"GENERIC":        Generic,
		"SCSITRANSPORT":  SCSItransport,
		"ECRYPTFS":       Ecryptfs,
		"RDMA":           Rdma,
		"CRYPTO":         Crypto,
	}

	locotorpMap = map[Protocol]string{
		Route:         "route",
		Usersock:      "usersock",
		Firewall:      "firewall",
		InetDiag:      "inet_diag",
		NFlog:         "nflog",
		Xfrm:          "xfrm",
		SELinux:       "selinux",
		ISCSI:         "iscsi",
		Audit:         "audit",
		FibLookup:     "fib_lookup",
		Connector:     "connector",
		Netfilter:     "netfilter",
		IP6Fw:         "ip6_fw",
		Dnrtmsg:       "dnrtmsg",
		KObjectUevent: "kobject_uevent",
		Generic:       "generic",
		SCSItransport: "scsitransport",
		Ecryptfs:      "ecryptfs",
		Rdma:          "rdma",
		Crypto:        "crypto",
	}
)

func (p Protocol) String() string {
	if s, ok := locotorpMap[p]; ok {
		return s
	}
	return "Protocol(" + strconv.Itoa(int(p)) + ")"
}

// Valid reports whether p belongs to the set of known netlink protocols.
func (p Protocol) Valid() bool {
	_, ok := locotorpMap[p]
	return ok
}

// ParseProtocol accepts either a protocol name (case insensitive, with or
// without the NETLINK_ prefix) or its decimal value.
func ParseProtocol(proto string) (Protocol, bool) {
	proto = strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(proto)), "NETLINK_")

	if p, ok := protocolMap[proto]; ok {
		return p, true
	}

	n, err := strconv.Atoi(proto)
	if err != nil {
		return 0, false
	}

	p := Protocol(n)
	return p, p.Valid()
}

// Protocols returns every known protocol in ascending order.
func Protocols() []Protocol {
	ps := make([]Protocol, 0, len(locotorpMap))
	for p := range locotorpMap {
		ps = append(ps, p)
	}
	slices.Sort(ps)
	return ps
}
