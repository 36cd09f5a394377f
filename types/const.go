package types

// All of these values are handed to socket(2) untouched, so they must match
// the kernel's include/uapi/linux/netlink.h exactly. Value 1 (NETLINK_UNUSED)
// is reserved and intentionally left out.
const (
	Route         Protocol = 0  // NETLINK_ROUTE
	Usersock      Protocol = 2  // NETLINK_USERSOCK
	Firewall      Protocol = 3  // NETLINK_FIREWALL, gone since v3.5
	InetDiag      Protocol = 4  // NETLINK_INET_DIAG or NETLINK_SOCK_DIAG
	NFlog         Protocol = 5  // NETLINK_NFLOG
	Xfrm          Protocol = 6  // NETLINK_XFRM
	SELinux       Protocol = 7  // NETLINK_SELINUX
	ISCSI         Protocol = 8  // NETLINK_ISCSI
	Audit         Protocol = 9  // NETLINK_AUDIT
	FibLookup     Protocol = 10 // NETLINK_FIB_LOOKUP
	Connector     Protocol = 11 // NETLINK_CONNECTOR
	Netfilter     Protocol = 12 // NETLINK_NETFILTER
	IP6Fw         Protocol = 13 // NETLINK_IP6_FW
	Dnrtmsg       Protocol = 14 // NETLINK_DNRTMSG
	KObjectUevent Protocol = 15 // NETLINK_KOBJECT_UEVENT
	Generic       Protocol = 16 // NETLINK_GENERIC
	SCSItransport Protocol = 18 // NETLINK_SCSITRANSPORT
	Ecryptfs      Protocol = 19 // NETLINK_ECRYPTFS
	Rdma          Protocol = 20 // NETLINK_RDMA
	Crypto        Protocol = 21 // NETLINK_CRYPTO
)
