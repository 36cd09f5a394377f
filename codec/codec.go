// Package codec frames and parses the netlink messages carried inside the
// datagrams of a netlink.Channel. Channels move opaque bytes; everything
// that knows about struct nlmsghdr lives here.
package codec

import (
	"encoding"
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/mdlayher/netlink"
	"github.com/mdlayher/netlink/nlenc"
)

const (
	headerLen = 16
	alignTo   = 4
)

var (
	ErrShortMessage  = errors.New("netlink message shorter than its header")
	ErrBadLength     = errors.New("netlink message length is out of bounds")
	ErrShortErrorMsg = errors.New("netlink error message too short for an error code")
)

func align(n int) int {
	return (n + alignTo - 1) &^ (alignTo - 1)
}

// Request frames a single message with the request flag set. data may be
// nil for messages without a payload.
func Request(typ netlink.HeaderType, flags netlink.HeaderFlags, seq uint32, data encoding.BinaryMarshaler) ([]byte, error) {
	var payload []byte
	if data != nil {
		b, err := data.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("error marshalling the payload: %w", err)
		}
		payload = b
	}

	m := netlink.Message{
		Header: netlink.Header{
			Length:   uint32(align(headerLen + len(payload))),
			Type:     typ,
			Flags:    flags | netlink.Request,
			Sequence: seq,
		},
		Data: payload,
	}

	return m.MarshalBinary()
}

// Split parses every message packed into the datagram b. Message payloads
// alias b.
func Split(b []byte) ([]netlink.Message, error) {
	var msgs []netlink.Message

	for len(b) > 0 {
		if len(b) < headerLen {
			return msgs, ErrShortMessage
		}

		l := int(nlenc.Uint32(b[0:4]))
		if l < headerLen || l > len(b) {
			return msgs, fmt.Errorf("%w: %d of %d bytes", ErrBadLength, l, len(b))
		}

		msgs = append(msgs, netlink.Message{
			Header: netlink.Header{
				Length:   uint32(l),
				Type:     netlink.HeaderType(nlenc.Uint16(b[4:6])),
				Flags:    netlink.HeaderFlags(nlenc.Uint16(b[6:8])),
				Sequence: nlenc.Uint32(b[8:12]),
				PID:      nlenc.Uint32(b[12:16]),
			},
			Data: b[headerLen:l],
		})

		// The last message may lack its padding.
		b = b[min(align(l), len(b)):]
	}

	return msgs, nil
}

// Err returns the error carried by an NLMSG_ERROR message, or by an
// NLMSG_DONE closing a dump that failed. Acknowledgements and any other
// message yield nil.
func Err(m netlink.Message) error {
	switch {
	case m.Header.Type == netlink.Error:
	case m.Header.Type == netlink.Done && len(m.Data) > 0:
	default:
		return nil
	}

	if len(m.Data) < 4 {
		return ErrShortErrorMsg
	}

	code := nlenc.Int32(m.Data[0:4])
	if code == 0 {
		return nil
	}

	return os.NewSyscallError("netlink", syscall.Errno(-code))
}

// Done reports whether m terminates a multipart reply.
func Done(m netlink.Message) bool {
	return m.Header.Type == netlink.Done
}

// Ack reports whether m is an acknowledgement without error.
func Ack(m netlink.Message) bool {
	return m.Header.Type == netlink.Error && len(m.Data) >= 4 && nlenc.Int32(m.Data[0:4]) == 0
}
