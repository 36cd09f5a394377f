package codec

import (
	"errors"
	"syscall"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jsimonetti/rtnetlink"
	"github.com/mdlayher/netlink"
	"github.com/mdlayher/netlink/nlenc"
)

type rawPayload []byte

func (p rawPayload) MarshalBinary() ([]byte, error) { return p, nil }

func kvMap(kv []any) map[string]any {
	m := map[string]any{}
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i].(string)] = kv[i+1]
	}
	return m
}

func TestLinkDump(t *testing.T) {
	b, err := LinkDump(42)
	if err != nil {
		t.Fatalf("error building the request: %v", err)
	}

	if len(b) != 32 {
		t.Fatalf("got %d bytes, want 32", len(b))
	}

	msgs, err := Split(b)
	if err != nil {
		t.Fatalf("error splitting: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}

	want := netlink.Header{
		Length:   32,
		Type:     RTMGetLink,
		Flags:    netlink.Request | netlink.Dump,
		Sequence: 42,
	}
	if diff := cmp.Diff(want, msgs[0].Header); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(make([]byte, 16), msgs[0].Data); diff != "" {
		t.Errorf("ifinfomsg mismatch (-want +got):\n%s", diff)
	}
}

func TestRequestPadding(t *testing.T) {
	tests := []struct {
		payload rawPayload
		want    int
	}{
		{nil, 16},
		{rawPayload{1}, 20},
		{rawPayload{1, 2, 3, 4}, 20},
		{rawPayload{1, 2, 3, 4, 5}, 24},
	}

	for _, test := range tests {
		var data interface{ MarshalBinary() ([]byte, error) }
		if test.payload != nil {
			data = test.payload
		}

		b, err := Request(netlink.Noop, 0, 1, data)
		if err != nil {
			t.Fatalf("%v: error framing: %v", test.payload, err)
		}
		if len(b) != test.want {
			t.Errorf("%v: got %d bytes, want %d", test.payload, len(b), test.want)
		}
		if l := nlenc.Uint32(b[0:4]); int(l) != test.want {
			t.Errorf("%v: header length %d, want %d", test.payload, l, test.want)
		}
		if f := netlink.HeaderFlags(nlenc.Uint16(b[6:8])); f&netlink.Request == 0 {
			t.Errorf("%v: request flag missing", test.payload)
		}
	}
}

func TestSplit(t *testing.T) {
	first, err := Request(RTMGetAddr, netlink.Dump, 1, &rtnetlink.AddressMessage{Family: 2})
	if err != nil {
		t.Fatalf("error framing: %v", err)
	}
	second, err := Request(netlink.Noop, netlink.Acknowledge, 2, rawPayload{0xaa, 0xbb})
	if err != nil {
		t.Fatalf("error framing: %v", err)
	}

	msgs, err := Split(append(first, second...))
	if err != nil {
		t.Fatalf("error splitting: %v", err)
	}

	want := []netlink.Header{
		{Length: 24, Type: RTMGetAddr, Flags: netlink.Request | netlink.Dump, Sequence: 1},
		{Length: 20, Type: netlink.Noop, Flags: netlink.Request | netlink.Acknowledge, Sequence: 2},
	}
	got := []netlink.Header{}
	for _, m := range msgs {
		got = append(got, m.Header)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}

	var am rtnetlink.AddressMessage
	if err := am.UnmarshalBinary(msgs[0].Data); err != nil {
		t.Fatalf("error decoding the address message: %v", err)
	}
	if am.Family != 2 {
		t.Errorf("got family %d, want 2", am.Family)
	}
}

func TestSplitUnpaddedTail(t *testing.T) {
	b := make([]byte, 17)
	nlenc.PutUint32(b[0:4], 17)
	nlenc.PutUint16(b[4:6], uint16(netlink.Noop))

	msgs, err := Split(b)
	if err != nil {
		t.Fatalf("error splitting: %v", err)
	}
	if len(msgs) != 1 || len(msgs[0].Data) != 1 {
		t.Errorf("got %+v", msgs)
	}
}

func TestSplitErrors(t *testing.T) {
	long := make([]byte, 16)
	nlenc.PutUint32(long[0:4], 200)

	short := make([]byte, 16)
	nlenc.PutUint32(short[0:4], 8)

	tests := map[string]struct {
		in   []byte
		want error
	}{
		"truncated header": {make([]byte, 10), ErrShortMessage},
		"length too long":  {long, ErrBadLength},
		"length too short": {short, ErrBadLength},
	}

	for name, test := range tests {
		if _, err := Split(test.in); !errors.Is(err, test.want) {
			t.Errorf("%s: got %v, want %v", name, err, test.want)
		}
	}

	if msgs, err := Split(nil); err != nil || len(msgs) != 0 {
		t.Errorf("empty datagram: got %v, %v", msgs, err)
	}
}

func errorMessage(code int32) netlink.Message {
	return netlink.Message{
		Header: netlink.Header{Type: netlink.Error, Length: 36},
		Data:   append(nlenc.Int32Bytes(code), make([]byte, 16)...),
	}
}

func TestErr(t *testing.T) {
	if err := Err(errorMessage(0)); err != nil {
		t.Errorf("ack: got %v", err)
	}
	if !Ack(errorMessage(0)) {
		t.Errorf("ack not recognised")
	}

	err := Err(errorMessage(-int32(syscall.ENOENT)))
	if !errors.Is(err, syscall.ENOENT) {
		t.Errorf("got %v, want ENOENT", err)
	}
	if Ack(errorMessage(-int32(syscall.ENOENT))) {
		t.Errorf("error taken for an ack")
	}

	short := netlink.Message{Header: netlink.Header{Type: netlink.Error}, Data: []byte{1}}
	if err := Err(short); !errors.Is(err, ErrShortErrorMsg) {
		t.Errorf("got %v, want %v", err, ErrShortErrorMsg)
	}

	done := netlink.Message{Header: netlink.Header{Type: netlink.Done, Flags: netlink.Multi}}
	if err := Err(done); err != nil {
		t.Errorf("clean done: got %v", err)
	}
	if !Done(done) {
		t.Errorf("done not recognised")
	}

	done.Data = nlenc.Int32Bytes(-int32(syscall.EINTR))
	if err := Err(done); !errors.Is(err, syscall.EINTR) {
		t.Errorf("interrupted dump: got %v, want EINTR", err)
	}

	if err := Err(netlink.Message{Header: netlink.Header{Type: RTMNewLink}}); err != nil {
		t.Errorf("link message: got %v", err)
	}
}

func TestDescribeLink(t *testing.T) {
	lm := &rtnetlink.LinkMessage{
		Index: 3,
		Flags: iffUp,
		Attributes: &rtnetlink.LinkAttributes{
			Name:             "nl0",
			MTU:              1500,
			OperationalState: rtnetlink.OperStateUp,
			Type:             1,
		},
	}
	data, err := lm.MarshalBinary()
	if err != nil {
		t.Fatalf("error marshalling: %v", err)
	}

	got := kvMap(Describe(netlink.Message{
		Header: netlink.Header{Type: RTMNewLink, Sequence: 9, PID: 77},
		Data:   data,
	}))

	want := map[string]any{
		"type":  "RTM_NEWLINK",
		"seq":   uint32(9),
		"pid":   uint32(77),
		"index": uint32(3),
		"up":    true,
		"name":  "nl0",
		"mtu":   uint32(1500),
		"state": "up",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("description mismatch (-want +got):\n%s", diff)
	}
}

func TestDescribeOther(t *testing.T) {
	got := kvMap(Describe(errorMessage(-int32(syscall.EPERM))))
	if got["type"] != "NLMSG_ERROR" {
		t.Errorf("got type %v", got["type"])
	}
	if err, ok := got["err"].(error); !ok || !errors.Is(err, syscall.EPERM) {
		t.Errorf("got err %v, want EPERM", got["err"])
	}

	got = kvMap(Describe(netlink.Message{Header: netlink.Header{Type: 1234, Length: 16}}))
	if got["type"] != "type(1234)" || got["len"] != uint32(16) {
		t.Errorf("got %v", got)
	}

	bad := kvMap(Describe(netlink.Message{Header: netlink.Header{Type: RTMNewAddr}, Data: []byte{1}}))
	if _, ok := bad["err"]; !ok {
		t.Errorf("truncated address message decoded without error: %v", bad)
	}
}
