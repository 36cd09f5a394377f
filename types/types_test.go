package types

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestProtocolValues(t *testing.T) {
	want := []Protocol{0, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 18, 19, 20, 21}
	if diff := cmp.Diff(want, Protocols()); diff != "" {
		t.Errorf("protocol set mismatch (-want +got):\n%s", diff)
	}

	for _, p := range []Protocol{-1, 1, 17, 22, 255} {
		if p.Valid() {
			t.Errorf("%d: got valid, want invalid", p)
		}
	}
}

func TestParseProtocol(t *testing.T) {
	tests := []struct {
		in   string
		want Protocol
		ok   bool
	}{
		{"route", Route, true},
		{"ROUTE", Route, true},
		{"NETLINK_ROUTE", Route, true},
		{" kobject_uevent ", KObjectUevent, true},
		{"sock_diag", InetDiag, true},
		{"16", Generic, true},
		{"21", Crypto, true},
		{"1", 0, false},
		{"17", 0, false},
		{"bogus", 0, false},
		{"", 0, false},
	}

	for _, test := range tests {
		got, ok := ParseProtocol(test.in)
		if ok != test.ok {
			t.Errorf("%q: got ok %v, want %v", test.in, ok, test.ok)
			continue
		}
		if ok && got != test.want {
			t.Errorf("%q: got %v, want %v", test.in, got, test.want)
		}
	}
}

func TestProtocolString(t *testing.T) {
	for _, p := range Protocols() {
		got, ok := ParseProtocol(p.String())
		if !ok || got != p {
			t.Errorf("%d: %q does not parse back (got %v, %v)", p, p.String(), got, ok)
		}
	}

	if s := Protocol(1).String(); s != "Protocol(1)" {
		t.Errorf("got %q, want %q", s, "Protocol(1)")
	}
}

func TestParseLogLevel(t *testing.T) {
	if l, ok := ParseLogLevel("trace"); !ok || l != LevelTrace {
		t.Errorf("got %v, %v; want %v, true", l, ok, LevelTrace)
	}
	if _, ok := ParseLogLevel("loud"); ok {
		t.Errorf("unknown level was accepted")
	}
}
