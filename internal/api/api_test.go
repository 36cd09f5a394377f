//go:build linux

package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/scitags/nldgram/metrics"
	"github.com/scitags/nldgram/netlink"
)

func init() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		AddSource: true,
		Level:     slog.LevelDebug,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Remove time.
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			// Remove the directory from the source's filename.
			if a.Key == slog.SourceKey {
				source := a.Value.Any().(*slog.Source)
				source.File = filepath.Base(source.File)
			}
			return a
		},
	}))
	slog.SetDefault(logger)
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func openChannels(t *testing.T) (*netlink.Channel, *netlink.Channel) {
	t.Helper()

	open, err := netlink.Open(&netlink.Config{Protocol: "route", Groups: 0x11, AutoPort: true})
	if err != nil {
		t.Fatalf("error opening a channel: %v", err)
	}
	t.Cleanup(func() { open.Close() })

	closed, err := netlink.Open(&netlink.Config{Protocol: "usersock", AutoPort: true})
	if err != nil {
		t.Fatalf("error opening a channel: %v", err)
	}
	closed.Close()

	return open, closed
}

func TestChannels(t *testing.T) {
	open, closed := openChannels(t)
	s := New(nil, nil, open, closed)

	rec := get(t, s.Handler(), "/channels")
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d: %s", rec.Code, rec.Body)
	}

	sch, err := jsonschema.NewCompiler().Compile("testdata/channels-schema.json")
	if err != nil {
		t.Fatalf("error compiling the schema: %v", err)
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("error unmarshalling the payload: %v", err)
	}
	if err := sch.Validate(inst); err != nil {
		t.Errorf("error validating the payload: %v", err)
	}

	var got []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("error decoding the payload: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d channels, want 2", len(got))
	}

	local, err := open.LocalAddr()
	if err != nil {
		t.Fatalf("error getting the local address: %v", err)
	}

	want := []map[string]any{
		{
			"protocol": "route",
			"value":    float64(0),
			"groups":   float64(0x11),
			"fd":       float64(open.Fd()),
			"portID":   float64(local.PortID),
		},
		{
			"protocol": "usersock",
			"value":    float64(2),
			"groups":   float64(0),
			"fd":       float64(-1),
			"portID":   float64(0),
			"target":   "",
		},
	}

	if target, _ := got[0]["target"].(string); !strings.HasPrefix(target, "socket:[") {
		t.Errorf("got target %q for an open channel", target)
	}
	delete(got[0], "target")

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("status mismatch (-want +got):\n%s", diff)
	}
}

func TestChannelsLean(t *testing.T) {
	open, _ := openChannels(t)
	s := New(nil, nil, open)

	rec := get(t, s.Handler(), "/channels?verbosity=lean")
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d: %s", rec.Code, rec.Body)
	}

	var got []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("error decoding the payload: %v", err)
	}

	var keys []string
	for k := range got[0] {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	if diff := cmp.Diff([]string{"fd", "groups", "protocol"}, keys); diff != "" {
		t.Errorf("key mismatch (-want +got):\n%s", diff)
	}

	if rec := get(t, s.Handler(), "/channels?verbosity=loud"); rec.Code != http.StatusBadRequest {
		t.Errorf("got status %d for an unknown verbosity", rec.Code)
	}
}

func TestRootAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(nil)
	if err := m.Register(reg); err != nil {
		t.Fatalf("error registering: %v", err)
	}

	open, _ := openChannels(t)
	ic := metrics.Instrument(open, m)
	ic.Recv(make([]byte, 64))

	s := New(nil, reg, open)

	rec := get(t, s.Handler(), "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d", rec.Code)
	}

	var root struct {
		ApiRoutes []struct {
			Method string `json:"method"`
			Path   string `json:"path"`
		}
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &root); err != nil {
		t.Fatalf("error decoding the route list: %v", err)
	}

	var paths []string
	for _, r := range root.ApiRoutes {
		paths = append(paths, r.Path)
	}
	slices.Sort(paths)
	if diff := cmp.Diff([]string{"/", "/channels", "/metrics"}, paths); diff != "" {
		t.Errorf("route mismatch (-want +got):\n%s", diff)
	}

	rec = get(t, s.Handler(), "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d", rec.Code)
	}
	for _, want := range []string{
		`nldgram_channels{protocol="route"} 1`,
		`nldgram_would_block_total{groups="0x11",op="recv",protocol="route"} 1`,
	} {
		if !strings.Contains(rec.Body.String(), want) {
			t.Errorf("metrics lack %q", want)
		}
	}

	if rec := get(t, New(nil, nil).Handler(), "/metrics"); rec.Code != http.StatusNotFound {
		t.Errorf("got status %d without a registry", rec.Code)
	}
}

func TestConfig(t *testing.T) {
	var c Config
	if err := yaml.Unmarshal([]byte("bindPort: 8080\n"), &c); err != nil {
		t.Fatalf("error parsing: %v", err)
	}

	want := Config{BindAddress: "127.0.0.1", BindPort: 8080}
	if diff := cmp.Diff(want, c); diff != "" {
		t.Errorf("configuration mismatch (-want +got):\n%s", diff)
	}
}
