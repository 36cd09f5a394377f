// Package metrics counts what goes through netlink channels and exposes it
// to Prometheus.
package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/scitags/nldgram/types"
)

var logger = slog.New(slog.DiscardHandler)

// Metric labels (note these are **always** strings):
//
//	protocol: netlink protocol name as in types.Protocol.String()
//	groups: bind-time multicast mask in hex
//	op: the operation that failed or would block, send or recv
//	type: netlink message type name
var baseLabels = []string{"protocol", "groups"}

type Metrics struct {
	DatagramsSent     *prometheus.CounterVec
	DatagramsReceived *prometheus.CounterVec

	BytesSent     *prometheus.CounterVec
	BytesReceived *prometheus.CounterVec

	WouldBlock *prometheus.CounterVec
	Errors     *prometheus.CounterVec

	Messages *prometheus.CounterVec

	Channels *prometheus.GaugeVec
}

func New(c *Config) *Metrics {
	if c != nil && c.Log {
		logger = slog.Default().With("t", "metrics")
	}

	return &Metrics{
		DatagramsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nldgram_datagrams_sent_total",
			Help: "Datagrams accepted by the kernel",
		}, baseLabels),
		DatagramsReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nldgram_datagrams_received_total",
			Help: "Datagrams read off the socket, including empty ones",
		}, baseLabels),

		BytesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nldgram_bytes_sent_total",
			Help: "Bytes accepted by the kernel [B]",
		}, baseLabels),
		BytesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nldgram_bytes_received_total",
			Help: "Bytes read off the socket [B]",
		}, baseLabels),

		WouldBlock: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nldgram_would_block_total",
			Help: "Operations that returned EAGAIN",
		}, append(baseLabels, "op")),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nldgram_errors_total",
			Help: "Operations that failed for any other reason",
		}, append(baseLabels, "op")),

		Messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nldgram_messages_total",
			Help: "Netlink messages decoded out of received datagrams",
		}, []string{"protocol", "type"}),

		Channels: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "nldgram_channels",
			Help: "Instrumented channels currently open",
		}, []string{"protocol"}),
	}
}

// (Nastily) use reflection to avoid having to manually register everything.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	v := reflect.ValueOf(*m)

	i := 0
	for i = 0; i < v.NumField(); i++ {
		vv, ok := v.Field(i).Interface().(prometheus.Collector)
		if !ok {
			return fmt.Errorf("error casting the interface for index %d", i)
		}
		if err := reg.Register(vv); err != nil {
			return fmt.Errorf("error registering index %d: %w", i, err)
		}
	}
	logger.Log(context.Background(), types.LevelTrace, "registered collectors", "i", i)

	return nil
}

// Handler serves the contents of a non-global registry.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

func newLabels(proto types.Protocol, groups uint32) prometheus.Labels {
	return prometheus.Labels{
		"protocol": proto.String(),
		"groups":   fmt.Sprintf("%#x", groups),
	}
}

// ObserveMessage counts a netlink message of the given type name.
func (m *Metrics) ObserveMessage(proto types.Protocol, typ string) {
	m.Messages.With(prometheus.Labels{"protocol": proto.String(), "type": typ}).Inc()
}
