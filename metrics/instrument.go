package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/scitags/nldgram/socket"
	"github.com/scitags/nldgram/types"
)

// Conn is what Instrument needs from a channel.
type Conn interface {
	Send(b []byte) (int, error)
	Recv(b []byte) (int, error)
	Close() error
	Protocol() types.Protocol
	Groups() uint32
}

// Instrumented counts traffic going through a Conn without altering any
// result.
type Instrumented struct {
	Conn

	m      *Metrics
	labels prometheus.Labels
	closed bool
}

// Instrument wraps conn. The wrapper must be closed instead of conn for the
// channel gauge to stay accurate.
func Instrument(conn Conn, m *Metrics) *Instrumented {
	labels := newLabels(conn.Protocol(), conn.Groups())
	m.Channels.With(prometheus.Labels{"protocol": labels["protocol"]}).Inc()

	logger.Debug("instrumenting channel", "protocol", labels["protocol"], "groups", labels["groups"])

	return &Instrumented{Conn: conn, m: m, labels: labels}
}

func (i *Instrumented) failure(op string, err error) {
	l := prometheus.Labels{"protocol": i.labels["protocol"], "groups": i.labels["groups"], "op": op}
	if socket.IsWouldBlock(err) {
		i.m.WouldBlock.With(l).Inc()
		return
	}
	i.m.Errors.With(l).Inc()
}

func (i *Instrumented) Send(b []byte) (int, error) {
	n, err := i.Conn.Send(b)
	if err != nil {
		i.failure("send", err)
		return n, err
	}

	i.m.DatagramsSent.With(i.labels).Inc()
	i.m.BytesSent.With(i.labels).Add(float64(n))

	return n, nil
}

func (i *Instrumented) Recv(b []byte) (int, error) {
	n, err := i.Conn.Recv(b)
	if err != nil {
		i.failure("recv", err)
		return n, err
	}

	i.m.DatagramsReceived.With(i.labels).Inc()
	i.m.BytesReceived.With(i.labels).Add(float64(n))

	return n, nil
}

func (i *Instrumented) Close() error {
	if !i.closed {
		i.closed = true
		i.m.Channels.With(prometheus.Labels{"protocol": i.labels["protocol"]}).Dec()
	}
	return i.Conn.Close()
}
