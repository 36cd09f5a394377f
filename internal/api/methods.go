package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/procfs"
)

func handleRoot(c echo.Context) error {
	cc := c.(*extendedContext)
	return c.JSONPretty(http.StatusOK, &rootResponse{
		ApiRoutes: cc.apiRoutes,
	}, JSON_PRETTY_INDENT)
}

func handleChannels(c echo.Context) error {
	cc := c.(*extendedContext)

	verbosity := c.QueryParam("verbosity")
	if _, ok := validTags[verbosity]; verbosity != "" && !ok {
		return c.JSONPretty(http.StatusBadRequest, map[string]string{
			"error": "unknown verbosity " + strconv.Quote(verbosity),
		}, JSON_PRETTY_INDENT)
	}

	targets := fdTargets()

	statuses := make([]*Status, 0, len(cc.channels))
	for _, ch := range cc.channels {
		st := &Status{
			Protocol:  ch.Protocol().String(),
			Value:     int(ch.Protocol()),
			Groups:    ch.Groups(),
			Fd:        ch.Fd(),
			Target:    targets[ch.Fd()],
			Verbosity: verbosity,
		}
		if st.Fd >= 0 {
			if addr, err := ch.LocalAddr(); err == nil {
				st.PortID = addr.PortID
			}
		}
		statuses = append(statuses, st)
	}

	return c.JSONPretty(http.StatusOK, statuses, JSON_PRETTY_INDENT)
}

// fdTargets maps this process's descriptors onto what they point to.
func fdTargets() map[int]string {
	targets := map[int]string{}

	p, err := procfs.Self()
	if err != nil {
		slog.Warn("couldn't access procfs", "err", err)
		return targets
	}

	fds, err := p.FileDescriptors()
	if err != nil {
		slog.Warn("couldn't list descriptors", "err", err)
		return targets
	}

	ts, err := p.FileDescriptorTargets()
	if err != nil {
		slog.Warn("couldn't read descriptor targets", "err", err)
		return targets
	}

	// Both listings come from separate reads of /proc/self/fd and only line
	// up if no descriptor came or went in between.
	if len(fds) != len(ts) {
		slog.Warn("descriptor table changed while reading it")
		return targets
	}

	for i, fd := range fds {
		targets[int(fd)] = ts[i]
	}

	return targets
}
