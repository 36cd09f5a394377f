package api

import (
	"encoding/json"

	"github.com/fatih/structs"
	"github.com/labstack/echo/v4"
	"github.com/scitags/nldgram/netlink"
	"github.com/scitags/nldgram/types"
)

const (
	JSON_PRETTY_INDENT string = "    "
)

// Channel is what the server reports on. *netlink.Channel satisfies it.
type Channel interface {
	Protocol() types.Protocol
	Groups() uint32
	Fd() int
	LocalAddr() (netlink.Addr, error)
}

type rootResponse struct {
	ApiRoutes []*echo.Route
}

// validTags encodes the verbosities accepted on /channels. The lean one
// drops every field carrying a `lean:"-"` tag.
var validTags = map[string]struct{}{
	"lean": {},
}

// Status is a snapshot of a channel. Closed channels report a descriptor
// of -1 and no port id or target.
type Status struct {
	Protocol string `structs:"protocol" lean:"protocol"`
	Value    int    `structs:"value" lean:"-"`
	Groups   uint32 `structs:"groups" lean:"groups"`
	Fd       int    `structs:"fd" lean:"fd"`
	PortID   uint32 `structs:"portID" lean:"-"`

	// Target is what /proc/self/fd/<fd> points to: socket:[<inode>].
	Target string `structs:"target" lean:"-"`

	Verbosity string `structs:"-" lean:"-"`
}

func (s *Status) MarshalJSON() ([]byte, error) {
	st := structs.New(s)

	if _, ok := validTags[s.Verbosity]; ok {
		st.TagName = s.Verbosity
	}

	return json.Marshal(st.Map())
}

type extendedContext struct {
	echo.Context
	apiRoutes []*echo.Route
	channels  []Channel
}
