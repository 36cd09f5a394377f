package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/scitags/nldgram/types"
	"github.com/spf13/cobra"
)

var protocolsCmd = &cobra.Command{
	Use:   "protocols",
	Short: "List the netlink protocols channels can be opened for.",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tVALUE")
		for _, p := range types.Protocols() {
			fmt.Fprintf(w, "%s\t%d\n", p, int(p))
		}
		return w.Flush()
	},
}
