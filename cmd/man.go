package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

var (
	manDir string

	manCmd = &cobra.Command{
		Use:    "man",
		Short:  "Generate man pages for every command.",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := os.MkdirAll(manDir, 0o755); err != nil {
				return fmt.Errorf("error creating %q: %w", manDir, err)
			}

			header := &doc.GenManHeader{
				Title:   "NLDGRAM",
				Section: "1",
				Source:  "nldgram " + baseVersion,
			}
			return doc.GenManTree(rootCmd, header, manDir)
		},
	}
)

func init() {
	manCmd.Flags().StringVar(&manDir, "dir", "man", "directory to write the man pages to")
}
