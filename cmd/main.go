package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/scitags/nldgram/types"
	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "nldgram",
		Short: "Non-blocking netlink datagram channels.",
		Long: "nldgram opens non-blocking AF_NETLINK datagram channels, drives them\n" +
			"with an epoll event loop and decodes what the kernel sends back.",
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Get the built version.",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("version: %s\n", baseVersion)
			fmt.Printf("built commit: %s\n", builtCommit)
		},
	}

	confPath     string
	logLevelFlag string
	logTimeFlag  bool
	jsonFlag     bool

	conf *Config

	baseVersion = "0.1.0"
	builtCommit = "dev"
)

func init() {
	rootCmd.PersistentFlags().StringVar(&confPath, "config", "", "path to the YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "info", "one of trace, debug, info, warn or error")
	rootCmd.PersistentFlags().BoolVar(&logTimeFlag, "log-time", false, "include timestamps in log lines")
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "log as JSON instead of text")

	// Disable completion please!
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	// Add the different sub-commands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(protocolsCmd)
	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(manCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	level, ok := types.ParseLogLevel(logLevelFlag)
	if !ok {
		return fmt.Errorf("unknown log level %q", logLevelFlag)
	}

	opts := &slog.HandlerOptions{
		AddSource:   level <= types.LevelDebug,
		Level:       level,
		ReplaceAttr: logReplacements,
	}

	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if jsonFlag {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))

	if confPath == "" {
		conf = DefaultConfig()
		return nil
	}

	c, err := ReadConf(confPath)
	if err != nil {
		return err
	}
	conf = c

	slog.Debug("loaded configuration", "path", confPath)

	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
