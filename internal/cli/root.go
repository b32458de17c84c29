package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Persistent flag values shared by every command.
var (
	cfgFile  string
	connName string
)

// NewRootCmd builds the evobridge command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "evobridge",
		Short: "Bridge between Evolution API WhatsApp servers and your services",
		Long: `evobridge receives Evolution API webhooks, keeps a local record of
events and instances, and sends outbound WhatsApp messages with
queue-backed retries.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file (default ./config.yaml)")
	root.PersistentFlags().StringVar(&connName, "connection", "", "named evolution server from evolution.servers (default: primary)")

	root.AddCommand(
		newServeCmd(),
		newWorkerCmd(),
		newInstallCmd(),
		newHealthCmd(),
		newInstancesCmd(),
		newSendCmd(),
		newPruneCmd(),
		newRetryCmd(),
	)

	return root
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
