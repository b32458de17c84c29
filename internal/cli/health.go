package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/lynkbyte/evolution-bridge/internal/core/domain"

	"github.com/spf13/cobra"
)

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check connectivity to the Evolution API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}

			client, err := selectedClient(cfg, logQuiet())
			if err != nil {
				return err
			}

			ctx := cmd.Context()

			info, err := client.ServerInfo(ctx)
			if err != nil {
				return fmt.Errorf("server unreachable: %w", err)
			}

			instances, err := client.FetchInstances(ctx)
			if err != nil {
				return fmt.Errorf("fetching instances: %w", err)
			}

			connected := 0
			for _, inst := range instances {
				if inst.ConnectionState == domain.ConnectionStateOpen {
					connected++
				}
			}

			server, err := cfg.Evolution.Server(connName)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "SERVER\t%s\n", server.BaseURL)
			fmt.Fprintf(w, "VERSION\t%s\n", info.Version)
			fmt.Fprintf(w, "STATUS\t%d %s\n", info.Status, info.Message)
			fmt.Fprintf(w, "INSTANCES\t%d (%d connected)\n", len(instances), connected)
			return w.Flush()
		},
	}
}
