package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/lynkbyte/evolution-bridge/internal/adapter/storage/postgres"
	"github.com/lynkbyte/evolution-bridge/internal/core/domain"
	"github.com/lynkbyte/evolution-bridge/internal/core/ports"
	"github.com/lynkbyte/evolution-bridge/internal/service"

	"github.com/spf13/cobra"
)

// noInstanceCache stands in for the postgres cache on commands that only
// talk to the API server, so they work without a database connection.
type noInstanceCache struct{}

func (noInstanceCache) Upsert(context.Context, *domain.Instance) (bool, error) {
	return false, fmt.Errorf("instance cache is not wired")
}

func (noInstanceCache) GetByName(context.Context, string) (*domain.Instance, error) {
	return nil, fmt.Errorf("instance cache is not wired")
}

func (noInstanceCache) List(context.Context) ([]domain.Instance, error) {
	return nil, fmt.Errorf("instance cache is not wired")
}

func newInstancesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "instances",
		Short: "Inspect and manage WhatsApp instances",
	}
	cmd.AddCommand(
		newInstancesListCmd(),
		newInstancesSyncCmd(),
		newInstancesConnectCmd(),
		newInstancesDisconnectCmd(),
	)
	return cmd
}

// instanceService wires the instance service with its postgres-backed
// cache. The returned cleanup closes the pool.
func instanceService(ctx context.Context) (ports.InstanceService, func(), error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	client, err := selectedClient(cfg, log)
	if err != nil {
		return nil, nil, err
	}

	pool, err := postgres.NewPool(ctx, cfg.Database, log)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to PostgreSQL: %w", err)
	}

	svc := service.NewInstanceService(client, postgres.NewInstanceRepo(pool), log)
	return svc, func() { pool.Close() }, nil
}

func newInstancesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List instances registered on the Evolution API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			client, err := selectedClient(cfg, logQuiet())
			if err != nil {
				return err
			}

			svc := service.NewInstanceService(client, noInstanceCache{}, logQuiet())
			infos, err := svc.List(cmd.Context())
			if err != nil {
				return err
			}

			if len(infos) == 0 {
				cmd.Println("No instances registered")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSTATE\tOWNER\tPROFILE")
			for _, info := range infos {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", info.Name, info.ConnectionState, info.OwnerJID, info.ProfileName)
			}
			return w.Flush()
		},
	}
}

func newInstancesSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Reconcile the local instance cache with the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cleanup, err := instanceService(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := svc.Sync(cmd.Context())
			if err != nil {
				return err
			}

			cmd.Printf("Fetched %d instances: %d created, %d updated\n",
				result.Fetched, result.Created, result.Updated)
			return nil
		},
	}
}

func newInstancesConnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "connect <name>",
		Short: "Request pairing material for an instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			client, err := selectedClient(cfg, logQuiet())
			if err != nil {
				return err
			}

			svc := service.NewInstanceService(client, noInstanceCache{}, logQuiet())
			result, err := svc.Connect(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if result.PairingCode != "" {
				cmd.Printf("Pairing code: %s\n", result.PairingCode)
			}
			if result.QRCode != "" {
				cmd.Printf("QR code payload (%d refreshes): %s\n", result.Count, result.QRCode)
			}
			if result.PairingCode == "" && result.QRCode == "" {
				cmd.Println("Instance is already connected")
			}
			return nil
		},
	}
}

func newInstancesDisconnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect <name>",
		Short: "Log an instance out of its WhatsApp session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cleanup, err := instanceService(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			if err := svc.Disconnect(cmd.Context(), args[0]); err != nil {
				return err
			}
			cmd.Printf("Instance %s disconnected\n", args[0])
			return nil
		},
	}
}
