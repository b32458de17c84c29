package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lynkbyte/evolution-bridge/config"
	"github.com/lynkbyte/evolution-bridge/internal/adapter/storage/postgres"

	"github.com/spf13/cobra"
)

const configTemplate = `server:
  host: 0.0.0.0
  port: 8080
  mode: release

evolution:
  base_url: %q
  api_key: %q
  instance: %q
  timeout: 10s

webhook:
  path: /webhook/evolution
  verify_signature: false
  secret: ""
  queue: false
  rate_limit: 0

queue:
  connection: redis
  queue: default
  max_tries: 3
  backoff: [60s, 300s, 900s]
  poll_interval: 1s

database:
  host: localhost
  port: 5432
  user: postgres
  password: postgres
  dbname: evolution_bridge
  sslmode: disable

redis:
  host: localhost
  port: 6379
  password: ""
  db: 0

log:
  level: info
  pretty: false
`

func newInstallCmd() *cobra.Command {
	var (
		force   bool
		migrate bool
	)

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Write a starter config.yaml and optionally apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			target := cfgFile
			if target == "" {
				target = "config.yaml"
			}

			if _, err := os.Stat(target); err == nil && !force {
				return fmt.Errorf("%s already exists, pass --force to overwrite", target)
			}

			in := bufio.NewReader(cmd.InOrStdin())
			baseURL, err := prompt(cmd, in, "Evolution API server URL", "http://localhost:8080")
			if err != nil {
				return err
			}
			apiKey, err := prompt(cmd, in, "API key", "")
			if err != nil {
				return err
			}
			instance, err := prompt(cmd, in, "Default instance name", "")
			if err != nil {
				return err
			}

			content := fmt.Sprintf(configTemplate, baseURL, apiKey, instance)
			if err := os.WriteFile(target, []byte(content), 0o600); err != nil {
				return fmt.Errorf("writing %s: %w", target, err)
			}
			cmd.Printf("Wrote %s\n", target)

			if !migrate {
				return nil
			}

			cfg, err := config.Load(target)
			if err != nil {
				return err
			}
			pool, err := postgres.NewPool(cmd.Context(), cfg.Database, logQuiet())
			if err != nil {
				return fmt.Errorf("connecting to PostgreSQL: %w", err)
			}
			defer pool.Close()

			if err := postgres.Migrate(cmd.Context(), pool); err != nil {
				return err
			}
			cmd.Println("Database schema applied")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply the database schema after writing the config")
	return cmd
}

// prompt asks for one value on stdin. An empty answer picks the default.
func prompt(cmd *cobra.Command, in *bufio.Reader, label, def string) (string, error) {
	if def != "" {
		cmd.Printf("%s [%s]: ", label, def)
	} else {
		cmd.Printf("%s: ", label)
	}

	line, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}

	line = strings.TrimSpace(line)
	if line == "" {
		return def, nil
	}
	return line, nil
}
