package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/webagent/webagent/internal/repository"
)

// Version is set at build time.
var Version = "1.0.0"

type rootOptions struct {
	databaseURL string
	timeout     time.Duration
	output      string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "webagentctl",
		Short: "Administer a WebAgent deployment",
		Long: `webagentctl manages the WebAgent database and accounts without going
through the HTTP API.

Examples:
  webagentctl migrate
  webagentctl user create alice --api-key nvapi-xxxx
  echo "$PASSWORD" | webagentctl user create alice --api-key nvapi-xxxx --login -o json
  webagentctl token issue 0b7d...`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.PersistentFlags().StringVar(&opts.databaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "Deadline for the whole command")
	cmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "plain", "Output format: plain or json")

	cmd.AddCommand(newMigrateCmd(opts))
	cmd.AddCommand(newUserCmd(opts))
	cmd.AddCommand(newTokenCmd(opts))

	return cmd
}

// connect opens the repository with the command deadline applied.
func (o *rootOptions) connect(parent context.Context) (context.Context, context.CancelFunc, *repository.Repository, error) {
	if o.databaseURL == "" {
		return nil, nil, nil, fmt.Errorf("DATABASE_URL or --database-url is required")
	}
	switch o.output {
	case "plain", "json":
	default:
		return nil, nil, nil, fmt.Errorf("invalid output format %q; use plain or json", o.output)
	}

	ctx, cancel := context.WithTimeout(parent, o.timeout)
	repo, err := repository.New(ctx, o.databaseURL)
	if err != nil {
		cancel()
		return nil, nil, nil, fmt.Errorf("connect database: %w", err)
	}
	return ctx, cancel, repo, nil
}

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel, repo, err := opts.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer cancel()
			defer repo.Close()

			if err := repo.Migrate(ctx); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}
