package cli

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/nilantra/furniture-api/internal/config"
	"github.com/nilantra/furniture-api/internal/repository"
)

// RootOptions holds state shared by all commands.
type RootOptions struct {
	EnvFile string

	// OpenStore connects to the configured backend. Tests replace it.
	OpenStore func(ctx context.Context, cfg *config.Config) (*repository.Store, error)

	cfg *config.Config
}

// NewRootCommand creates the shopctl root command.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{OpenStore: repository.Open})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shopctl",
		Short: "Operator tasks for the furniture store API",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.EnvFile != "" {
				_ = godotenv.Load(opts.EnvFile)
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			opts.cfg = cfg
			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file to load before reading the environment")

	cmd.AddCommand(newCreateAdminCommand(opts))
	cmd.AddCommand(newExportProductsCommand(opts))
	return cmd
}

// withStore opens the store for the duration of fn.
func (o *RootOptions) withStore(ctx context.Context, fn func(*repository.Store) error) error {
	store, err := o.OpenStore(ctx, o.cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close(context.Background())
	return fn(store)
}
