package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nilantra/furniture-api/internal/repository"
	"github.com/nilantra/furniture-api/internal/service"
)

type createAdminOptions struct {
	name     string
	email    string
	password string
}

// Admins cannot register over HTTP; this is how the first one is made.
func newCreateAdminCommand(root *RootOptions) *cobra.Command {
	opts := &createAdminOptions{}
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.withStore(cmd.Context(), func(store *repository.Store) error {
				auth := service.NewAuthService(store.Users, root.cfg.JWT.Secret, root.cfg.JWT.Expiration)
				user, err := auth.CreateAdmin(cmd.Context(), opts.name, opts.email, opts.password)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", user.Email, user.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&opts.name, "name", "", "display name")
	cmd.Flags().StringVar(&opts.email, "email", "", "login email")
	cmd.Flags().StringVar(&opts.password, "password", "", "password, at least 6 characters")
	for _, f := range []string{"name", "email", "password"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}
