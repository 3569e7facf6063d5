package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mmynk/hostel/internal/auth"
)

// newCreateUserCommand registers accounts. The API has no sign-up endpoint,
// so this is how users (and the first admin) come to exist.
func newCreateUserCommand(load configLoader) *cobra.Command {
	var (
		email     string
		password  string
		staff     bool
		superuser bool
	)

	cmd := &cobra.Command{
		Use:   "create-user <username>",
		Short: "Create a user account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			user, err := auth.NewPasswordAuthenticator(store).Register(ctx, args[0], email, password)
			if err != nil {
				return fmt.Errorf("create user %q: %w", args[0], err)
			}

			if staff || superuser {
				user.IsStaff = staff || superuser
				user.IsSuperuser = superuser
				if err := store.UpdateUser(ctx, user); err != nil {
					return fmt.Errorf("grant roles to %q: %w", user.Username, err)
				}
			}

			slog.Info("User created", "user_id", user.ID, "username", user.Username, "staff", user.IsStaff)
			fmt.Fprintf(cmd.OutOrStdout(), "%d\n", user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address (required)")
	cmd.Flags().StringVar(&password, "password", "", "password, at least 8 characters (required)")
	cmd.Flags().BoolVar(&staff, "staff", false, "grant admin access")
	cmd.Flags().BoolVar(&superuser, "superuser", false, "mark as superuser (implies --staff)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
