package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"presensi/internal/app"
	"presensi/internal/domain"
)

func newUserCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}
	cmd.AddCommand(newUserCreateCommand())
	return cmd
}

func newUserCreateCommand() *cobra.Command {
	var name, email, password, role string

	cmd := &cobra.Command{
		Use:     "create",
		Short:   "Create a user with any role",
		Example: `  presensi user create --nama "Admin HR" --email hr@example.com --password s3cret --role admin`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, closer, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = closer.Close() }()

			st, err := openStore(cfg.Database, log)
			if err != nil {
				return err
			}
			defer func() { _ = st.close() }()

			auth := app.NewAuthService(st.users, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
			u, err := auth.Register(cmd.Context(), name, email, password, domain.Role(role))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "created user %d <%s> with role %s\n", u.ID, u.Email, u.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "nama", "", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Login email")
	cmd.Flags().StringVar(&password, "password", "", "Initial password")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleEmployee), "Role (karyawan or admin)")
	for _, f := range []string{"nama", "email", "password"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}
