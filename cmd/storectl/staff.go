package main

import (
	"fmt"

	"github.com/spf13/cobra"
	authapp "github.com/wyfcoding/aromastore/internal/auth/application"
	authmysql "github.com/wyfcoding/aromastore/internal/auth/infrastructure/persistence/mysql"
	"github.com/wyfcoding/aromastore/pkg/db"
	"github.com/wyfcoding/aromastore/pkg/outbox"
)

func newCreateStaffCmd(open opener) *cobra.Command {
	var (
		cmdArgs authapp.RegisterCommand
		role    string
	)
	c := &cobra.Command{
		Use:     "create-staff",
		Short:   "Create a staff account with the given role",
		Example: "  storectl create-staff --email ops@example.com --password 's3cret-pass' --role manager",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer e.db.Close()

			svc := authapp.NewAuthCommandService(
				authmysql.NewUserRepository(e.db.DB),
				nil, nil, nil, nil,
				db.NewTransactor(e.db.DB),
				outbox.NewPublisher(e.db.DB),
				e.cfg.Auth.BcryptCost,
			)
			u, err := svc.CreateStaff(cmd.Context(), cmdArgs, role)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (id=%d, role=%s)\n", u.Email, u.ID, u.Role)
			return nil
		},
	}
	c.Flags().StringVar(&cmdArgs.Email, "email", "", "login email")
	c.Flags().StringVar(&cmdArgs.Password, "password", "", "initial password, at least 8 characters")
	c.Flags().StringVar(&cmdArgs.Name, "name", "", "display name")
	c.Flags().StringVar(&role, "role", "support", "support, manager or admin")
	_ = c.MarkFlagRequired("email")
	_ = c.MarkFlagRequired("password")
	return c
}
