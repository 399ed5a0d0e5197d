package main

import (
	"github.com/spf13/cobra"
	"github.com/wyfcoding/aromastore/internal/schema"
)

func newMigrateCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update database tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer e.db.Close()
			return schema.Migrate(cmd.Context(), e.db.DB)
		},
	}
}
