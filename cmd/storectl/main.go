// storectl 运维命令行：建表、导入示例数据、创建员工账号
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/wyfcoding/aromastore/pkg/config"
	"github.com/wyfcoding/aromastore/pkg/db"
	"github.com/wyfcoding/aromastore/pkg/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// env 命令运行所需的配置与数据库
type env struct {
	cfg *config.Config
	db  *db.DB
}

func newRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:           "storectl",
		Short:         "Administrative tasks for the aroma storefront",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c",
		config.GetEnv("STOREFRONT_CONFIG", "configs/storefront/config.toml"), "path to config file")

	open := func(ctx context.Context) (*env, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		logger.InitWriter(os.Stderr, cfg.Logger.Level)
		database, err := db.Init(db.Config{
			Driver:             cfg.Database.Driver,
			DSN:                cfg.Database.DSN,
			MaxOpenConns:       2,
			MaxIdleConns:       1,
			ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
			LogEnabled:         cfg.Database.LogEnabled,
			SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
		})
		if err != nil {
			return nil, err
		}
		return &env{cfg: cfg, db: database}, nil
	}

	root.AddCommand(newMigrateCmd(open), newSeedCmd(open), newCreateStaffCmd(open))
	return root
}

type opener func(ctx context.Context) (*env, error)
