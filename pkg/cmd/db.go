package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/yeisme/filevault/pkg/configs"
	"github.com/yeisme/filevault/pkg/internal/model"
	"github.com/yeisme/filevault/pkg/internal/storage/db"
)

var (
	dbCmd = &cobra.Command{
		Use:   "db",
		Short: "metadata database commands",
	}

	dbListCmd = &cobra.Command{
		Use:     "ls",
		Short:   "list compiled-in database drivers",
		Aliases: []string{"list"},
		Run: func(cmd *cobra.Command, args []string) {
			printTypes(cmd, "database", db.GetRegisteredDBTypes(), configs.GetConfig().DB.Driver())
		},
	}

	// 连接数据库并迁移表结构.
	dbMigrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "connect to the configured database and migrate the schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configs.GetConfig()
			start := time.Now()

			client, err := db.New(cmd.Context(), &cfg.DB)
			if err != nil {
				return err
			}
			defer client.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "migrated %s database %q in %s\n",
				cfg.DB.DisplayName(), cfg.DB.Database, time.Since(start).Round(time.Millisecond))

			return nil
		},
	}

	// 每张表的行数，包含已移入回收站的记录.
	dbTablesCmd = &cobra.Command{
		Use:   "tables",
		Short: "show row counts of the metadata tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := db.New(cmd.Context(), &configs.GetConfig().DB)
			if err != nil {
				return err
			}
			defer client.Close()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TABLE\tROWS")

			for _, m := range model.All() {
				stmt := &gorm.Statement{DB: client.DB}
				if err := stmt.Parse(m); err != nil {
					return fmt.Errorf("parse %T: %w", m, err)
				}

				var n int64
				if err := client.WithContext(cmd.Context()).Unscoped().Model(m).Count(&n).Error; err != nil {
					return fmt.Errorf("count %s: %w", stmt.Table, err)
				}

				fmt.Fprintf(tw, "%s\t%d\n", stmt.Table, n)
			}

			return tw.Flush()
		},
	}
)

// registerDBCommands 注册数据库相关命令.
func registerDBCommands() {
	dbCmd.AddCommand(dbListCmd, dbMigrateCmd, dbTablesCmd)

	rootCmd.AddCommand(dbCmd)
}
