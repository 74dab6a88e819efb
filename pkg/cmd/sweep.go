package cmd

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/yeisme/filevault/pkg/configs"
	"github.com/yeisme/filevault/pkg/internal/service"
	"github.com/yeisme/filevault/pkg/internal/storage"
)

var (
	sweepDays int

	// 手动执行一次回收站清理.
	sweepCmd = &cobra.Command{
		Use:   "sweep",
		Short: "permanently delete trashed files older than the retention period",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := configs.GetConfig()

			mgr, err := storage.Init(ctx, cfg, nil)
			if err != nil {
				return err
			}
			defer mgr.Close()

			svc := service.New(service.Deps{
				DB:     mgr.GetDBClient().GetDB(),
				Blobs:  mgr.GetBlobStore(),
				MQ:     mgr.GetMQClient(),
				Config: cfg,
			})

			res := svc.Sweeper.Sweep(ctx, sweepDays)

			b, err := sonic.ConfigStd.MarshalIndent(res, "", "  ")
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(b))

			if n := len(res.Failures); n > 0 {
				return fmt.Errorf("sweep finished with %d failures", n)
			}

			return nil
		},
	}
)

// registerSweepCommands 注册清理命令.
func registerSweepCommands() {
	sweepCmd.Flags().IntVar(&sweepDays, "days", -1, "retention days, negative uses retention.days from config")

	rootCmd.AddCommand(sweepCmd)
}
