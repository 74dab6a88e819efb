// Package cmd contains the command line applications for the project.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/filevault/pkg/app"
	"github.com/yeisme/filevault/pkg/configs"
)

var (
	configPath string

	rootCmd = &cobra.Command{
		Use:     "filevault",
		Short:   "A self-hosted file storage service with folders, previews and share links",
		Version: configs.AppVersion,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := configs.InitConfig(configPath); err != nil {
				return fmt.Errorf("init config: %w", err)
			}

			return nil
		},
		RunE:          runServe,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "start the http server, preview workers and scheduled jobs",
		RunE:  runServe,
	}
)

func runServe(cmd *cobra.Command, args []string) error {
	a, err := app.NewApp(cmd.Context(), configs.GetConfig())
	if err != nil {
		return err
	}

	return a.Run(cmd.Context())
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".", "config file or directory")

	rootCmd.AddCommand(serveCmd)

	registerConfigsCommands()
	registerDBCommands()
	registerBackendCommands()
	registerSweepCommands()
}

// Execute 以 ctx 运行根命令，ctx 取消时长时间运行的子命令随之退出.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
