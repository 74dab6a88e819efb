package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/yeisme/filevault/pkg/configs"
	"github.com/yeisme/filevault/pkg/internal/storage"
	"github.com/yeisme/filevault/pkg/internal/storage/kv"
	"github.com/yeisme/filevault/pkg/internal/storage/mq"
)

const checkTimeout = 5 * time.Second

var (
	kvCmd = &cobra.Command{
		Use:   "kv",
		Short: "key-value cache backends",
	}

	kvListCmd = &cobra.Command{
		Use:     "ls",
		Short:   "list compiled-in kv backends",
		Aliases: []string{"list"},
		Run: func(cmd *cobra.Command, args []string) {
			printTypes(cmd, "kv", kv.GetRegisteredKVTypes(), configs.GetConfig().KV.Type)
		},
	}

	mqCmd = &cobra.Command{
		Use:   "mq",
		Short: "message queue backends",
	}

	mqListCmd = &cobra.Command{
		Use:     "ls",
		Short:   "list compiled-in mq backends",
		Aliases: []string{"list"},
		Run: func(cmd *cobra.Command, args []string) {
			printTypes(cmd, "mq", mq.GetRegisteredMQTypes(), configs.GetConfig().MQ.Type)
		},
	}

	// 连接全部已配置的存储组件并逐个检查.
	checkCmd = &cobra.Command{
		Use:   "check",
		Short: "connect to every configured backend and run its health check",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			mgr, err := storage.Init(ctx, configs.GetConfig(), nil)
			if err != nil {
				return err
			}
			defer mgr.Close()

			failed := 0

			for _, c := range []storage.Component{
				storage.ComponentDB, storage.ComponentBlob, storage.ComponentS3, storage.ComponentKV, storage.ComponentMQ,
			} {
				status := "ok"

				cctx, cancel := context.WithTimeout(ctx, checkTimeout)
				err := mgr.HealthCheck(cctx, c)
				cancel()

				switch {
				case err == nil:
				case errors.Is(err, storage.ErrNotConfigured):
					status = "not configured"
				default:
					status = "error: " + err.Error()
					failed++
				}

				fmt.Fprintf(cmd.OutOrStdout(), "%-5s %s\n", c, status)
			}

			if failed > 0 {
				return fmt.Errorf("%d backend(s) unhealthy", failed)
			}

			return nil
		},
	}
)

// printTypes 列出已注册的后端类型，当前配置使用的类型以 * 标记.
func printTypes[T ~string](cmd *cobra.Command, kind string, types []T, current T) {
	fmt.Fprintf(cmd.OutOrStdout(), "Registered %s types:\n", kind)

	for _, t := range types {
		mark := " "
		if t == current {
			mark = "*"
		}

		fmt.Fprintf(cmd.OutOrStdout(), " %s %s\n", mark, t)
	}
}

// registerBackendCommands 注册 kv、mq 与 check 命令.
func registerBackendCommands() {
	kvCmd.AddCommand(kvListCmd)
	mqCmd.AddCommand(mqListCmd)

	rootCmd.AddCommand(kvCmd, mqCmd, checkCmd)
}
