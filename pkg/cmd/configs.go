package cmd

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/yeisme/filevault/pkg/configs"
)

// secretKeys 打印配置时需要遮盖的字段名片段.
var secretKeys = []string{"password", "secret", "token", "jwt", "seed"}

var (
	debug bool

	// config 子命令.
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "config subcommands",
	}

	// 打印当前使用的配置文件路径.
	pathCmd = &cobra.Command{
		Use:   "path",
		Short: "print the path of the current config file",
		Run: func(cmd *cobra.Command, args []string) {
			v := configs.GetViper()
			if v == nil || v.ConfigFileUsed() == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "no config file used (defaults and FILEVAULT_* env only)")
				return
			}

			fmt.Fprintln(cmd.OutOrStdout(), v.ConfigFileUsed())
		},
	}

	// 以 JSON 打印生效的配置，密码类字段被遮盖.
	debugCmd = &cobra.Command{
		Use:   "debug",
		Short: "print the effective config with secrets masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			if v := configs.GetViper(); debug && v != nil {
				v.Debug()
			}

			raw, err := sonic.Marshal(configs.GetConfig())
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}

			var tree map[string]any
			if err := sonic.Unmarshal(raw, &tree); err != nil {
				return fmt.Errorf("unmarshal config: %w", err)
			}

			maskSecrets(tree)

			b, err := sonic.ConfigStd.MarshalIndent(tree, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(b))

			return nil
		},
	}
)

// maskSecrets 递归遮盖非空的敏感字段.
func maskSecrets(m map[string]any) {
	for k, v := range m {
		switch val := v.(type) {
		case map[string]any:
			maskSecrets(val)
		case string:
			if val != "" && isSecretKey(k) {
				m[k] = "******"
			}
		}
	}
}

func isSecretKey(k string) bool {
	k = strings.ToLower(k)
	for _, s := range secretKeys {
		if strings.Contains(k, s) {
			return true
		}
	}

	return false
}

// registerConfigsCommands 注册 CLI 子命令.
func registerConfigsCommands() {
	debugCmd.Flags().BoolVarP(&debug, "verbose", "v", false, "also dump viper internals")

	configCmd.AddCommand(pathCmd, debugCmd)

	rootCmd.AddCommand(configCmd)
}
