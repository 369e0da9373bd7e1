// Package cmd 命令行入口：启动服务，以及通过 HTTP API 查询与维护文件库.
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yeisme/filevault/pkg/client"
	"github.com/yeisme/filevault/pkg/configs"
	"github.com/yeisme/filevault/pkg/log"
)

var (
	configPath string
	debug      bool
	serverURL  string

	rootCmd = &cobra.Command{
		Use:          configs.AppName,
		Short:        "A content-deduplicating file vault",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := configs.InitConfig(configPath); err != nil {
				return fmt.Errorf("init config: %w", err)
			}

			if debug {
				configs.GetConfig().Server.Debug = true
			}

			log.Init()

			return nil
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file or directory")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug mode")
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "", "API base URL (default http://127.0.0.1:<server.port>)")

	registerServeCommands()
	registerSearchCommands()
	registerStatsCommands()
	registerCleanupCommands()
	registerConfigsCommands()
	registerDBCommands()
	registerKVCommands()
	registerMQCommands()
}

// newClient 按 --server 或配置中的端口构造 API 客户端.
func newClient() *client.Client {
	base := strings.TrimSpace(serverURL)
	if base == "" {
		base = fmt.Sprintf("http://127.0.0.1:%d", configs.GetConfig().Server.Port)
	}

	return client.New(base)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
