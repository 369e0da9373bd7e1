package cmd

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/yeisme/filevault/pkg/configs"
)

const redactedValue = "******"

var (
	showViper bool

	configCmd = &cobra.Command{
		Use:   "config",
		Short: "inspect the loaded filevault configuration",
	}

	configPathCmd = &cobra.Command{
		Use:   "path",
		Short: "print the config file in use",
		RunE: func(cmd *cobra.Command, _ []string) error {
			v := configs.GetViper()
			if v == nil {
				return fmt.Errorf("config not initialized")
			}

			if f := v.ConfigFileUsed(); f != "" {
				fmt.Fprintln(cmd.OutOrStdout(), f)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "(defaults and FILEVAULT_* env only)")
			}

			return nil
		},
	}

	configShowCmd = &cobra.Command{
		Use:     "show [section]",
		Aliases: []string{"debug"},
		Short:   "print the effective config as JSON, secrets masked",
		Long: `Print the effective configuration after defaults, file and env are merged.

Sections: ` + strings.Join(configSectionNames(), ", ") + `

Examples:
  filevault config show
  filevault config show upload
  filevault config show s3 --viper`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v := configs.GetViper()
			if v == nil {
				return fmt.Errorf("config not initialized")
			}

			if showViper {
				v.Debug()
			}

			section := ""
			if len(args) == 1 {
				section = args[0]
			}

			return printConfig(cmd.OutOrStdout(), *configs.GetConfig(), section)
		},
	}
)

// printConfig 输出脱敏后的配置，section 为空时输出全部.
func printConfig(out io.Writer, cfg configs.AppConfig, section string) error {
	cfg = redactConfig(cfg)

	var v any = cfg

	if section != "" {
		s, ok := configSections(&cfg)[section]
		if !ok {
			return fmt.Errorf("unknown config section %q (want one of %s)", section, strings.Join(configSectionNames(), ", "))
		}

		v = s
	}

	b, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	_, err = fmt.Fprintln(out, string(b))

	return err
}

// configSections 按配置文件中的顶层键索引各段.
func configSections(cfg *configs.AppConfig) map[string]any {
	return map[string]any{
		"server":          cfg.Server,
		"db":              cfg.DB,
		"s3":              cfg.S3,
		"kv":              cfg.KV,
		"mq":              cfg.MQ,
		"log":             cfg.Log,
		"metrics":         cfg.Metrics,
		"tracing":         cfg.Tracing,
		"rate_limit":      cfg.RateLimit,
		"circuit_breaker": cfg.CircuitBreaker,
		"events":          cfg.Events,
		"upload":          cfg.Upload,
		"cache":           cfg.Cache,
		"jobs":            cfg.Jobs,
	}
}

func configSectionNames() []string {
	var cfg configs.AppConfig

	names := make([]string, 0, 16)
	for k := range configSections(&cfg) {
		names = append(names, k)
	}

	slices.Sort(names)

	return names
}

// redactConfig 返回掩掉口令和密钥的副本.
func redactConfig(cfg configs.AppConfig) configs.AppConfig {
	for _, s := range []*string{
		&cfg.DB.Password,
		&cfg.S3.SecretAccessKey,
		&cfg.KV.Redis.Password,
		&cfg.KV.NATS.Password,
		&cfg.MQ.Common.Password,
	} {
		if *s != "" {
			*s = redactedValue
		}
	}

	return cfg
}

func registerConfigsCommands() {
	configShowCmd.Flags().BoolVar(&showViper, "viper", false, "also dump viper's internal state")

	configCmd.AddCommand(configPathCmd, configShowCmd)
	rootCmd.AddCommand(configCmd)
}
