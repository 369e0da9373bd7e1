package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/yeisme/filevault/pkg/configs"
	"github.com/yeisme/filevault/pkg/internal/storage/db"
	"github.com/yeisme/filevault/pkg/internal/storage/kv"
	"github.com/yeisme/filevault/pkg/internal/storage/mq"
)

// printBackends 列出已编译进来的后端，当前配置使用的后端前面标 *.
func printBackends[T ~string](out io.Writer, title string, all []T, current T) {
	fmt.Fprintf(out, "%s:\n", title)

	for _, t := range all {
		mark := " "
		if t == current {
			mark = "*"
		}

		fmt.Fprintf(out, " %s %s\n", mark, t)
	}
}

func backendCommand(use, short string, aliases []string, list func(cmd *cobra.Command)) *cobra.Command {
	parent := &cobra.Command{Use: use, Short: short, Aliases: aliases}

	parent.AddCommand(&cobra.Command{
		Use:     "list",
		Short:   "list registered " + use + " backends",
		Aliases: []string{"ls", "l"},
		Run: func(cmd *cobra.Command, args []string) {
			list(cmd)
		},
	})

	return parent
}

func registerDBCommands() {
	rootCmd.AddCommand(backendCommand("db", "metadata database backends", nil, func(cmd *cobra.Command) {
		printBackends(cmd.OutOrStdout(), "Registered database types", db.GetRegisteredDBTypes(), configs.GetConfig().DB.Type)
	}))
}

func registerKVCommands() {
	rootCmd.AddCommand(backendCommand("kv", "query cache key-value backends", []string{"keyvalue"}, func(cmd *cobra.Command) {
		printBackends(cmd.OutOrStdout(), "Registered kv types", kv.GetRegisteredKVTypes(), kv.KVType(configs.GetConfig().KV.Type))
	}))
}

func registerMQCommands() {
	rootCmd.AddCommand(backendCommand("mq", "event bus backends", []string{"messagequeue"}, func(cmd *cobra.Command) {
		printBackends(cmd.OutOrStdout(), "Registered mq types", mq.GetRegisteredMQTypes(), configs.GetConfig().MQ.Type)
	}))
}
