package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/filevault/pkg/configs"
	ctxPkg "github.com/yeisme/filevault/pkg/context"
	"github.com/yeisme/filevault/pkg/internal/service"
	"github.com/yeisme/filevault/pkg/internal/storage"
)

var cleanupLocal bool

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "remove unreferenced contents and their blobs",
	Long: "Remove contents whose reference count dropped to zero.\n" +
		"By default the running server does the work; --local connects to the database and object storage directly.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var (
			n   int
			err error
		)

		if cleanupLocal {
			mgr, mErr := storage.New(ctx, configs.GetConfig())
			if mErr != nil {
				return mErr
			}
			defer mgr.Close()

			n, err = service.NewFileService(ctxPkg.WithStorageManager(ctx, mgr)).CleanupOrphans(ctx)
		} else {
			n, err = newClient().Cleanup(ctx)
		}

		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "removed %d orphan content(s)\n", n)

		return nil
	},
}

func registerCleanupCommands() {
	cleanupCmd.Flags().BoolVar(&cleanupLocal, "local", false, "run against storage directly instead of the API")

	rootCmd.AddCommand(cleanupCmd)
}
