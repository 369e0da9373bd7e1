package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var statsJSON bool

var (
	statsCmd = &cobra.Command{
		Use:   "stats",
		Short: "show storage and deduplication statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := newClient().Stats(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			if statsJSON {
				return printJSON(out, stats)
			}

			s := stats.Summary
			fmt.Fprintf(out, "files:          %s\n", humanize.Comma(s.TotalFiles))
			fmt.Fprintf(out, "unique:         %s\n", humanize.Comma(s.UniqueFiles))
			fmt.Fprintf(out, "dedup ratio:    %s\n", s.DeduplicationRatio)
			fmt.Fprintf(out, "storage used:   %s\n", humanize.IBytes(uint64(s.TotalStorageUsed)))
			fmt.Fprintf(out, "storage saved:  %s (%s)\n", humanize.IBytes(uint64(max(s.StorageSaved, 0))), s.StorageEfficiency)

			if len(stats.FileTypes) == 0 {
				return nil
			}

			fmt.Fprintln(out)

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "TYPE\tCOUNT\tSIZE")

			for _, ft := range stats.FileTypes {
				fmt.Fprintf(tw, "%s\t%d\t%s\n", ft.FileType, ft.Count, humanize.IBytes(uint64(ft.TotalSize)))
			}

			return tw.Flush()
		},
	}

	duplicatesCmd = &cobra.Command{
		Use:     "duplicates",
		Short:   "list contents shared by more than one file",
		Aliases: []string{"dups"},
		RunE: func(cmd *cobra.Command, args []string) error {
			dups, err := newClient().Duplicates(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			if statsJSON {
				return printJSON(out, dups)
			}

			fmt.Fprintf(out, "%d duplicate group(s)\n", dups.TotalDuplicateGroups)

			for _, g := range dups.Duplicates {
				fmt.Fprintf(out, "\n%s  %s x%d  saved %s\n",
					g.ContentHash, humanize.IBytes(uint64(g.Size)), g.ReferenceCount, humanize.IBytes(uint64(g.StorageSaved)))

				for _, f := range g.Files {
					fmt.Fprintf(out, "  %s  %s  %s\n", f.ID, f.OriginalFilename, humanize.Time(f.UploadedAt))
				}
			}

			return nil
		},
	}
)

func registerStatsCommands() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "print raw JSON")
	duplicatesCmd.Flags().BoolVar(&statsJSON, "json", false, "print raw JSON")

	rootCmd.AddCommand(statsCmd, duplicatesCmd)
}
