package cmd

import (
	"context"
	"fmt"
	"io"
	"slices"
	"text/tabwriter"

	"github.com/bytedance/sonic"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/yeisme/filevault/pkg/client"
	"github.com/yeisme/filevault/pkg/filter"
	"github.com/yeisme/filevault/pkg/internal/types"
)

// searchOptions 命令行参数，一一对应表单字段.
type searchOptions struct {
	search    string
	fileType  string
	minSize   string
	maxSize   string
	startDate string
	endDate   string
	ordering  string
	clear     bool
	page      int
	pageSize  int
	json      bool
}

var searchOpts searchOptions

var searchCmd = &cobra.Command{
	Use:     "search [text]",
	Short:   "search files with filters",
	Aliases: []string{"ls", "find"},
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := searchOpts
		if len(args) == 1 {
			opts.search = args[0]
		}

		return runSearch(cmd.Context(), cmd.OutOrStdout(), newClient(), opts)
	},
}

func registerSearchCommands() {
	f := searchCmd.Flags()
	f.StringVarP(&searchOpts.search, "search", "q", "", "filename contains (case-insensitive)")
	f.StringVarP(&searchOpts.fileType, "type", "t", "", "file type, e.g. image/png ("+filter.AllTypes+" for any)")
	f.StringVar(&searchOpts.minSize, "min-size", "", "minimum size in bytes")
	f.StringVar(&searchOpts.maxSize, "max-size", "", "maximum size in bytes")
	f.StringVar(&searchOpts.startDate, "start-date", "", "uploaded on or after YYYY-MM-DD")
	f.StringVar(&searchOpts.endDate, "end-date", "", "uploaded on or before YYYY-MM-DD")
	f.StringVarP(&searchOpts.ordering, "ordering", "o", string(filter.DefaultOrdering), "sort order")
	f.BoolVar(&searchOpts.clear, "clear", false, "ignore filters and list everything")
	f.IntVar(&searchOpts.page, "page", 0, "page number")
	f.IntVar(&searchOpts.pageSize, "page-size", 0, "results per page")
	f.BoolVar(&searchOpts.json, "json", false, "print raw JSON")

	rootCmd.AddCommand(searchCmd)
}

// runSearch 以命令行参数驱动筛选表单，表单回调里查询并打印结果.
func runSearch(ctx context.Context, out io.Writer, cli *client.Client, opts searchOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	fileTypes, err := cli.FileTypes(ctx)
	if err != nil {
		return fmt.Errorf("load file types: %w", err)
	}

	var listErr error

	form := filter.NewForm(fileTypes, func(q filter.Query) {
		resp, err := cli.List(ctx, q, opts.page, opts.pageSize)
		if err != nil {
			listErr = err
			return
		}

		listErr = printFiles(out, q, resp, opts.json)
	})

	if opts.clear {
		form.ClearFilters()
		return listErr
	}

	if opts.fileType != "" && opts.fileType != filter.AllTypes && !slices.Contains(fileTypes, opts.fileType) {
		fmt.Fprintf(out, "note: no stored files of type %q\n", opts.fileType)
	}

	form.SetSearch(opts.search)
	form.SetFileType(opts.fileType)
	form.SetMinSize(opts.minSize)
	form.SetMaxSize(opts.maxSize)
	form.SetStartDate(opts.startDate)
	form.SetEndDate(opts.endDate)

	if opts.ordering != "" {
		if err := form.SetOrdering(opts.ordering); err != nil {
			return err
		}
	}

	form.SubmitSearch()

	return listErr
}

func printJSON(out io.Writer, v any) error {
	b, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(out, string(b))

	return err
}

func printFiles(out io.Writer, q filter.Query, resp *types.ListFilesResponse, asJSON bool) error {
	if asJSON {
		return printJSON(out, resp)
	}

	fmt.Fprintf(out, "%d file(s), page %d, filters %s\n", resp.Count, resp.Page, q)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTYPE\tSIZE\tUPLOADED\tDUP")

	for _, f := range resp.Results {
		dup := ""
		if f.IsDuplicate {
			dup = "yes"
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			f.ID, f.OriginalFilename, f.FileType, f.FormattedSize, humanize.Time(f.UploadedAt), dup)
	}

	return tw.Flush()
}
