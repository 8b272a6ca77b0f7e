package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/harvix/fetchkit/internal/fetch"
	"github.com/harvix/fetchkit/internal/output"
	"github.com/harvix/fetchkit/internal/utils"
)

func newBatchCmd() *cobra.Command {
	var (
		listFile string
		workers  int
		retries  int
		backoff  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "batch --list FILE",
		Short: "Download a YAML list of files through a worker pool",
		Run: func(cmd *cobra.Command, args []string) {
			entries, err := utils.ReadDownloadList(listFile)
			if err != nil {
				output.PrintError(fmt.Sprintf("Cannot read download list: %v", err))
				os.Exit(1)
			}
			opts := fetch.DefaultOptions()
			opts.Retries = retries
			opts.Backoff = backoff
			opts.Headers = utils.ParseHeaderArgs(headerArgs)
			opts.Client = utils.NewHTTPClient(clientConfig())
			log := utils.GetLogger("batch")
			opts.Logger = &log
			if err := fetch.DownloadAll(context.Background(), entries, workers, nil, opts); err != nil {
				output.PrintError(fmt.Sprintf("Batch finished with errors: %v", err))
				os.Exit(1)
			}
			output.PrintSuccess(fmt.Sprintf("Downloaded %d files", len(entries)))
		},
	}

	cmd.Flags().StringVarP(&listFile, "list", "l", "", "YAML file with link/op entries")
	cmd.Flags().IntVar(&workers, "workers", 4, "Parallel download workers")
	cmd.Flags().IntVar(&retries, "retries", 4, "Additional attempts per entry")
	cmd.Flags().DurationVar(&backoff, "backoff", 200*time.Millisecond, "Base backoff between attempts")
	cmd.MarkFlagRequired("list")
	return cmd
}
