package cmd

import (
	"context"
	"fmt"
	u "net/url"
	"os"
	"path"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/harvix/fetchkit/internal/fetch"
	"github.com/harvix/fetchkit/internal/output"
	"github.com/harvix/fetchkit/internal/s3fetch"
	"github.com/harvix/fetchkit/internal/utils"
)

func newGetCmd() *cobra.Command {
	var (
		outputPath  string
		noResume    bool
		overwrite   bool
		retries     int
		backoff     time.Duration
		timeout     time.Duration
		maxDuration time.Duration
	)

	cmd := &cobra.Command{
		Use:   "get [URL]",
		Short: "Download a file via HTTP/HTTPS or S3",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			url := args[0]
			if outputPath == "" {
				outputPath = deriveOutputPath(url)
			}

			var size int64
			var err error
			switch utils.DetermineDownloadType(url) {
			case "s3":
				size, err = runS3Get(url, outputPath)
			default:
				opts := fetch.DefaultOptions()
				opts.Resume = !noResume
				opts.Overwrite = overwrite
				opts.Retries = retries
				opts.Backoff = backoff
				opts.Headers = utils.ParseHeaderArgs(headerArgs)
				opts.Client = utils.NewHTTPClient(clientConfig())
				if cmd.Flags().Changed("timeout") {
					opts.Timeout = &timeout
				}
				if cmd.Flags().Changed("max-duration") {
					opts.MaxDuration = &maxDuration
				}
				log := utils.GetLogger("download")
				opts.Logger = &log
				size, err = fetch.Download(context.Background(), url, outputPath, output.RenderProgress, opts)
			}
			fmt.Println()
			if err != nil {
				output.PrintError(fmt.Sprintf("Download failed: %v", err))
				os.Exit(1)
			}
			output.PrintSuccess(fmt.Sprintf("Downloaded %s (%s)", outputPath, humanize.Bytes(uint64(size))))
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path")
	cmd.Flags().BoolVar(&noResume, "no-resume", false, "Ignore an existing partial file and restart")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace the destination if it already exists")
	cmd.Flags().IntVar(&retries, "retries", 4, "Additional attempts after the first")
	cmd.Flags().DurationVar(&backoff, "backoff", 200*time.Millisecond, "Base backoff between attempts")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Per-attempt timeout")
	cmd.Flags().DurationVar(&maxDuration, "max-duration", 0, "Overall deadline across attempts")
	return cmd
}

func runS3Get(url, outputPath string) (int64, error) {
	ctx := context.Background()
	client, err := s3fetch.NewClient(ctx)
	if err != nil {
		return 0, err
	}
	return s3fetch.Download(ctx, client, url, outputPath, output.RenderProgress)
}

func deriveOutputPath(rawURL string) string {
	parsed, err := u.Parse(rawURL)
	if err != nil || path.Base(parsed.Path) == "." || path.Base(parsed.Path) == "/" {
		return "download.bin"
	}
	return path.Base(parsed.Path)
}
