package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harvix/fetchkit/internal/ldjson"
	"github.com/harvix/fetchkit/internal/output"
)

func newRecordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "Inspect and extend line-delimited JSON record files",
	}
	cmd.AddCommand(newRecordsCountCmd())
	cmd.AddCommand(newRecordsAppendCmd())
	return cmd
}

func newRecordsCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count [FILE]",
		Short: "Count records in a (optionally gzipped) line-delimited JSON file",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			count, err := ldjson.Count(args[0])
			if err != nil {
				output.PrintError(fmt.Sprintf("Count failed: %v", err))
				os.Exit(1)
			}
			fmt.Println(count)
		},
	}
}

func newRecordsAppendCmd() *cobra.Command {
	var dedupKey string

	cmd := &cobra.Command{
		Use:   "append [FILE]",
		Short: "Append JSON records from stdin, one object per line",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			var records []any
			scanner := bufio.NewScanner(os.Stdin)
			scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
			line := 0
			for scanner.Scan() {
				line++
				text := strings.TrimSpace(scanner.Text())
				if text == "" {
					continue
				}
				var record map[string]any
				if err := json.Unmarshal([]byte(text), &record); err != nil {
					output.PrintError(fmt.Sprintf("Invalid JSON on stdin line %d: %v", line, err))
					os.Exit(1)
				}
				records = append(records, record)
			}
			if err := scanner.Err(); err != nil {
				output.PrintError(fmt.Sprintf("Error reading stdin: %v", err))
				os.Exit(1)
			}
			written, err := ldjson.Append(args[0], records, ldjson.AppendOptions{DedupField: dedupKey})
			if err != nil {
				output.PrintError(fmt.Sprintf("Append failed: %v", err))
				os.Exit(1)
			}
			skipped := len(records) - written
			if skipped > 0 {
				output.PrintSuccess(fmt.Sprintf("Appended %d records (%d duplicates skipped)", written, skipped))
				return
			}
			output.PrintSuccess(fmt.Sprintf("Appended %d records", written))
		},
	}

	cmd.Flags().StringVar(&dedupKey, "dedup-key", "", "Record field keying the sidecar dedup index")
	return cmd
}
