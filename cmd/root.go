package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/harvix/fetchkit/internal/utils"
)

var (
	debug      bool
	userAgent  string
	proxyURL   string
	headerArgs []string
)

var Version = "dev"

var rootCmd = &cobra.Command{
	Use:     "fetchkit",
	Short:   "fetchkit is a resumable, retrying file transfer tool",
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		utils.InitLogger(debug)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&userAgent, "user-agent", "", "User agent for HTTP requests")
	rootCmd.PersistentFlags().StringVar(&proxyURL, "proxy", "", "Proxy URL for HTTP requests")
	rootCmd.PersistentFlags().StringArrayVarP(&headerArgs, "header", "H", nil, "Custom header (key: value), repeatable")
	rootCmd.AddCommand(newGetCmd())
	rootCmd.AddCommand(newBatchCmd())
	rootCmd.AddCommand(newRecordsCmd())
}

func clientConfig() utils.HTTPClientConfig {
	return utils.HTTPClientConfig{
		UserAgent: userAgent,
		ProxyURL:  proxyURL,
		Headers:   utils.ParseHeaderArgs(headerArgs),
	}
}
