package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/dreamerjackson/shopcrawler/cmd/app"
	"github.com/dreamerjackson/shopcrawler/cmd/resume"
	"github.com/dreamerjackson/shopcrawler/cmd/scrape"
	"github.com/dreamerjackson/shopcrawler/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print version.",
	Long:  "print version.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		version.Printer(cmd.OutOrStdout())
	},
}

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "shopcrawler",
		Short:         "search e-commerce sites and stream product records.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(scrape.ScrapeCmd, resume.ResumeCmd, versionCmd)
	return rootCmd
}

// Execute exits 1 on any error. Errors already sent to the controller are
// not printed again.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		var r app.Reported
		if !errors.As(err, &r) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
