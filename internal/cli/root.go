// Package cli implements the url2pdf command line interface.
package cli

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// New builds the root command with all subcommands attached.
func New() *cobra.Command {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
	})

	rootCmd := &cobra.Command{
		Use:   "url2pdf",
		Short: "Convert URLs from text files to PDFs",
		Long: `url2pdf reads URLs from text files (one per line, # comments allowed)
and renders each web page to a PDF using headless Chrome.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				logger.SetLevel(log.DebugLevel)
			}
		},
	}

	rootCmd.PersistentFlags().String("config", "", "path to config file (default: url2pdf.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(newRunCmd(logger))
	rootCmd.AddCommand(newSetupCmd(logger))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}
