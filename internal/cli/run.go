package cli

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/porticus-lab/url2pdf"
)

func newRunCmd(logger *log.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <input_file_or_directory>",
		Short: "Convert the URLs in a list file (or every *.txt in a directory) to PDFs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Flags())
			if err != nil {
				return err
			}

			timeout, err := time.ParseDuration(cfg.Timeout)
			if err != nil {
				return fmt.Errorf("invalid timeout %q: %w", cfg.Timeout, err)
			}

			opts := []url2pdf.Option{url2pdf.WithTimeout(timeout)}
			if cfg.Chrome != "" {
				opts = append(opts, url2pdf.WithChromePath(cfg.Chrome))
			}
			if noHeadless, _ := cmd.Flags().GetBool("no-headless"); noHeadless {
				opts = append(opts, url2pdf.WithHeadless(false))
			}
			if noSandbox, _ := cmd.Flags().GetBool("no-sandbox"); noSandbox {
				opts = append(opts, url2pdf.WithNoSandbox())
			}
			if download, _ := cmd.Flags().GetBool("download-browser"); download {
				opts = append(opts, url2pdf.WithAutoDownload())
			}

			conv, err := url2pdf.NewConverter(opts...)
			if err != nil {
				return err
			}
			defer conv.Close()

			agentOpts := []url2pdf.AgentOption{
				url2pdf.WithOutputDir(cfg.OutputDir),
				url2pdf.WithConcurrency(cfg.Concurrency),
				url2pdf.WithLogger(logger),
			}
			if cfg.Verify {
				agentOpts = append(agentOpts, url2pdf.WithVerify())
			}
			agent := url2pdf.NewAgent(conv, agentOpts...)

			report, err := agent.ProcessPath(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Processed %d/%d URLs successfully (%d files)\n",
				report.Succeeded, report.Total, report.Files)
			if report.Total > 0 && report.Succeeded == 0 {
				return fmt.Errorf("all %d conversions failed", report.Total)
			}
			return nil
		},
	}

	cmd.Flags().StringP("output-dir", "o", "pdf_output", "output directory for PDFs")
	cmd.Flags().Int("concurrency", 1, "URLs converted in parallel")
	cmd.Flags().String("timeout", "60s", "per-URL conversion timeout")
	cmd.Flags().Bool("verify", false, "validate generated PDFs structurally")
	cmd.Flags().String("chrome", "", "path to the Chrome/Chromium executable")
	cmd.Flags().Bool("no-headless", false, "run the browser with a visible window")
	cmd.Flags().Bool("no-sandbox", false, "disable the Chrome sandbox (needed as root)")
	cmd.Flags().Bool("download-browser", false, "download a managed Chromium if none is installed")

	return cmd
}
