package cli

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/porticus-lab/url2pdf"
	"github.com/porticus-lab/url2pdf/internal/provision"
)

func newSetupCmd(logger *log.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Provision the host: package index, system packages, manifest dependencies",
		Long: `Setup prepares the environment the agent needs: it refreshes the
system package index, installs the configured system packages, installs
the dependencies listed in the manifest file, and marks the target
script executable. Steps run in order and the first failure aborts the
run with a message naming the failed step.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd.Flags())
			if err != nil {
				return err
			}

			pcfg := cfg.Provision
			if cmd.Flags().Changed("manifest") {
				pcfg.ManifestPath, _ = cmd.Flags().GetString("manifest")
			}
			if cmd.Flags().Changed("target") {
				pcfg.TargetScript, _ = cmd.Flags().GetString("target")
			}
			if cmd.Flags().Changed("download-browser") {
				pcfg.DownloadBrowser, _ = cmd.Flags().GetBool("download-browser")
			}

			p := provision.New(pcfg,
				provision.WithOutput(cmd.OutOrStdout()),
				provision.WithLogger(logger),
				provision.WithBrowserFetcher(url2pdf.DownloadBrowser),
			)
			return p.Run(cmd.Context())
		},
	}

	cmd.Flags().String("manifest", "", "dependency manifest file (default: requirements.txt)")
	cmd.Flags().String("target", "", "script to mark executable (default: url_to_pdf_agent.py)")
	cmd.Flags().Bool("download-browser", false, "download a managed Chromium instead of using apt")

	return cmd
}
