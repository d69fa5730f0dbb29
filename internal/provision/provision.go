// Package provision prepares a host to run the url2pdf agent: it
// refreshes the system package index, installs the required system
// packages and manifest dependencies, and marks the downstream script
// executable.
//
// Steps run in order and fail fast: a failing step halts the run and is
// reported as a [StepError] naming the step, so the caller can map any
// failure to a non-zero exit with an unambiguous message. Every step is
// idempotent; running the provisioner twice reaches the same end state
// as running it once.
package provision

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// Usage is the invocation hint printed after a successful run.
const Usage = "url2pdf run <input_file_or_directory>"

// Config names what the provisioner installs and touches.
type Config struct {
	// SystemPackages are installed via the system package manager.
	SystemPackages []string `koanf:"system_packages"`

	// ManifestPath is a flat dependency list, one entry per line,
	// installed into the active Python environment.
	ManifestPath string `koanf:"manifest"`

	// TargetScript is marked executable as the final step.
	TargetScript string `koanf:"target"`

	// DownloadBrowser replaces the package-manager steps with a managed
	// Chromium download, for hosts without apt.
	DownloadBrowser bool `koanf:"download_browser"`
}

// DefaultConfig matches the environment the agent historically required.
func DefaultConfig() Config {
	return Config{
		SystemPackages: []string{"wkhtmltopdf", "chromium-browser", "python3-pip"},
		ManifestPath:   "requirements.txt",
		TargetScript:   "url_to_pdf_agent.py",
	}
}

// BrowserFetcher downloads a managed browser and returns its path.
type BrowserFetcher func() (string, error)

// Provisioner executes the setup steps against a host.
type Provisioner struct {
	cfg    Config
	runner Runner
	fetch  BrowserFetcher
	out    io.Writer
	logger *log.Logger

	// Overridable for tests.
	stat  func(string) (os.FileInfo, error)
	chmod func(string, os.FileMode) error
}

// ProvisionerOption configures a [Provisioner].
type ProvisionerOption func(*Provisioner)

// WithRunner sets the command runner. Defaults to an os/exec runner.
func WithRunner(r Runner) ProvisionerOption {
	return func(p *Provisioner) { p.runner = r }
}

// WithBrowserFetcher sets the managed-browser download function used
// when [Config.DownloadBrowser] is set.
func WithBrowserFetcher(f BrowserFetcher) ProvisionerOption {
	return func(p *Provisioner) { p.fetch = f }
}

// WithOutput sets the writer for progress and completion messages.
// Defaults to os.Stdout.
func WithOutput(w io.Writer) ProvisionerOption {
	return func(p *Provisioner) { p.out = w }
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) ProvisionerOption {
	return func(p *Provisioner) { p.logger = logger }
}

// New creates a Provisioner for cfg.
func New(cfg Config, opts ...ProvisionerOption) *Provisioner {
	p := &Provisioner{
		cfg:    cfg,
		runner: NewRunner(),
		out:    os.Stdout,
		logger: log.Default(),
		stat:   os.Stat,
		chmod:  os.Chmod,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

type step struct {
	name string
	run  func(context.Context) error
}

// Run executes all provisioning steps in order.
//
// The index refresh aborts the run on failure: later installs resolve
// against the index, and continuing would only turn the real problem
// into a confusing secondary error. On success the completion message
// and [Usage] line are written to the configured output.
func (p *Provisioner) Run(ctx context.Context) error {
	var steps []step
	if p.cfg.DownloadBrowser {
		steps = append(steps, step{"download browser", p.downloadBrowser})
	} else {
		steps = append(steps,
			step{"update package index", p.updateIndex},
			step{"install system packages", p.installPackages},
		)
	}
	steps = append(steps,
		step{"install manifest dependencies", p.installManifest},
		step{"mark target executable", p.markExecutable},
	)

	for _, s := range steps {
		p.logger.Info("provisioning", "step", s.name)
		fmt.Fprintf(p.out, "==> %s\n", s.name)
		if err := s.run(ctx); err != nil {
			return &StepError{Step: s.name, Err: err}
		}
	}

	fmt.Fprintln(p.out, "Setup complete.")
	fmt.Fprintf(p.out, "Run the agent with: %s\n", Usage)
	return nil
}

func (p *Provisioner) updateIndex(ctx context.Context) error {
	out, err := p.runner.Run(ctx, "apt-get", "update")
	if err != nil {
		return classifyApt(out, err)
	}
	return nil
}

func (p *Provisioner) installPackages(ctx context.Context) error {
	if len(p.cfg.SystemPackages) == 0 {
		return nil
	}
	args := append([]string{"install", "-y"}, p.cfg.SystemPackages...)
	out, err := p.runner.Run(ctx, "apt-get", args...)
	if err != nil {
		return classifyApt(out, err)
	}
	return nil
}

func (p *Provisioner) downloadBrowser(_ context.Context) error {
	if p.fetch == nil {
		return fmt.Errorf("no browser fetcher configured")
	}
	path, err := p.fetch()
	if err != nil {
		return err
	}
	p.logger.Info("browser ready", "path", path)
	return nil
}

func (p *Provisioner) installManifest(ctx context.Context) error {
	if _, err := p.stat(p.cfg.ManifestPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: manifest %s does not exist", ErrDependencyInstall, p.cfg.ManifestPath)
		}
		return fmt.Errorf("%w: %v", ErrDependencyInstall, err)
	}
	out, err := p.runner.Run(ctx, "pip3", "install", "-r", p.cfg.ManifestPath)
	if err != nil {
		return classifyPip(out, err)
	}
	return nil
}

func (p *Provisioner) markExecutable(_ context.Context) error {
	info, err := p.stat(p.cfg.TargetScript)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrTargetMissing, p.cfg.TargetScript)
		}
		return err
	}
	mode := info.Mode() | 0o111
	if mode == info.Mode() {
		return nil // already executable
	}
	return p.chmod(p.cfg.TargetScript, mode)
}
