package url2pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/porticus-lab/url2pdf/internal/pdfcheck"
)

// URLConverter is the conversion capability an [Agent] needs. It is
// implemented by [Converter].
type URLConverter interface {
	ConvertURL(ctx context.Context, rawURL string, pg *PageConfig) (*Result, error)
}

// Agent batch-converts URL list files to PDF documents using a shared
// [URLConverter]. One PDF is written per URL into the output directory,
// named by [SanitizeFilename].
type Agent struct {
	conv        URLConverter
	outputDir   string
	concurrency int
	page        *PageConfig
	verify      bool
	logger      *log.Logger
}

// AgentOption configures an [Agent].
type AgentOption func(*Agent)

// WithOutputDir sets the directory PDFs are written to.
// Defaults to "pdf_output". The directory is created if needed.
func WithOutputDir(dir string) AgentOption {
	return func(a *Agent) {
		a.outputDir = dir
	}
}

// WithConcurrency sets how many URLs are converted in parallel.
// Defaults to 1 (strictly sequential, in list order).
func WithConcurrency(n int) AgentOption {
	return func(a *Agent) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// WithPageConfig sets the page configuration applied to every conversion.
func WithPageConfig(pg *PageConfig) AgentOption {
	return func(a *Agent) {
		a.page = pg
	}
}

// WithVerify enables structural validation of every generated PDF before
// it is written: header magic, cross-reference table, and a non-empty
// page tree.
func WithVerify() AgentOption {
	return func(a *Agent) {
		a.verify = true
	}
}

// WithLogger sets the logger for per-URL progress. Defaults to the
// package default logger of charmbracelet/log.
func WithLogger(logger *log.Logger) AgentOption {
	return func(a *Agent) {
		a.logger = logger
	}
}

// NewAgent creates an Agent around conv. The Agent does not own the
// converter; closing it is the caller's responsibility.
func NewAgent(conv URLConverter, opts ...AgentOption) *Agent {
	a := &Agent{
		conv:        conv,
		outputDir:   "pdf_output",
		concurrency: 1,
		logger:      log.Default(),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Failure records one URL that could not be converted.
type Failure struct {
	URL string
	Err error
}

// Report summarizes a batch run.
type Report struct {
	Files     int           // URL list files processed.
	Total     int           // Valid URLs attempted.
	Succeeded int           // PDFs written.
	Failures  []Failure     // Per-URL conversion or write errors.
	Skipped   []SkippedLine // List entries rejected during parsing.
}

// Failed returns the number of URLs that could not be converted.
func (r *Report) Failed() int {
	return len(r.Failures)
}

// merge folds other into r.
func (r *Report) merge(other *Report) {
	r.Files += other.Files
	r.Total += other.Total
	r.Succeeded += other.Succeeded
	r.Failures = append(r.Failures, other.Failures...)
	r.Skipped = append(r.Skipped, other.Skipped...)
}

// ProcessPath processes a URL list file, or every *.txt file in a
// directory (non-recursive). It returns an error if input is neither a
// file nor a directory; individual URL failures are reported in the
// Report, not as an error.
func (a *Agent) ProcessPath(ctx context.Context, input string) (*Report, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, fmt.Errorf("url2pdf: %w", err)
	}
	if !info.IsDir() {
		return a.ProcessFile(ctx, input)
	}

	matches, err := filepath.Glob(filepath.Join(input, "*.txt"))
	if err != nil {
		return nil, fmt.Errorf("url2pdf: listing %s: %w", input, err)
	}
	if len(matches) == 0 {
		a.logger.Warn("no .txt files found", "dir", input)
		return &Report{}, nil
	}
	sort.Strings(matches)

	report := &Report{}
	for _, path := range matches {
		a.logger.Info("processing file", "path", path)
		fr, err := a.ProcessFile(ctx, path)
		if err != nil {
			return report, err
		}
		report.merge(fr)
	}
	return report, nil
}

// ProcessFile converts every URL in one list file. A file with no valid
// URLs yields an empty report and a warning, not an error. Conversion
// stops early only if ctx is canceled.
func (a *Agent) ProcessFile(ctx context.Context, path string) (*Report, error) {
	list, err := ParseURLFile(path)
	if err != nil {
		return nil, err
	}
	for _, s := range list.Skipped {
		a.logger.Warn("invalid url", "file", path, "line", s.Line, "text", s.Text)
	}

	report := &Report{Files: 1, Total: len(list.URLs), Skipped: list.Skipped}
	if len(list.URLs) == 0 {
		a.logger.Warn("no valid urls found", "file", path)
		return report, nil
	}

	if err := os.MkdirAll(a.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("url2pdf: creating output dir: %w", err)
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for _, rawURL := range list.URLs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outPath, err := a.ProcessURL(gctx, rawURL)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				a.logger.Error("conversion failed", "url", rawURL, "err", err)
				report.Failures = append(report.Failures, Failure{URL: rawURL, Err: err})
				return nil
			}
			a.logger.Info("pdf created", "url", rawURL, "path", outPath)
			report.Succeeded++
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}

	a.logger.Info("file done", "path", path,
		"succeeded", report.Succeeded, "total", report.Total)
	return report, nil
}

// ProcessURL converts a single URL and writes the PDF into the output
// directory, returning the output path.
func (a *Agent) ProcessURL(ctx context.Context, rawURL string) (string, error) {
	res, err := a.conv.ConvertURL(ctx, rawURL, a.page)
	if err != nil {
		return "", err
	}
	if a.verify {
		if err := pdfcheck.Validate(res.Bytes()); err != nil {
			return "", fmt.Errorf("url2pdf: verifying output for %s: %w", rawURL, err)
		}
	}
	outPath := filepath.Join(a.outputDir, SanitizeFilename(rawURL))
	if err := res.WriteToFile(outPath, 0o644); err != nil {
		return "", fmt.Errorf("url2pdf: writing %s: %w", outPath, err)
	}
	return outPath, nil
}
