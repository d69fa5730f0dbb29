package url2pdf

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// Converter converts web pages to PDF documents.
//
// A Converter manages a headless browser instance that is reused across
// multiple conversions for performance. It is safe for concurrent use.
//
// Call [Converter.Close] when the Converter is no longer needed to release
// browser resources.
type Converter struct {
	cfg           converterConfig
	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// NewConverter creates a Converter with the given options.
//
// It starts a headless browser in the background. The caller must call
// [Converter.Close] when finished. With [WithAutoDownload], a managed
// Chromium is fetched when no executable is configured or found in PATH.
func NewConverter(opts ...Option) (*Converter, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}

	if cfg.chromePath == "" && cfg.autoDownload && findChrome() == "" {
		path, err := DownloadBrowser()
		if err != nil {
			return nil, err
		}
		cfg.chromePath = path
	}

	allocOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-translate", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("window-size", "1920,1080"),
		chromedp.Flag("headless", cfg.headless),
	)
	if cfg.chromePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(cfg.chromePath))
	}
	if cfg.noSandbox {
		allocOpts = append(allocOpts, chromedp.Flag("no-sandbox", true))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Start the browser eagerly so errors surface at creation time.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("url2pdf: starting browser: %w", err)
	}

	return &Converter{
		cfg:           cfg,
		allocCtx:      allocCtx,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
	}, nil
}

// Close releases all resources held by the Converter, including the
// browser process. Close is idempotent.
func (c *Converter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.browserCancel()
	c.allocCancel()
	return nil
}

// ConvertURL converts the web page at rawURL to a PDF document.
// If pg is nil, [DefaultPageConfig] values are used.
func (c *Converter) ConvertURL(ctx context.Context, rawURL string, pg *PageConfig) (*Result, error) {
	if err := c.checkClosed(); err != nil {
		return nil, err
	}
	u, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidURL, rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: %q: scheme must be http or https", ErrInvalidURL, rawURL)
	}
	return c.convert(ctx, rawURL, pg)
}

// convert performs the actual navigation and PDF generation.
func (c *Converter) convert(ctx context.Context, targetURL string, pg *PageConfig) (*Result, error) {
	resolved := pg.resolved()

	if c.cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.timeout)
		defer cancel()
	}

	tabCtx, tabCancel := chromedp.NewContext(c.browserCtx)
	defer tabCancel()

	width, height := resolved.paperDimensions()
	marginTop, marginRight, marginBottom, marginLeft := resolved.marginInches()

	var pdfBuf []byte
	actions := []chromedp.Action{
		chromedp.Navigate(targetURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	}
	if c.cfg.settleDelay > 0 {
		actions = append(actions, chromedp.Sleep(c.cfg.settleDelay))
	}
	actions = append(actions, chromedp.ActionFunc(func(ctx context.Context) error {
		params := page.PrintToPDF().
			WithPaperWidth(width).
			WithPaperHeight(height).
			WithMarginTop(marginTop).
			WithMarginRight(marginRight).
			WithMarginBottom(marginBottom).
			WithMarginLeft(marginLeft).
			WithScale(resolved.Scale).
			WithPrintBackground(resolved.PrintBackground).
			WithLandscape(resolved.Orientation == Landscape).
			WithPreferCSSPageSize(resolved.PreferCSSPageSize).
			WithDisplayHeaderFooter(resolved.DisplayHeaderFooter)

		if resolved.HeaderTemplate != "" {
			params = params.WithHeaderTemplate(resolved.HeaderTemplate)
		}
		if resolved.FooterTemplate != "" {
			params = params.WithFooterTemplate(resolved.FooterTemplate)
		}

		buf, _, err := params.Do(ctx)
		if err != nil {
			return err
		}
		pdfBuf = buf
		return nil
	}))

	if err := chromedp.Run(tabCtx, actions...); err != nil {
		return nil, fmt.Errorf("url2pdf: conversion of %s failed: %w", targetURL, err)
	}

	return &Result{data: pdfBuf}, nil
}

func (c *Converter) checkClosed() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	return nil
}

// ConvertURL converts a web page to PDF using a temporary [Converter].
// This is convenient for one-off conversions. For repeated use, create a
// [Converter] with [NewConverter] to reuse the browser instance.
func ConvertURL(ctx context.Context, rawURL string, pg *PageConfig, opts ...Option) (*Result, error) {
	conv, err := NewConverter(opts...)
	if err != nil {
		return nil, err
	}
	defer conv.Close()
	return conv.ConvertURL(ctx, rawURL, pg)
}
