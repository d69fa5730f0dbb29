// Package url2pdf renders web pages to PDF documents using headless Chrome
// (Chrome DevTools Protocol) and batch-processes URL list files.
//
// # Single conversions
//
// For one-off conversions use the package-level helper:
//
//	res, err := url2pdf.ConvertURL(ctx, "https://example.com", nil)
//
// For repeated conversions create a [Converter], which reuses the browser
// process:
//
//	c, err := url2pdf.NewConverter()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Close()
//
//	res, err := c.ConvertURL(ctx, "https://example.com", nil)
//
// Use [PageConfig] to control paper size, orientation, margins, and scale:
//
//	page := &url2pdf.PageConfig{
//	    Size:        url2pdf.Letter,
//	    Orientation: url2pdf.Landscape,
//	    Margin:      url2pdf.UniformMargin(2.0),
//	}
//	res, err := c.ConvertURL(ctx, rawURL, page)
//
// A [Result] gives flexible access to the generated PDF bytes:
//
//	res.Bytes()                       // []byte
//	res.Reader()                      // *bytes.Reader
//	res.WriteTo(w)                    // io.WriterTo
//	res.WriteToFile("out.pdf", 0o644) // write to disk
//
// Chrome or Chromium must be available in PATH, or use [WithAutoDownload]:
//
//	c, err := url2pdf.NewConverter(url2pdf.WithAutoDownload())
//
// # Batch processing
//
// An [Agent] consumes URL list files — plain text, one URL per line, with
// # comments — and writes one PDF per URL into an output directory:
//
//	agent := url2pdf.NewAgent(c, url2pdf.WithOutputDir("pdf_output"))
//	report, err := agent.ProcessPath(ctx, "urls.txt")
//
// ProcessPath accepts either a single list file or a directory, in which
// case every *.txt file inside is processed. The returned [Report] carries
// per-URL outcomes; individual conversion failures do not abort the batch.
package url2pdf
