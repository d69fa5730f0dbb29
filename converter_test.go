package url2pdf_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"testing"
	"time"

	"github.com/porticus-lab/url2pdf"
	"github.com/porticus-lab/url2pdf/internal/pdfcheck"
)

// chromeAvailable reports whether a Chrome/Chromium executable is in PATH.
func chromeAvailable() bool {
	for _, name := range []string{
		"chromium-browser", "chromium", "google-chrome",
		"google-chrome-stable", "chrome",
	} {
		if _, err := exec.LookPath(name); err == nil {
			return true
		}
	}
	return false
}

func skipIfNoChrome(t *testing.T) {
	t.Helper()
	if !chromeAvailable() {
		t.Skip("skipping: Chrome/Chromium not found in PATH")
	}
}

func newTestConverter(t *testing.T, opts ...url2pdf.Option) *url2pdf.Converter {
	t.Helper()
	skipIfNoChrome(t)
	opts = append([]url2pdf.Option{
		url2pdf.WithNoSandbox(),
		url2pdf.WithSettleDelay(100 * time.Millisecond),
	}, opts...)
	c, err := url2pdf.NewConverter(opts...)
	if err != nil {
		t.Fatalf("NewConverter: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

// isPDF checks whether data starts with the PDF magic number.
func isPDF(data []byte) bool {
	return len(data) > 4 && string(data[:5]) == "%PDF-"
}

// testServer serves a fixed HTML page over local HTTP.
func testServer(t *testing.T, html string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(html))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestConvertURL_Basic(t *testing.T) {
	c := newTestConverter(t)
	srv := testServer(t, "<h1>Hello World</h1>")

	res, err := c.ConvertURL(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("ConvertURL: %v", err)
	}
	if !isPDF(res.Bytes()) {
		t.Fatal("output is not a valid PDF")
	}
	if res.Len() < 100 {
		t.Errorf("PDF unexpectedly small: %d bytes", res.Len())
	}
	if err := pdfcheck.Validate(res.Bytes()); err != nil {
		t.Errorf("structural validation failed: %v", err)
	}
}

func TestConvertURL_WithPageConfig(t *testing.T) {
	c := newTestConverter(t)
	srv := testServer(t, `<!DOCTYPE html>
<html>
<head><style>
  body { background: #f0f0f0; font-family: sans-serif; }
  .card { background: white; border-radius: 8px; padding: 1rem; }
</style></head>
<body><div class="card"><h2>Landscape Letter</h2></div></body>
</html>`)

	page := &url2pdf.PageConfig{
		Size:            url2pdf.Letter,
		Orientation:     url2pdf.Landscape,
		Margin:          url2pdf.UniformMargin(2.0),
		Scale:           1.0,
		PrintBackground: true,
	}
	res, err := c.ConvertURL(context.Background(), srv.URL, page)
	if err != nil {
		t.Fatalf("ConvertURL: %v", err)
	}
	if !isPDF(res.Bytes()) {
		t.Fatal("output is not a valid PDF")
	}
}

func TestConvertURL_MultiPage(t *testing.T) {
	c := newTestConverter(t)
	srv := testServer(t,
		`<div style="height:300cm">tall content spanning several pages</div>`)

	res, err := c.ConvertURL(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("ConvertURL: %v", err)
	}
	n, err := pdfcheck.PageCount(res.Bytes())
	if err != nil {
		t.Fatalf("PageCount: %v", err)
	}
	if n < 2 {
		t.Errorf("page count = %d, want >= 2", n)
	}
}

func TestConvertURL_InvalidURL(t *testing.T) {
	c := newTestConverter(t)

	for _, raw := range []string{"not-a-url", "ftp://example.com/file", "://missing"} {
		_, err := c.ConvertURL(context.Background(), raw, nil)
		if !errors.Is(err, url2pdf.ErrInvalidURL) {
			t.Errorf("ConvertURL(%q) err = %v, want ErrInvalidURL", raw, err)
		}
	}
}

func TestConvertURL_Closed(t *testing.T) {
	c := newTestConverter(t)
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	// Close is idempotent.
	if err := c.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	_, err := c.ConvertURL(context.Background(), "https://example.com", nil)
	if !errors.Is(err, url2pdf.ErrClosed) {
		t.Errorf("err = %v, want ErrClosed", err)
	}
}

func TestConvertURL_Timeout(t *testing.T) {
	skipIfNoChrome(t)
	c := newTestConverter(t, url2pdf.WithTimeout(1*time.Millisecond))
	srv := testServer(t, "<h1>too slow</h1>")

	if _, err := c.ConvertURL(context.Background(), srv.URL, nil); err == nil {
		t.Error("expected timeout error")
	}
}
