package url2pdf

import (
	"fmt"
	"os/exec"

	"github.com/go-rod/rod/lib/launcher"
)

// chromeNames are the executable names probed when no explicit path is
// configured.
var chromeNames = []string{
	"chromium-browser", "chromium", "google-chrome",
	"google-chrome-stable", "chrome",
}

// findChrome returns the path of the first Chrome/Chromium executable
// found in PATH, or an empty string.
func findChrome() string {
	for _, name := range chromeNames {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	return ""
}

// DownloadBrowser downloads a compatible Chromium binary if one is not
// already cached and returns the path to the executable. The binary is
// stored in ~/.cache/rod/browser (Unix) or %APPDATA%\rod\browser (Windows).
func DownloadBrowser() (string, error) {
	path, err := launcher.NewBrowser().Get()
	if err != nil {
		return "", fmt.Errorf("url2pdf: downloading browser: %w", err)
	}
	return path, nil
}
