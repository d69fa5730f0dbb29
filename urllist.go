package url2pdf

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// maxFilenameLen caps the stem of generated PDF filenames.
const maxFilenameLen = 100

// SkippedLine records a list entry that was rejected during parsing.
type SkippedLine struct {
	Line int    // 1-based line number in the source file.
	Text string // The rejected line, trimmed.
}

func (s SkippedLine) String() string {
	return fmt.Sprintf("line %d: %s", s.Line, s.Text)
}

// URLList is the parsed content of a URL list file.
type URLList struct {
	URLs    []string
	Skipped []SkippedLine
}

// ParseURLFile reads a URL list file: one URL per line, blank lines and
// lines starting with # ignored. Lines that are not absolute http or
// https URLs are collected in [URLList.Skipped] rather than failing the
// whole file.
func ParseURLFile(path string) (*URLList, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("url2pdf: reading url list: %w", err)
	}
	defer f.Close()
	list, err := ParseURLs(f)
	if err != nil {
		return nil, fmt.Errorf("url2pdf: reading url list %s: %w", path, err)
	}
	return list, nil
}

// ParseURLs parses URL list content from r. See [ParseURLFile] for the
// format.
func ParseURLs(r io.Reader) (*URLList, error) {
	list := &URLList{}
	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "http://") || strings.HasPrefix(line, "https://") {
			list.URLs = append(list.URLs, line)
		} else {
			list.Skipped = append(list.Skipped, SkippedLine{Line: n, Text: line})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

// SanitizeFilename derives a filesystem-safe PDF filename from a URL.
// The scheme is stripped, path separators and query characters become
// underscores, and any remaining character outside [a-zA-Z0-9._-] is
// dropped. The stem is capped at 100 characters.
func SanitizeFilename(rawURL string) string {
	name := strings.TrimPrefix(rawURL, "https://")
	name = strings.TrimPrefix(name, "http://")
	name = strings.NewReplacer("/", "_", "?", "_", "&", "_").Replace(name)

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '_' || r == '-':
			b.WriteRune(r)
		}
	}
	stem := b.String()
	if len(stem) > maxFilenameLen {
		stem = stem[:maxFilenameLen]
	}
	return stem + ".pdf"
}
