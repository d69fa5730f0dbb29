package url2pdf

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseURLs(t *testing.T) {
	input := `# bookmarks exported 2024-01-15
https://example.com
http://example.org/page?id=1

ftp://example.net/file
not a url
https://example.com/docs/
`
	list, err := ParseURLs(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseURLs: %v", err)
	}

	wantURLs := []string{
		"https://example.com",
		"http://example.org/page?id=1",
		"https://example.com/docs/",
	}
	if len(list.URLs) != len(wantURLs) {
		t.Fatalf("got %d urls, want %d: %v", len(list.URLs), len(wantURLs), list.URLs)
	}
	for i, want := range wantURLs {
		if list.URLs[i] != want {
			t.Errorf("url[%d] = %q, want %q", i, list.URLs[i], want)
		}
	}

	if len(list.Skipped) != 2 {
		t.Fatalf("got %d skipped lines, want 2: %v", len(list.Skipped), list.Skipped)
	}
	// Line numbers are 1-based and count blank/comment lines too.
	if list.Skipped[0].Line != 5 || list.Skipped[0].Text != "ftp://example.net/file" {
		t.Errorf("skipped[0] = %+v, want line 5 ftp entry", list.Skipped[0])
	}
	if list.Skipped[1].Line != 6 {
		t.Errorf("skipped[1].Line = %d, want 6", list.Skipped[1].Line)
	}
}

func TestParseURLs_LeadingWhitespace(t *testing.T) {
	list, err := ParseURLs(strings.NewReader("   https://example.com  \n\t# comment\n"))
	if err != nil {
		t.Fatalf("ParseURLs: %v", err)
	}
	if len(list.URLs) != 1 || list.URLs[0] != "https://example.com" {
		t.Errorf("urls = %v, want trimmed single entry", list.URLs)
	}
	if len(list.Skipped) != 0 {
		t.Errorf("skipped = %v, want none", list.Skipped)
	}
}

func TestParseURLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.txt")
	if err := os.WriteFile(path, []byte("https://example.com\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	list, err := ParseURLFile(path)
	if err != nil {
		t.Fatalf("ParseURLFile: %v", err)
	}
	if len(list.URLs) != 1 {
		t.Errorf("got %d urls, want 1", len(list.URLs))
	}
}

func TestParseURLFile_Missing(t *testing.T) {
	_, err := ParseURLFile(filepath.Join(t.TempDir(), "nope.txt"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://example.com", "example.com.pdf"},
		{"http://example.com", "example.com.pdf"},
		{"https://example.com/a/b/c", "example.com_a_b_c.pdf"},
		{"https://example.com/page?id=1&lang=en", "example.com_page_id1_langen.pdf"},
		{"https://sub.domain-name.org/path_x", "sub.domain-name.org_path_x.pdf"},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.url); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestSanitizeFilename_CapsLength(t *testing.T) {
	long := "https://example.com/" + strings.Repeat("a", 300)
	got := SanitizeFilename(long)
	if len(got) != maxFilenameLen+len(".pdf") {
		t.Errorf("len = %d, want %d", len(got), maxFilenameLen+len(".pdf"))
	}
	if !strings.HasSuffix(got, ".pdf") {
		t.Errorf("missing .pdf suffix: %q", got)
	}
}

func TestSanitizeFilename_DropsUnsafeRunes(t *testing.T) {
	got := SanitizeFilename("https://example.com/a%20b<c>|d")
	for _, r := range strings.TrimSuffix(got, ".pdf") {
		safe := r == '.' || r == '_' || r == '-' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !safe {
			t.Errorf("unsafe rune %q in %q", r, got)
		}
	}
}
