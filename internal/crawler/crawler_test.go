package crawler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func htmlPage(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, "<html><body>", body, "</body></html>")
}

func jsonPage(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, body)
}

// TestCrawl_HTMLListing walks a two-level archive tree and checks that
// files are found in document order, year folders are entered, and parent
// and anchor links are left alone.
func TestCrawl_HTMLListing(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/archive/", func(w http.ResponseWriter, r *http.Request) {
		htmlPage(w, `
			<a href="1.pdf">1.pdf</a>
			<a href="1378/">1378/</a>
			<a href="../">Parent Directory</a>
			<a href="#top">Top</a>
			<a href="mailto:admin@example.com">Contact</a>`)
	})
	mux.HandleFunc("/archive/1378/", func(w http.ResponseWriter, r *http.Request) {
		htmlPage(w, `<a href="01.pdf">01.pdf</a><a href="02.pdf">02.pdf</a>`)
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(Limits{}, testLogger())
	result := c.CrawlToDepth(context.Background(), srv.URL+"/archive/", 2)

	wantFiles := []string{
		srv.URL + "/archive/1.pdf",
		srv.URL + "/archive/1378/01.pdf",
		srv.URL + "/archive/1378/02.pdf",
	}
	if !slices.Equal(result.Files, wantFiles) {
		t.Errorf("expected files %v, got %v", wantFiles, result.Files)
	}
	if result.TotalFiles != 3 {
		t.Errorf("expected TotalFiles 3, got %d", result.TotalFiles)
	}

	wantDirs := []string{srv.URL + "/archive/1378/"}
	if !slices.Equal(result.Directories, wantDirs) {
		t.Errorf("expected directories %v, got %v", wantDirs, result.Directories)
	}

	if len(result.Errors) != 0 {
		t.Errorf("expected no errors, got %v", result.Errors)
	}
	if result.Depth != 2 {
		t.Errorf("expected depth 2, got %d", result.Depth)
	}
	if result.BaseURL != srv.URL+"/archive/" {
		t.Errorf("expected base URL %q, got %q", srv.URL+"/archive/", result.BaseURL)
	}
}

// TestCrawl_JSONListing covers the JSON directory envelopes: a files
// array, typed object entries, and recursion into JSON subdirectories.
func TestCrawl_JSONListing(t *testing.T) {
	t.Parallel()

	t.Run("string array under files key", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
			jsonPage(w, `{"files": ["a.pdf", "b.pdf"]}`)
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		c := New(Limits{}, testLogger())
		result := c.Crawl(context.Background(), srv.URL+"/api/")

		wantFiles := []string{srv.URL + "/api/a.pdf", srv.URL + "/api/b.pdf"}
		if !slices.Equal(result.Files, wantFiles) {
			t.Errorf("expected files %v, got %v", wantFiles, result.Files)
		}
		if len(result.Errors) != 0 {
			t.Errorf("expected no errors, got %v", result.Errors)
		}
	})

	t.Run("typed object entries with subdirectory", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
			jsonPage(w, `{"items": [
				{"name": "x.pdf", "type": "file"},
				{"name": "sub", "type": "directory"},
				{"name": "y.pdf"},
				{"name": "notes.me", "type": "other"}
			]}`)
		})
		mux.HandleFunc("/api/sub", func(w http.ResponseWriter, r *http.Request) {
			jsonPage(w, `{"files": ["c.pdf"]}`)
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		c := New(Limits{}, testLogger())
		result := c.Crawl(context.Background(), srv.URL+"/api/")

		wantFiles := []string{
			srv.URL + "/api/x.pdf",
			srv.URL + "/api/c.pdf",
			srv.URL + "/api/y.pdf",
		}
		if !slices.Equal(result.Files, wantFiles) {
			t.Errorf("expected files %v, got %v", wantFiles, result.Files)
		}

		wantDirs := []string{srv.URL + "/api/sub"}
		if !slices.Equal(result.Directories, wantDirs) {
			t.Errorf("expected directories %v, got %v", wantDirs, result.Directories)
		}
	})

	t.Run("bare array", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
			jsonPage(w, `["one.pdf", "two.txt", "ignore"]`)
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		c := New(Limits{}, testLogger())
		result := c.Crawl(context.Background(), srv.URL+"/api/")

		wantFiles := []string{srv.URL + "/api/one.pdf", srv.URL + "/api/two.txt"}
		if !slices.Equal(result.Files, wantFiles) {
			t.Errorf("expected files %v, got %v", wantFiles, result.Files)
		}
	})

	t.Run("malformed JSON is a recorded error", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
			jsonPage(w, `{"files": [`)
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		c := New(Limits{}, testLogger())
		result := c.Crawl(context.Background(), srv.URL+"/api/")

		if len(result.Errors) != 1 {
			t.Fatalf("expected 1 error, got %d: %v", len(result.Errors), result.Errors)
		}
		if !strings.Contains(result.Errors[0], "Error parsing JSON directory") {
			t.Errorf("expected a JSON parse error, got %q", result.Errors[0])
		}
	})
}

// TestCrawl_CycleGuard puts two directories in a reference loop and checks
// that each is fetched exactly once.
func TestCrawl_CycleGuard(t *testing.T) {
	t.Parallel()

	var aHits, bHits atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/loop/a/", func(w http.ResponseWriter, r *http.Request) {
		aHits.Add(1)
		htmlPage(w, `<a href="../b/">b</a>`)
	})
	mux.HandleFunc("/loop/b/", func(w http.ResponseWriter, r *http.Request) {
		bHits.Add(1)
		htmlPage(w, `<a href="../a/">a</a>`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(Limits{}, testLogger())
	result := c.Crawl(context.Background(), srv.URL+"/loop/a/")

	if got := aHits.Load(); got != 1 {
		t.Errorf("expected /loop/a/ fetched once, got %d", got)
	}
	if got := bHits.Load(); got != 1 {
		t.Errorf("expected /loop/b/ fetched once, got %d", got)
	}
	if len(result.Files) != 0 {
		t.Errorf("expected no files, got %v", result.Files)
	}
	// Both directories are recorded as discovered, even though the second
	// visit of a/ is suppressed by the visited set.
	if len(result.Directories) != 2 {
		t.Errorf("expected 2 directories, got %v", result.Directories)
	}
}

// TestCrawl_TotalFileCap checks that the total cap is enforced at append
// time, so the result never exceeds it even within one page.
func TestCrawl_TotalFileCap(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		var b strings.Builder
		for i := 0; i < 10; i++ {
			fmt.Fprintf(&b, `<a href="%d.pdf">%d.pdf</a>`, i, i)
		}
		htmlPage(w, b.String())
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(Limits{MaxTotalFiles: 3}, testLogger())
	result := c.Crawl(context.Background(), srv.URL+"/")

	if result.TotalFiles != 3 {
		t.Errorf("expected 3 files, got %d: %v", result.TotalFiles, result.Files)
	}
}

// TestCrawl_PerDirectoryCap checks that hitting the per-directory cap
// stops scanning the rest of the page, directories included.
func TestCrawl_PerDirectoryCap(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		htmlPage(w, `
			<a href="1.pdf">1</a>
			<a href="2.pdf">2</a>
			<a href="3.pdf">3</a>
			<a href="sub/">sub</a>`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(Limits{MaxFilesPerDir: 2}, testLogger())
	result := c.Crawl(context.Background(), srv.URL+"/")

	if result.TotalFiles != 2 {
		t.Errorf("expected 2 files, got %d: %v", result.TotalFiles, result.Files)
	}
	if len(result.Directories) != 0 {
		t.Errorf("expected no directories after the cap, got %v", result.Directories)
	}
}

// TestCrawl_DepthLimit builds a three-level chain and crawls with a budget
// of two: the deepest directory is discovered but never entered.
func TestCrawl_DepthLimit(t *testing.T) {
	t.Parallel()

	var deepHits atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		htmlPage(w, `<a href="d1/">d1</a>`)
	})
	mux.HandleFunc("/d1/", func(w http.ResponseWriter, r *http.Request) {
		htmlPage(w, `<a href="d2/">d2</a>`)
	})
	mux.HandleFunc("/d1/d2/", func(w http.ResponseWriter, r *http.Request) {
		deepHits.Add(1)
		htmlPage(w, `<a href="x.pdf">x</a>`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(Limits{}, testLogger())
	result := c.CrawlToDepth(context.Background(), srv.URL+"/", 2)

	if got := deepHits.Load(); got != 0 {
		t.Errorf("expected the level-2 directory to stay unvisited, fetched %d times", got)
	}
	if len(result.Files) != 0 {
		t.Errorf("expected no files, got %v", result.Files)
	}
	if len(result.Directories) != 2 {
		t.Errorf("expected 2 discovered directories, got %v", result.Directories)
	}
}

// TestCrawl_BlockedPatterns checks both a blocked start URL and a blocked
// subdirectory. Blocked URLs are never fetched.
func TestCrawl_BlockedPatterns(t *testing.T) {
	t.Parallel()

	t.Run("blocked start URL is never fetched", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32
		mux := http.NewServeMux()
		mux.HandleFunc("/private/", func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			htmlPage(w, `<a href="1.pdf">1</a>`)
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		c := New(Limits{}, testLogger())
		result := c.Crawl(context.Background(), srv.URL+"/private/")

		if got := hits.Load(); got != 0 {
			t.Errorf("expected no requests, got %d", got)
		}
		if result.TotalFiles != 0 || len(result.Errors) != 0 {
			t.Errorf("expected an empty quiet result, got %+v", result)
		}
	})

	t.Run("blocked subdirectory is recorded but not entered", func(t *testing.T) {
		t.Parallel()

		var adminHits atomic.Int32
		mux := http.NewServeMux()
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			htmlPage(w, `<a href="admin/">admin</a><a href="issues/">issues</a>`)
		})
		mux.HandleFunc("/admin/", func(w http.ResponseWriter, r *http.Request) {
			adminHits.Add(1)
			htmlPage(w, `<a href="secret.pdf">s</a>`)
		})
		mux.HandleFunc("/issues/", func(w http.ResponseWriter, r *http.Request) {
			htmlPage(w, `<a href="5.pdf">5</a>`)
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		c := New(Limits{}, testLogger())
		result := c.Crawl(context.Background(), srv.URL+"/")

		if got := adminHits.Load(); got != 0 {
			t.Errorf("expected the admin directory to stay unvisited, fetched %d times", got)
		}
		wantFiles := []string{srv.URL + "/issues/5.pdf"}
		if !slices.Equal(result.Files, wantFiles) {
			t.Errorf("expected files %v, got %v", wantFiles, result.Files)
		}
		// Discovery still records the blocked directory.
		if len(result.Directories) != 2 {
			t.Errorf("expected 2 directories, got %v", result.Directories)
		}
	})
}

// TestCrawl_DirectFile points the crawler straight at a PDF.
func TestCrawl_DirectFile(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/issue.pdf", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		fmt.Fprint(w, "%PDF-1.4 pretend")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(Limits{}, testLogger())
	result := c.Crawl(context.Background(), srv.URL+"/issue.pdf")

	wantFiles := []string{srv.URL + "/issue.pdf"}
	if !slices.Equal(result.Files, wantFiles) {
		t.Errorf("expected files %v, got %v", wantFiles, result.Files)
	}
}

// TestCrawl_ServerError records a failed fetch without failing the crawl.
func TestCrawl_ServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	c := New(Limits{}, testLogger())
	result := c.Crawl(context.Background(), srv.URL+"/missing/")

	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 error, got %d: %v", len(result.Errors), result.Errors)
	}
	if !strings.Contains(result.Errors[0], "Failed to crawl") {
		t.Errorf("expected a crawl failure message, got %q", result.Errors[0])
	}
	if !strings.Contains(result.Errors[0], "404") {
		t.Errorf("expected the status in the message, got %q", result.Errors[0])
	}
}

// TestCrawl_DuplicateLinks checks that the same file linked twice is
// recorded once.
func TestCrawl_DuplicateLinks(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		htmlPage(w, `<a href="1.pdf">first</a><a href="1.pdf">again</a>`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(Limits{}, testLogger())
	result := c.Crawl(context.Background(), srv.URL+"/")

	if result.TotalFiles != 1 {
		t.Errorf("expected 1 file, got %d: %v", result.TotalFiles, result.Files)
	}
}

// TestCrawl_QueryFileParameter finds files served through download
// endpoints rather than direct paths.
func TestCrawl_QueryFileParameter(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		htmlPage(w, `<a href="download?file=issue.pdf">issue</a>`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(Limits{}, testLogger())
	result := c.Crawl(context.Background(), srv.URL+"/")

	wantFiles := []string{srv.URL + "/download?file=issue.pdf"}
	if !slices.Equal(result.Files, wantFiles) {
		t.Errorf("expected files %v, got %v", wantFiles, result.Files)
	}
}

// TestCrawl_ContextCanceled checks that a canceled context stops the crawl
// before any request is made.
func TestCrawl_ContextCanceled(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		htmlPage(w, `<a href="1.pdf">1</a>`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(Limits{}, testLogger())
	result := c.Crawl(ctx, srv.URL+"/")

	if got := hits.Load(); got != 0 {
		t.Errorf("expected no requests after cancellation, got %d", got)
	}
	if result.TotalFiles != 0 {
		t.Errorf("expected no files, got %v", result.Files)
	}
}

func TestCrawlToDepth_DepthFallback(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		htmlPage(w, ``)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(Limits{}, testLogger())

	tests := []struct {
		name  string
		depth int
		want  int
	}{
		{"zero falls back to the default", 0, DefaultMaxDepth},
		{"negative falls back to the default", -3, DefaultMaxDepth},
		{"explicit budget is kept", 3, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := c.CrawlToDepth(context.Background(), srv.URL+"/", tt.depth)
			if result.Depth != tt.want {
				t.Errorf("expected depth %d, got %d", tt.want, result.Depth)
			}
		})
	}
}

func TestIsDownloadableFile(t *testing.T) {
	t.Parallel()

	c := New(Limits{}, testLogger())

	tests := []struct {
		url  string
		want bool
	}{
		{"https://example.com/files/1.pdf", true},
		{"https://example.com/files/1.PDF", true},
		{"https://example.com/doc.docx", true},
		{"https://example.com/page.html", true},
		{"https://example.com/readme.odt", true},
		{"https://example.com/letter.rtf", true},
		{"https://example.com/download?file=issue.pdf", true},
		{"https://example.com/%DB%B1.pdf", true},
		{"https://example.com/dir/", false},
		{"https://example.com/get?id=5", false},
		{"https://example.com/archive", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			t.Parallel()
			if got := c.isDownloadableFile(tt.url); got != tt.want {
				t.Errorf("isDownloadableFile(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestLooksLikeDirectory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		href string
		text string
		want bool
	}{
		{"trailing slash", "1378/", "", true},
		{"dotless segment", "issues", "", true},
		{"archive-year folder", "neshat-1377/", "", true},
		{"plain file", "file.pdf", "", false},
		{"directory marker in text", "x.y", "[DIR]", true},
		{"folder word in text", "x.y", "Folder icon", true},
		{"english month prefix", "jan.2024", "", true},
		{"persian month prefix", "فروردین.list", "", true},
		{"dotted name with plain text", "notes.v2", "click here", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := looksLikeDirectory(tt.href, tt.text); got != tt.want {
				t.Errorf("looksLikeDirectory(%q, %q) = %v, want %v", tt.href, tt.text, got, tt.want)
			}
		})
	}
}

func TestGroupByYear(t *testing.T) {
	t.Parallel()

	t.Run("groups by jalali and gregorian years", func(t *testing.T) {
		t.Parallel()

		r := &Result{Files: []string{
			"https://example.com/neshat/1378/a.pdf",
			"https://example.com/neshat/1378/b.pdf",
			"https://example.com/neshat/2020/c.pdf",
			"https://example.com/neshat/misc/d.pdf",
		}}
		grouped := r.GroupByYear()

		want1378 := []string{
			"https://example.com/neshat/1378/a.pdf",
			"https://example.com/neshat/1378/b.pdf",
		}
		if !slices.Equal(grouped["1378"], want1378) {
			t.Errorf("expected 1378 bucket %v, got %v", want1378, grouped["1378"])
		}
		// The file without a year joins the newest bucket.
		want2020 := []string{
			"https://example.com/neshat/2020/c.pdf",
			"https://example.com/neshat/misc/d.pdf",
		}
		if !slices.Equal(grouped["2020"], want2020) {
			t.Errorf("expected 2020 bucket %v, got %v", want2020, grouped["2020"])
		}
	})

	t.Run("folds persian digit years", func(t *testing.T) {
		t.Parallel()

		r := &Result{Files: []string{"https://example.com/نشاط/۱۳۷۸/e.pdf"}}
		grouped := r.GroupByYear()

		if len(grouped["1378"]) != 1 {
			t.Errorf("expected the persian digit year in bucket 1378, got %v", grouped)
		}
	})

	t.Run("yearless files fall back to the current year", func(t *testing.T) {
		t.Parallel()

		r := &Result{Files: []string{"https://example.com/a.pdf"}}
		grouped := r.GroupByYear()

		key := strconv.Itoa(time.Now().Year())
		if len(grouped[key]) != 1 {
			t.Errorf("expected the file under %s, got %v", key, grouped)
		}
	})

	t.Run("empty result gives empty map", func(t *testing.T) {
		t.Parallel()

		r := &Result{}
		if grouped := r.GroupByYear(); len(grouped) != 0 {
			t.Errorf("expected empty map, got %v", grouped)
		}
	})
}

func TestExtractYear(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url  string
		year int
		ok   bool
	}{
		{"https://example.com/neshat-1377/1.pdf", 1377, true},
		{"https://example.com/2020/x.pdf", 2020, true},
		{"https://example.com/۱۳۷۸/x.pdf", 1378, true},
		{"https://example.com/no-year/x.pdf", 0, false},
		// 1460 looks jalali but is out of range both ways.
		{"https://example.com/1460/x.pdf", 0, false},
		{"https://example.com/1999/x.pdf", 1999, true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			t.Parallel()
			year, ok := extractYear(tt.url)
			if year != tt.year || ok != tt.ok {
				t.Errorf("extractYear(%q) = (%d, %v), want (%d, %v)", tt.url, year, ok, tt.year, tt.ok)
			}
		})
	}
}

func TestLimitsWithDefaults(t *testing.T) {
	t.Parallel()

	t.Run("zero value gets the stock limits", func(t *testing.T) {
		t.Parallel()

		l := Limits{}.withDefaults()
		if l.MaxDepth != DefaultMaxDepth {
			t.Errorf("expected MaxDepth %d, got %d", DefaultMaxDepth, l.MaxDepth)
		}
		if l.MaxFilesPerDir != DefaultMaxFilesPerDir {
			t.Errorf("expected MaxFilesPerDir %d, got %d", DefaultMaxFilesPerDir, l.MaxFilesPerDir)
		}
		if l.MaxTotalFiles != DefaultMaxTotalFiles {
			t.Errorf("expected MaxTotalFiles %d, got %d", DefaultMaxTotalFiles, l.MaxTotalFiles)
		}
		if l.Timeout != DefaultTimeout {
			t.Errorf("expected Timeout %v, got %v", DefaultTimeout, l.Timeout)
		}
		if l.UserAgent != DefaultUserAgent {
			t.Errorf("expected UserAgent %q, got %q", DefaultUserAgent, l.UserAgent)
		}
		if len(l.AllowedExts) == 0 || len(l.BlockedPatterns) == 0 {
			t.Error("expected default extension and blocked pattern sets")
		}
		// Zero delay stays zero: it means no politeness pause.
		if l.Delay != 0 {
			t.Errorf("expected zero delay untouched, got %v", l.Delay)
		}
	})

	t.Run("explicit values survive", func(t *testing.T) {
		t.Parallel()

		l := Limits{MaxDepth: 2, MaxTotalFiles: 7, AllowedExts: []string{".pdf"}}.withDefaults()
		if l.MaxDepth != 2 || l.MaxTotalFiles != 7 {
			t.Errorf("expected explicit limits kept, got %+v", l)
		}
		if !slices.Equal(l.AllowedExts, []string{".pdf"}) {
			t.Errorf("expected explicit extensions kept, got %v", l.AllowedExts)
		}
	})
}
