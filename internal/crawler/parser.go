package crawler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"

	"github.com/irpress/kavosh/internal/persian"
)

// filePathPatterns recognize downloadable files by path or query suffix,
// beyond the configured extension set.
var filePathPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\.pdf$`),
	regexp.MustCompile(`\.docx?$`),
	regexp.MustCompile(`\.txt$`),
	regexp.MustCompile(`\.html?$`),
	regexp.MustCompile(`\.rtf$`),
	regexp.MustCompile(`\.odt$`),
}

// directoryIndicators are link-text fragments that mark a listing entry as
// a subdirectory. Lowercase here; matching is case-insensitive.
var directoryIndicators = []string{"folder", "dir", "directory", "[dir]", "📁"}

// directoryNamePatterns recognize directory-like hrefs that would
// otherwise fail the extension heuristics: year folders ("1378/",
// "neshat-1377/") and month-name folders in either language.
var directoryNamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d{4}/?$`),
	regexp.MustCompile(`^[a-zA-Z]+-\d{4}/?$`),
	regexp.MustCompile(`(?i)^(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)`),
	regexp.MustCompile(`^(?:` + persian.Alternation(persian.MonthsFa) + `)`),
}

// link is one anchor pulled out of a listing page.
type link struct {
	href string
	text string
}

// parseHTMLDirectory scans an HTML listing for files and subdirectories.
// Subdirectories are descended into immediately, depth-first, the way a
// person reads an Apache index page.
func (c *Crawler) parseHTMLDirectory(ctx context.Context, s *session, baseURL string, body []byte, contentType string, depth, maxDepth int) {
	base, err := url.Parse(baseURL)
	if err != nil {
		s.addError("Error parsing HTML directory %s: %v", baseURL, err)
		return
	}

	links, err := listingLinks(bytes.NewReader(body), contentType)
	if err != nil {
		s.addError("Error parsing HTML directory %s: %v", baseURL, err)
		return
	}

	filesInDir := 0
	for _, ln := range links {
		if filesInDir >= c.limits.MaxFilesPerDir {
			c.logger.Warn("per-directory file limit reached",
				"url", baseURL, "limit", c.limits.MaxFilesPerDir)
			break
		}

		href := ln.href
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "mailto:") {
			continue
		}
		// Parent and self references would walk back up the tree.
		if href == ".." || href == "../" || href == "./" {
			continue
		}

		full := resolveRef(base, href)
		if full == "" {
			continue
		}

		switch {
		case c.isDownloadableFile(full):
			if s.addFile(full, c.limits.MaxTotalFiles) {
				filesInDir++
				c.logger.Debug("found file", "url", full)
			}
		case looksLikeDirectory(href, ln.text):
			if s.addDir(full) {
				c.logger.Debug("found directory", "url", full)
				c.visit(ctx, s, full, depth+1, maxDepth)
			}
		}
	}
}

// parseJSONDirectory scans a JSON listing, as served by the handful of
// archive hosts that expose an API instead of an index page.
func (c *Crawler) parseJSONDirectory(ctx context.Context, s *session, baseURL string, body []byte, depth, maxDepth int) {
	base, err := url.Parse(baseURL)
	if err != nil {
		s.addError("Error parsing JSON directory %s: %v", baseURL, err)
		return
	}

	var root any
	if err := json.Unmarshal(body, &root); err != nil {
		s.addError("Error parsing JSON directory %s: %v", baseURL, err)
		return
	}

	for _, item := range listingItems(root) {
		switch v := item.(type) {
		case string:
			full := resolveRef(base, v)
			if full != "" && c.isDownloadableFile(full) {
				s.addFile(full, c.limits.MaxTotalFiles)
			}

		case map[string]any:
			name := itemName(v)
			if name == "" {
				continue
			}
			full := resolveRef(base, name)
			if full == "" {
				continue
			}

			switch typ := strings.ToLower(stringField(v, "type")); {
			case typ == "file" || c.isDownloadableFile(full):
				s.addFile(full, c.limits.MaxTotalFiles)
			case typ == "directory" || typ == "folder":
				if s.addDir(full) {
					c.visit(ctx, s, full, depth+1, maxDepth)
				}
			}
		}
	}
}

// listingLinks extracts anchors from an HTML listing in document order.
// The declared charset is honored, which matters for the windows-1256
// pages still common on older Iranian servers.
func listingLinks(r io.Reader, contentType string) ([]link, error) {
	decoded, err := charset.NewReader(r, contentType)
	if err != nil {
		return nil, err
	}
	doc, err := html.Parse(decoded)
	if err != nil {
		return nil, err
	}

	var links []link
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if href := getAttr(n, "href"); href != "" {
				links = append(links, link{href: href, text: nodeText(n)})
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return links, nil
}

// listingItems digs the entry list out of a JSON directory response.
// Directory APIs disagree on the envelope: some use "files", some
// "items", some "contents", and some return a bare array.
func listingItems(root any) []any {
	switch v := root.(type) {
	case map[string]any:
		for _, key := range []string{"files", "items", "contents"} {
			if items, ok := v[key].([]any); ok {
				return items
			}
		}
	case []any:
		return v
	}
	return nil
}

// itemName pulls the entry name from a JSON listing object.
func itemName(m map[string]any) string {
	for _, key := range []string{"name", "filename", "path"} {
		if s, ok := m[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

// isDownloadableFile reports whether a URL points at a harvestable file:
// an allowed extension in the path, a file= query parameter, or a match
// in the file pattern table.
func (c *Crawler) isDownloadableFile(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	path := strings.ToLower(u.Path)
	query := u.RawQuery
	if unescaped, err := url.PathUnescape(query); err == nil {
		query = unescaped
	}
	query = strings.ToLower(query)

	for _, ext := range c.limits.AllowedExts {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}

	if strings.Contains(query, "file=") {
		for _, ext := range c.limits.AllowedExts {
			if strings.Contains(query, ext) {
				return true
			}
		}
	}

	for _, re := range filePathPatterns {
		if re.MatchString(path) {
			return true
		}
	}
	for _, re := range filePathPatterns {
		if re.MatchString(query) {
			return true
		}
	}

	return false
}

// looksLikeDirectory decides whether a listing entry is a subdirectory
// worth descending into. The href shape is checked first, then the link
// text, then the directory name patterns.
func looksLikeDirectory(href, text string) bool {
	if strings.HasSuffix(href, "/") {
		return true
	}

	// No extension in the last path segment.
	last := href
	if i := strings.LastIndexByte(href, '/'); i >= 0 {
		last = href[i+1:]
	}
	if !strings.Contains(last, ".") {
		return true
	}

	lowerText := strings.ToLower(text)
	for _, indicator := range directoryIndicators {
		if strings.Contains(lowerText, indicator) {
			return true
		}
	}

	for _, re := range directoryNamePatterns {
		if re.MatchString(href) {
			return true
		}
	}

	return false
}

// resolveRef resolves href against base, returning "" when href does not
// parse as a URL reference.
func resolveRef(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// nodeText concatenates the text content under a node, the visible label
// of an anchor.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
