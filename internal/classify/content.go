package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/irpress/kavosh/internal/persian"
)

// contentFindings is what one content probe produced. Probes never touch
// the suggested depth; that stays a lexical decision.
type contentFindings struct {
	urlType    URLType
	confidence float64
	patterns   []string
	metadata   map[string][]string
}

// probeContent fetches the URL once and inspects what came back. Any
// fetch or status problem returns nil and the caller keeps its lexical
// result.
func (c *Classifier) probeContent(ctx context.Context, rawURL string) *contentFindings {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("content probe failed", "url", rawURL, "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Debug("content probe failed", "url", rawURL, "status", resp.Status)
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		c.logger.Debug("content probe failed", "url", rawURL, "error", err)
		return nil
	}

	f := &contentFindings{urlType: Unknown, metadata: map[string][]string{}}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	switch {
	case strings.Contains(contentType, "text/html"):
		inspectHTML(f, persian.FoldDigits(strings.ToLower(string(body))))
	case strings.Contains(contentType, "application/json"):
		inspectJSON(f, body)
	case strings.Contains(contentType, "application/pdf"):
		f.patterns = append(f.patterns, "content_type: application/pdf")
		f.urlType = DirectFile
		f.confidence = 1.0
	}

	return f
}

// inspectHTML looks for listing markers in a lowercased, digit-folded
// body. The checks run in fixed order and a later hit overrides an
// earlier one: year-bearing hrefs are the strongest signal.
func inspectHTML(f *contentFindings, content string) {
	f.patterns = append(f.patterns, "content_type: text/html")

	indicators := 0
	for _, indicator := range listingIndicators {
		if strings.Contains(content, indicator) {
			indicators++
			f.patterns = append(f.patterns, "html_indicator: "+indicator)
		}
	}
	if indicators >= 2 {
		f.urlType = DirectoryListing
		f.confidence = 0.7
	}

	fileLinks := 0
	for _, re := range bodyFilePatterns {
		fileLinks += len(re.FindAllString(content, -1))
	}
	if fileLinks > 0 {
		f.metadata["file_links_found"] = []string{strconv.Itoa(fileLinks)}
		f.patterns = append(f.patterns, fmt.Sprintf("file_links: %d", fileLinks))
		if fileLinks > 5 {
			f.urlType = DirectoryListing
			f.confidence = 0.8
		}
	}

	yearLinks := len(yearLinkPattern.FindAllString(content, -1))
	if yearLinks > 0 {
		f.metadata["year_links"] = []string{strconv.Itoa(yearLinks)}
		f.patterns = append(f.patterns, fmt.Sprintf("year_links: %d", yearLinks))
		f.urlType = ArchiveRoot
		f.confidence = 0.8
	}
}

// inspectJSON treats any JSON response as a listing; a parsable array or
// an envelope with files/items keys raises the confidence.
func inspectJSON(f *contentFindings, body []byte) {
	f.patterns = append(f.patterns, "content_type: application/json")
	f.urlType = DirectoryListing
	f.confidence = 0.9

	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return
	}

	structured := false
	if _, ok := data.([]any); ok {
		structured = true
	} else if m, ok := data.(map[string]any); ok {
		_, hasFiles := m["files"]
		_, hasItems := m["items"]
		structured = hasFiles || hasItems
	}

	if structured {
		f.confidence = 0.95
		f.patterns = append(f.patterns, "json_structure: directory_listing")
	}
}
