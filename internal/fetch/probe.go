package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/irpress/kavosh/internal/errkind"
)

// ProbeResult reports what a download would see without writing
// anything.
type ProbeResult struct {
	// Size is the declared Content-Length, or -1 when the server does
	// not declare one.
	Size int64 `json:"size"`

	// ContentType is the raw Content-Type header.
	ContentType string `json:"content_type"`
}

// Probe checks a URL before downloading: gate validation, reachability,
// content type, and declared size against the ceiling. It issues a GET
// and closes the body unread; several archive hosts mishandle HEAD.
// A nil error means a download would be attempted.
func (f *Fetcher) Probe(ctx context.Context, rawURL string) (*ProbeResult, error) {
	if err := f.gate.Check(rawURL); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errkind.New(errkind.Validation, "probe", rawURL, err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		var tagged *errkind.Error
		if errors.As(err, &tagged) {
			return nil, tagged
		}
		return nil, errkind.New(errkind.Network, "probe", rawURL, err)
	}
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errkind.New(errkind.Network, "probe", rawURL,
			fmt.Errorf("unexpected status %s", resp.Status))
	}

	finalURL := resp.Request.URL.String()
	if finalURL != rawURL {
		if err := f.gate.Check(finalURL); err != nil {
			return nil, err
		}
	}

	ct := resp.Header.Get("Content-Type")
	if err := f.checkContentType(ct, finalURL); err != nil {
		return nil, err
	}

	if resp.ContentLength > f.maxFileSize {
		return nil, errkind.New(errkind.Validation, "probe", rawURL,
			fmt.Errorf("%w: declared %d bytes (limit %d)", ErrTooLarge, resp.ContentLength, f.maxFileSize))
	}
	if resp.ContentLength < 0 {
		f.logger.Warn("cannot determine file size before download", "url", rawURL)
	}

	return &ProbeResult{Size: resp.ContentLength, ContentType: ct}, nil
}
