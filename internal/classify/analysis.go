package classify

import "encoding/json"

// URLType is the classified shape of an archive URL.
type URLType int

const (
	// Unknown means no pattern matched.
	Unknown URLType = iota

	// DirectFile is a direct link to a downloadable document.
	DirectFile

	// DirectoryListing is a browsable listing page.
	DirectoryListing

	// ArchiveRoot is the top of an archive tree, with publication
	// folders below it.
	ArchiveRoot

	// YearDirectory is a single year's folder.
	YearDirectory

	// MonthDirectory is a single month's folder.
	MonthDirectory
)

// String returns the snake_case name used in reports and JSON output.
func (t URLType) String() string {
	switch t {
	case DirectFile:
		return "direct_file"
	case DirectoryListing:
		return "directory_listing"
	case ArchiveRoot:
		return "archive_root"
	case YearDirectory:
		return "year_directory"
	case MonthDirectory:
		return "month_directory"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the type as its string name rather than a bare
// number, keeping classify output readable.
func (t URLType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// Analysis is the outcome of classifying one URL.
type Analysis struct {
	// URL is the analyzed URL, exactly as given.
	URL string `json:"url"`

	// Type is the classified shape of the URL.
	Type URLType `json:"url_type"`

	// Confidence is how sure the classifier is, in [0, 1].
	Confidence float64 `json:"confidence"`

	// SuggestedDepth is the crawl depth the classifier recommends for
	// this URL.
	SuggestedDepth int `json:"suggested_depth"`

	// Patterns are tags for every pattern that fired, in firing order.
	Patterns []string `json:"patterns_matched"`

	// Metadata carries extracted values keyed by what they are:
	// "years", "months", counts from content inspection, or "error".
	Metadata map[string][]string `json:"metadata,omitempty"`
}

// mark sets the classified type together with its confidence and
// suggested depth.
func (a *Analysis) mark(t URLType, confidence float64, depth int) {
	a.Type = t
	a.Confidence = confidence
	a.SuggestedDepth = depth
}

// errorAnalysis is the placeholder entry for a URL that could not be
// analyzed at all.
func errorAnalysis(rawURL string, err error) Analysis {
	return Analysis{
		URL:            rawURL,
		Type:           Unknown,
		Confidence:     0,
		SuggestedDepth: 1,
		Patterns:       []string{"error: " + err.Error()},
		Metadata:       map[string][]string{"error": {err.Error()}},
	}
}
