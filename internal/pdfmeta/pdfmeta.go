package pdfmeta

import (
	"encoding/hex"
	"io"
	"os"
	"regexp"
	"strings"

	"golang.org/x/text/encoding/unicode"

	"github.com/irpress/kavosh/internal/persian"
)

// DefaultScanBytes bounds how much of a document is inspected for
// metadata. The Info dictionary and XMP packet of a scanned newspaper
// issue sit near the start of the file.
const DefaultScanBytes = 256 * 1024

// Info holds the metadata fields recognized in a PDF document. Date
// fields keep the raw PDF form (D:YYYYMMDDHHmmSS with an optional
// timezone suffix).
type Info struct {
	Title        string `json:"title,omitempty"`
	Author       string `json:"author,omitempty"`
	Subject      string `json:"subject,omitempty"`
	Keywords     string `json:"keywords,omitempty"`
	Creator      string `json:"creator,omitempty"`
	Producer     string `json:"producer,omitempty"`
	CreationDate string `json:"creation_date,omitempty"`
	ModDate      string `json:"mod_date,omitempty"`
}

// Empty reports whether no metadata fields were recognized.
func (i *Info) Empty() bool {
	return *i == Info{}
}

// dictPattern matches an Info dictionary entry in either the literal
// string form /Key (value) or the hex string form /Key <value>.
func dictPattern(key string) *regexp.Regexp {
	return regexp.MustCompile(`/` + key + `\s*\(([^)]+)\)|/` + key + `\s*<([^>]+)>`)
}

var infoFields = []struct {
	re  *regexp.Regexp
	set func(*Info, string)
}{
	{dictPattern("Title"), func(i *Info, v string) { i.Title = v }},
	{dictPattern("Author"), func(i *Info, v string) { i.Author = v }},
	{dictPattern("Subject"), func(i *Info, v string) { i.Subject = v }},
	{dictPattern("Keywords"), func(i *Info, v string) { i.Keywords = v }},
	{dictPattern("Creator"), func(i *Info, v string) { i.Creator = v }},
	{dictPattern("Producer"), func(i *Info, v string) { i.Producer = v }},
	{dictPattern("CreationDate"), func(i *Info, v string) { i.CreationDate = v }},
	{dictPattern("ModDate"), func(i *Info, v string) { i.ModDate = v }},
}

// xmpFields fill gaps the Info dictionary left. XMP packets span lines,
// so the patterns run in dot-matches-newline mode.
var xmpFields = []struct {
	re  *regexp.Regexp
	get func(*Info) *string
}{
	{regexp.MustCompile(`(?s)<dc:title[^>]*>.*?<rdf:li[^>]*>([^<]+)</rdf:li>`), func(i *Info) *string { return &i.Title }},
	{regexp.MustCompile(`(?s)<dc:creator[^>]*>.*?<rdf:li[^>]*>([^<]+)</rdf:li>`), func(i *Info) *string { return &i.Author }},
	{regexp.MustCompile(`xmp:CreatorTool>([^<]+)<`), func(i *Info) *string { return &i.Creator }},
	{regexp.MustCompile(`pdf:Producer>([^<]+)<`), func(i *Info) *string { return &i.Producer }},
}

// Extract scans data for Info dictionary entries, then consults the XMP
// packet for fields still missing. The returned Info is never nil; use
// Empty when absence matters.
func Extract(data []byte) *Info {
	info := &Info{}

	for _, f := range infoFields {
		m := f.re.FindSubmatch(data)
		if m == nil {
			continue
		}
		var v string
		switch {
		case len(m[1]) > 0:
			v = decodeLiteral(m[1])
		case len(m[2]) > 0:
			v = decodeHex(m[2])
		}
		if v != "" {
			f.set(info, v)
		}
	}

	for _, f := range xmpFields {
		dst := f.get(info)
		if *dst != "" {
			continue
		}
		if m := f.re.FindSubmatch(data); m != nil {
			if v := clean(string(m[1])); v != "" {
				*dst = v
			}
		}
	}

	return info
}

// ExtractFile reads the leading DefaultScanBytes of the file at path and
// extracts metadata from them.
func ExtractFile(path string) (*Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	head, err := io.ReadAll(io.LimitReader(f, DefaultScanBytes))
	if err != nil {
		return nil, err
	}
	return Extract(head), nil
}

// decodeLiteral interprets a PDF literal string. UTF-16BE values carry a
// byte order mark; everything else is treated as PDFDocEncoding, which
// coincides with Latin-1 for the printable range.
func decodeLiteral(raw []byte) string {
	if hasBOM(raw) {
		return decodeUTF16(raw)
	}

	s := string(raw)
	for _, r := range [...][2]string{
		{`\n`, "\n"}, {`\r`, "\r"}, {`\t`, "\t"},
		{`\(`, "("}, {`\)`, ")"}, {`\\`, `\`},
	} {
		s = strings.ReplaceAll(s, r[0], r[1])
	}
	return clean(s)
}

// decodeHex interprets a PDF hex string, which may contain whitespace
// and omit the final digit.
func decodeHex(raw []byte) string {
	compact := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\r', '\n':
			return -1
		}
		return r
	}, string(raw))
	if len(compact)%2 == 1 {
		compact += "0"
	}

	b, err := hex.DecodeString(compact)
	if err != nil {
		return ""
	}
	if hasBOM(b) {
		return decodeUTF16(b)
	}

	runes := make([]rune, len(b))
	for i, c := range b {
		runes[i] = rune(c)
	}
	return clean(string(runes))
}

func hasBOM(b []byte) bool {
	return len(b) >= 2 && b[0] == 0xFE && b[1] == 0xFF
}

func decodeUTF16(b []byte) string {
	out, err := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder().Bytes(b)
	if err != nil {
		return ""
	}
	return clean(string(out))
}

// clean trims and NFC-normalizes a decoded value. Persian titles arrive
// from scanning software in mixed normalization forms.
func clean(s string) string {
	return strings.TrimSpace(persian.Normalize(s))
}
