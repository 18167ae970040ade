package parser

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// ExtractLocs returns the text of every <loc> element in document order,
// whatever element encloses it, so it handles both <urlset> and
// <sitemapindex> documents. On malformed XML the locations read before the
// error are returned together with the error.
func ExtractLocs(r io.Reader) ([]string, error) {
	decoder := xml.NewDecoder(r)
	decoder.Strict = false
	decoder.AutoClose = xml.HTMLAutoClose
	decoder.Entity = xml.HTMLEntity
	decoder.CharsetReader = charsetReader

	var locs []string
	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			return locs, nil
		}
		if err != nil {
			return locs, fmt.Errorf("failed to parse XML: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok || !strings.EqualFold(start.Name.Local, "loc") {
			continue
		}

		var loc struct {
			Text string `xml:",chardata"`
		}
		if err := decoder.DecodeElement(&loc, &start); err != nil {
			return locs, fmt.Errorf("failed to decode <loc>: %w", err)
		}
		locs = append(locs, strings.TrimSpace(loc.Text))
	}
}

// charsetReader converts documents declaring a non-UTF-8 encoding in their
// XML prolog.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", label, err)
	}
	return transform.NewReader(input, enc.NewDecoder()), nil
}
