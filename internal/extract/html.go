package extract

import (
	"bytes"
	"strings"

	"resumescore/internal/errors"

	"github.com/PuerkitoBio/goquery"
)

const htmlBlockSelector = "h1, h2, h3, h4, h5, h6, p, li, td, th, dt, dd, pre, blockquote"

// extractHTML drops non-content elements and returns one line per block
// element. Documents without block markup fall back to the body text.
func extractHTML(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", errors.NewValidationError(errors.ErrCodeExtractionFailed, "Could not parse HTML document", err)
	}

	doc.Find("script, style, nav, noscript, iframe, svg, head").Remove()

	var lines []string
	doc.Find(htmlBlockSelector).Each(func(_ int, s *goquery.Selection) {
		// nested blocks are emitted by their innermost element
		if s.Find(htmlBlockSelector).Length() > 0 {
			return
		}
		if line := strings.Join(strings.Fields(s.Text()), " "); line != "" {
			if goquery.NodeName(s) == "li" {
				line = "- " + line
			}
			lines = append(lines, line)
		}
	})
	if len(lines) == 0 {
		return strings.TrimSpace(doc.Find("body").Text()), nil
	}
	return strings.Join(lines, "\n"), nil
}
