package portal

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// warningSelectors are the places the portal surfaces server-side validation
// messages after a save: inline error labels and the modal dialog body.
var warningSelectors = []string{
	".error",
	".ErrorLabel",
	"span[id*='error']",
	"span[id*='Error']",
	"#ctl00_mDialogEx span",
	"#MPEBehavior_foregroundElement span",
}

// scrapeSaveWarnings pulls validation messages from a post-save page.
// Duplicates and empty fragments are dropped.
func scrapeSaveWarnings(html string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var warnings []string
	for _, sel := range warningSelectors {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			text := strings.Join(strings.Fields(s.Text()), " ")
			if text == "" || seen[text] {
				return
			}
			seen[text] = true
			warnings = append(warnings, text)
		})
	}
	return warnings
}

// scrapeFirstText returns the normalized text of the first element matching
// selector, or "".
func scrapeFirstText(html, selector string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	return strings.Join(strings.Fields(doc.Find(selector).First().Text()), " ")
}
