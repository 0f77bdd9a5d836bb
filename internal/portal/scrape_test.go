package portal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScrapeSaveWarnings(t *testing.T) {
	html := `
	<html><body>
		<span class="error">  Missing  report on 05/02 </span>
		<span id="ctl00_errorSummary">Missing report on 05/02</span>
		<span id="someErrorLabel">Hours exceed daily limit</span>
		<div id="ctl00_mDialogEx"><span>Certificate required for sick leave</span></div>
		<span class="ok">Saved successfully</span>
	</body></html>`

	warnings := scrapeSaveWarnings(html)
	assert.ElementsMatch(t, []string{
		"Missing report on 05/02",
		"Hours exceed daily limit",
		"Certificate required for sick leave",
	}, warnings, "duplicates collapsed, whitespace normalized, non-error text ignored")
}

func TestScrapeSaveWarningsClean(t *testing.T) {
	assert.Empty(t, scrapeSaveWarnings(`<html><body><p>all good</p></body></html>`))
}

func TestScrapeFirstText(t *testing.T) {
	html := `<div><span class="error"> Invalid   user </span><span class="error">second</span></div>`
	assert.Equal(t, "Invalid user", scrapeFirstText(html, ".error"))
	assert.Equal(t, "", scrapeFirstText(html, ".missing"))
}
