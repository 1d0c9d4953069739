package tsprint

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Tapestry (the framework behind PaperCut's web UI) keeps the CSRF token
// and the upload endpoint in inline scripts, out of reach of selectors.
var (
	csrfTokenRe     = regexp.MustCompile(`var csrfToken = ['"]([^'"]+)['"]`)
	uploadURLRe     = regexp.MustCompile(`url\s*:\s*["'](/upload/\d+)["']`)
	uploadURLBareRe = regexp.MustCompile(`["'](/upload/\d+)["']`)

	submitJobHrefRe = regexp.MustCompile(`UserWebPrint.*\$ActionLink`)
	optionsNextRe   = regexp.MustCompile(`Document.*envoyer`)
)

// formValues harvests every named input and select of a form into a
// POST-able value set, mirroring what a browser would submit.
func formValues(form *goquery.Selection) url.Values {
	data := url.Values{}

	form.Find("input").Each(func(_ int, input *goquery.Selection) {
		name, ok := input.Attr("name")
		if !ok || name == "" {
			return
		}
		data.Set(name, input.AttrOr("value", ""))
	})

	form.Find("select").Each(func(_ int, sel *goquery.Selection) {
		name, ok := sel.Attr("name")
		if !ok || name == "" {
			return
		}
		opt := sel.Find("option[selected]").First()
		if opt.Length() == 0 {
			opt = sel.Find("option").First()
		}
		if opt.Length() > 0 {
			data.Set(name, opt.AttrOr("value", ""))
		}
	})

	return data
}

// stripSubmits removes every submit-button field so that only the one
// button the caller re-adds is "pressed".
func stripSubmits(data url.Values) {
	for key := range data {
		if strings.HasPrefix(key, "$Submit") {
			data.Del(key)
		}
	}
}

// clearWizardFields blanks the Tapestry bookkeeping fields the printer
// selection step expects to be empty.
func clearWizardFields(data url.Values) {
	for _, key := range []string{"$Hidden", "$Hidden$0", "$TextField"} {
		if _, ok := data[key]; ok {
			data.Set(key, "")
		}
	}
}

// firstSubmit returns the name and value of the form's first submit
// button, if it has a usable name.
func firstSubmit(form *goquery.Selection) (name, value string, ok bool) {
	btn := form.Find(`input[type="submit"]`).First()
	if btn.Length() == 0 {
		return "", "", false
	}
	name, hasName := btn.Attr("name")
	if !hasName || name == "" {
		return "", "", false
	}
	return name, btn.AttrOr("value", ""), true
}

// submitMatching returns the first submit button whose value matches re.
func submitMatching(form *goquery.Selection, re *regexp.Regexp) (name, value string, ok bool) {
	form.Find(`input[type="submit"]`).EachWithBreak(func(_ int, btn *goquery.Selection) bool {
		v := btn.AttrOr("value", "")
		n, hasName := btn.Attr("name")
		if hasName && n != "" && re.MatchString(v) {
			name, value, ok = n, v, true
			return false
		}
		return true
	})
	return name, value, ok
}

// findSubmitJobLink locates the "Envoyer un travail" link on the Web
// Print landing page, falling back to the Tapestry action href when the
// label is not found.
func findSubmitJobLink(doc *goquery.Document) (href string, ok bool) {
	doc.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if strings.Contains(a.Text(), "Envoyer un travail") {
			href, ok = a.Attr("href")
			return !ok
		}
		return true
	})
	if ok {
		return href, true
	}

	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		h := a.AttrOr("href", "")
		if submitJobHrefRe.MatchString(h) {
			href, ok = h, true
			return false
		}
		return true
	})
	return href, ok
}

// extractCSRF caches the csrfToken found in the page's inline script.
func (c *Client) extractCSRF(body string) {
	if m := csrfTokenRe.FindStringSubmatch(body); m != nil {
		c.csrfToken = m[1]
	}
}

// findUploadURL extracts the /upload/<id> endpoint from the upload
// page's script block.
func findUploadURL(body string) (string, bool) {
	if m := uploadURLRe.FindStringSubmatch(body); m != nil {
		return m[1], true
	}
	if m := uploadURLBareRe.FindStringSubmatch(body); m != nil {
		return m[1], true
	}
	return "", false
}

// cleanText collapses a selection's text into single-spaced trimmed form.
func cleanText(sel *goquery.Selection) string {
	return strings.Join(strings.Fields(sel.Text()), " ")
}
