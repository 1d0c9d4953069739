package tsprint

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Summary is the account overview the portal shows on its landing page.
// Balance is kept as the portal renders it (e.g. "2,50 €") since the
// currency format varies with the portal locale.
type Summary struct {
	Username  string
	Balance   string
	PrintJobs int
	Pages     int
}

var digitsRe = regexp.MustCompile(`\d+`)

// AccountSummary scrapes the user summary page for the account balance
// and usage counters.
func (c *Client) AccountSummary(ctx context.Context) (*Summary, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}

	pg, err := c.getPage(ctx, c.baseURL+summaryPath, "user summary")
	if err != nil {
		return nil, fmt.Errorf("getting account summary: %w", err)
	}

	summary := &Summary{Username: c.username}

	pg.doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td, th")
		if cells.Length() < 2 {
			return
		}
		label := strings.ToLower(cleanText(cells.First()))
		value := cleanText(cells.Last())

		switch {
		case strings.Contains(label, "solde") || strings.Contains(label, "balance"):
			summary.Balance = value
		case strings.Contains(label, "travaux") || strings.Contains(label, "jobs"):
			summary.PrintJobs = firstInt(value)
		case strings.Contains(label, "pages"):
			summary.Pages = firstInt(value)
		}
	})

	return summary, nil
}

// firstInt pulls the leading integer out of a rendered counter like
// "42 (depuis le 01/09/2025)".
func firstInt(s string) int {
	m := digitsRe.FindString(s)
	if m == "" {
		return 0
	}
	n, _ := strconv.Atoi(m)
	return n
}
