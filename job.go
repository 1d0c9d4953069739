package tsprint

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Job is a pending print job in the user's release queue. The release
// link is an opaque portal URL valid for the lifetime of the page it was
// scraped from.
type Job struct {
	Name string

	releaseLink string
}

// ReleasePrinter is a physical release-station printer offered for a
// specific pending job.
type ReleasePrinter struct {
	Name   string
	Status string

	link string
}

// Available reports whether the release station considers the printer
// ready to receive the job.
func (p ReleasePrinter) Available() bool {
	return strings.Contains(p.Status, "OK")
}

var releaseStationLinkRe = regexp.MustCompile(`\$ReleaseStationJobs\.\$DirectLink`)

// PendingJobs returns the jobs currently waiting in the release queue.
func (c *Client) PendingJobs(ctx context.Context) ([]Job, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}

	pg, err := c.getPage(ctx, c.baseURL+releaseJobsPath, "release jobs")
	if err != nil {
		return nil, fmt.Errorf("getting pending jobs: %w", err)
	}

	var jobs []Job
	pg.doc.Find("table#jobs-table tr").Each(func(_ int, row *goquery.Selection) {
		name := cleanText(row.Find("td.documentColumnValue span.smallText").First())
		if name == "" {
			return
		}

		link := ""
		row.Find("td.actionColumnValue a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
			if strings.TrimSpace(a.Text()) == "Imprimer" {
				link = a.AttrOr("href", "")
				return false
			}
			return true
		})
		// Rows without a print action (held or errored jobs) are skipped.
		if link == "" {
			return
		}

		jobs = append(jobs, Job{Name: name, releaseLink: link})
	})

	return jobs, nil
}

// ReleasePrinters returns the physical printers the job can be released
// to, with the status the release station reports for each.
func (c *Client) ReleasePrinters(ctx context.Context, job Job) ([]ReleasePrinter, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}

	pg, err := c.getPage(ctx, c.resolveURL(job.releaseLink), "job release page")
	if err != nil {
		return nil, fmt.Errorf("getting release printers: %w", err)
	}

	var printers []ReleasePrinter
	pg.doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := a.AttrOr("href", "")
		if !releaseStationLinkRe.MatchString(href) {
			return
		}
		row := a.Closest("tr")
		if row.Length() == 0 {
			return
		}
		printers = append(printers, ReleasePrinter{
			Name:   cleanText(a),
			Status: cleanText(row.Find("td").Last()),
			link:   href,
		})
	})

	return printers, nil
}

// Release dispatches a pending job to a physical printer. With an empty
// printerFilter the first available printer wins; otherwise the filter is
// matched case-insensitively against printer names. Fails with
// ErrNoPrinterAvailable when nothing matches.
func (c *Client) Release(ctx context.Context, job Job, printerFilter string) error {
	printers, err := c.ReleasePrinters(ctx, job)
	if err != nil {
		return err
	}

	var target *ReleasePrinter
	var available []string
	for i := range printers {
		p := &printers[i]
		if !p.Available() {
			continue
		}
		available = append(available, p.Name)
		if printerFilter == "" || strings.Contains(strings.ToLower(p.Name), strings.ToLower(printerFilter)) {
			target = p
			break
		}
	}

	if target == nil {
		return fmt.Errorf("%w for job %q (available: %v)", ErrNoPrinterAvailable, job.Name, available)
	}

	req, err := c.newRequest(ctx, http.MethodGet, c.resolveURL(target.link), nil)
	if err != nil {
		return fmt.Errorf("creating release request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("releasing job: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("release request failed with status %d", resp.StatusCode)
	}

	c.logger.Info("job released", "job", job.Name, "printer", target.Name)
	return nil
}

// ReleaseByName releases the first pending job whose name contains
// nameFilter. Fails with ErrJobNotFound when no job matches.
func (c *Client) ReleaseByName(ctx context.Context, nameFilter, printerFilter string) error {
	jobs, err := c.PendingJobs(ctx)
	if err != nil {
		return err
	}

	for _, job := range jobs {
		if strings.Contains(job.Name, nameFilter) {
			return c.Release(ctx, job, printerFilter)
		}
	}

	return fmt.Errorf("%w: no pending job matching %q", ErrJobNotFound, nameFilter)
}
