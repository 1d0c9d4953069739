package tsprint

import (
	"context"
	"fmt"
	"strconv"

	"github.com/PuerkitoBio/goquery"
)

// WebPrintPrinter is a virtual printer offered by the Web Print wizard,
// e.g. "Noir et blanc" or "Couleur". Index is the radio-button value used
// to select it during upload, in document order.
type WebPrintPrinter struct {
	Index int
	Name  string
}

// WebPrintPrinters returns the printers offered by the Web Print wizard.
func (c *Client) WebPrintPrinters(ctx context.Context) ([]WebPrintPrinter, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}

	_, form, err := c.printerSelectionPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting web print printers: %w", err)
	}

	var printers []WebPrintPrinter
	form.Find(`input[type="radio"][name="$RadioGroup"]`).Each(func(i int, radio *goquery.Selection) {
		index := i
		if v, err := strconv.Atoi(radio.AttrOr("value", "")); err == nil {
			index = v
		}
		printers = append(printers, WebPrintPrinter{
			Index: index,
			Name:  printerLabel(radio, index),
		})
	})

	return printers, nil
}

// printerLabel pulls the display label for a selection radio button. The
// label usually lives in the surrounding table row; a <label> sibling is
// the fallback.
func printerLabel(radio *goquery.Selection, index int) string {
	if row := radio.Closest("tr"); row.Length() > 0 {
		if text := cleanText(row); text != "" {
			return text
		}
	}
	if label := radio.Parent().Find("label").First(); label.Length() > 0 {
		if text := cleanText(label); text != "" {
			return text
		}
	}
	return fmt.Sprintf("Printer %d", index)
}

// printerSelectionPage navigates from the Web Print landing page to the
// printer selection step and returns its page and form. The page's CSRF
// token is cached for the wizard POSTs that follow.
func (c *Client) printerSelectionPage(ctx context.Context) (*page, *goquery.Selection, error) {
	landing, err := c.getPage(ctx, c.baseURL+webPrintPath, "web print page")
	if err != nil {
		return nil, nil, err
	}

	href, ok := findSubmitJobLink(landing.doc)
	if !ok {
		return nil, nil, fmt.Errorf("could not find 'Envoyer un travail' link")
	}

	selection, err := c.getPage(ctx, c.resolveURL(href), "printer selection")
	if err != nil {
		return nil, nil, err
	}

	form := selection.doc.Find("form").First()
	if form.Length() == 0 {
		return nil, nil, fmt.Errorf("no form on printer selection page")
	}

	c.extractCSRF(selection.body)

	return selection, form, nil
}
