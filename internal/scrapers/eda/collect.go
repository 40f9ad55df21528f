package eda

import (
	"context"
	"fmt"
	"net/url"
	"recipe-scraper/pkg/htmlutil"
)

const (
	report_collect_page       = "collect.page"
	report_collect_empty_page = "collect.empty-page"
)

func (c *Client) listingUrl(page int) string {
	return fmt.Sprintf("%s/recepty?page=%d", c.BaseUrl, page)
}

// absoluteLink prefixes relative hrefs with the base url, absolute hrefs are kept.
func (c *Client) absoluteLink(href string) string {
	parsed, err := url.Parse(href)
	if err == nil && parsed.IsAbs() {
		return href
	}
	return c.BaseUrl + href
}

// CollectLinks walks the listing pages starting at page 1 and returns at most `target`
// detail page links in the order they were found.
//
// Pagination stops early, returning what was collected so far, when a page fails
// to load or a page has no recipe links at all.
func (s Scraper) CollectLinks(ctx context.Context, target int) []string {
	links := []string{}
	for page := 1; len(links) < target; page++ {
		if ctx.Err() != nil {
			s.tel.ReportBroken(report_collect_page, ctx.Err(), page)
			break
		}

		doc, err := s.client.Document(ctx, s.client.listingUrl(page))
		if err != nil {
			s.tel.ReportBroken(
				report_collect_page,
				fmt.Errorf("page %d: %w", page, err),
			)
			break
		}

		found := 0
		blocks := doc.Find(listingBlockSelector)
		for i := range blocks.Nodes {
			if len(links) >= target {
				break
			}
			for _, a := range htmlutil.GetAnchors(blocks.Eq(i).Find(listingAnchorSelector)) {
				links = append(links, s.client.absoluteLink(a.Href))
				found++
				if len(links) >= target {
					break
				}
			}
		}

		s.tel.ReportInfo("listing page processed", "page", page, "links", len(links))

		if found == 0 {
			s.tel.ReportWarning(report_collect_empty_page, page)
			break
		}
	}
	return links
}
