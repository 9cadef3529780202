package services

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// priceExpr captures the first numeric value in a price cell, commas allowed.
var priceExpr = regexp.MustCompile(`[\d,]+(?:\.\d+)?`)

// ScrapedPrice is one row lifted from a published market index page.
type ScrapedPrice struct {
	MaterialType   string
	Price          float64
	MarketLocation string
}

// IndexScraper pulls reference prices off a market index page so admins can
// sync the price table without keying rows in one by one. The page is
// expected to render a plain `table.price-index` with material, price and an
// optional location column.
type IndexScraper struct {
	client *http.Client
}

func NewIndexScraper(client *http.Client) *IndexScraper {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &IndexScraper{client: client}
}

// FetchIndex downloads and parses the index page. Rows missing a material
// name or a parseable price are skipped rather than failing the sync.
func (s *IndexScraper) FetchIndex(ctx context.Context, pageURL string) ([]ScrapedPrice, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "scraplink/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request index page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("index page returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse index page: %w", err)
	}

	return extractRows(doc), nil
}

func extractRows(doc *goquery.Document) []ScrapedPrice {
	var rows []ScrapedPrice

	doc.Find("table.price-index tbody tr").Each(func(i int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() < 2 {
			return
		}

		material := strings.TrimSpace(cells.Eq(0).Text())
		if material == "" {
			return
		}

		price, ok := parsePriceText(cells.Eq(1).Text())
		if !ok {
			return
		}

		location := ""
		if cells.Length() > 2 {
			location = strings.TrimSpace(cells.Eq(2).Text())
		}

		rows = append(rows, ScrapedPrice{
			MaterialType:   material,
			Price:          price,
			MarketLocation: location,
		})
	})

	return rows
}

// parsePriceText extracts a positive price from cell text like "Rs 670.50/kg".
func parsePriceText(raw string) (float64, bool) {
	match := priceExpr.FindString(raw)
	if match == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", ""), 64)
	if err != nil || value <= 0 {
		return 0, false
	}
	return value, true
}
