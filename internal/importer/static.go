package importer

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"storefront-api/internal/catalog"
	logx "storefront-api/pkg/logger"
)

const productSelector = `[itemtype$="schema.org/Product"]`

// StaticImporter reads server-rendered listing pages with colly and follows
// rel="next" links up to MaxPages pages.
type StaticImporter struct {
	cfg Config
}

func NewStaticImporter(cfg Config) *StaticImporter {
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.MaxPages < 1 {
		cfg.MaxPages = 1
	}
	return &StaticImporter{cfg: cfg}
}

func (s *StaticImporter) collector(ctx context.Context, host string) *colly.Collector {
	c := colly.NewCollector(
		colly.AllowedDomains(host),
		colly.MaxDepth(s.cfg.MaxPages),
		colly.UserAgent(s.cfg.UserAgent),
		colly.StdlibContext(ctx),
	)
	if s.cfg.Timeout > 0 {
		c.SetRequestTimeout(s.cfg.Timeout)
	}

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		r.Headers.Set("Accept-Language", "en-US,en;q=0.5")
	})

	_ = c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
		Delay:       s.cfg.Delay,
	})
	return c
}

func (s *StaticImporter) Import(ctx context.Context, sourceURL string) (catalog.Document, error) {
	u, err := url.Parse(sourceURL)
	if err != nil || u.Hostname() == "" {
		return catalog.Document{}, fmt.Errorf("invalid source url %q", sourceURL)
	}

	var (
		mu      sync.Mutex
		raws    []rawProduct
		pageErr error
	)

	c := s.collector(ctx, u.Hostname())

	c.OnHTML(productSelector, func(e *colly.HTMLElement) {
		raw := extractCard(e.DOM)
		mu.Lock()
		raws = append(raws, raw)
		mu.Unlock()
	})

	c.OnHTML(`a[rel="next"]`, func(e *colly.HTMLElement) {
		if err := e.Request.Visit(e.Attr("href")); err != nil {
			logx.Debug().Err(err).Str("href", e.Attr("href")).Msg("not following next page")
		}
	})

	c.OnResponse(func(r *colly.Response) {
		logx.Debug().Str("url", r.Request.URL.String()).Int("status", r.StatusCode).Msg("listing page fetched")
	})

	c.OnError(func(r *colly.Response, err error) {
		logx.Error().Err(err).Str("url", r.Request.URL.String()).Int("status", r.StatusCode).Msg("listing page failed")
		mu.Lock()
		if pageErr == nil {
			pageErr = fmt.Errorf("fetch %s: %w", r.Request.URL, err)
		}
		mu.Unlock()
	})

	if err := c.Visit(sourceURL); err != nil {
		return catalog.Document{}, fmt.Errorf("visit %s: %w", sourceURL, err)
	}
	c.Wait()

	if err := ctx.Err(); err != nil {
		return catalog.Document{}, err
	}
	if pageErr != nil && len(raws) == 0 {
		return catalog.Document{}, pageErr
	}

	doc := buildDocument(raws, time.Now().UTC())
	logx.Info().Str("source", sourceURL).Int("cards", len(raws)).Int("products", len(doc.Products)).Msg("static import finished")
	return doc, nil
}

// extractCard reads one Product itemscope. Properties belonging to nested
// items (a Brand's name, say) are not mistaken for the product's own.
func extractCard(card *goquery.Selection) rawProduct {
	raw := rawProduct{
		ID:            card.AttrOr("data-product-id", ""),
		Name:          ownProp(card, "name"),
		Description:   ownProp(card, "description"),
		Price:         anyProp(card, "price"),
		OriginalPrice: card.AttrOr("data-original-price", ""),
		Brand:         anyProp(card, "brand"),
		Rating:        anyProp(card, "ratingValue"),
		ReviewCount:   anyProp(card, "reviewCount"),
		Availability:  anyProp(card, "availability"),
		Category:      card.AttrOr("data-category", ""),
		Subcategory:   card.AttrOr("data-subcategory", ""),
		Stock:         card.AttrOr("data-stock", ""),
		Tags:          card.AttrOr("data-tags", ""),
		Featured:      card.AttrOr("data-featured", ""),
	}
	if raw.ID == "" {
		raw.ID = ownProp(card, "sku")
	}
	if raw.Category == "" {
		raw.Category = ownProp(card, "category")
	}
	card.Find(`[itemprop="image"]`).Each(func(_ int, img *goquery.Selection) {
		src := img.AttrOr("src", img.AttrOr("content", img.AttrOr("href", "")))
		if src != "" {
			raw.Images = append(raw.Images, src)
		}
	})
	return raw
}

func propValue(s *goquery.Selection) string {
	if v, ok := s.Attr("content"); ok {
		return strings.TrimSpace(v)
	}
	if v, ok := s.Attr("href"); ok && s.Is("link") {
		return strings.TrimSpace(v)
	}
	return strings.TrimSpace(s.Text())
}

// anyProp returns the first itemprop match anywhere in the card.
func anyProp(card *goquery.Selection, name string) string {
	sel := card.Find(`[itemprop="` + name + `"]`).First()
	if sel.Length() == 0 {
		return ""
	}
	return propValue(sel)
}

// ownProp returns the first match that is not inside a nested itemscope.
func ownProp(card *goquery.Selection, name string) string {
	sel := card.Find(`[itemprop="` + name + `"]`).FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.ParentsUntilSelection(card).Filter("[itemscope]").Length() == 0
	}).First()
	if sel.Length() == 0 {
		return ""
	}
	return propValue(sel)
}
