package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"storefront-api/internal/catalog"
	logx "storefront-api/pkg/logger"
)

// extractScript mirrors extractCard for pages whose cards only exist after
// client-side rendering.
const extractScript = `
(() => {
  const value = (el) => {
    if (!el) return "";
    if (el.hasAttribute("content")) return el.getAttribute("content").trim();
    if (el.tagName === "LINK" && el.hasAttribute("href")) return el.getAttribute("href").trim();
    return (el.textContent || "").trim();
  };
  const nested = (card, el) => {
    for (let p = el.parentElement; p && p !== card; p = p.parentElement) {
      if (p.hasAttribute("itemscope")) return true;
    }
    return false;
  };
  const anyProp = (card, name) => value(card.querySelector('[itemprop="' + name + '"]'));
  const ownProp = (card, name) =>
    value(Array.from(card.querySelectorAll('[itemprop="' + name + '"]')).find((el) => !nested(card, el)));
  const data = (card, name) => card.getAttribute("data-" + name) || "";

  return Array.from(document.querySelectorAll('[itemtype$="schema.org/Product"]')).map((card) => ({
    id: data(card, "product-id") || ownProp(card, "sku"),
    name: ownProp(card, "name"),
    description: ownProp(card, "description"),
    price: anyProp(card, "price"),
    originalPrice: data(card, "original-price"),
    brand: anyProp(card, "brand"),
    rating: anyProp(card, "ratingValue"),
    reviewCount: anyProp(card, "reviewCount"),
    availability: anyProp(card, "availability"),
    images: Array.from(card.querySelectorAll('[itemprop="image"]'))
      .map((img) => img.getAttribute("src") || img.getAttribute("content") || img.getAttribute("href") || "")
      .filter(Boolean),
    category: data(card, "category") || ownProp(card, "category"),
    subcategory: data(card, "subcategory"),
    stock: data(card, "stock"),
    tags: data(card, "tags"),
    featured: data(card, "featured"),
  }));
})()
`

// RenderedImporter loads the listing in headless Chrome and extracts the
// cards from the rendered DOM.
type RenderedImporter struct {
	cfg Config
}

func NewRenderedImporter(cfg Config) *RenderedImporter {
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	return &RenderedImporter{cfg: cfg}
}

func (r *RenderedImporter) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.UserAgent(r.cfg.UserAgent),
	)
	if r.cfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(r.cfg.ChromePath))
	}
	return opts
}

func (r *RenderedImporter) Import(ctx context.Context, sourceURL string) (catalog.Document, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, r.allocatorOptions()...)
	defer allocCancel()

	taskCtx, taskCancel := chromedp.NewContext(allocCtx)
	defer taskCancel()

	if r.cfg.Timeout > 0 {
		var timeoutCancel context.CancelFunc
		taskCtx, timeoutCancel = context.WithTimeout(taskCtx, r.cfg.Timeout)
		defer timeoutCancel()
	}

	logx.Info().Str("url", sourceURL).Msg("loading listing in headless chrome")

	var raws []rawProduct
	err := chromedp.Run(taskCtx,
		chromedp.Navigate(sourceURL),
		chromedp.WaitVisible("body", chromedp.ByQuery),
		chromedp.Sleep(r.cfg.Delay),
		chromedp.Evaluate(extractScript, &raws),
	)
	if err != nil {
		return catalog.Document{}, fmt.Errorf("render %s: %w", sourceURL, err)
	}

	doc := buildDocument(raws, time.Now().UTC())
	logx.Info().Str("source", sourceURL).Int("cards", len(raws)).Int("products", len(doc.Products)).Msg("rendered import finished")
	return doc, nil
}
