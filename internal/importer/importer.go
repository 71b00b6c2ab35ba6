// Package importer regenerates the catalog document from a product listing
// page. Product cards are read from schema.org Product microdata plus a few
// data-* attributes for what microdata has no property for.
package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"storefront-api/internal/catalog"
	"storefront-api/internal/models"
	logx "storefront-api/pkg/logger"
	"storefront-api/pkg/utils"
)

const (
	ModeStatic   = "static"
	ModeRendered = "rendered"

	defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Config is read from IMPORT_* variables.
type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	SourceURL  string        `envconfig:"IMPORT_SOURCE_URL" required:"true"`
	Output     string        `envconfig:"IMPORT_OUTPUT" default:"catalog.json"`
	Mode       string        `envconfig:"IMPORT_MODE" default:"static"`
	UserAgent  string        `envconfig:"IMPORT_USER_AGENT" default:"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"`
	Delay      time.Duration `envconfig:"IMPORT_DELAY" default:"1s"`
	Timeout    time.Duration `envconfig:"IMPORT_TIMEOUT" default:"45s"`
	MaxPages   int           `envconfig:"IMPORT_MAX_PAGES" default:"1"`
	ChromePath string        `envconfig:"IMPORT_CHROME_PATH"`
}

// Importer turns a listing page into a catalog document.
type Importer interface {
	Import(ctx context.Context, sourceURL string) (catalog.Document, error)
}

// New picks the importer for cfg.Mode.
func New(cfg Config) (Importer, error) {
	switch strings.ToLower(cfg.Mode) {
	case "", ModeStatic:
		return NewStaticImporter(cfg), nil
	case ModeRendered:
		return NewRenderedImporter(cfg), nil
	default:
		return nil, fmt.Errorf("unknown import mode %q", cfg.Mode)
	}
}

// rawProduct is one product card as read from the page, before parsing.
type rawProduct struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Price         string   `json:"price"`
	OriginalPrice string   `json:"originalPrice"`
	Brand         string   `json:"brand"`
	Rating        string   `json:"rating"`
	ReviewCount   string   `json:"reviewCount"`
	Availability  string   `json:"availability"`
	Images        []string `json:"images"`
	Category      string   `json:"category"`
	Subcategory   string   `json:"subcategory"`
	Stock         string   `json:"stock"`
	Tags          string   `json:"tags"`
	Featured      string   `json:"featured"`
}

func (r rawProduct) toProduct(now time.Time) (models.Product, bool) {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return models.Product{}, false
	}

	p := models.Product{
		ID:             strings.TrimSpace(r.ID),
		Name:           name,
		Description:    strings.TrimSpace(r.Description),
		Price:          utils.ParsePrice(r.Price),
		Brand:          strings.TrimSpace(r.Brand),
		Rating:         utils.ParseRating(r.Rating),
		ReviewCount:    utils.ParseCount(r.ReviewCount),
		Category:       strings.TrimSpace(r.Category),
		Subcategory:    strings.TrimSpace(r.Subcategory),
		StockQuantity:  utils.ParseCount(r.Stock),
		Images:         []string{},
		Tags:           []string{},
		Specifications: map[string]string{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if p.ID == "" {
		p.ID = utils.GenerateSlug(name)
	}
	for _, img := range r.Images {
		if img = strings.TrimSpace(img); img != "" {
			p.Images = append(p.Images, img)
		}
	}
	for _, tag := range strings.Split(r.Tags, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			p.Tags = append(p.Tags, tag)
		}
	}
	if original := utils.ParsePrice(r.OriginalPrice); original > p.Price {
		p.OriginalPrice = &original
		p.OnSale = true
	}
	p.Featured, _ = strconv.ParseBool(strings.TrimSpace(r.Featured))

	switch availability := strings.ToLower(r.Availability); {
	case strings.HasSuffix(availability, "outofstock"), strings.HasSuffix(availability, "soldout"):
		p.InStock = false
	case availability != "":
		p.InStock = true
	default:
		p.InStock = p.StockQuantity > 0
	}
	return p, true
}

// buildDocument parses raw cards into a catalog document. Ids are made
// unique and categories are derived from the products' category names.
func buildDocument(raws []rawProduct, now time.Time) catalog.Document {
	doc := catalog.Document{
		Categories: []models.Category{},
		Products:   make([]models.Product, 0, len(raws)),
	}

	seen := map[string]int{}
	for _, raw := range raws {
		p, ok := raw.toProduct(now)
		if !ok {
			continue
		}
		if n := seen[p.ID]; n > 0 {
			seen[p.ID] = n + 1
			p.ID = fmt.Sprintf("%s-%d", p.ID, n+1)
		}
		seen[p.ID]++
		doc.Products = append(doc.Products, p)
	}

	index := map[string]int{}
	for _, p := range doc.Products {
		if p.Category == "" {
			continue
		}
		i, ok := index[p.Category]
		if !ok {
			i = len(doc.Categories)
			index[p.Category] = i
			doc.Categories = append(doc.Categories, models.Category{
				ID:   strconv.Itoa(i + 1),
				Name: p.Category,
				Slug: utils.GenerateSlug(p.Category),
			})
		}
		cat := &doc.Categories[i]
		cat.ProductCount++
		if p.Subcategory == "" {
			continue
		}
		found := false
		for j := range cat.Children {
			if cat.Children[j].Name == p.Subcategory {
				cat.Children[j].ProductCount++
				found = true
				break
			}
		}
		if !found {
			cat.Children = append(cat.Children, models.Category{
				ID:           fmt.Sprintf("%s-%d", cat.ID, len(cat.Children)+1),
				Name:         p.Subcategory,
				Slug:         utils.GenerateSlug(p.Subcategory),
				ParentID:     cat.ID,
				ProductCount: 1,
			})
		}
	}
	return doc
}

// WriteDocument validates doc as a catalog and writes it to path.
func WriteDocument(path string, doc catalog.Document) error {
	if _, err := catalog.New(doc); err != nil {
		return fmt.Errorf("imported catalog is invalid: %w", err)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write catalog %s: %w", path, err)
	}
	logx.Info().Str("path", path).Int("products", len(doc.Products)).Int("categories", len(doc.Categories)).Msg("catalog written")
	return nil
}
