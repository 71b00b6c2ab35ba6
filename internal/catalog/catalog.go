package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"storefront-api/internal/models"
	"storefront-api/pkg/utils"
)

//go:embed data/seed.json
var seed []byte

// Document is the on-disk catalog format, shared with the importer.
type Document struct {
	Categories []models.Category `json:"categories"`
	Products   []models.Product  `json:"products"`
}

// Catalog is the read-only product list. Products are loaded once and shared
// by pointer; nothing mutates them afterwards.
type Catalog struct {
	products   []*models.Product
	byID       map[string]*models.Product
	categories []models.Category
}

// Default returns the catalog built from the embedded sample data.
func Default() *Catalog {
	c, err := Parse(seed)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return c
}

// LoadFile reads a catalog document from path.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return New(doc)
}

// New validates doc and indexes its products. Duplicate or empty ids are rejected.
func New(doc Document) (*Catalog, error) {
	c := &Catalog{
		products:   make([]*models.Product, 0, len(doc.Products)),
		byID:       make(map[string]*models.Product, len(doc.Products)),
		categories: doc.Categories,
	}
	for i := range doc.Products {
		p := doc.Products[i]
		if p.ID == "" {
			return nil, fmt.Errorf("product %q has no id", p.Name)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate product id %q", p.ID)
		}
		if p.Price < 0 {
			return nil, fmt.Errorf("product %q has a negative price", p.ID)
		}
		c.products = append(c.products, &p)
		c.byID[p.ID] = &p
	}
	for i := range c.categories {
		if c.categories[i].Slug == "" {
			c.categories[i].Slug = utils.GenerateSlug(c.categories[i].Name)
		}
		for j := range c.categories[i].Children {
			child := &c.categories[i].Children[j]
			if child.Slug == "" {
				child.Slug = utils.GenerateSlug(child.Name)
			}
			child.ParentID = c.categories[i].ID
		}
	}
	return c, nil
}

// Products returns the catalog in catalog order. The slice is a copy.
func (c *Catalog) Products() []*models.Product {
	out := make([]*models.Product, len(c.products))
	copy(out, c.products)
	return out
}

func (c *Catalog) Product(id string) (*models.Product, bool) {
	p, ok := c.byID[id]
	return p, ok
}

func (c *Catalog) Total() int {
	return len(c.products)
}

func (c *Catalog) Categories() []models.Category {
	out := make([]models.Category, len(c.categories))
	copy(out, c.categories)
	return out
}

// Featured returns up to limit featured products; limit <= 0 means all.
func (c *Catalog) Featured(limit int) []*models.Product {
	return c.collect(limit, func(p *models.Product) bool { return p.Featured })
}

func (c *Catalog) OnSale() []*models.Product {
	return c.collect(0, func(p *models.Product) bool { return p.OnSale })
}

// Related returns other products of the same category.
func (c *Catalog) Related(id string, limit int) []*models.Product {
	p, ok := c.byID[id]
	if !ok {
		return []*models.Product{}
	}
	return c.collect(limit, func(o *models.Product) bool {
		return o.ID != p.ID && o.Category == p.Category
	})
}

func (c *Catalog) collect(limit int, keep func(*models.Product) bool) []*models.Product {
	out := make([]*models.Product, 0)
	for _, p := range c.products {
		if limit > 0 && len(out) == limit {
			break
		}
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

// Facets summarises brands, categories and the price span of the catalog.
func (c *Catalog) Facets() models.Facets {
	f := models.Facets{
		Brands:     []models.BrandFacet{},
		Categories: []models.CategoryFacet{},
	}
	if len(c.products) == 0 {
		return f
	}

	brands := map[string]int{}
	categories := map[string]int{}
	f.MinPrice = math.Inf(1)
	f.MaxPrice = math.Inf(-1)
	for _, p := range c.products {
		brands[p.Brand]++
		categories[p.Category]++
		f.MinPrice = math.Min(f.MinPrice, p.Price)
		f.MaxPrice = math.Max(f.MaxPrice, p.Price)
	}

	for name, n := range brands {
		f.Brands = append(f.Brands, models.BrandFacet{Name: name, Count: n})
	}
	sort.Slice(f.Brands, func(i, j int) bool {
		return strings.ToLower(f.Brands[i].Name) < strings.ToLower(f.Brands[j].Name)
	})

	// Category order follows the category tree, then any stray names.
	seen := map[string]bool{}
	for _, cat := range c.categories {
		if n, ok := categories[cat.Name]; ok {
			f.Categories = append(f.Categories, models.CategoryFacet{Name: cat.Name, Slug: cat.Slug, Count: n})
			seen[cat.Name] = true
		}
	}
	var stray []string
	for name := range categories {
		if !seen[name] {
			stray = append(stray, name)
		}
	}
	sort.Strings(stray)
	for _, name := range stray {
		f.Categories = append(f.Categories, models.CategoryFacet{Name: name, Slug: utils.GenerateSlug(name), Count: categories[name]})
	}
	return f
}

// DiscountPercent is the rounded saving against the original price, or 0.
func DiscountPercent(p *models.Product) int {
	if p.OriginalPrice == nil || *p.OriginalPrice <= p.Price || *p.OriginalPrice == 0 {
		return 0
	}
	return int(math.Round((*p.OriginalPrice - p.Price) / *p.OriginalPrice * 100))
}
