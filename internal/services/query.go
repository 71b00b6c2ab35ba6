package services

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"
	"time"

	"storefront-api/internal/catalog"
	"storefront-api/internal/core/errx"
	"storefront-api/internal/models"
	"storefront-api/pkg/cache"
	logx "storefront-api/pkg/logger"
	"storefront-api/pkg/utils"
)

const MaxPageSize = 100

var (
	validSortFields = []string{
		models.SortByName, models.SortByPrice, models.SortByRating,
		models.SortByRecency, models.SortByNewest, models.SortByPopularity,
	}
	validSortOrders = []string{models.SortAsc, models.SortDesc}
)

type QueryService struct {
	catalog *catalog.Catalog
	cache   *cache.RedisCache
}

func NewQueryService(cat *catalog.Catalog, queryCache *cache.RedisCache) *QueryService {
	return &QueryService{catalog: cat, cache: queryCache}
}

// Search validates params, runs the filter/sort pipeline over the catalog and
// returns the requested page. Responses are cached when Redis is available.
func (s *QueryService) Search(ctx context.Context, params models.QueryParams) (*models.QueryResponse, error) {
	startTime := time.Now()

	if err := ValidateQueryParams(&params); err != nil {
		return nil, err
	}

	cacheKey := ""
	if s.cache.IsAvailable() {
		cacheKey = s.cache.GenerateQueryKey(params)
		cached, err := s.cache.GetQueryResults(ctx, cacheKey)
		if err != nil {
			logx.Warn().Err(err).Str("key", cacheKey).Msg("query cache read failed")
		} else if cached != nil {
			cached.Duration = fmt.Sprintf("%s (cached)", time.Since(startTime).String())
			cached.Cached = true
			logx.Debug().Str("key", cacheKey).Msg("query cache hit")
			return cached, nil
		}
		logx.Debug().Str("key", cacheKey).Msg("query cache miss")
	}

	filtered := ApplyQuery(s.catalog.Products(), params)
	page, totalPages := applyPagination(filtered, params.Page, params.Limit)

	response := &models.QueryResponse{
		Products:     page,
		Total:        len(filtered),
		CatalogTotal: s.catalog.Total(),
		Page:         params.Page,
		Limit:        params.Limit,
		TotalPages:   totalPages,
		Params:       params,
		Duration:     time.Since(startTime).String(),
	}

	if cacheKey != "" {
		if err := s.cache.SetQueryResults(ctx, cacheKey, response); err != nil {
			logx.Warn().Err(err).Str("key", cacheKey).Msg("failed to cache query results")
		}
	}
	return response, nil
}

// ValidateQueryParams rejects out-of-range values and fills in defaults for
// sort, page and limit.
func ValidateQueryParams(params *models.QueryParams) error {
	f := &params.Filters

	if f.SortBy == "" {
		f.SortBy = models.SortByName
	}
	if f.SortOrder == "" {
		f.SortOrder = models.SortAsc
	}
	f.SortBy = strings.ToLower(f.SortBy)
	f.SortOrder = strings.ToLower(f.SortOrder)

	if !slices.Contains(validSortFields, f.SortBy) {
		return errx.InvalidArgumentf("invalid sort field: %s. Valid fields: %s", f.SortBy, strings.Join(validSortFields, ", "))
	}
	if !slices.Contains(validSortOrders, f.SortOrder) {
		return errx.InvalidArgumentf("invalid sort order: %s. Valid orders: %s", f.SortOrder, strings.Join(validSortOrders, ", "))
	}
	if f.SortBy == models.SortByNewest {
		f.SortBy = models.SortByRecency
	}

	if f.PriceRange[0] < 0 || f.PriceRange[1] < 0 {
		return errx.InvalidArgument("price bounds cannot be negative")
	}
	if f.PriceRange[1] < f.PriceRange[0] {
		return errx.InvalidArgument("maximum price cannot be less than minimum price")
	}
	if f.MinRating < 0 || f.MinRating > 5 {
		return errx.InvalidArgument("minimum rating must be between 0 and 5")
	}

	if params.Page == 0 {
		params.Page = 1
	}
	if params.Page < 1 {
		return errx.InvalidArgument("page must be at least 1")
	}
	if params.Limit < 0 || params.Limit > MaxPageSize {
		return errx.InvalidArgumentf("limit must be between 0 and %d", MaxPageSize)
	}
	return nil
}

// ApplyQuery filters and sorts products. It never modifies its input and
// returns the same order for the same params. Callers should start
// params.Filters from models.DefaultFilterSpec(): a zero PriceRange matches
// only free products.
func ApplyQuery(products []*models.Product, params models.QueryParams) []*models.Product {
	filtered := applyFilters(products, params)
	applySorting(filtered, params.Filters.SortBy, params.Filters.SortOrder)
	return filtered
}

func applyFilters(products []*models.Product, params models.QueryParams) []*models.Product {
	f := params.Filters
	term := strings.ToLower(strings.TrimSpace(params.Search))

	categories := make([]string, 0, len(f.Categories)+1)
	if c := strings.TrimSpace(params.Category); c != "" {
		categories = append(categories, c)
	}
	for _, c := range f.Categories {
		if c = strings.TrimSpace(c); c != "" {
			categories = append(categories, c)
		}
	}

	filtered := make([]*models.Product, 0, len(products))
	for _, product := range products {
		if term != "" && !matchesTerm(product, term) {
			continue
		}
		if len(categories) > 0 && !matchesCategory(product, categories) {
			continue
		}
		if len(f.Brands) > 0 && !matchesBrand(product, f.Brands) {
			continue
		}
		if product.Price < f.PriceRange[0] || product.Price > f.PriceRange[1] {
			continue
		}
		if f.MinRating > 0 && product.Rating < f.MinRating {
			continue
		}
		if f.InStockOnly && !product.InStock {
			continue
		}
		if (f.OnSaleOnly || params.SaleOnly) && !product.OnSale {
			continue
		}
		filtered = append(filtered, product)
	}
	return filtered
}

func matchesTerm(p *models.Product, term string) bool {
	if strings.Contains(strings.ToLower(p.Name), term) ||
		strings.Contains(strings.ToLower(p.Description), term) ||
		strings.Contains(strings.ToLower(p.Brand), term) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), term) {
			return true
		}
	}
	return false
}

// matchesCategory accepts either the display name or the slug of the
// product's category or subcategory.
func matchesCategory(p *models.Product, selected []string) bool {
	for _, want := range selected {
		for _, have := range []string{p.Category, p.Subcategory} {
			if have == "" {
				continue
			}
			if strings.EqualFold(want, have) || strings.EqualFold(want, utils.GenerateSlug(have)) {
				return true
			}
		}
	}
	return false
}

func matchesBrand(p *models.Product, brands []string) bool {
	for _, b := range brands {
		if strings.EqualFold(strings.TrimSpace(b), p.Brand) {
			return true
		}
	}
	return false
}

// applySorting is a stable sort. Descending order swaps the comparator
// arguments rather than reversing the result, so equal keys keep catalog
// order in both directions.
func applySorting(products []*models.Product, field, order string) {
	less := comparator(field)
	if order == models.SortDesc {
		asc := less
		less = func(a, b *models.Product) bool { return asc(b, a) }
	}
	sort.SliceStable(products, func(i, j int) bool {
		return less(products[i], products[j])
	})
}

func comparator(field string) func(a, b *models.Product) bool {
	switch field {
	case models.SortByPrice:
		return func(a, b *models.Product) bool { return a.Price < b.Price }
	case models.SortByRating:
		return func(a, b *models.Product) bool { return a.Rating < b.Rating }
	case models.SortByRecency, models.SortByNewest:
		return func(a, b *models.Product) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case models.SortByPopularity:
		return func(a, b *models.Product) bool { return a.ReviewCount < b.ReviewCount }
	default:
		return func(a, b *models.Product) bool {
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		}
	}
}

// applyPagination slices one page. A limit of 0 returns everything.
func applyPagination(products []*models.Product, page, limit int) ([]*models.Product, int) {
	total := len(products)
	if limit <= 0 {
		if total == 0 {
			return products, 0
		}
		return products, 1
	}
	totalPages := int(math.Ceil(float64(total) / float64(limit)))

	start := (page - 1) * limit
	if start >= total {
		return []*models.Product{}, totalPages
	}

	end := start + limit
	if end > total {
		end = total
	}
	return products[start:end], totalPages
}
