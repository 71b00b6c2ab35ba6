package models

const (
	SortByName       = "name"
	SortByPrice      = "price"
	SortByRating     = "rating"
	SortByRecency    = "recency"
	SortByNewest     = "newest"
	SortByPopularity = "popularity"

	SortAsc  = "asc"
	SortDesc = "desc"

	DefaultMaxPrice = 5000
)

// FilterSpec is the set of active filter and sort choices for a listing.
type FilterSpec struct {
	Categories  []string   `json:"categories,omitempty"`
	Brands      []string   `json:"brands,omitempty"`
	PriceRange  [2]float64 `json:"priceRange"`
	MinRating   float64    `json:"rating"`
	InStockOnly bool       `json:"inStock"`
	OnSaleOnly  bool       `json:"onSale"`
	SortBy      string     `json:"sortBy"`
	SortOrder   string     `json:"sortOrder"`
}

// DefaultFilterSpec is what "clear filters" resets to.
func DefaultFilterSpec() FilterSpec {
	return FilterSpec{
		PriceRange: [2]float64{0, DefaultMaxPrice},
		SortBy:     SortByName,
		SortOrder:  SortAsc,
	}
}

// QueryParams combines a FilterSpec with the inputs that arrive from the URL.
type QueryParams struct {
	Search   string     `json:"search,omitempty"`
	Category string     `json:"category,omitempty"`
	SaleOnly bool       `json:"sale,omitempty"`
	Filters  FilterSpec `json:"filters"`
	Page     int        `json:"page"`
	Limit    int        `json:"limit"`
}

type QueryResponse struct {
	Products     []*Product  `json:"products"`
	Total        int         `json:"total"`
	CatalogTotal int         `json:"catalogTotal"`
	Page         int         `json:"page"`
	Limit        int         `json:"limit"`
	TotalPages   int         `json:"totalPages"`
	Params       QueryParams `json:"params"`
	Duration     string      `json:"duration"`
	Cached       bool        `json:"cached,omitempty"`
}

type BrandFacet struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type CategoryFacet struct {
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Count int    `json:"count"`
}

type Facets struct {
	Brands     []BrandFacet    `json:"brands"`
	Categories []CategoryFacet `json:"categories"`
	MinPrice   float64         `json:"minPrice"`
	MaxPrice   float64         `json:"maxPrice"`
}
