package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront-api/internal/catalog"
	"storefront-api/internal/core/errx"
	"storefront-api/internal/models"
)

const relatedLimit = 4

// ListProducts runs the catalog query described by the URL.
func (h *Handler) ListProducts(c *gin.Context) {
	params, err := parseQueryParams(c)
	if err != nil {
		respondError(c, err)
		return
	}

	results, err := h.Query.Search(c.Request.Context(), params)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

func (h *Handler) FeaturedProducts(c *gin.Context) {
	limit, err := intQuery(c, "limit", 0)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": h.Catalog.Featured(limit)})
}

func (h *Handler) SaleProducts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"products": h.Catalog.OnSale()})
}

func (h *Handler) Facets(c *gin.Context) {
	c.JSON(http.StatusOK, h.Catalog.Facets())
}

func (h *Handler) ProductDetail(c *gin.Context) {
	id := c.Param("id")
	product, ok := h.Catalog.Product(id)
	if !ok {
		respondError(c, errx.NotFound("product not found"))
		return
	}
	c.JSON(http.StatusOK, models.ProductDetail{
		Product:  product,
		Related:  h.Catalog.Related(id, relatedLimit),
		Discount: catalog.DiscountPercent(product),
	})
}

func (h *Handler) Categories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": h.Catalog.Categories()})
}

// parseQueryParams reads listing parameters from the query string. Absent
// values take the defaults of a cleared filter panel.
func parseQueryParams(c *gin.Context) (models.QueryParams, error) {
	params := models.QueryParams{
		Search:   c.Query("q"),
		Category: c.Query("category"),
		SaleOnly: c.Query("filter") == "sale",
		Filters:  models.DefaultFilterSpec(),
	}
	if params.Search == "" {
		params.Search = c.Query("search")
	}

	f := &params.Filters
	f.Categories = listQuery(c, "categories")
	f.Brands = listQuery(c, "brands")
	if v := c.Query("sort"); v != "" {
		f.SortBy = v
	}
	if v := c.Query("order"); v != "" {
		f.SortOrder = v
	}

	var err error
	if f.PriceRange[0], err = floatQuery(c, "min_price", 0); err != nil {
		return params, err
	}
	if f.PriceRange[1], err = floatQuery(c, "max_price", models.DefaultMaxPrice); err != nil {
		return params, err
	}
	if f.MinRating, err = floatQuery(c, "min_rating", 0); err != nil {
		return params, err
	}
	if f.InStockOnly, err = boolQuery(c, "in_stock"); err != nil {
		return params, err
	}
	if f.OnSaleOnly, err = boolQuery(c, "on_sale"); err != nil {
		return params, err
	}
	if params.Page, err = intQuery(c, "page", 1); err != nil {
		return params, err
	}
	if params.Limit, err = intQuery(c, "limit", 0); err != nil {
		return params, err
	}
	return params, nil
}

func listQuery(c *gin.Context, key string) []string {
	var out []string
	for _, raw := range c.QueryArray(key) {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

func floatQuery(c *gin.Context, key string, def float64) (float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errx.InvalidArgumentf("%s must be a number", key)
	}
	return v, nil
}

func intQuery(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errx.InvalidArgumentf("%s must be an integer", key)
	}
	return v, nil
}

func boolQuery(c *gin.Context, key string) (bool, error) {
	raw := c.Query(key)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, errx.InvalidArgumentf("%s must be true or false", key)
	}
	return v, nil
}
