package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-api/internal/models"
)

func ids(products []*models.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}

func TestDefaultCatalog(t *testing.T) {
	c := Default()

	assert.Equal(t, 6, c.Total())
	assert.Equal(t, []string{"1", "2", "3", "4", "5", "6"}, ids(c.Products()))
	assert.Len(t, c.Categories(), 4)

	p, ok := c.Product("1")
	require.True(t, ok)
	assert.Equal(t, "iPhone 15 Pro Max", p.Name)
	require.NotNil(t, p.OriginalPrice)
	assert.Equal(t, 1299.0, *p.OriginalPrice)
	assert.Len(t, p.Variants, 6)
	assert.Equal(t, 2024, p.CreatedAt.Year())

	_, ok = c.Product("missing")
	assert.False(t, ok)
}

func TestProductsReturnsCopy(t *testing.T) {
	c := Default()
	list := c.Products()
	list[0] = nil

	assert.NotNil(t, c.Products()[0])
}

func TestFeaturedAndOnSale(t *testing.T) {
	c := Default()

	assert.Equal(t, []string{"1", "2", "6"}, ids(c.Featured(0)))
	assert.Equal(t, []string{"1", "2"}, ids(c.Featured(2)))
	assert.Equal(t, []string{"1", "3", "5"}, ids(c.OnSale()))
}

func TestRelated(t *testing.T) {
	c := Default()

	assert.Equal(t, []string{"2", "3"}, ids(c.Related("1", 4)))
	assert.Empty(t, c.Related("4", 4))
	assert.Empty(t, c.Related("nope", 4))
}

func TestFacets(t *testing.T) {
	f := Default().Facets()

	assert.Equal(t, 29.0, f.MinPrice)
	assert.Equal(t, 2499.0, f.MaxPrice)
	require.Len(t, f.Brands, 5)
	assert.Equal(t, models.BrandFacet{Name: "Apple", Count: 2}, f.Brands[0])
	require.Len(t, f.Categories, 4)
	assert.Equal(t, models.CategoryFacet{Name: "Electronics", Slug: "electronics", Count: 3}, f.Categories[0])
}

func TestSubcategoryParents(t *testing.T) {
	cats := Default().Categories()
	assert.Equal(t, "2", cats[1].Children[0].ParentID)
	assert.Equal(t, "mens-clothing", cats[1].Children[0].Slug)
}

func TestDiscountPercent(t *testing.T) {
	c := Default()
	iphone, _ := c.Product("1")
	chair, _ := c.Product("5")
	mac, _ := c.Product("2")

	assert.Equal(t, 8, DiscountPercent(iphone))
	assert.Equal(t, 25, DiscountPercent(chair))
	assert.Equal(t, 0, DiscountPercent(mac))
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	doc := `{"categories":[{"id":"9","name":"Toys & Games"}],"products":[{"id":"a","name":"Kite","price":12.5,"category":"Toys & Games","brand":"Sky","createdAt":"2024-02-01T00:00:00Z","updatedAt":"2024-02-01T00:00:00Z"}]}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Total())
	assert.Equal(t, "toys-games", c.Categories()[0].Slug)
}

func TestLoadFileErrors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)

	_, err = Parse([]byte(`{"products":[{"id":"a"},{"id":"a"}]}`))
	assert.ErrorContains(t, err, "duplicate product id")

	_, err = Parse([]byte(`{"products":[{"name":"nameless"}]}`))
	assert.ErrorContains(t, err, "has no id")
}
