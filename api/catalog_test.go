package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/example/marketplace/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListCategories(t *testing.T) {
	ts := newTestServer(t)
	top := ts.seedCategory(t, "Electronics", nil)
	ts.seedCategory(t, "Phones", &top.ID)
	inactive := &models.Category{Title: "Hidden", Active: false}
	require.NoError(t, ts.db.Create(inactive).Error)

	recorder := ts.do(t, http.MethodGet, "/api/categories", nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var categories []struct {
		ID    uint `json:"id"`
		Title string
		Image struct {
			Src string `json:"src"`
			Alt string `json:"alt"`
		}
		Subcategories []struct {
			Title string
		}
	}
	decodeJSON(t, recorder, &categories)
	require.Len(t, categories, 1)
	assert.Equal(t, "Electronics", categories[0].Title)
	assert.Equal(t, "", categories[0].Image.Src)
	assert.Equal(t, "Electronics", categories[0].Image.Alt)
	require.Len(t, categories[0].Subcategories, 1)
	assert.Equal(t, "Phones", categories[0].Subcategories[0].Title)
}

func TestCatalogFilters(t *testing.T) {
	ts := newTestServer(t)
	category := ts.seedCategory(t, "Goods", nil)
	ts.seedProduct(t, category.ID, "P1", "10")
	ts.seedProduct(t, category.ID, "P2", "50", func(p *models.Product) {
		p.FreeDelivery = false
		p.Available = false
	})

	var page struct {
		Items       []map[string]interface{} `json:"items"`
		CurrentPage int                      `json:"currentPage"`
		LastPage    int                      `json:"lastPage"`
	}

	recorder := ts.do(t, http.MethodGet, "/api/catalog?filter[minPrice]=20&limit=100", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	decodeJSON(t, recorder, &page)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "P2", page.Items[0]["title"])

	recorder = ts.do(t, http.MethodGet, "/api/catalog?filter[freeDelivery]=true&limit=100", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	decodeJSON(t, recorder, &page)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "P1", page.Items[0]["title"])
}

func TestCatalogPaginationEnvelope(t *testing.T) {
	ts := newTestServer(t)
	category := ts.seedCategory(t, "Goods", nil)
	for _, title := range []string{"a", "b", "c"} {
		ts.seedProduct(t, category.ID, title, "10")
	}

	var page struct {
		Items       []map[string]interface{} `json:"items"`
		CurrentPage int                      `json:"currentPage"`
		LastPage    int                      `json:"lastPage"`
	}

	recorder := ts.do(t, http.MethodGet, "/api/catalog?limit=2&page=2", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	decodeJSON(t, recorder, &page)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, 2, page.CurrentPage)
	assert.Equal(t, 2, page.LastPage)

	// The default page size is one item.
	recorder = ts.do(t, http.MethodGet, "/api/catalog", nil)
	decodeJSON(t, recorder, &page)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, 3, page.LastPage)
}

func TestCatalogUnknownCategoryIsNotFound(t *testing.T) {
	ts := newTestServer(t)
	recorder := ts.do(t, http.MethodGet, "/api/catalog?category=12345", nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestSalePricePresentOnlyWithDiscount(t *testing.T) {
	ts := newTestServer(t)
	category := ts.seedCategory(t, "Goods", nil)
	ts.seedProduct(t, category.ID, "plain", "100")
	ts.seedProduct(t, category.ID, "discounted", "100", func(p *models.Product) { p.Discount = 10 })

	recorder := ts.do(t, http.MethodGet, "/api/catalog?limit=100", nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var page struct {
		Items []map[string]interface{} `json:"items"`
	}
	decodeJSON(t, recorder, &page)
	require.Len(t, page.Items, 2)

	plain, discounted := page.Items[0], page.Items[1]
	_, hasSale := plain["salePrice"]
	assert.False(t, hasSale)
	assert.EqualValues(t, 90, discounted["salePrice"])
	assert.EqualValues(t, 100, discounted["price"])
}

func TestProductDetail(t *testing.T) {
	ts := newTestServer(t)
	category := ts.seedCategory(t, "Goods", nil)
	ts.seedProduct(t, category.ID, "widget", "100")

	cookie := ts.signUp(t, "Alice Liddell", "alice")
	recorder := ts.do(t, http.MethodPost, "/api/product/1/reviews", map[string]interface{}{
		"text": "works great",
		"rate": 4,
	}, cookie)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	recorder = ts.do(t, http.MethodGet, "/api/product/1", nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var detail struct {
		Title           string
		FullDescription string `json:"fullDescription"`
		Rating          float64
		Reviews         []struct {
			Author string
			Text   string
			Rate   int
		}
		Specifications []struct{ Name, Value string }
	}
	decodeJSON(t, recorder, &detail)
	assert.Equal(t, "widget", detail.Title)
	assert.Equal(t, "description of widget", detail.FullDescription)
	assert.Equal(t, 4.0, detail.Rating)
	require.Len(t, detail.Reviews, 1)
	assert.Equal(t, "Alice Liddell", detail.Reviews[0].Author)
	assert.Equal(t, "works great", detail.Reviews[0].Text)
	require.Len(t, detail.Specifications, 1)
	assert.Equal(t, "Size", detail.Specifications[0].Name)
}

func TestProductDetailNotFound(t *testing.T) {
	ts := newTestServer(t)
	recorder := ts.do(t, http.MethodGet, "/api/product/777", nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestCreateReviewValidation(t *testing.T) {
	ts := newTestServer(t)
	category := ts.seedCategory(t, "Goods", nil)
	ts.seedProduct(t, category.ID, "widget", "100")
	cookie := ts.signUp(t, "Alice", "alice")

	// Missing fields come back as per-field messages.
	recorder := ts.do(t, http.MethodPost, "/api/product/1/reviews", map[string]interface{}{}, cookie)
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	var body struct {
		Errors map[string]string `json:"errors"`
	}
	decodeJSON(t, recorder, &body)
	assert.Contains(t, body.Errors, "text")
	assert.Contains(t, body.Errors, "rate")

	// Anonymous callers cannot author a review.
	recorder = ts.do(t, http.MethodPost, "/api/product/1/reviews", map[string]interface{}{
		"text": "hi", "rate": 3,
	})
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	// Negative rates are rejected; there is no upper bound.
	recorder = ts.do(t, http.MethodPost, "/api/product/1/reviews", map[string]interface{}{
		"text": "hi", "rate": -1,
	}, cookie)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	recorder = ts.do(t, http.MethodPost, "/api/product/1/reviews", map[string]interface{}{
		"text": "excellent", "rate": 10,
	}, cookie)
	assert.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
}

func TestDerivedSubsets(t *testing.T) {
	ts := newTestServer(t)
	category := ts.seedCategory(t, "Goods", nil)
	ts.seedProduct(t, category.ID, "plain", "100")
	ts.seedProduct(t, category.ID, "discounted", "100", func(p *models.Product) { p.Discount = 50 })
	ts.seedProduct(t, category.ID, "scarce", "100", func(p *models.Product) { p.Quantity = 1 })

	recorder := ts.do(t, http.MethodGet, "/api/products/limited", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	var items []map[string]interface{}
	decodeJSON(t, recorder, &items)
	require.NotEmpty(t, items)
	assert.Equal(t, "scarce", items[0]["title"])

	var page struct {
		Items []map[string]interface{} `json:"items"`
	}
	recorder = ts.do(t, http.MethodGet, "/api/sales?limit=100", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	decodeJSON(t, recorder, &page)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "discounted", page.Items[0]["title"])

	recorder = ts.do(t, http.MethodGet, "/api/banners", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	decodeJSON(t, recorder, &page)
	assert.Len(t, page.Items, 3)

	recorder = ts.do(t, http.MethodGet, "/api/products/popular", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	decodeJSON(t, recorder, &items)
	assert.Len(t, items, 3)
}

func TestTagsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		require.NoError(t, ts.db.Create(&models.Tag{Name: name}).Error)
	}
	recorder := ts.do(t, http.MethodGet, "/api/tags", nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var tags []models.Tag
	decodeJSON(t, recorder, &tags)
	require.Len(t, tags, 5)
	assert.Equal(t, "a", tags[0].Name)
}

func TestCatalogResponseIsDeterministic(t *testing.T) {
	ts := newTestServer(t)
	category := ts.seedCategory(t, "Goods", nil)
	ts.seedProduct(t, category.ID, "widget", "99.99", func(p *models.Product) { p.Discount = 25 })

	first := ts.do(t, http.MethodGet, "/api/catalog?limit=100", nil)
	second := ts.do(t, http.MethodGet, "/api/catalog?limit=100", nil)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, first.Body.Bytes(), second.Body.Bytes())

	// Both renders stay valid JSON.
	var page json.RawMessage
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &page))
}
