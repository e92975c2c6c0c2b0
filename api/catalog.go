package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/example/marketplace/pkg/repository"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 1
	maxPageSize     = 100
)

func (s *Server) listCategories(c *gin.Context) {
	categories, err := s.catalog.Categories(c.Request.Context())
	if err != nil {
		s.logger.Error("Failed to list categories", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list categories"})
		return
	}
	views := make([]categoryResponse, 0, len(categories))
	for _, category := range categories {
		views = append(views, categoryView(category))
	}
	c.JSON(http.StatusOK, views)
}

// parseCatalogQuery builds the typed filter from the query string.
// Every parameter is optional; a missing key and an empty value both
// mean "no filter".
func parseCatalogQuery(c *gin.Context) (repository.ProductFilter, error) {
	var filter repository.ProductFilter

	if name := c.Query("filter[name]"); name != "" {
		filter.Name = &name
	}
	if raw := c.Query("filter[minPrice]"); raw != "" {
		min, err := decimal.NewFromString(raw)
		if err != nil {
			return filter, errors.New("filter[minPrice] must be a number")
		}
		filter.MinPrice = &min
	}
	if raw := c.Query("filter[maxPrice]"); raw != "" {
		max, err := decimal.NewFromString(raw)
		if err != nil {
			return filter, errors.New("filter[maxPrice] must be a number")
		}
		filter.MaxPrice = &max
	}
	if raw := c.Query("filter[freeDelivery]"); raw != "" {
		free, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, errors.New("filter[freeDelivery] must be a boolean")
		}
		filter.FreeDelivery = &free
	}
	if raw := c.Query("filter[available]"); raw != "" {
		available, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, errors.New("filter[available] must be a boolean")
		}
		filter.Available = &available
	}
	if raw := c.Query("category"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return filter, errors.New("category must be an integer id")
		}
		categoryID := uint(id)
		filter.CategoryID = &categoryID
	}

	filter.Sort = c.Query("sort")
	// The storefront historically sent "dec" for descending.
	sortType := c.Query("sortType")
	filter.Descending = sortType == "desc" || sortType == "dec"

	return filter, nil
}

func parsePagination(c *gin.Context) (page, limit int, err error) {
	page = 1
	if raw := c.Query("page"); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil || page < 1 {
			return 0, 0, errors.New("page must be a positive integer")
		}
	}
	limit = defaultPageSize
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return 0, 0, errors.New("limit must be a positive integer")
		}
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit, nil
}

func (s *Server) listCatalog(c *gin.Context) {
	filter, err := parseCatalogQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	page, limit, err := parsePagination(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	products, total, err := s.catalog.Products(c.Request.Context(), filter, page, limit)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "category not found"})
		return
	}
	if err != nil {
		s.logger.Error("Failed to list catalog", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list catalog"})
		return
	}
	c.JSON(http.StatusOK, newPage(productViews(products), page, limit, total))
}

func (s *Server) popularProducts(c *gin.Context) {
	products, err := s.catalog.PopularProducts(c.Request.Context())
	if err != nil {
		s.logger.Error("Failed to list popular products", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list products"})
		return
	}
	c.JSON(http.StatusOK, productViews(products))
}

func (s *Server) limitedProducts(c *gin.Context) {
	products, err := s.catalog.LimitedProducts(c.Request.Context())
	if err != nil {
		s.logger.Error("Failed to list limited products", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list products"})
		return
	}
	c.JSON(http.StatusOK, productViews(products))
}

func (s *Server) saleProducts(c *gin.Context) {
	page, limit, err := parsePagination(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	products, total, err := s.catalog.SaleProducts(c.Request.Context(), page, limit)
	if err != nil {
		s.logger.Error("Failed to list sale products", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list products"})
		return
	}
	c.JSON(http.StatusOK, newPage(productViews(products), page, limit, total))
}

func (s *Server) bannerProducts(c *gin.Context) {
	products, err := s.catalog.BannerProducts(c.Request.Context())
	if err != nil {
		s.logger.Error("Failed to list banner products", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list products"})
		return
	}
	views := productViews(products)
	c.JSON(http.StatusOK, pageResponse{Items: views, CurrentPage: 1, LastPage: 1})
}

func (s *Server) listTags(c *gin.Context) {
	tags, err := s.catalog.Tags(c.Request.Context())
	if err != nil {
		s.logger.Error("Failed to list tags", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list tags"})
		return
	}
	c.JSON(http.StatusOK, tags)
}

func (s *Server) productDetail(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product id must be an integer"})
		return
	}
	product, err := s.catalog.ProductByID(c.Request.Context(), uint(id))
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	if err != nil {
		s.logger.Error("Failed to get product", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get product"})
		return
	}
	c.JSON(http.StatusOK, productDetailView(product))
}

type reviewRequest struct {
	Text string `json:"text" binding:"required"`
	Rate *int   `json:"rate" binding:"required,gte=0"`
}

func (s *Server) createReview(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product id must be an integer"})
		return
	}

	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, bindingErrors(err))
		return
	}

	userID := currentUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	review, err := s.catalog.CreateReview(c.Request.Context(), uint(id), userID, *req.Rate, req.Text)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	if err != nil {
		s.logger.Error("Failed to create review", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create review"})
		return
	}

	s.auditLog(repository.AuditCreateReview, repository.EntityKey(repository.EntityReview, review.ID), userID,
		bson.M{"product_id": id, "rate": *req.Rate})
	c.JSON(http.StatusOK, "successful operation")
}
