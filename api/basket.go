package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/example/marketplace/pkg/cart"
	"github.com/example/marketplace/pkg/models"
	"github.com/example/marketplace/pkg/repository"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type basketRequest struct {
	ID    uint `json:"id" binding:"required"`
	Count int  `json:"count" binding:"required,gt=0"`
}

// materializeCart resolves each cart line into the catalog product
// representation, with the snapshot unit price and quantity in place of
// the live values. A line whose product vanished fails the whole call:
// silently dropping it would leave the total inconsistent.
func (s *Server) materializeCart(ctx context.Context, basket *cart.Cart) ([]models.ProductView, error) {
	views := make([]models.ProductView, 0, len(basket.Items))
	for _, item := range basket.Items {
		product, err := s.catalog.ProductByID(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		view := productView(product)
		view.Price = item.Price
		view.SalePrice = nil
		view.Count = item.Quantity
		views = append(views, view)
	}
	return views, nil
}

func (s *Server) basketResponse(c *gin.Context, basket *cart.Cart) {
	views, err := s.materializeCart(c.Request.Context(), basket)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "product no longer exists"})
		return
	}
	if err != nil {
		s.logger.Error("Failed to materialize basket", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load basket"})
		return
	}
	c.JSON(http.StatusOK, views)
}

func (s *Server) getBasket(c *gin.Context) {
	basket, err := s.store.Cart(c.Request.Context(), sessionToken(c))
	if err != nil {
		s.logger.Error("Failed to load basket", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load basket"})
		return
	}
	s.basketResponse(c, basket)
}

func (s *Server) addToBasket(c *gin.Context) {
	var req basketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, bindingErrors(err))
		return
	}

	product, err := s.catalog.ProductByID(c.Request.Context(), req.ID)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	if err != nil {
		s.logger.Error("Failed to get product", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add to basket"})
		return
	}

	token := sessionToken(c)
	basket, err := s.store.Cart(c.Request.Context(), token)
	if err != nil {
		s.logger.Error("Failed to load basket", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load basket"})
		return
	}

	// Customers pay the discounted price, so the snapshot captures it.
	price := product.Price
	if sale := product.SalePrice(); sale != nil {
		price = *sale
	}
	basket.Add(req.ID, req.Count, price)

	if err := s.store.SaveCart(c.Request.Context(), token, basket, s.config.Session.TTL); err != nil {
		s.logger.Error("Failed to save basket", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save basket"})
		return
	}
	s.basketResponse(c, basket)
}

func (s *Server) removeFromBasket(c *gin.Context) {
	var req basketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, bindingErrors(err))
		return
	}

	token := sessionToken(c)
	basket, err := s.store.Cart(c.Request.Context(), token)
	if err != nil {
		s.logger.Error("Failed to load basket", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load basket"})
		return
	}

	basket.Remove(req.ID, req.Count)

	if err := s.store.SaveCart(c.Request.Context(), token, basket, s.config.Session.TTL); err != nil {
		s.logger.Error("Failed to save basket", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save basket"})
		return
	}
	s.basketResponse(c, basket)
}
