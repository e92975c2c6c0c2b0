package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/example/marketplace/pkg/models"
	"github.com/example/marketplace/pkg/repository"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func (s *Server) listOrders(c *gin.Context) {
	orders, err := s.orders.ListByUser(c.Request.Context(), currentUserID(c))
	if err != nil {
		s.logger.Error("Failed to list orders", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list orders"})
		return
	}
	views := make([]orderResponse, 0, len(orders))
	for i := range orders {
		view, err := orderView(&orders[i])
		if err != nil {
			s.logger.Error("Failed to decode order snapshot", zap.Uint("order_id", orders[i].ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list orders"})
			return
		}
		views = append(views, view)
	}
	c.JSON(http.StatusOK, views)
}

// createOrder freezes the current basket into a new order: each line is
// materialized with its snapshot price, the total is computed from the
// basket, and the basket is cleared once the row commits.
func (s *Server) createOrder(c *gin.Context) {
	userID := currentUserID(c)
	token := sessionToken(c)

	basket, err := s.store.Cart(c.Request.Context(), token)
	if err != nil {
		s.logger.Error("Failed to load basket", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load basket"})
		return
	}

	items, err := s.materializeCart(c.Request.Context(), basket)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "product no longer exists"})
		return
	}
	if err != nil {
		s.logger.Error("Failed to materialize basket", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create order"})
		return
	}

	order := &models.Order{
		UserID:    userID,
		TotalCost: basket.TotalPrice(),
		Status:    models.OrderStatusAccepted,
	}
	if err := order.SetProducts(items); err != nil {
		s.logger.Error("Failed to encode order snapshot", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create order"})
		return
	}
	if err := s.orders.Create(c.Request.Context(), order); err != nil {
		s.logger.Error("Failed to create order", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create order"})
		return
	}

	basket.Clear()
	if err := s.store.SaveCart(c.Request.Context(), token, basket, s.config.Session.TTL); err != nil {
		s.logger.Warn("Failed to clear basket after order", zap.Uint("order_id", order.ID), zap.Error(err))
	}

	s.auditLog(repository.AuditCreateOrder, repository.EntityKey(repository.EntityOrder, order.ID), userID,
		bson.M{"total_cost": order.TotalCost.String()})
	c.JSON(http.StatusOK, gin.H{"orderId": order.ID})
}

func (s *Server) orderDetail(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "order id must be an integer"})
		return
	}
	order, err := s.orders.ByIDForUser(c.Request.Context(), uint(id), currentUserID(c))
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	if err != nil {
		s.logger.Error("Failed to get order", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get order"})
		return
	}
	view, err := orderView(order)
	if err != nil {
		s.logger.Error("Failed to decode order snapshot", zap.Uint("order_id", order.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get order"})
		return
	}
	c.JSON(http.StatusOK, view)
}

type orderUpdateRequest struct {
	DeliveryType string `json:"deliveryType" binding:"required,oneof=free express"`
	PaymentType  string `json:"paymentType" binding:"required,oneof=online offline"`
	Status       string `json:"status" binding:"required,oneof=accepted rejected delivery delivered"`
	City         string `json:"city" binding:"required"`
	Address      string `json:"address" binding:"required"`
}

func (s *Server) updateOrder(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "order id must be an integer"})
		return
	}

	var req orderUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, bindingErrors(err))
		return
	}

	userID := currentUserID(c)
	err = s.orders.Update(c.Request.Context(), uint(id), userID, repository.OrderUpdate{
		DeliveryType: req.DeliveryType,
		PaymentType:  req.PaymentType,
		Status:       models.OrderStatus(req.Status),
		City:         req.City,
		Address:      req.Address,
	})
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	if err != nil {
		s.logger.Error("Failed to update order", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update order"})
		return
	}

	s.auditLog(repository.AuditUpdateOrder, repository.EntityKey(repository.EntityOrder, uint(id)), userID,
		bson.M{"status": req.Status})
	c.JSON(http.StatusOK, "successful operation")
}

// orderHistory lists the recorded mutations of one of the caller's
// orders, newest first. Without an audit store the trail is empty.
func (s *Server) orderHistory(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "order id must be an integer"})
		return
	}
	if _, err := s.orders.ByIDForUser(c.Request.Context(), uint(id), currentUserID(c)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		s.logger.Error("Failed to get order", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get order"})
		return
	}

	items := make([]gin.H, 0)
	if s.audit != nil {
		entries, err := s.audit.EntityHistory(c.Request.Context(), repository.EntityKey(repository.EntityOrder, uint(id)), 50)
		if err != nil {
			s.logger.Error("Failed to read order history", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read order history"})
			return
		}
		for _, entry := range entries {
			items = append(items, gin.H{"action": entry.Action, "date": entry.CreatedAt})
		}
	}
	c.JSON(http.StatusOK, items)
}

// payment is a placeholder for a real gateway: it echoes a canned
// confirmation and leaves order state untouched.
func (s *Server) payment(c *gin.Context) {
	profile, err := s.users.ProfileByUserID(c.Request.Context(), currentUserID(c))
	if err != nil {
		s.logger.Error("Failed to get profile", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process payment"})
		return
	}
	now := time.Now()
	c.JSON(http.StatusOK, gin.H{
		"number": "9999999999999999",
		"name":   profile.FullName,
		"month":  int(now.Month()),
		"year":   now.Year(),
		"code":   "123",
	})
}
